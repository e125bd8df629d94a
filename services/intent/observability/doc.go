// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability wires tracing, metrics and analysis-record
// export for the intent service.
//
// # Philosophy
//
// Be opinionated about the API, flexible about the backend. OpenTelemetry
// IS the abstraction layer for traces: packages call otel.Tracer()
// directly and operators swap backends by changing exporter
// configuration, not code. Service-level metrics are plain Prometheus
// vectors registered with the default registry, so promhttp.Handler()
// serves both them and anything bridged in through the OTel Prometheus
// exporter.
//
// # Trace Backend (default: OTLP)
//
// Traces export over OTLP gRPC by default, which Jaeger accepts
// natively. Swap to stdout for local debugging via
// OTEL_TRACES_EXPORTER=stdout, or disable with "none".
//
// # Metrics Backend (default: Prometheus)
//
// Metrics are exposed for scraping on the service's /metrics route.
// The OTel Prometheus exporter registers as a collector with the
// default registry, so OTel instruments (the cache counters, for
// example) land in the same scrape output as the promauto vectors.
//
// # Analysis Records (optional: InfluxDB)
//
// When INFLUXDB_URL and INFLUXDB_TOKEN are set, every completed
// analysis writes one time-series point for offline dashboards. The
// sink is best-effort: write failures are logged and swallowed, and
// leaving the variables unset disables it entirely.
package observability
