// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianIntent/services/intent/resilience"
)

const (
	// fastEnoughPriority bounds which backends a caller preference can
	// pin. A preferred provider at or above this rank is overridden by
	// the ranked order, so a slow preference cannot dominate latency.
	fastEnoughPriority = 3

	// defaultRaceSize is how many top-ranked providers Race hedges
	// across when the caller does not say.
	defaultRaceSize = 3

	// defaultAttemptTimeout bounds one generation attempt. A hung
	// backend must time out early enough for retries and failover to
	// still fit inside the caller's deadline.
	defaultAttemptTimeout = 30 * time.Second
)

// Registry owns the configured providers, their circuit breakers, and
// their health records.
//
// Description:
//
//	Providers are registered once at construction and ranked by
//	priority. Availability is recomputed on every call that needs it
//	(no cross-request memoization) so selection never acts on stale
//	probe results. Each provider gets its own circuit breaker; breaker
//	state transitions are logged.
//
// Thread Safety: safe for concurrent use. The provider list is
// immutable after construction; breakers and health records carry
// their own synchronization.
type Registry struct {
	providers      []Provider
	breakers       map[string]*resilience.CircuitBreaker
	health         *resilience.HealthChecker
	retryCfg       resilience.RetryConfig
	attemptTimeout time.Duration
}

// NewRegistry creates a registry over the given providers.
//
// Description:
//
//	Nil entries are skipped, so call sites can pass the result of
//	conditional construction directly ("unconfigured means absent").
//	Providers are sorted ascending by priority; each gets a circuit
//	breaker with the default thresholds.
//
// Inputs:
//   - ps: The configured backends, in any order.
//
// Outputs:
//   - *Registry: Ready for use. A registry over zero providers is
//     valid; every selection on it reports no providers.
func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{
		providers:      make([]Provider, 0, len(ps)),
		breakers:       make(map[string]*resilience.CircuitBreaker, len(ps)),
		health:         resilience.NewHealthChecker(0),
		retryCfg:       resilience.DefaultRetryConfig(),
		attemptTimeout: defaultAttemptTimeout,
	}

	for _, p := range ps {
		if p == nil {
			continue
		}
		name := p.Name()
		cfg := resilience.DefaultCircuitBreakerConfig()
		cfg.OnStateChange = func(from, to resilience.CircuitState) {
			slog.Warn("provider circuit state changed",
				"provider", name,
				"from", from.String(),
				"to", to.String(),
			)
		}
		r.providers = append(r.providers, p)
		r.breakers[name] = resilience.NewCircuitBreaker(cfg)
	}

	sort.SliceStable(r.providers, func(i, j int) bool {
		return r.providers[i].Priority() < r.providers[j].Priority()
	})

	slog.Info("Provider registry initialized", "providers", len(r.providers))
	return r
}

// SetRetryConfig overrides the retry policy used by Generate. Call
// before serving traffic; it is not synchronized with in-flight calls.
func (r *Registry) SetRetryConfig(cfg resilience.RetryConfig) {
	r.retryCfg = cfg
}

// SetAttemptTimeout overrides the per-attempt generation bound. Zero or
// negative disables it, leaving only each backend's own client timeout.
// Call before serving traffic.
func (r *Registry) SetAttemptTimeout(d time.Duration) {
	r.attemptTimeout = d
}

// Providers returns every registered provider in priority order,
// without probing availability.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Lookup returns the named provider, or nil if it is not registered.
func (r *Registry) Lookup(name string) Provider {
	for _, p := range r.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Available probes every provider concurrently and returns the ones
// that answer positive.
//
// Description:
//
//	Probes run in parallel, each bounded by its own internal timeout
//	on top of ctx. The result is sorted by (priority, observed
//	latency) so equal-priority providers rank by measured speed.
//
// Inputs:
//   - ctx: Bounds all probes; a cancelled ctx yields an empty list.
//
// Outputs:
//   - []Provider: Available providers, best first. Never nil.
func (r *Registry) Available(ctx context.Context) []Provider {
	up := make([]bool, len(r.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range r.providers {
		i, p := i, p
		g.Go(func() error {
			up[i] = p.IsAvailable(gctx)
			return nil
		})
	}
	_ = g.Wait()

	avail := make([]Provider, 0, len(r.providers))
	for i, p := range r.providers {
		if up[i] {
			avail = append(avail, p)
		}
	}

	sort.SliceStable(avail, func(i, j int) bool {
		if avail[i].Priority() != avail[j].Priority() {
			return avail[i].Priority() < avail[j].Priority()
		}
		return avail[i].Latency() < avail[j].Latency()
	})
	return avail
}

// Get selects a provider for one generation call.
//
// Description:
//
//	The preferred name is honored only when that provider is available
//	AND fast (priority under fastEnoughPriority); otherwise the best
//	available provider wins. This keeps an explicit preference from
//	routing traffic onto a slow backend when faster ones are up.
//
// Inputs:
//   - ctx: Bounds the availability probes.
//   - preferred: Optional provider name; empty means no preference.
//
// Outputs:
//   - Provider: The selection, or nil when nothing is available.
func (r *Registry) Get(ctx context.Context, preferred string) Provider {
	avail := r.Available(ctx)
	if len(avail) == 0 {
		return nil
	}

	if preferred != "" {
		for _, p := range avail {
			if p.Name() != preferred {
				continue
			}
			if p.Priority() < fastEnoughPriority {
				return p
			}
			slog.Debug("Preferred provider too slow, using ranked order", "preferred", preferred)
			break
		}
	}
	return avail[0]
}

// Race hedges one prompt across the top candidates and returns the
// first success.
//
// Description:
//
//	The top n available providers each get the prompt concurrently.
//	The first success cancels the shared context, which aborts the
//	losers' in-flight HTTP calls. A cancelled loser is not recorded
//	as a provider failure.
//
// Inputs:
//   - ctx: Caller deadline for the whole race.
//   - prompt: The text to complete.
//   - params: Sampling parameters passed to every candidate.
//   - n: Candidate count; n <= 0 means defaultRaceSize.
//
// Outputs:
//   - string: The winning completion.
//   - string: The winning provider's name.
//   - error: ErrNoProviders when nothing is available or every
//     candidate failed.
func (r *Registry) Race(ctx context.Context, prompt string, params GenerationParams, n int) (string, string, error) {
	if n <= 0 {
		n = defaultRaceSize
	}
	candidates := r.Available(ctx)
	if len(candidates) == 0 {
		return "", "", resilience.ErrNoProviders
	}
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		name string
		text string
		err  error
	}
	results := make(chan outcome, len(candidates))

	for _, p := range candidates {
		p := p
		go func() {
			text, err := r.generateOnce(raceCtx, p, prompt, params)
			results <- outcome{name: p.Name(), text: text, err: err}
		}()
	}

	var errs []error
	for range candidates {
		o := <-results
		if o.err == nil {
			cancel()
			slog.Debug("Race won", "provider", o.name)
			return o.text, o.name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", o.name, o.err))
	}
	return "", "", fmt.Errorf("%w: all race candidates failed: %v",
		resilience.ErrNoProviders, errors.Join(errs...))
}

// generateOnce runs a single breaker-guarded generation, bounded by the
// per-attempt timeout. Failures caused by the surrounding race being
// cancelled are not charged to the provider.
func (r *Registry) generateOnce(ctx context.Context, p Provider, prompt string, params GenerationParams) (string, error) {
	cb := r.breakers[p.Name()]
	if cb != nil && !cb.Allow() {
		observeBreaker(p.Name(), cb)
		return "", resilience.ErrCircuitOpen
	}

	start := time.Now()
	var text string
	err := resilience.WithTimeout(ctx, r.attemptTimeout, func(ctx context.Context) error {
		var genErr error
		text, genErr = p.Generate(ctx, prompt, params)
		return genErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			recordCall(p.Name(), outcomeCanceled, time.Since(start).Seconds())
			return "", err
		}
		if cb != nil {
			cb.RecordFailure()
		}
		recordCall(p.Name(), outcomeError, time.Since(start).Seconds())
		observeBreaker(p.Name(), cb)
		r.health.RecordFailure(p.Name(), err)
		return "", err
	}

	if cb != nil {
		cb.RecordSuccess()
	}
	recordCall(p.Name(), outcomeOK, time.Since(start).Seconds())
	observeBreaker(p.Name(), cb)
	r.health.RecordSuccess(p.Name())
	return text, nil
}

// Generate runs the prompt against the best provider, retrying
// transient failures and failing over down the ranked list.
//
// Description:
//
//	Each candidate is wrapped in its circuit breaker plus the
//	registry's retry policy, and every attempt is bounded by the
//	per-attempt timeout so a hung backend cannot starve failover. A
//	provider that exhausts its retries is skipped and the next ranked
//	candidate is tried. The loop stops early when the caller's context
//	expires; failover must not outlive the caller's deadline.
//
// Inputs:
//   - ctx: Caller deadline for the whole operation.
//   - preferred: Optional provider name, honored per Get.
//   - prompt: The text to complete.
//   - params: Sampling parameters.
//
// Outputs:
//   - string: The completion.
//   - string: The provider that produced it.
//   - error: ctx.Err() on deadline, ErrNoProviders when every
//     candidate failed or none was available.
func (r *Registry) Generate(ctx context.Context, preferred, prompt string, params GenerationParams) (string, string, error) {
	avail := r.Available(ctx)
	if len(avail) == 0 {
		return "", "", resilience.ErrNoProviders
	}

	// Pull a fast preferred provider to the front of the failover order.
	if preferred != "" {
		for i, p := range avail {
			if p.Name() == preferred && p.Priority() < fastEnoughPriority {
				avail = append([]Provider{p}, append(avail[:i:i], avail[i+1:]...)...)
				break
			}
		}
	}

	var errs []error
	for _, p := range avail {
		p := p
		var text string
		_, err := resilience.RetryWithBreaker(ctx, r.breakers[p.Name()], r.retryCfg,
			func(ctx context.Context, attempt int) error {
				start := time.Now()
				genErr := resilience.WithTimeout(ctx, r.attemptTimeout, func(ctx context.Context) error {
					var callErr error
					text, callErr = p.Generate(ctx, prompt, params)
					return callErr
				})
				outcome := outcomeOK
				if genErr != nil {
					outcome = outcomeError
					if errors.Is(genErr, context.Canceled) && ctx.Err() != nil {
						outcome = outcomeCanceled
					}
				}
				recordCall(p.Name(), outcome, time.Since(start).Seconds())
				return genErr
			})
		observeBreaker(p.Name(), r.breakers[p.Name()])
		if err == nil {
			r.health.RecordSuccess(p.Name())
			return text, p.Name(), nil
		}

		r.health.RecordFailure(p.Name(), err)
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		slog.Warn("Provider failed, trying next", "provider", p.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return "", "", fmt.Errorf("%w: all providers failed: %v",
		resilience.ErrNoProviders, errors.Join(errs...))
}

// ProviderStatus is the wire shape reported by the providers endpoint.
type ProviderStatus struct {
	Name         string        `json:"name"`
	Priority     int           `json:"priority"`
	Available    bool          `json:"available"`
	Latency      time.Duration `json:"-"`
	LatencyMS    float64       `json:"latency_ms"`
	CircuitState string        `json:"circuit_state"`
	Healthy      bool          `json:"healthy"`
}

// Status probes every provider and reports a diagnostic snapshot,
// ordered by priority.
func (r *Registry) Status(ctx context.Context) []ProviderStatus {
	up := make(map[string]bool, len(r.providers))
	for _, p := range r.Available(ctx) {
		up[p.Name()] = true
	}

	out := make([]ProviderStatus, 0, len(r.providers))
	for _, p := range r.providers {
		name := p.Name()
		st := ProviderStatus{
			Name:      name,
			Priority:  p.Priority(),
			Available: up[name],
			Latency:   p.Latency(),
			LatencyMS: float64(p.Latency()) / float64(time.Millisecond),
			Healthy:   r.health.Healthy(name),
		}
		if cb := r.breakers[name]; cb != nil {
			st.CircuitState = cb.State().String()
			observeBreaker(name, cb)
		}
		out = append(out, st)
	}
	return out
}

// Health exposes the per-provider health records for the health
// endpoint.
func (r *Registry) Health() map[string]resilience.HealthStatus {
	return r.health.Snapshot()
}

// Breaker returns the named provider's circuit breaker, or nil. Used
// by tests and the diagnostics endpoint.
func (r *Registry) Breaker(name string) *resilience.CircuitBreaker {
	return r.breakers[name]
}

// Close releases every provider's resources. All providers are closed
// even when some fail; the first error is returned.
func (r *Registry) Close() error {
	var errs []error
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
