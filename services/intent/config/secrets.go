// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/awnumar/memguard"
	"golang.org/x/sys/unix"
)

// MinMlockLimitKB is the mlock budget secrets need. Each enclave costs
// a few locked pages; four provider keys fit comfortably in 64 KB.
const MinMlockLimitKB = 64

// ErrNoSecret is returned when opening a nil or empty Secret.
var ErrNoSecret = errors.New("secret not configured")

var (
	memguardInitOnce    sync.Once
	mlockSufficient     bool
	currentMlockLimitKB int64
)

// Secret seals a sensitive value (an API key) in a memguard Enclave.
// The plaintext is encrypted at rest in process memory and only
// materialized in an mlocked buffer while a caller holds it open.
//
// A nil *Secret is valid and means "not configured"; all methods are
// nil-safe.
type Secret struct {
	enclave *memguard.Enclave
}

// NewSecret seals value into an enclave. Returns nil for the empty
// string so unset environment variables map directly to "no secret".
func NewSecret(value string) *Secret {
	if value == "" {
		return nil
	}
	Protect()
	return &Secret{enclave: memguard.NewEnclave([]byte(value))}
}

// Configured reports whether a value is sealed inside.
func (s *Secret) Configured() bool {
	return s != nil && s.enclave != nil
}

// Open decrypts the secret into an mlocked buffer. The caller must
// Destroy() the buffer as soon as the plaintext has been used.
func (s *Secret) Open() (*memguard.LockedBuffer, error) {
	if !s.Configured() {
		return nil, ErrNoSecret
	}
	return s.enclave.Open()
}

// Reveal opens the enclave, copies the plaintext out as a string, and
// destroys the locked view. The returned string is ordinary Go memory;
// use it only where an SDK demands a string (client construction) and
// do not retain it elsewhere.
func (s *Secret) Reveal() (string, error) {
	buf, err := s.Open()
	if err != nil {
		return "", err
	}
	defer buf.Destroy()
	return string(buf.Bytes()), nil
}

// String implements fmt.Stringer so a Secret that leaks into a log
// line or error message prints nothing useful.
func (s *Secret) String() string {
	if !s.Configured() {
		return ""
	}
	return "[redacted]"
}

// Protect installs the memguard interrupt handler and checks the
// mlock limit. Called automatically by NewSecret; binaries call it
// once at startup so the signal handler is in place before any load.
func Protect() {
	memguardInitOnce.Do(func() {
		memguard.CatchInterrupt()
		mlockSufficient, currentMlockLimitKB = checkMlockLimit()
		logMlockStatus()
	})
}

// Purge wipes all enclaves and locked buffers. Call during graceful
// shutdown; memguard also runs this on SIGINT/SIGTERM once Protect
// has installed its handler.
func Purge() {
	memguard.Purge()
}

// checkMlockLimit asks the kernel for RLIMIT_MEMLOCK and compares it
// against MinMlockLimitKB. Returns (true, -1) when the limit is
// unlimited or cannot be determined.
func checkMlockLimit() (bool, int64) {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rlimit); err != nil {
		slog.Warn("Could not determine mlock limit", "error", err)
		return true, -1
	}

	if rlimit.Cur == unix.RLIM_INFINITY {
		return true, -1
	}

	limitKB := int64(rlimit.Cur / 1024)
	return limitKB >= MinMlockLimitKB, limitKB
}

func logMlockStatus() {
	if mlockSufficient {
		slog.Info("Secure key storage initialized",
			"mlock_limit_kb", currentMlockLimitKB,
			"required_kb", MinMlockLimitKB,
		)
		return
	}

	if os.Getenv("ALEUTIAN_INSECURE_MEMORY") == "true" {
		slog.Warn("SECURITY: Running with insecure memory - mlock limit insufficient",
			"current_limit_kb", currentMlockLimitKB,
			"required_kb", MinMlockLimitKB,
			"env_override", "ALEUTIAN_INSECURE_MEMORY=true",
		)
		return
	}

	slog.Error("mlock limit insufficient for secure key storage",
		"current_limit_kb", currentMlockLimitKB,
		"required_kb", MinMlockLimitKB,
		"help", "raise RLIMIT_MEMLOCK or set ALEUTIAN_INSECURE_MEMORY=true",
	)
}
