// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianIntent/services/intent/datatypes"
)

// StoreConfig holds configuration for the shared BadgerDB cache tier.
type StoreConfig struct {
	// Path is the directory for BadgerDB files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	// The cache tier tolerates loss, so this defaults off.
	SyncWrites bool

	// Logger receives BadgerDB internal logs and store errors.
	// If nil, internal logging is disabled and errors are dropped silently.
	Logger *slog.Logger

	// GCInterval is how often to run value log garbage collection.
	// Default: 5 minutes. Set to 0 to disable.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	// Default: 0.5.
	GCDiscardRatio float64
}

// DefaultStoreConfig returns production defaults for a store at path.
func DefaultStoreConfig(path string) StoreConfig {
	return StoreConfig{
		Path:           path,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryStoreConfig returns configuration optimized for testing.
func InMemoryStoreConfig() StoreConfig {
	return StoreConfig{
		InMemory: true,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// SharedStore is the optional cross-process cache tier backed by BadgerDB.
//
// Description:
//
//	Stores analysis results as JSON values with per-entry TTL. The
//	store is strictly best-effort: every read or write failure is
//	logged and reported as a miss or dropped, never surfaced to the
//	analysis path. A service that loses its shared tier keeps working
//	on the local tier alone.
//
// Thread Safety: This type is safe for concurrent use.
type SharedStore struct {
	db     *badger.DB
	logger *slog.Logger

	gcInterval time.Duration
	gcRatio    float64
	stopGC     chan struct{}
	doneGC     chan struct{}
}

// OpenSharedStore opens the shared cache tier.
//
// Description:
//
//	Opens a BadgerDB database at the configured path (created if
//	missing), or in memory if InMemory is true, and starts the value
//	log GC loop if configured.
//
// Inputs:
//
//	cfg - Store configuration. Path is required unless InMemory is true.
//
// Outputs:
//
//	*SharedStore - The opened store. Caller must call Close() when done.
//	error - Non-nil if path is invalid or the database cannot be opened.
//
// Thread Safety: The returned store is safe for concurrent use.
func OpenSharedStore(cfg StoreConfig) (*SharedStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}

	s := &SharedStore{
		db:         db,
		logger:     cfg.Logger,
		gcInterval: cfg.GCInterval,
		gcRatio:    cfg.GCDiscardRatio,
		stopGC:     make(chan struct{}),
		doneGC:     make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.runGC()
	} else {
		close(s.doneGC)
	}

	return s, nil
}

// Get retrieves a cached result by key.
//
// Description:
//
//	Looks up the key in BadgerDB. A missing key, an expired entry, a
//	read error, or an undecodable value all report a miss; only read
//	errors are logged.
//
// Inputs:
//
//	ctx - Context for metric recording.
//	key - Precomputed cache key (see Key).
//
// Outputs:
//
//	*datatypes.IntentAnalysisResult - The decoded result, or nil.
//	bool - True on a hit.
//
// Thread Safety: This method is safe for concurrent use.
func (s *SharedStore) Get(ctx context.Context, key string) (*datatypes.IntentAnalysisResult, bool) {
	var raw []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logError("shared cache read failed", key, err)
		}
		recordCacheMiss(ctx, tierShared)
		return nil, false
	}

	var result datatypes.IntentAnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		s.logError("shared cache value undecodable", key, err)
		recordCacheMiss(ctx, tierShared)
		return nil, false
	}

	recordCacheHit(ctx, tierShared)
	result.SetMeta(datatypes.MetaCached, true)
	return &result, true
}

// Set stores a result under key with the given TTL.
//
// Description:
//
//	Encodes the result as JSON and writes it with badger's native
//	entry TTL. Failures are logged and swallowed.
//
// Inputs:
//
//	ctx - Context (reserved for metric recording).
//	key - Precomputed cache key (see Key).
//	result - The analysis result to store. Must not be nil.
//	ttl - Entry lifetime. Non-positive values use DefaultTTL.
//
// Thread Safety: This method is safe for concurrent use.
func (s *SharedStore) Set(ctx context.Context, key string, result *datatypes.IntentAnalysisResult, ttl time.Duration) {
	_ = ctx
	if result == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	stored := result.Clone()
	if stored.Metadata != nil {
		delete(stored.Metadata, datatypes.MetaCached)
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		s.logError("shared cache encode failed", key, err)
		return
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), raw).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		s.logError("shared cache write failed", key, err)
	}
}

// Close stops garbage collection and closes the database.
//
// Thread Safety: Safe to call once after all other calls have returned.
func (s *SharedStore) Close() error {
	close(s.stopGC)
	<-s.doneGC
	return s.db.Close()
}

// runGC periodically triggers BadgerDB value log garbage collection.
func (s *SharedStore) runGC() {
	defer close(s.doneGC)

	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			// RunValueLogGC returns ErrNoRewrite when nothing needed collecting
			err := s.db.RunValueLogGC(s.gcRatio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) && s.logger != nil {
				s.logger.Warn("badger value log GC error", slog.String("error", err.Error()))
			}
		}
	}
}

func (s *SharedStore) logError(msg, key string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Error(msg,
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}
