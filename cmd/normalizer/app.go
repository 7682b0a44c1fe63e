package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"normalizer/internal/config"
	"normalizer/internal/customdict"
	"normalizer/internal/logging"
	"normalizer/internal/pipeline"
	"normalizer/internal/sequence"
	"normalizer/internal/vocab"
)

type app struct {
	cfg    config.Config
	logger *slog.Logger
	svc    *pipeline.Service
	enc    *sequence.Encoder

	closers []io.Closer
}

// build wires config, logging, the vocabulary, the optional Redis word store
// and the encoder. A missing or broken vocabulary leaves the service in
// sanitize-only mode instead of failing.
func build(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, logCloser := logging.New(cfg.Log.Level, cfg.Log.File)
	a := &app{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	artifact, err := pipeline.LoadIndex(cfg.VocabPath, logger)
	if err != nil && !errors.Is(err, pipeline.ErrNoVocabulary) {
		a.Close()
		return nil, err
	}

	var store pipeline.WordStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client)
		dict := customdict.New(client, cfg.Redis.Key)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := dict.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, custom words may be stale", "addr", cfg.Redis.Addr, "key", dict.Key(), "error", err)
		} else {
			logger.Info("custom word store", "addr", cfg.Redis.Addr, "key", dict.Key())
		}
		cancel()
		store = dict
	}

	var idx *vocab.Index
	if artifact != nil {
		idx = artifact.Index()
	}
	a.svc, err = pipeline.New(ctx, idx, store, logger, cfg.Options()...)
	if err != nil {
		a.Close()
		return nil, err
	}

	if artifact != nil {
		a.enc, err = sequence.NewEncoder(artifact, cfg.MaxSequenceLen)
		if err != nil {
			logger.Info("sequence encoder disabled", "reason", err)
		}
	}
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
