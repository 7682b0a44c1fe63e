package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"normalizer/internal/corrector"
	"normalizer/internal/customdict"
	"normalizer/internal/sanitize"
	"normalizer/internal/vocab"
	"normalizer/pkg/options"
)

// customFrequency ranks operator-added words above anything learned from
// training data.
const customFrequency = 1_000_000_000

// WordStore persists operator-added words. *customdict.CustomDict is the
// production implementation.
type WordStore interface {
	Add(ctx context.Context, word string) error
	Remove(ctx context.Context, word string) error
	All(ctx context.Context) ([]string, error)
}

// snapshot is the immutable state one call works against.
type snapshot struct {
	idx  *vocab.Index
	corr *corrector.Corrector
}

// Service runs the normalization pipeline. Calls are safe from any number of
// goroutines; custom word updates build a new snapshot and swap it in, so an
// in-flight call keeps the vocabulary it started with.
type Service struct {
	opts   options.CorrectorOptions
	base   []vocab.Entry
	store  WordStore
	logger *slog.Logger

	mu     sync.Mutex // serializes rebuilds
	custom map[string]struct{}
	snap   atomic.Pointer[snapshot]
}

// New builds a Service over base, which may be nil when no vocabulary could
// be loaded; the service then only sanitizes. When store is non-nil its words
// are merged into the vocabulary. A store that cannot be read is logged and
// skipped.
func New(ctx context.Context, base *vocab.Index, store WordStore, logger *slog.Logger, opts ...options.Options) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := options.Build(opts...)
	if err := corrector.Validate(o); err != nil {
		return nil, fmt.Errorf("pipeline options: %w", err)
	}
	s := &Service{
		opts:   o,
		base:   base.Entries(),
		store:  store,
		logger: logger,
		custom: make(map[string]struct{}),
	}
	if store != nil {
		words, err := store.All(ctx)
		if err != nil {
			logger.Warn("custom words unavailable, using base vocabulary only", "error", err)
		}
		for _, w := range words {
			s.custom[w] = struct{}{}
		}
	}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	if s.Degraded() {
		logger.Warn("vocabulary empty, correction disabled")
	} else {
		logger.Info("vocabulary ready", "words", s.VocabSize(), "custom", len(s.custom))
	}
	return s, nil
}

// Normalize applies the pipeline with the configured correction setting.
func (s *Service) Normalize(text string) string {
	return s.NormalizeWith(text, s.opts.CorrectionEnabled)
}

// NormalizeWith sanitizes text and, when correction is enabled and a
// vocabulary is loaded, replaces each unknown token with its closest
// vocabulary word. Empty input is returned as is.
func (s *Service) NormalizeWith(text string, correctionEnabled bool) string {
	if text == "" {
		return text
	}
	start := time.Now()
	sanitized := sanitize.Sanitize(text)
	snap := s.snap.Load()
	if !correctionEnabled || snap.corr == nil || sanitized == "" {
		normalizeDuration.WithLabelValues("sanitize").Observe(time.Since(start).Seconds())
		return sanitized
	}

	tokens := strings.Fields(sanitized)
	for i, tok := range tokens {
		tokens[i] = snap.corr.Correct(tok).Corrected
	}
	normalizeDuration.WithLabelValues("correct").Observe(time.Since(start).Seconds())
	return strings.Join(tokens, " ")
}

// Explain returns the sanitized text and the per-token outcome. In degraded
// mode every token is reported unchanged.
func (s *Service) Explain(text string) (string, []corrector.Result) {
	sanitized := sanitize.Sanitize(text)
	tokens := strings.Fields(sanitized)
	results := make([]corrector.Result, len(tokens))
	snap := s.snap.Load()
	for i, tok := range tokens {
		if snap.corr == nil {
			results[i] = corrector.Result{Token: tok, Corrected: tok}
			continue
		}
		results[i] = snap.corr.Correct(tok)
	}
	return sanitized, results
}

// AddWord stores word and makes it a known vocabulary word.
func (s *Service) AddWord(ctx context.Context, word string) error {
	w, err := customdict.Canonical(word)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Add(ctx, w); err != nil {
			return err
		}
	}
	s.custom[w] = struct{}{}
	return s.rebuildLocked()
}

// RemoveWord drops word from the custom words. Words from the base
// vocabulary stay known.
func (s *Service) RemoveWord(ctx context.Context, word string) error {
	w, err := customdict.Canonical(word)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Remove(ctx, w); err != nil {
			return err
		}
	}
	delete(s.custom, w)
	return s.rebuildLocked()
}

// CustomWords lists the operator-added words in order.
func (s *Service) CustomWords() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.custom))
	for w := range s.custom {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Degraded reports whether the service runs sanitize-only because there is
// no vocabulary.
func (s *Service) Degraded() bool {
	return s.snap.Load().corr == nil
}

// VocabSize is the number of known words, custom words included.
func (s *Service) VocabSize() int {
	return s.snap.Load().idx.Len()
}

// Options returns the effective corrector options.
func (s *Service) Options() options.CorrectorOptions { return s.opts }

func (s *Service) rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked()
}

func (s *Service) rebuildLocked() error {
	entries := make([]vocab.Entry, 0, len(s.base)+len(s.custom))
	entries = append(entries, s.base...)
	for w := range s.custom {
		entries = append(entries, vocab.Entry{Word: w, Frequency: customFrequency})
	}
	idx := vocab.New(entries)
	next := &snapshot{idx: idx}
	if idx.Len() > 0 {
		corr, err := corrector.New(idx, s.opts)
		if err != nil {
			return fmt.Errorf("build corrector: %w", err)
		}
		next.corr = corr
	}
	s.snap.Store(next)
	return nil
}

// ErrNoVocabulary marks a service started without a usable artifact.
var ErrNoVocabulary = errors.New("no vocabulary loaded")

// LoadIndex reads the artifact at path. Load failures are logged and reported
// through the returned error; the caller may still start a degraded service
// with the nil index.
func LoadIndex(path string, logger *slog.Logger) (*vocab.Artifact, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		logger.Warn("no vocabulary path configured")
		return nil, ErrNoVocabulary
	}
	a, err := vocab.LoadFile(path)
	if err != nil {
		logger.Warn("vocabulary load failed, correction disabled", "path", path, "error", err)
		return nil, errors.Join(ErrNoVocabulary, err)
	}
	if a.Invalid > 0 {
		logger.Warn("skipped unindexable vocabulary keys", "path", path, "count", a.Invalid)
	}
	logger.Info("vocabulary loaded", "path", path, "entries", len(a.Entries))
	return a, nil
}
