package corrector

import (
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"normalizer/internal/vocab"
	"normalizer/pkg/options"
)

// Stage names the step that decided a token's outcome.
type Stage uint8

const (
	StageNone   Stage = iota // no candidate within bounds, token kept
	StageKnown               // already a vocabulary word
	StageBucket              // bucketed edit-distance search
	StageEdit                // bounded edit generation
)

func (s Stage) String() string {
	switch s {
	case StageKnown:
		return "known"
	case StageBucket:
		return "bucket"
	case StageEdit:
		return "edit"
	default:
		return "none"
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome for one token. A token that cannot be matched comes
// back unchanged with Matched false.
type Result struct {
	Token     string `json:"token"`
	Corrected string `json:"corrected"`
	Matched   bool   `json:"matched"`
	Stage     Stage  `json:"stage"`
}

// Corrector maps unknown tokens onto the closest vocabulary word within
// fixed bounds. It is safe for concurrent use; the Index it wraps must not be
// mutated.
type Corrector struct {
	opts     options.CorrectorOptions
	idx      *vocab.Index
	alphabet []byte
	maxLen   int // longest vocabulary word, in bytes

	results *memo[Result]
	edits   *memo[[]string]
	group   singleflight.Group
}

// New validates opts and builds a Corrector over idx.
func New(idx *vocab.Index, opts options.CorrectorOptions) (*Corrector, error) {
	if idx == nil {
		return nil, errors.New("corrector: nil vocabulary index")
	}
	if err := Validate(opts); err != nil {
		return nil, err
	}
	results, err := newMemo[Result]("token", opts.CacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("token cache: %w", err)
	}
	edits, err := newMemo[[]string]("edits", opts.CacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("edit cache: %w", err)
	}
	alphabet := idx.Alphabet()
	if len(alphabet) > editAlphabet {
		alphabet = alphabet[:editAlphabet]
	}
	return &Corrector{
		opts:     opts,
		idx:      idx,
		alphabet: alphabet,
		maxLen:   idx.MaxWordLen(),
		results:  results,
		edits:    edits,
	}, nil
}

// Validate reports option values the matcher cannot work with.
func Validate(o options.CorrectorOptions) error {
	switch {
	case o.MaxCandidates <= 0:
		return fmt.Errorf("max candidates must be positive, got %d", o.MaxCandidates)
	case o.MinRatio < 0 || o.MinRatio > 1:
		return fmt.Errorf("min ratio must be within [0, 1], got %v", o.MinRatio)
	case o.MaxDistance < 0:
		return fmt.Errorf("max distance must not be negative, got %d", o.MaxDistance)
	case o.LengthSlack < 0:
		return fmt.Errorf("length slack must not be negative, got %d", o.LengthSlack)
	case o.CacheCapacity <= 0:
		return fmt.Errorf("cache capacity must be positive, got %d", o.CacheCapacity)
	case o.MinTokenLength < 0:
		return fmt.Errorf("min token length must not be negative, got %d", o.MinTokenLength)
	}
	return nil
}

// Index returns the vocabulary the corrector matches against.
func (c *Corrector) Index() *vocab.Index { return c.idx }

// Correct returns the vocabulary word for a sanitized token: the token itself
// when known, else the bucketed match, else the edit-generation match, else
// the token unchanged.
func (c *Corrector) Correct(token string) Result {
	if token == "" {
		return Result{}
	}
	if c.idx.Contains(token) {
		correctionsTotal.WithLabelValues(StageKnown.String()).Inc()
		return Result{Token: token, Corrected: token, Matched: true, Stage: StageKnown}
	}
	if runeLen(token) < c.opts.MinTokenLength {
		correctionsTotal.WithLabelValues(StageNone.String()).Inc()
		return Result{Token: token, Corrected: token}
	}

	// Past this length neither stage can reach a vocabulary word from the
	// token itself, so the token is not worth a cache slot.
	if len(token) > c.maxLen+max(c.opts.LengthSlack, editReach) {
		r := c.correct(token)
		correctionsTotal.WithLabelValues(r.Stage.String()).Inc()
		return r
	}
	if r, ok := c.results.get(token); ok {
		correctionsTotal.WithLabelValues(r.Stage.String()).Inc()
		return r
	}
	v, _, _ := c.group.Do(token, func() (any, error) {
		r := c.correct(token)
		c.results.add(token, r)
		return r, nil
	})
	r := v.(Result)
	correctionsTotal.WithLabelValues(r.Stage.String()).Inc()
	return r
}

func (c *Corrector) correct(token string) Result {
	if len(token) <= c.maxLen+c.opts.LengthSlack {
		if w, ok, _ := c.matchBucket(token); ok {
			return Result{Token: token, Corrected: w, Matched: true, Stage: StageBucket}
		}
	}
	if w, ok := c.matchEdits(token); ok {
		return Result{Token: token, Corrected: w, Matched: true, Stage: StageEdit}
	}
	return Result{Token: token, Corrected: token}
}

// CacheLen reports the number of memoized token results.
func (c *Corrector) CacheLen() int { return c.results.size() }
