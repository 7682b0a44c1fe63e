// Package sequence turns normalized text into the fixed-length id sequences a
// text classifier trained on the same tokenizer consumes.
package sequence

import (
	"errors"
	"fmt"
	"strings"

	"normalizer/internal/vocab"
)

// DefaultMaxLen is the sequence length the classifier was trained with.
const DefaultMaxLen = 120

// ErrNoWordIndex is returned for artifacts that carry counts only.
var ErrNoWordIndex = errors.New("sequence: artifact has no word_index")

// Encoder maps words to tokenizer ids. It is read-only after construction.
type Encoder struct {
	index    map[string]int
	oov      int // 0 when the tokenizer has no OOV token
	numWords int // ids >= numWords are out of range; 0 disables
	maxLen   int
}

// NewEncoder builds an Encoder from the artifact's word_index.
func NewEncoder(a *vocab.Artifact, maxLen int) (*Encoder, error) {
	if a == nil || len(a.WordIndex) == 0 {
		return nil, ErrNoWordIndex
	}
	if maxLen <= 0 {
		return nil, fmt.Errorf("sequence: max length must be positive, got %d", maxLen)
	}
	e := &Encoder{index: a.WordIndex, numWords: a.NumWords, maxLen: maxLen}
	if a.OOVToken != "" {
		e.oov = a.WordIndex[strings.ToLower(a.OOVToken)]
	}
	return e, nil
}

// MaxLen is the length of every encoded sequence.
func (e *Encoder) MaxLen() int { return e.maxLen }

// Encode splits text on whitespace and returns exactly MaxLen ids: known
// words map to their id, unknown or out-of-range words map to the OOV id or
// are dropped when there is none. Longer sequences keep their head; shorter
// ones are right-padded with 0.
func (e *Encoder) Encode(text string) []int32 {
	out := make([]int32, 0, e.maxLen)
	for _, w := range strings.Fields(text) {
		if len(out) == e.maxLen {
			break
		}
		if id, ok := e.lookup(w); ok {
			out = append(out, int32(id))
		}
	}
	for len(out) < e.maxLen {
		out = append(out, 0)
	}
	return out
}

// EncodeBatch encodes each text.
func (e *Encoder) EncodeBatch(texts []string) [][]int32 {
	out := make([][]int32, len(texts))
	for i, t := range texts {
		out[i] = e.Encode(t)
	}
	return out
}

func (e *Encoder) lookup(w string) (int, bool) {
	id, ok := e.index[w]
	if ok && (e.numWords == 0 || id < e.numWords) {
		return id, true
	}
	if e.oov > 0 {
		return e.oov, true
	}
	return 0, false
}
