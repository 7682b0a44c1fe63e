package corrector

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"normalizer/internal/vocab"
	"normalizer/pkg/options"
)

func newCorrector(t *testing.T, words map[string]int64, opts ...options.Options) *Corrector {
	t.Helper()
	entries := make([]vocab.Entry, 0, len(words))
	for w, f := range words {
		entries = append(entries, vocab.Entry{Word: w, Frequency: f})
	}
	c, err := New(vocab.New(entries), options.Build(opts...))
	require.NoError(t, err)
	return c
}

var english = map[string]int64{
	"the": 900, "and": 800, "you": 700, "are": 650, "this": 600, "that": 590,
	"with": 400, "have": 380, "from": 300, "hello": 120, "world": 110,
	"awesome": 40, "stupid": 35, "idiot": 30, "nice": 60, "cool": 55,
	"good": 90, "great": 70,
}

func TestCorrectKnownWord(t *testing.T) {
	c := newCorrector(t, english)
	r := c.Correct("hello")
	assert.Equal(t, Result{Token: "hello", Corrected: "hello", Matched: true, Stage: StageKnown}, r)
	assert.Zero(t, c.CacheLen(), "known words are not memoized")
}

func TestCorrectBucketMatch(t *testing.T) {
	c := newCorrector(t, map[string]int64{"you": 5, "are": 5, "awesome": 3})
	r := c.Correct("awesme")
	assert.Equal(t, "awesome", r.Corrected)
	assert.True(t, r.Matched)
	assert.Equal(t, StageBucket, r.Stage)
}

func TestCorrectUnmatchable(t *testing.T) {
	c := newCorrector(t, english)
	r := c.Correct("xzqv")
	assert.Equal(t, Result{Token: "xzqv", Corrected: "xzqv"}, r)
	assert.Equal(t, StageNone, r.Stage)
}

func TestCorrectEditFallback(t *testing.T) {
	// The 'k' bucket only holds "kite", too far from "kello"; one
	// substitution reaches "hello".
	c := newCorrector(t, map[string]int64{"hello": 10, "kite": 1})
	_, ok, _ := c.matchBucket("kello")
	require.False(t, ok)

	r := c.Correct("kello")
	assert.Equal(t, "hello", r.Corrected)
	assert.Equal(t, StageEdit, r.Stage)
}

func TestCorrectCollapsedElongation(t *testing.T) {
	c := newCorrector(t, map[string]int64{"cool": 4, "col": 1})
	r := c.Correct("coooool")
	assert.Equal(t, "cool", r.Corrected)
	assert.Equal(t, StageEdit, r.Stage)
}

func TestCorrectEmptyToken(t *testing.T) {
	c := newCorrector(t, english)
	assert.Equal(t, Result{}, c.Correct(""))
}

func TestCorrectMinTokenLength(t *testing.T) {
	c := newCorrector(t, map[string]int64{"hello": 10, "at": 5}, options.WithMinTokenLength(3))
	assert.Equal(t, Result{Token: "ax", Corrected: "ax"}, c.Correct("ax"))
	assert.Equal(t, StageKnown, c.Correct("at").Stage, "known short words still pass")
	assert.Equal(t, "hello", c.Correct("helo").Corrected)
}

func TestMatchBucketPrefersFrequentOnEqualRatio(t *testing.T) {
	c := newCorrector(t, map[string]int64{"house": 1, "horse": 100})
	w, ok, _ := c.matchBucket("hoese")
	require.True(t, ok)
	assert.Equal(t, "horse", w)

	c = newCorrector(t, map[string]int64{"house": 100, "horse": 1})
	w, _, _ = c.matchBucket("hoese")
	assert.Equal(t, "house", w)
}

func TestMatchBucketRatioDominatesFrequency(t *testing.T) {
	// "hellos" is one edit away, "helloxy" two; frequency cannot overturn that.
	c := newCorrector(t, map[string]int64{"hellos": 1, "helloxy": 1_000_000}, options.WithMinRatio(0.5))
	w, ok, _ := c.matchBucket("helloss")
	require.True(t, ok)
	assert.Equal(t, "hellos", w)
}

func TestMatchBucketTieKeepsBucketOrder(t *testing.T) {
	c := newCorrector(t, map[string]int64{"house": 7, "horse": 7})
	w, ok, _ := c.matchBucket("hoese")
	require.True(t, ok)
	// Equal frequency buckets sort alphabetically, so "horse" comes first.
	assert.Equal(t, "horse", w)
}

func TestMatchBucketThresholds(t *testing.T) {
	c := newCorrector(t, map[string]int64{"cat": 10, "elephant": 10})

	_, ok, _ := c.matchBucket("cax")
	assert.False(t, ok, "ratio 0.67 is under the default threshold")

	_, ok, evaluated := c.matchBucket("elephantsssss")
	assert.False(t, ok)
	assert.Zero(t, evaluated, "length slack filters before any distance is computed")

	lenient := newCorrector(t, map[string]int64{"cat": 10}, options.WithMinRatio(0.6))
	w, ok, _ := lenient.matchBucket("cax")
	assert.True(t, ok)
	assert.Equal(t, "cat", w)
}

func TestMatchBucketBoundedCost(t *testing.T) {
	words := make(map[string]int64, 2000)
	for i := 0; i < 2000; i++ {
		words[fmt.Sprintf("a%04d", i)] = int64(i)
	}
	c := newCorrector(t, words, options.WithMaxCandidates(50))
	_, _, evaluated := c.matchBucket("axxxx")
	assert.LessOrEqual(t, evaluated, 50)
	assert.Equal(t, 50, evaluated)
}

func TestMatchBucketFallsBackToTopWords(t *testing.T) {
	c := newCorrector(t, map[string]int64{"hello": 10, "kite": 1})
	// No 'j' bucket: the global top list is searched instead.
	w, ok, _ := c.matchBucket("jello")
	require.True(t, ok)
	assert.Equal(t, "hello", w)
}

func TestMatchEditsRanking(t *testing.T) {
	// Both are one edit from "bart"; frequency decides, then similarity.
	c := newCorrector(t, map[string]int64{"bark": 5, "cart": 9, "zzzz": 1})
	w, ok := c.matchEdits("bart")
	require.True(t, ok)
	assert.Equal(t, "cart", w)

	c = newCorrector(t, map[string]int64{"bark": 5, "cart": 5})
	w, _ = c.matchEdits("bart")
	assert.Equal(t, "bark", w, "equal frequency and ratio fall back to alphabetical order")
}

func TestMatchEditsSecondDepth(t *testing.T) {
	c := newCorrector(t, map[string]int64{"abcdef": 3, "zz": 1})
	w, ok := c.matchEdits("bcdefg")
	require.True(t, ok)
	assert.Equal(t, "abcdef", w)
}

func TestEdits1Order(t *testing.T) {
	got := edits1("ab", []byte("abc"))
	want := []string{
		"b", "a", // deletions
		"ba",                   // transposition
		"bb", "cb", "aa", "ac", // substitutions
		"aab", "bab", "cab", "abb", "acb", "aba", "abc", // insertions
	}
	assert.Equal(t, want, got)
}

func TestEdits1Bounded(t *testing.T) {
	alphabet := []byte("etaoinshrdlcumwfgypbvkjxqz")
	long := strings.Repeat("abcdefghij", 8)
	got := edits1(long, alphabet)
	assert.LessOrEqual(t, len(got), edits1Cap)
	assert.Len(t, got, edits1Cap)

	seen := make(map[string]bool)
	for _, e := range got {
		assert.False(t, seen[e], "duplicate %q", e)
		seen[e] = true
		assert.NotEqual(t, long, e)
	}

	// Substitutions and insertions only use the alphabet prefix.
	for _, e := range edits1("x", alphabet) {
		for i := 0; i < len(e); i++ {
			if e[i] != 'x' {
				assert.Contains(t, string(alphabet[:editAlphabet]), string(e[i]))
			}
		}
	}
}

func TestEdits2Bounded(t *testing.T) {
	alphabet := []byte("etaoinshrdlcumwfgypbvkjxqz")
	for _, w := range []string{"a", "hello", "incomprehensibilities"} {
		got := edits2(w, alphabet)
		assert.LessOrEqual(t, len(got), edits2Cap, w)
		assert.NotContains(t, got, w)
	}
	assert.Len(t, edits2("incomprehensibilities", alphabet), edits2Cap)
}

func TestCollapseRuns(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"a":           "a",
		"cooool":      "col",
		"niice":       "nice",
		"aabbcc":      "abc",
		"abc":         "abc",
		"mississippi": "misisipi",
	}
	for in, want := range tests {
		assert.Equal(t, want, collapseRuns(in), in)
	}
}

func TestCacheIsBounded(t *testing.T) {
	c := newCorrector(t, english, options.WithCacheCapacity(3))
	for _, tok := range []string{"helo", "wrld", "awsome", "stupd", "idoit", "nicee"} {
		c.Correct(tok)
	}
	assert.LessOrEqual(t, c.CacheLen(), 3)
	assert.LessOrEqual(t, c.edits.size(), 3)
}

func TestCorrectLongTokensAreNotRetained(t *testing.T) {
	c := newCorrector(t, english)
	for i := 0; i < 10; i++ {
		tok := strings.Repeat(fmt.Sprintf("x%dq", i), 5000)
		assert.Equal(t, Result{Token: tok, Corrected: tok}, c.Correct(tok))
	}
	assert.Zero(t, c.CacheLen())
	assert.Zero(t, c.edits.size(), "no variants are generated for out-of-reach tokens")

	// At the bucket length budget the token is memoized, but it is too long
	// for two edits to reach a word, so no variants are generated.
	tok := strings.Repeat("zq", 5)
	c.Correct(tok)
	assert.Equal(t, 1, c.CacheLen())
	assert.Zero(t, c.edits.size())
}

func TestCorrectLongElongationUsesCollapsedForm(t *testing.T) {
	c := newCorrector(t, map[string]int64{"cool": 4, "col": 1})
	tok := "c" + strings.Repeat("o", 500) + "l"
	r := c.Correct(tok)
	assert.Equal(t, "cool", r.Corrected)
	assert.Equal(t, StageEdit, r.Stage)
	assert.Zero(t, c.CacheLen())
	assert.Equal(t, 1, c.edits.size(), "only the short collapsed form is expanded")
}

func TestCorrectMemoizes(t *testing.T) {
	c := newCorrector(t, english)
	first := c.Correct("helo")
	assert.Equal(t, 1, c.CacheLen())
	assert.Equal(t, first, c.Correct("helo"))
	assert.Equal(t, 1, c.CacheLen())
}

func TestCorrectConcurrent(t *testing.T) {
	c := newCorrector(t, english, options.WithCacheCapacity(4))
	tokens := []string{"helo", "wrld", "awsome", "stupd", "idoit", "xzqv", "gret", "the"}
	want := make(map[string]Result, len(tokens))
	ref := newCorrector(t, english)
	for _, tok := range tokens {
		want[tok] = ref.Correct(tok)
	}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				tok := tokens[(g+i)%len(tokens)]
				assert.Equal(t, want[tok], c.Correct(tok))
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.CacheLen(), 4)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil, options.DefaultOptions)
	assert.Error(t, err)

	tests := []struct {
		name string
		opt  options.Options
	}{
		{"candidates", options.WithMaxCandidates(0)},
		{"ratio low", options.WithMinRatio(-0.1)},
		{"ratio high", options.WithMinRatio(1.5)},
		{"distance", options.WithMaxDistance(-1)},
		{"slack", options.WithLengthSlack(-1)},
		{"cache", options.WithCacheCapacity(0)},
		{"min length", options.WithMinTokenLength(-2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(vocab.New(nil), options.Build(tt.opt))
			assert.Error(t, err)
		})
	}
}

func TestStageText(t *testing.T) {
	for s, want := range map[Stage]string{StageNone: "none", StageKnown: "known", StageBucket: "bucket", StageEdit: "edit"} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, want, string(b))
	}
}
