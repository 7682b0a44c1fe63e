package corrector

import "strconv"

// Generation caps. Full edit-distance-2 generation is combinatorial in the
// word length and alphabet size; every loop below stops at one of these.
const (
	editAlphabet = 18   // substitution/insertion alphabet prefix
	editKindCap  = 300  // per kind, for substitutions and insertions
	edits1Cap    = 700  // strings returned by one edits1 call
	knownCap     = 400  // vocabulary hits collected before ranking
	edits2Outer  = 60   // edit-1 strings expanded a second time
	edits2Cap    = 1200 // strings in the edit-2 set

	// editReach is the deepest edit distance generated; a source longer than
	// the longest vocabulary word plus its depth cannot reach any word.
	editReach = 2
)

// matchEdits generates nearby strings of token (and of its run-collapsed
// form), keeps the ones in the vocabulary and returns the most frequent,
// breaking ties by similarity to token and then alphabetically. Sources too
// long to be within reach of any vocabulary word are not expanded, which
// also keeps every memoized variant short.
func (c *Corrector) matchEdits(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	collapsed := collapseRuns(token)

	var known []string
	seen := make(map[string]struct{})
	// consider reports false once enough vocabulary words were collected.
	consider := func(w string) bool {
		if _, dup := seen[w]; dup {
			return true
		}
		seen[w] = struct{}{}
		if c.idx.Contains(w) {
			known = append(known, w)
		}
		return len(known) < knownCap
	}

	generated := 0
	var sources []string
	if len(token) <= c.maxLen+1 {
		sources = append(sources, token)
	}
	if collapsed != token {
		consider(collapsed)
		if len(collapsed) <= c.maxLen+1 {
			sources = append(sources, collapsed)
		}
	}
collect:
	for _, src := range sources {
		variants := c.variants(src, 1)
		generated += len(variants)
		for _, v := range variants {
			if !consider(v) {
				break collect
			}
		}
	}

	if len(known) == 0 && len(token) <= c.maxLen+editReach {
		variants := c.variants(token, 2)
		generated += len(variants)
		for _, v := range variants {
			if !consider(v) {
				break
			}
		}
	}
	stageCandidates.WithLabelValues(StageEdit.String()).Observe(float64(generated))

	if len(known) == 0 {
		return "", false
	}
	best := known[0]
	bestFreq := c.idx.Frequency(best)
	bestRatio := ratio(token, best)
	for _, w := range known[1:] {
		f := c.idx.Frequency(w)
		if f < bestFreq {
			continue
		}
		r := ratio(token, w)
		if f == bestFreq && (r < bestRatio || (r == bestRatio && w > best)) {
			continue
		}
		best, bestFreq, bestRatio = w, f, r
	}
	return best, true
}

// variants returns the memoized edit-distance-1 or -2 neighbourhood of word.
// The returned slice is shared and must not be modified.
func (c *Corrector) variants(word string, depth int) []string {
	key := strconv.Itoa(depth) + "\x00" + word
	if v, ok := c.edits.get(key); ok {
		return v
	}
	var out []string
	if depth == 1 {
		out = edits1(word, c.alphabet)
	} else {
		out = edits2(word, c.alphabet)
	}
	c.edits.add(key, out)
	return out
}

// edits1 lists distinct strings one edit away from word, in a fixed order:
// every deletion, every adjacent transposition, then substitutions and
// insertions drawn from alphabet, each kind capped at editKindCap. At most
// edits1Cap strings are returned; word itself is never included.
func edits1(word string, alphabet []byte) []string {
	if len(alphabet) > editAlphabet {
		alphabet = alphabet[:editAlphabet]
	}
	out := make([]string, 0, min(edits1Cap, 2*len(word)+2*len(alphabet)*(len(word)+1)))
	seen := make(map[string]struct{}, cap(out))
	add := func(s string) bool {
		if len(out) >= edits1Cap {
			return false
		}
		if s == word {
			return true
		}
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			out = append(out, s)
		}
		return true
	}

	for i := 0; i < len(word); i++ {
		if !add(word[:i] + word[i+1:]) {
			return out
		}
	}
	for i := 0; i+1 < len(word); i++ {
		if word[i] == word[i+1] {
			continue
		}
		if !add(word[:i] + word[i+1:i+2] + word[i:i+1] + word[i+2:]) {
			return out
		}
	}

	n := 0
	for i := 0; i < len(word); i++ {
		for _, ch := range alphabet {
			if n >= editKindCap {
				break
			}
			if ch == word[i] {
				continue
			}
			n++
			if !add(word[:i] + string(ch) + word[i+1:]) {
				return out
			}
		}
	}

	n = 0
	for i := 0; i <= len(word); i++ {
		for _, ch := range alphabet {
			if n >= editKindCap {
				break
			}
			n++
			if !add(word[:i] + string(ch) + word[i:]) {
				return out
			}
		}
	}
	return out
}

// edits2 expands the first edits2Outer edit-1 strings once more and stops as
// soon as the set holds edits2Cap strings.
func edits2(word string, alphabet []byte) []string {
	first := edits1(word, alphabet)
	if len(first) > edits2Outer {
		first = first[:edits2Outer]
	}
	out := make([]string, 0, edits2Cap)
	seen := make(map[string]struct{}, edits2Cap)
	for _, e1 := range first {
		for _, e2 := range edits1(e1, alphabet) {
			if e2 == word {
				continue
			}
			if _, dup := seen[e2]; dup {
				continue
			}
			seen[e2] = struct{}{}
			out = append(out, e2)
			if len(out) >= edits2Cap {
				return out
			}
		}
	}
	return out
}

// collapseRuns reduces every run of a repeated byte to a single byte
// ("cooool" -> "col"), more aggressive than the sanitizer's keep-two rule.
func collapseRuns(s string) string {
	if len(s) < 2 {
		return s
	}
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if i > 0 && s[i] == s[i-1] {
			continue
		}
		b = append(b, s[i])
	}
	return string(b)
}
