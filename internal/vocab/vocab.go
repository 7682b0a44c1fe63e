// Package vocab holds the frequency-annotated vocabulary the downstream
// classifier was trained on.
//
// An Index is built once and never mutated afterwards, so a single *Index can
// be shared by any number of goroutines without locking.
package vocab

import (
	"sort"
	"strings"
)

// fullAlphabet is what Alphabet reports for an empty vocabulary, in rough
// English letter frequency order.
const fullAlphabet = "etaoinshrdlcumwfgypbvkjxqz0123456789'"

// Entry is one vocabulary word with its training-time count.
type Entry struct {
	Word      string `json:"word"`
	Frequency int64  `json:"frequency"`
}

// Index answers membership, frequency and candidate queries over a fixed
// vocabulary.
type Index struct {
	freq     map[string]int64
	buckets  map[byte][]string
	top      []string
	alphabet []byte
	maxLen   int
	skipped  int
}

// ValidWord reports whether w may be indexed: non-empty, lowercase ASCII
// letters, digits and apostrophes only.
func ValidWord(w string) bool {
	if w == "" {
		return false
	}
	for i := 0; i < len(w); i++ {
		c := w[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '\'' {
			return false
		}
	}
	return true
}

// New builds an Index. Words are lowercased; words that still fail ValidWord
// are skipped and counted, duplicate words sum their frequencies and negative
// frequencies are clamped to zero.
func New(entries []Entry) *Index {
	idx := &Index{
		freq:    make(map[string]int64, len(entries)),
		buckets: make(map[byte][]string),
	}
	for _, e := range entries {
		w := strings.ToLower(strings.TrimSpace(e.Word))
		if !ValidWord(w) {
			idx.skipped++
			continue
		}
		f := e.Frequency
		if f < 0 {
			f = 0
		}
		idx.freq[w] += f
	}

	idx.top = make([]string, 0, len(idx.freq))
	var occurrences [256]int
	for w := range idx.freq {
		idx.top = append(idx.top, w)
		idx.maxLen = max(idx.maxLen, len(w))
		for i := 0; i < len(w); i++ {
			occurrences[w[i]]++
		}
	}
	// Descending frequency, ascending word: bucket order is therefore stable
	// across loads, which keeps the matcher's first-wins tie-break deterministic.
	sort.Slice(idx.top, func(i, j int) bool {
		fi, fj := idx.freq[idx.top[i]], idx.freq[idx.top[j]]
		if fi != fj {
			return fi > fj
		}
		return idx.top[i] < idx.top[j]
	})
	for _, w := range idx.top {
		idx.buckets[w[0]] = append(idx.buckets[w[0]], w)
	}
	for c := 0; c < len(occurrences); c++ {
		if occurrences[c] > 0 {
			idx.alphabet = append(idx.alphabet, byte(c))
		}
	}
	sort.SliceStable(idx.alphabet, func(i, j int) bool {
		return occurrences[idx.alphabet[i]] > occurrences[idx.alphabet[j]]
	})
	return idx
}

// Len returns the number of distinct words.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.freq)
}

// Skipped returns how many input entries were rejected by New.
func (x *Index) Skipped() int {
	if x == nil {
		return 0
	}
	return x.skipped
}

// Contains reports whether word is in the vocabulary.
func (x *Index) Contains(word string) bool {
	if x == nil {
		return false
	}
	_, ok := x.freq[word]
	return ok
}

// MaxWordLen is the byte length of the longest word, 0 for an empty index.
func (x *Index) MaxWordLen() int {
	if x == nil {
		return 0
	}
	return x.maxLen
}

// Frequency returns the count recorded for word, 0 when absent.
func (x *Index) Frequency(word string) int64 {
	if x == nil {
		return 0
	}
	return x.freq[word]
}

// Bucket returns up to n words starting with first, most frequent first. When
// no word starts with first, the n globally most frequent words are returned
// instead. The result aliases internal storage and must not be modified.
func (x *Index) Bucket(first byte, n int) []string {
	if x == nil {
		return nil
	}
	b := x.buckets[first]
	if len(b) == 0 {
		return x.TopByFrequency(n)
	}
	return capped(b, n)
}

// TopByFrequency returns up to n words in descending frequency order. The
// result aliases internal storage and must not be modified.
func (x *Index) TopByFrequency(n int) []string {
	if x == nil {
		return nil
	}
	return capped(x.top, n)
}

// Alphabet returns every byte that occurs in some vocabulary word, the most
// common first (ties in byte order). An empty vocabulary reports the full
// lowercase alphanumeric set plus the apostrophe.
func (x *Index) Alphabet() []byte {
	if x == nil || len(x.alphabet) == 0 {
		return []byte(fullAlphabet)
	}
	out := make([]byte, len(x.alphabet))
	copy(out, x.alphabet)
	return out
}

// Entries returns the indexed words in descending frequency order.
func (x *Index) Entries() []Entry {
	if x == nil {
		return nil
	}
	out := make([]Entry, len(x.top))
	for i, w := range x.top {
		out[i] = Entry{Word: w, Frequency: x.freq[w]}
	}
	return out
}

func capped(words []string, n int) []string {
	if n < 0 || n > len(words) {
		n = len(words)
	}
	return words[:n:n]
}
