package vocab

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/edsrzf/mmap-go"
)

var (
	ErrNotFound  = errors.New("vocabulary artifact not found")
	ErrMalformed = errors.New("vocabulary artifact malformed")
)

// Artifact is the decoded content of a vocabulary file.
type Artifact struct {
	Entries []Entry
	// WordIndex maps words to the integer ids the classifier was trained
	// with. Nil for artifacts that only carry counts.
	WordIndex map[string]int
	OOVToken  string
	NumWords  int
	// Invalid counts keys that were dropped because they are not indexable.
	Invalid int
}

// Index builds the lookup structure for the artifact's entries.
func (a *Artifact) Index() *Index {
	if a == nil {
		return New(nil)
	}
	return New(a.Entries)
}

// LoadFile reads a vocabulary artifact. JSON artifacts carry either a
// word_counts or a word_index object, at the top level or inside a Keras
// tokenizer "config" block; anything else is parsed as "word count" lines.
func LoadFile(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open vocabulary %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat vocabulary %s: %w", path, err)
	}
	if fi.IsDir() || fi.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformed, path)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("map vocabulary %s: %w", path, err)
	}
	defer m.Unmap()

	a, err := Parse(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Parse decodes an artifact held in memory. The returned Artifact never
// references data.
func Parse(data []byte) (*Artifact, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: no content", ErrMalformed)
	}
	var a *Artifact
	var err error
	if trimmed[0] == '{' {
		a, err = parseJSON(trimmed)
	} else {
		a, err = parseLines(trimmed)
	}
	if err != nil {
		return nil, err
	}
	if len(a.Entries) == 0 {
		return nil, fmt.Errorf("%w: no usable entries", ErrMalformed)
	}
	return a, nil
}

func parseJSON(data []byte) (*Artifact, error) {
	// ConfigStd copies strings out of the input; data may be a memory map that
	// is released once loading returns.
	var doc map[string]any
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	fields := doc
	if cfg, ok := doc["config"].(map[string]any); ok {
		fields = cfg
	}

	counts, err := decodeObject(fields["word_counts"])
	if err != nil {
		return nil, fmt.Errorf("%w: word_counts: %v", ErrMalformed, err)
	}
	index, err := decodeObject(fields["word_index"])
	if err != nil {
		return nil, fmt.Errorf("%w: word_index: %v", ErrMalformed, err)
	}
	if counts == nil && index == nil {
		return nil, fmt.Errorf("%w: neither word_counts nor word_index present", ErrMalformed)
	}

	a := &Artifact{}
	if s, ok := fields["oov_token"].(string); ok {
		a.OOVToken = s
	}
	if n, ok := toInt(fields["num_words"]); ok && n > 0 {
		a.NumWords = int(n)
	}

	if index != nil {
		a.WordIndex = make(map[string]int, len(index))
		for w, v := range index {
			id, ok := toInt(v)
			if !ok || id <= 0 {
				continue
			}
			lw := strings.ToLower(w)
			if prev, dup := a.WordIndex[lw]; !dup || int(id) < prev {
				a.WordIndex[lw] = int(id)
			}
		}
	}

	merged := make(map[string]int64)
	if counts != nil {
		for w, v := range counts {
			c, ok := toInt(v)
			if !ok {
				c = 1
			}
			a.add(merged, w, c)
		}
	} else {
		for w := range index {
			a.add(merged, w, 1)
		}
	}
	a.Entries = sortedEntries(merged)
	return a, nil
}

// parseLines reads the plain dictionary format: one "word count" pair per
// line. Lines without a count are ignored.
func parseLines(data []byte) (*Artifact, error) {
	a := &Artifact{}
	merged := make(map[string]int64)
	s := bufio.NewScanner(bytes.NewReader(data))
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		parts := strings.Fields(s.Text())
		if len(parts) < 2 {
			continue
		}
		count, ok := toInt(parts[1])
		if !ok {
			continue
		}
		a.add(merged, parts[0], count)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	a.Entries = sortedEntries(merged)
	return a, nil
}

func (a *Artifact) add(merged map[string]int64, word string, count int64) {
	w := strings.ToLower(strings.TrimSpace(word))
	if !ValidWord(w) {
		a.Invalid++
		return
	}
	if count < 0 {
		count = 0
	}
	merged[w] += count
}

func sortedEntries(merged map[string]int64) []Entry {
	out := make([]Entry, 0, len(merged))
	for w, c := range merged {
		out = append(out, Entry{Word: w, Frequency: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Word < out[j].Word })
	return out
}

// decodeObject accepts a JSON object or, as Keras stores it, a string holding
// an encoded JSON object. A missing value yields nil without error.
func decodeObject(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return t, nil
	case string:
		var m map[string]any
		if err := sonic.ConfigStd.UnmarshalFromString(t, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int64:
		return t, true
	case int:
		return int64(t), true
	case string:
		t = strings.TrimSpace(t)
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int64(f), true
		}
	}
	return 0, false
}
