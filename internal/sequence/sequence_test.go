package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"normalizer/internal/vocab"
)

func parse(t *testing.T, doc string) *vocab.Artifact {
	t.Helper()
	a, err := vocab.Parse([]byte(doc))
	require.NoError(t, err)
	return a
}

func TestEncodePadsAndDropsUnknown(t *testing.T) {
	a := parse(t, `{"word_index": {"you": 1, "are": 2, "awesome": 3}}`)
	e, err := NewEncoder(a, 6)
	require.NoError(t, err)

	assert.Equal(t, []int32{1, 2, 3, 0, 0, 0}, e.Encode("you are awesome"))
	assert.Equal(t, []int32{1, 3, 0, 0, 0, 0}, e.Encode("you really awesome"))
	assert.Equal(t, []int32{0, 0, 0, 0, 0, 0}, e.Encode(""))
}

func TestEncodeTruncatesKeepingHead(t *testing.T) {
	a := parse(t, `{"word_index": {"a": 1, "b": 2, "c": 3}}`)
	e, err := NewEncoder(a, 3)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, e.Encode("a b c a b c"))
}

func TestEncodeOOVAndNumWords(t *testing.T) {
	a := parse(t, `{"config": {"num_words": 3, "oov_token": "<OOV>",
		"word_index": "{\"<oov>\": 1, \"you\": 2, \"are\": 3, \"awesome\": 4}",
		"word_counts": "{\"you\": 9, \"are\": 8, \"awesome\": 7}"}}`)
	e, err := NewEncoder(a, 5)
	require.NoError(t, err)

	// "are" and "awesome" fall outside num_words, "zorp" is unknown.
	assert.Equal(t, []int32{2, 1, 1, 1, 0}, e.Encode("you are awesome zorp"))
}

func TestEncodeBatch(t *testing.T) {
	a := parse(t, `{"word_index": {"hi": 1}}`)
	e, err := NewEncoder(a, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]int32{{1, 0}, {0, 0}}, e.EncodeBatch([]string{"hi", "bye"}))
	assert.Equal(t, 2, e.MaxLen())
}

func TestNewEncoderErrors(t *testing.T) {
	_, err := NewEncoder(nil, 10)
	assert.ErrorIs(t, err, ErrNoWordIndex)

	countsOnly := parse(t, `{"word_counts": {"hi": 3}}`)
	_, err = NewEncoder(countsOnly, 10)
	assert.ErrorIs(t, err, ErrNoWordIndex)

	_, err = NewEncoder(parse(t, `{"word_index": {"hi": 1}}`), 0)
	assert.Error(t, err)
}
