package customdict

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"normalizer/internal/vocab"
)

// DefaultKey is the Redis SET holding operator-added words.
const DefaultKey = "normalizer:custom_words"

// ErrInvalidWord is returned for words the vocabulary cannot hold.
var ErrInvalidWord = errors.New("customdict: word must be lowercase letters, digits or apostrophes")

// CustomDict wraps a Redis client to store custom vocabulary words.
type CustomDict struct {
	client *redis.Client
	key    string
}

// New creates a new CustomDict with the provided Redis client. An empty key
// selects DefaultKey.
func New(client *redis.Client, key string) *CustomDict {
	if key == "" {
		key = DefaultKey
	}
	return &CustomDict{client: client, key: key}
}

// Key returns the Redis key the words are stored under.
func (cd *CustomDict) Key() string { return cd.key }

// Add inserts a word into the custom dictionary.
func (cd *CustomDict) Add(ctx context.Context, word string) error {
	w, err := Canonical(word)
	if err != nil {
		return err
	}
	if err := cd.client.SAdd(ctx, cd.key, w).Err(); err != nil {
		return fmt.Errorf("add %q: %w", w, err)
	}
	return nil
}

// Remove deletes a word from the custom dictionary.
func (cd *CustomDict) Remove(ctx context.Context, word string) error {
	w, err := Canonical(word)
	if err != nil {
		return err
	}
	if err := cd.client.SRem(ctx, cd.key, w).Err(); err != nil {
		return fmt.Errorf("remove %q: %w", w, err)
	}
	return nil
}

// All returns all words stored in the custom dictionary. Members written by
// other tools that are not valid vocabulary words are skipped.
func (cd *CustomDict) All(ctx context.Context) ([]string, error) {
	members, err := cd.client.SMembers(ctx, cd.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", cd.key, err)
	}
	out := members[:0]
	for _, m := range members {
		if w, err := Canonical(m); err == nil {
			out = append(out, w)
		}
	}
	return out, nil
}

// Ping checks that Redis is reachable.
func (cd *CustomDict) Ping(ctx context.Context) error {
	return cd.client.Ping(ctx).Err()
}

// Canonical lowercases and trims word and checks it against the vocabulary
// character set.
func Canonical(word string) (string, error) {
	w := strings.ToLower(strings.TrimSpace(word))
	if !vocab.ValidWord(w) {
		return "", ErrInvalidWord
	}
	return w, nil
}
