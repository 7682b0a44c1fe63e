package corrector

// Frequency only nudges near-equal similarity ratios: freq/(freq+freqHalf)
// stays below 1, so the bonus is always below freqWeight and ratio dominates.
const (
	freqWeight = 0.001
	freqHalf   = 1000.0
)

// matchBucket searches the token's first-character bucket for the best word
// within the distance, ratio and length budgets. The bucket is capped at
// MaxCandidates words, so at most that many distances are computed; evaluated
// reports how many were.
func (c *Corrector) matchBucket(token string) (word string, ok bool, evaluated int) {
	if token == "" {
		return "", false, 0
	}
	candidates := c.idx.Bucket(token[0], c.opts.MaxCandidates)
	tl := runeLen(token)

	bestScore := -1.0
	for _, cand := range candidates {
		cl := runeLen(cand)
		if abs(cl-tl) > c.opts.LengthSlack {
			continue
		}
		evaluated++
		d := levenshtein(token, cand)
		if d > c.opts.MaxDistance {
			continue
		}
		r := similarity(d, token, cand)
		if r < c.opts.MinRatio {
			continue
		}
		f := float64(c.idx.Frequency(cand))
		score := r + f/(f+freqHalf)*freqWeight
		// Strictly greater: on equal scores the earlier bucket entry stays.
		if score > bestScore {
			bestScore = score
			word = cand
			ok = true
		}
	}
	stageCandidates.WithLabelValues(StageBucket.String()).Observe(float64(evaluated))
	return word, ok, evaluated
}
