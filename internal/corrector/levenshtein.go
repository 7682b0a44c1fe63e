package corrector

// levenshtein is the unit-cost edit distance (insert, delete, substitute)
// between a and b, computed with two rolling rows.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			x := prev[j] + 1
			if y := curr[j-1] + 1; y < x {
				x = y
			}
			if z := prev[j-1] + cost; z < x {
				x = z
			}
			curr[j] = x
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

// similarity is 1 - distance/max(len(a), len(b), 1).
func similarity(distance int, a, b string) float64 {
	n := max(runeLen(a), runeLen(b), 1)
	return 1.0 - float64(distance)/float64(n)
}

func ratio(a, b string) float64 {
	return similarity(levenshtein(a, b), a, b)
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
