package algo

import "github.com/skim-go/skim/src/util"

// Affine-gap Needleman-Wunsch scoring in the style of fzy. Scores are
// integers scaled by 200 from the reference weights; the MIN sentinel
// saturates instead of wrapping.

const (
	fzyScoreMin = int32(-1 << 30)
	fzyScoreMax = int32(1 << 30)

	fzyGapLeading  = int32(-1) // -0.005 * 200
	fzyGapTrailing = int32(-1) // -0.005 * 200
	fzyGapInner    = int32(-2) // -0.01  * 200

	fzyMatchConsecutive = int32(200)
	fzyMatchSlash       = int32(180)
	fzyMatchWord        = int32(160)
	fzyMatchCapital     = int32(140)
	fzyMatchDot         = int32(120)
)

func fzySaturate(score int32) int32 {
	if score < fzyScoreMin {
		return fzyScoreMin
	}
	return score
}

func fzyBonus(input *util.Chars, idx int) int32 {
	if idx == 0 {
		// Start of string counts as a path boundary
		return fzyMatchSlash
	}
	prev := input.Get(idx - 1)
	curr := input.Get(idx)
	switch prev {
	case '/':
		return fzyMatchSlash
	case '-', '_', ' ':
		return fzyMatchWord
	case '.':
		return fzyMatchDot
	}
	if prev >= 'a' && prev <= 'z' && curr >= 'A' && curr <= 'Z' {
		return fzyMatchCapital
	}
	return 0
}

// MatchFzy implements the affine-gap alignment
func MatchFzy(caseSensitive bool, input *util.Chars, pattern []rune, withPos bool, slab *util.Slab) (Result, *[]int) {
	m := len(pattern)
	n := input.Length()
	if m == 0 {
		return Result{0, 0, 0}, posArray(withPos, 0)
	}

	// Cheap greedy prefilter before committing to the DP
	if subsequenceEnd(caseSensitive, input, pattern) < 0 {
		return noResult, nil
	}

	if m == n {
		// The prefilter proved the pattern is a subsequence; equal lengths
		// mean the strings are equal up to case folding
		pos := posArray(withPos, m)
		if withPos {
			for idx := 0; idx < m; idx++ {
				*pos = append(*pos, idx)
			}
		}
		return Result{0, n, int(fzyScoreMax)}, pos
	}

	if m*n > maxDPArea {
		return MatchV1(caseSensitive, input, pattern, withPos, slab)
	}

	offset32 := 0
	offset32, D := alloc32(offset32, slab, m*n) // score ending in a match at this cell
	offset32, M := alloc32(offset32, slab, m*n) // best score up to this cell
	_, B := alloc32(offset32, slab, n)

	for j := 0; j < n; j++ {
		B[j] = fzyBonus(input, j)
	}

	for i := 0; i < m; i++ {
		gapScore := fzyGapInner
		if i == m-1 {
			gapScore = fzyGapTrailing
		}
		pchar := pattern[i]
		row := i * n
		prevM := fzyScoreMin
		for j := 0; j < n; j++ {
			score := fzyScoreMin
			if foldRune(input.Get(j), caseSensitive) == pchar {
				if i == 0 {
					score = fzySaturate(int32(j)*fzyGapLeading + B[j])
				} else if j > 0 {
					diagM := M[row-n+j-1]
					diagD := D[row-n+j-1]
					score = fzySaturate(util.Max32(
						fzySaturate(diagM+B[j]),
						fzySaturate(diagD+fzyMatchConsecutive)))
				}
			}
			D[row+j] = score
			M[row+j] = fzySaturate(util.Max32(score, fzySaturate(prevM+gapScore)))
			prevM = M[row+j]
		}
	}

	finalScore := M[(m-1)*n+n-1]
	if finalScore <= fzyScoreMin {
		return noResult, nil
	}

	// Walk the matrices back to recover the matched positions
	positions := make([]int, m)
	matchRequired := false
	j := n - 1
	for i := m - 1; i >= 0; i-- {
		row := i * n
		for ; j >= 0; j-- {
			if D[row+j] != fzyScoreMin && (matchRequired || D[row+j] == M[row+j]) {
				matchRequired = i > 0 && j > 0 &&
					M[row+j] == fzySaturate(D[row-n+j-1]+fzyMatchConsecutive)
				positions[i] = j
				j--
				break
			}
		}
	}

	pos := posArray(withPos, m)
	if withPos {
		*pos = append(*pos, positions...)
	}
	return Result{positions[0], positions[m-1] + 1, int(finalScore)}, pos
}
