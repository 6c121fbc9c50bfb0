package algo

/*

Fuzzy scoring algorithms. All of them share the same contract:

  - pattern characters must appear in the choice in order
  - the score rewards consecutive runs, word/camel boundaries, path
    separators, start-of-string, and brevity
  - a fast score-only path and a slower with-positions path

MatchV2 and MatchClangd run a Smith-Waterman-style dynamic program over a
restricted window, with an explicit direction matrix for traceback.
MatchFzy is an affine-gap Needleman-Wunsch with integer scores scaled by
200. MatchV1 and MatchSimple are greedy scans for very large inputs.

*/

import (
	"strings"
	"unicode"

	"github.com/skim-go/skim/src/util"
)

// Result contains the results of the match
type Result struct {
	// Start and End are character positions in the chosen text
	Start int
	End   int
	Score int
}

// Algo is a scoring function. The pattern is expected to be pre-lowercased
// when caseSensitive is false.
type Algo func(caseSensitive bool, input *util.Chars, pattern []rune, withPos bool, slab *util.Slab) (Result, *[]int)

var noResult = Result{-1, -1, 0}

const (
	scoreMatch        = 16
	scoreGapStart     = -3
	scoreGapExtension = -1

	// We prefer matches at the beginning of a word, but the bonus should not
	// be too great to prevent the longer acronym matches from always winning
	// over shorter fuzzy matches. The bonus point here was specifically
	// chosen so that the bonus is cancelled when the gap between the
	// acronyms grows over 8 characters, which is approximately the average
	// length of the words found in web2 dictionary and my file system.
	bonusBoundary = scoreMatch / 2

	// Edge-triggered bonus for matches in camelCase words.
	bonusCamel123 = bonusBoundary + scoreGapExtension

	// Although bonus point for non-word characters is non-contextual, we need
	// it for computing bonus points for consecutive chunks starting with
	// a non-word character.
	bonusNonWord = scoreMatch / 2

	// Minimum bonus point given to characters in consecutive chunks.
	// Note that bonus points for consecutive matches shouldn't have needed
	// if we used fixed match score as in the original algorithm.
	bonusConsecutive = -(scoreGapStart + scoreGapExtension)

	// The first character in the typed pattern usually has more significance
	// than the rest so it's important that it appears at special positions
	bonusFirstCharMultiplier = 2

	// Extra bonus when the boundary is a path separator or whitespace
	bonusBoundaryWhite     = bonusBoundary + 2
	bonusBoundaryDelimiter = bonusBoundary + 1
)

// Cells of the V2/clangd DP exceeding this area fall back to the greedy scan
const maxDPArea = 1 << 16

type charClass int

const (
	charWhite charClass = iota
	charNonWord
	charDelimiter
	charLower
	charUpper
	charLetter
	charNumber
)

const delimiterChars = "/,:;|"

func charClassOfAscii(char rune) charClass {
	if char >= 'a' && char <= 'z' {
		return charLower
	} else if char >= 'A' && char <= 'Z' {
		return charUpper
	} else if char >= '0' && char <= '9' {
		return charNumber
	} else if char == ' ' || char == '\t' {
		return charWhite
	} else if strings.ContainsRune(delimiterChars, char) {
		return charDelimiter
	}
	return charNonWord
}

func charClassOfNonAscii(char rune) charClass {
	if unicode.IsLower(char) {
		return charLower
	} else if unicode.IsUpper(char) {
		return charUpper
	} else if unicode.IsNumber(char) {
		return charNumber
	} else if unicode.IsLetter(char) {
		return charLetter
	} else if unicode.IsSpace(char) {
		return charWhite
	}
	return charNonWord
}

func charClassOf(char rune) charClass {
	if char <= unicode.MaxASCII {
		return charClassOfAscii(char)
	}
	return charClassOfNonAscii(char)
}

func bonusFor(prevClass charClass, class charClass) int {
	if class > charNonWord {
		switch prevClass {
		case charWhite:
			// Word boundary after whitespace
			return bonusBoundaryWhite
		case charDelimiter:
			// Word boundary after a path separator or similar
			return bonusBoundaryDelimiter
		case charNonWord:
			return bonusBoundary
		}
	}
	if prevClass == charLower && class == charUpper ||
		prevClass != charNumber && class == charNumber {
		// camelCase letter123
		return bonusCamel123
	}
	switch class {
	case charNonWord, charDelimiter:
		return bonusNonWord
	case charWhite:
		return bonusBoundaryWhite
	}
	return 0
}

func bonusAt(input *util.Chars, idx int) int {
	if idx == 0 {
		return bonusBoundaryWhite
	}
	return bonusFor(charClassOf(input.Get(idx-1)), charClassOf(input.Get(idx)))
}

func foldRune(r rune, caseSensitive bool) rune {
	if caseSensitive {
		return r
	}
	if r >= 'A' && r <= 'Z' {
		return r + 32
	}
	if r > unicode.MaxASCII {
		return unicode.To(unicode.LowerCase, r)
	}
	return r
}

func posArray(withPos bool, len int) *[]int {
	if withPos {
		pos := make([]int, 0, len)
		return &pos
	}
	return nil
}

func alloc32(offset int, slab *util.Slab, size int) (int, []int32) {
	if slab != nil && cap(slab.I32) > offset+size {
		slice := slab.I32[offset : offset+size]
		return offset + size, slice
	}
	return offset, make([]int32, size)
}

// subsequenceEnd scans forward and returns the position one past the last
// matched pattern character, or -1 when the pattern is not a subsequence.
func subsequenceEnd(caseSensitive bool, input *util.Chars, pattern []rune) int {
	pidx := 0
	lenInput := input.Length()
	for idx := 0; idx < lenInput; idx++ {
		if foldRune(input.Get(idx), caseSensitive) == pattern[pidx] {
			pidx++
			if pidx == len(pattern) {
				return idx + 1
			}
		}
	}
	return -1
}

// firstIndexOf returns the first position where the first pattern character
// occurs, or -1
func firstIndexOf(caseSensitive bool, input *util.Chars, first rune) int {
	lenInput := input.Length()
	for idx := 0; idx < lenInput; idx++ {
		if foldRune(input.Get(idx), caseSensitive) == first {
			return idx
		}
	}
	return -1
}

// calculateScore rates the window [sidx, eidx) that is known to contain the
// pattern as a subsequence, greedily consuming pattern characters
func calculateScore(caseSensitive bool, input *util.Chars, pattern []rune, sidx int, eidx int, withPos bool) (int, *[]int) {
	pidx, score, inGap, consecutive, firstBonus := 0, 0, false, 0, 0
	pos := posArray(withPos, len(pattern))
	prevClass := charWhite
	if sidx > 0 {
		prevClass = charClassOf(input.Get(sidx - 1))
	}
	for idx := sidx; idx < eidx; idx++ {
		char := foldRune(input.Get(idx), caseSensitive)
		class := charClassOf(input.Get(idx))
		if pidx < len(pattern) && char == pattern[pidx] {
			if withPos {
				*pos = append(*pos, idx)
			}
			score += scoreMatch
			bonus := bonusFor(prevClass, class)
			if consecutive == 0 {
				firstBonus = bonus
			} else {
				// Break consecutive chunk
				if bonus >= bonusBoundary && bonus > firstBonus {
					firstBonus = bonus
				}
				bonus = util.Max(util.Max(bonus, firstBonus), bonusConsecutive)
			}
			if pidx == 0 {
				score += bonus * bonusFirstCharMultiplier
			} else {
				score += bonus
			}
			inGap = false
			consecutive++
			pidx++
		} else {
			if inGap {
				score += scoreGapExtension
			} else {
				score += scoreGapStart
			}
			inGap = true
			consecutive = 0
			firstBonus = 0
		}
		prevClass = class
	}
	return score, pos
}

// MatchV1 is the greedy algorithm: scan forward to find the window end, scan
// backward to shrink the window, then rate the window
func MatchV1(caseSensitive bool, input *util.Chars, pattern []rune, withPos bool, slab *util.Slab) (Result, *[]int) {
	if len(pattern) == 0 {
		return Result{0, 0, 0}, posArray(withPos, 0)
	}

	eidx := subsequenceEnd(caseSensitive, input, pattern)
	if eidx < 0 {
		return noResult, nil
	}

	// Backward scan to find the smallest window ending at eidx
	pidx := len(pattern) - 1
	sidx := eidx
	for idx := eidx - 1; idx >= 0; idx-- {
		if foldRune(input.Get(idx), caseSensitive) == pattern[pidx] {
			pidx--
			if pidx < 0 {
				sidx = idx
				break
			}
		}
	}

	score, pos := calculateScore(caseSensitive, input, pattern, sidx, eidx, withPos)
	return Result{sidx, eidx, score}, pos
}

// Direction tags for the DP traceback, stored one byte per cell
const (
	dirNone byte = iota
	dirMatch
	dirSkip
)

// matchDP is the shared Smith-Waterman-style dynamic program behind MatchV2
// and MatchClangd. Affine gaps; each cell stores the best score of a local
// alignment whose last pattern character is considered at this column.
func matchDP(caseSensitive bool, input *util.Chars, pattern []rune, withPos bool, slab *util.Slab, fallback Algo) (Result, *[]int) {
	M := len(pattern)
	if M == 0 {
		return Result{0, 0, 0}, posArray(withPos, 0)
	}

	// Quick subsequence check also bounds the window on the right
	lastIdx := subsequenceEnd(caseSensitive, input, pattern)
	if lastIdx < 0 {
		return noResult, nil
	}
	minIdx := firstIndexOf(caseSensitive, input, pattern[0])
	width := lastIdx - minIdx

	if M*width > maxDPArea {
		return fallback(caseSensitive, input, pattern, withPos, slab)
	}

	offset32 := 0
	offset32, H := alloc32(offset32, slab, M*width)    // best score
	offset32, C := alloc32(offset32, slab, M*width)    // consecutive run length
	_, B := alloc32(offset32, slab, width)             // per-column bonus
	D := make([]byte, M*width)                         // traceback direction

	// Precompute character bonus relative to the previous character
	prevClass := charWhite
	if minIdx > 0 {
		prevClass = charClassOf(input.Get(minIdx - 1))
	}
	for off := 0; off < width; off++ {
		class := charClassOf(input.Get(minIdx + off))
		B[off] = int32(bonusFor(prevClass, class))
		prevClass = class
	}

	minScore := int32(-1 << 30)
	maxScore, maxRow, maxCol := minScore, 0, 0

	for i := 0; i < M; i++ {
		pchar := pattern[i]
		row := i * width
		inGap := false
		for j := 0; j < width; j++ {
			char := foldRune(input.Get(minIdx+j), caseSensitive)
			var sMatch, sSkip int32 = minScore, minScore

			if char == pchar {
				var diag int32
				var consec int32
				if i == 0 {
					// First pattern character may start anywhere
					diag = 0
					bonus := B[j] * bonusFirstCharMultiplier
					sMatch = scoreMatch + bonus
					consec = 1
				} else if j > 0 {
					diag = H[row-width+j-1]
					if diag > minScore {
						bonus := B[j]
						prevConsec := C[row-width+j-1]
						if D[row-width+j-1] == dirMatch && prevConsec > 0 {
							bonus = util.Max32(bonus, int32(bonusConsecutive))
							consec = prevConsec + 1
						} else {
							consec = 1
						}
						sMatch = diag + scoreMatch + bonus
					}
				}
				if sMatch > minScore {
					C[row+j] = consec
				}
			}

			if j > 0 && H[row+j-1] > minScore {
				if inGap {
					sSkip = H[row+j-1] + scoreGapExtension
				} else {
					sSkip = H[row+j-1] + scoreGapStart
				}
			}

			if sMatch >= sSkip {
				H[row+j] = sMatch
				if sMatch > minScore {
					D[row+j] = dirMatch
				} else {
					D[row+j] = dirNone
				}
				inGap = false
			} else {
				H[row+j] = sSkip
				D[row+j] = dirSkip
				C[row+j] = 0
				inGap = true
			}

			if i == M-1 && H[row+j] > maxScore {
				maxScore, maxRow, maxCol = H[row+j], i, j
			}
		}
	}

	if maxScore <= minScore {
		return noResult, nil
	}

	// Traceback from the best last-row cell
	pos := posArray(withPos, M)
	i, j := maxRow, maxCol
	begin, end := maxCol, maxCol+1
	for {
		switch D[i*width+j] {
		case dirMatch:
			begin = j
			if withPos {
				*pos = append(*pos, minIdx+j)
			}
			i--
			j--
		case dirSkip:
			j--
		default:
			i, j = -1, -1
		}
		if i < 0 || j < 0 {
			break
		}
	}
	if withPos {
		// Positions were collected back-to-front
		for l, r := 0, len(*pos)-1; l < r; l, r = l+1, r-1 {
			(*pos)[l], (*pos)[r] = (*pos)[r], (*pos)[l]
		}
	}
	return Result{minIdx + begin, minIdx + end, int(maxScore)}, pos
}

// MatchV2 is the default algorithm
func MatchV2(caseSensitive bool, input *util.Chars, pattern []rune, withPos bool, slab *util.Slab) (Result, *[]int) {
	return matchDP(caseSensitive, input, pattern, withPos, slab, MatchV1)
}

// MatchClangd runs the same DP with the same bonuses as MatchV2 and then
// subtracts a quarter of the number of characters after the match end from
// the score, never going below zero.
func MatchClangd(caseSensitive bool, input *util.Chars, pattern []rune, withPos bool, slab *util.Slab) (Result, *[]int) {
	result, pos := matchDP(caseSensitive, input, pattern, withPos, slab, MatchV1)
	if result.Start < 0 {
		return result, pos
	}
	// Penalize trailing unmatched segment length, as clangd does
	tail := input.Length() - result.End
	result.Score = util.Max(0, result.Score-tail/4)
	return result, pos
}

// MatchSimple is a plain first-subsequence scan. It exists for inputs where
// even the greedy backward pass of MatchV1 is too expensive.
func MatchSimple(caseSensitive bool, input *util.Chars, pattern []rune, withPos bool, slab *util.Slab) (Result, *[]int) {
	if len(pattern) == 0 {
		return Result{0, 0, 0}, posArray(withPos, 0)
	}
	pos := posArray(withPos, len(pattern))
	pidx := 0
	sidx := -1
	lenInput := input.Length()
	for idx := 0; idx < lenInput; idx++ {
		if foldRune(input.Get(idx), caseSensitive) == pattern[pidx] {
			if sidx < 0 {
				sidx = idx
			}
			if withPos {
				*pos = append(*pos, idx)
			}
			pidx++
			if pidx == len(pattern) {
				score, _ := calculateScore(caseSensitive, input, pattern, sidx, idx+1, false)
				return Result{sidx, idx + 1, score}, pos
			}
		}
	}
	return noResult, nil
}

// Of returns the algorithm registered under the given name; the default is
// MatchV2. skim_v3 resolves to MatchV2: the batched results must equal the
// scalar results item-for-item, and MatchV2 is that scalar reference.
func Of(name string) Algo {
	switch strings.ToLower(name) {
	case "skim_v1":
		return MatchV1
	case "", "skim", "skim_v2", "skim_v3":
		return MatchV2
	case "clangd":
		return MatchClangd
	case "simple":
		return MatchSimple
	case "fzy":
		return MatchFzy
	}
	return MatchV2
}
