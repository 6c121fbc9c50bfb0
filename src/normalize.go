package skim

import "unicode/utf8"

// Latin script letters folded to their ASCII base so that "cafe" finds
// "café". Only the common single-codepoint forms are handled.
var normalized = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ä': 'a', 'ã': 'a', 'å': 'a', 'ā': 'a', 'ă': 'a', 'ą': 'a',
	'Á': 'A', 'À': 'A', 'Â': 'A', 'Ä': 'A', 'Ã': 'A', 'Å': 'A', 'Ā': 'A', 'Ă': 'A', 'Ą': 'A',
	'ç': 'c', 'ć': 'c', 'č': 'c', 'Ç': 'C', 'Ć': 'C', 'Č': 'C',
	'ď': 'd', 'đ': 'd', 'Ď': 'D', 'Đ': 'D',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e', 'ē': 'e', 'ĕ': 'e', 'ė': 'e', 'ę': 'e', 'ě': 'e',
	'É': 'E', 'È': 'E', 'Ê': 'E', 'Ë': 'E', 'Ē': 'E', 'Ĕ': 'E', 'Ė': 'E', 'Ę': 'E', 'Ě': 'E',
	'ğ': 'g', 'ģ': 'g', 'Ğ': 'G', 'Ģ': 'G',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i', 'ī': 'i', 'į': 'i', 'ı': 'i',
	'Í': 'I', 'Ì': 'I', 'Î': 'I', 'Ï': 'I', 'Ī': 'I', 'Į': 'I', 'İ': 'I',
	'ĺ': 'l', 'ļ': 'l', 'ľ': 'l', 'ł': 'l', 'Ĺ': 'L', 'Ļ': 'L', 'Ľ': 'L', 'Ł': 'L',
	'ñ': 'n', 'ń': 'n', 'ņ': 'n', 'ň': 'n', 'Ñ': 'N', 'Ń': 'N', 'Ņ': 'N', 'Ň': 'N',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o', 'ō': 'o', 'ő': 'o', 'ø': 'o',
	'Ó': 'O', 'Ò': 'O', 'Ô': 'O', 'Ö': 'O', 'Õ': 'O', 'Ō': 'O', 'Ő': 'O', 'Ø': 'O',
	'ŕ': 'r', 'ř': 'r', 'Ŕ': 'R', 'Ř': 'R',
	'ś': 's', 'ş': 's', 'š': 's', 'Ś': 'S', 'Ş': 'S', 'Š': 'S',
	'ť': 't', 'ţ': 't', 'Ť': 'T', 'Ţ': 'T',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u', 'ū': 'u', 'ů': 'u', 'ű': 'u', 'ų': 'u',
	'Ú': 'U', 'Ù': 'U', 'Û': 'U', 'Ü': 'U', 'Ū': 'U', 'Ů': 'U', 'Ű': 'U', 'Ų': 'U',
	'ý': 'y', 'ÿ': 'y', 'Ý': 'Y',
	'ź': 'z', 'ż': 'z', 'ž': 'z', 'Ź': 'Z', 'Ż': 'Z', 'Ž': 'Z',
}

func normalizeRune(r rune) rune {
	if r < 0x00C0 || r > 0x017F {
		return r
	}
	if n, found := normalized[r]; found {
		return n
	}
	return r
}

// normalizeRunes folds diacritics in place-compatible fashion
func normalizeRunes(runes []rune) []rune {
	ret := make([]rune, len(runes))
	for i, r := range runes {
		ret[i] = normalizeRune(r)
	}
	return ret
}

// normalizeWithByteMap folds diacritics and returns, for every byte of the
// normalized string, the offset of the byte in the original string it came
// from. The map lets a match range found in normalized coordinates be
// rendered over the original text.
func normalizeWithByteMap(str string) (string, []int) {
	out := make([]byte, 0, len(str))
	byteMap := make([]int, 0, len(str))
	for idx, r := range str {
		folded := normalizeRune(r)
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], folded)
		for i := 0; i < n; i++ {
			out = append(out, buf[i])
			byteMap = append(byteMap, idx)
		}
	}
	return string(out), byteMap
}

// mapBytesToOriginal converts a [begin, end) range in normalized
// coordinates back to original coordinates
func mapBytesToOriginal(begin int, end int, byteMap []int, original string) (int, int) {
	if len(byteMap) == 0 || begin >= end {
		return begin, end
	}
	if begin >= len(byteMap) {
		begin = len(byteMap) - 1
	}
	last := end - 1
	if last >= len(byteMap) {
		last = len(byteMap) - 1
	}
	origBegin := byteMap[begin]
	origLast := byteMap[last]
	_, size := utf8.DecodeRuneInString(original[origLast:])
	return origBegin, origLast + size
}
