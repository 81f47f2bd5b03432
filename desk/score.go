package desk

import (
	"strings"
	"unicode/utf8"
)

// keywordWeights are matched case-insensitively as substrings. Each keyword
// counts once no matter how often it appears.
var keywordWeights = []struct {
	keyword string
	weight  int
}{
	{"risk", 5},
	{"impact", 4},
	{"cost", 3},
	{"urgent", 6},
	{"security", 5},
	{"performance", 4},
	{"reliability", 4},
	{"innovation", 3},
}

const (
	lengthBonusChars = 50
	maxLengthBonus   = 6
)

// ComputeScore maps free text to a non-negative score: the sum of the
// weights of every keyword present plus one point per 50 characters,
// capped at 6.
func ComputeScore(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, kw := range keywordWeights {
		if strings.Contains(lower, kw.keyword) {
			score += kw.weight
		}
	}
	return score + min(utf8.RuneCountInString(text)/lengthBonusChars, maxLengthBonus)
}
