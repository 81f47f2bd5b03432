package desk_test

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/warp/clientdesk/desk"
)

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"no keywords", "quarterly planning notes", 0},
		{"two keywords", "Security risk review", 10},
		{"case insensitive", "URGENT", 6},
		{"substring match", "costly riskiness", 8},
		{"keyword counted once", "risk risk risk", 5},
		{"all keywords", "risk impact cost urgent security performance reliability innovation", 35},
		{"length bonus", strings.Repeat("x", 100), 2},
		{"length bonus capped", strings.Repeat("x", 1000), 6},
		{"runes not bytes", strings.Repeat("é", 50), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, desk.ComputeScore(tt.text))
		})
	}
}

func TestProperty_ComputeScore(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Sum of every weight plus the largest length bonus.
	const maxScore = 34 + 6

	properties.Property("score is bounded", prop.ForAll(
		func(s string) bool {
			score := desk.ComputeScore(s)
			return score >= 0 && score <= maxScore
		},
		gen.AnyString(),
	))

	properties.Property("score is deterministic", prop.ForAll(
		func(s string) bool {
			return desk.ComputeScore(s) == desk.ComputeScore(s)
		},
		gen.AnyString(),
	))

	properties.Property("score ignores ASCII case", prop.ForAll(
		func(s string) bool {
			return desk.ComputeScore(strings.ToUpper(s)) == desk.ComputeScore(s)
		},
		gen.AlphaString(),
	))

	properties.Property("repeating a keyword adds nothing beyond length", prop.ForAll(
		func(n int) bool {
			once := desk.ComputeScore("risk")
			many := desk.ComputeScore(strings.TrimSpace(strings.Repeat("risk ", n)))
			bonus := min(len(strings.TrimSpace(strings.Repeat("risk ", n)))/50, 6)
			return many == once+bonus
		},
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t)
}
