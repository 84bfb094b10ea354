package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"2+2", 4},
		{"123+123*2", 369},
		{"(100+50)/3", 50},
		{"500000/0.994-300*924", 225818.10865191147},
		{"10-3-2", 5},
		{"100/10/2", 5},
		{"-5+3", -2},
		{"--5", 5},
		{"2*(3+4)", 14},
		{"1,5+1,5", 3},
		{"1'000'000/2", 500000},
		{"1’000+1", 1001},
		{"10 + 2 * 3", 16},
		{"100–50", 50}, // юникодное тире
	}
	for _, tc := range cases {
		got, err := Evaluate(tc.expr)
		require.NoError(t, err, tc.expr)
		assert.InDelta(t, tc.want, got, 1e-6, tc.expr)
	}
}

// Процентный суффикс: A±B% берет процент от левой части, в остальных
// позициях X% — просто доля.
func TestEvaluatePercent(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"100+5%", 105},
		{"100-5%", 95},
		{"200+50%", 300},
		{"50%", 0.5},
		{"100*5%", 5},
		{"100+1,5%", 101.5},
		{"1000-1.5%", 985},
		{"(100+100)+10%", 220},
	}
	for _, tc := range cases {
		got, err := Evaluate(tc.expr)
		require.NoError(t, err, tc.expr)
		assert.InDelta(t, tc.want, got, 1e-9, tc.expr)
	}
}

func TestEvaluateErrors(t *testing.T) {
	cases := []string{
		"",
		"2+",
		"(2+3",
		"10/0",
		"abc",
		"2;3",
		"2+js()",
	}
	for _, expr := range cases {
		_, err := Evaluate(expr)
		assert.Error(t, err, expr)
	}
}
