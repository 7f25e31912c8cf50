package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		col  string
		want int
	}{
		{"A", 1},
		{"B", 2},
		{"Z", 26},
		{"AA", 27},
		{"AB", 28},
		{"AZ", 52},
		{"BA", 53},
		{"ZZ", 702},
		{"AAA", 703},
		{"e", 5},
		{" F ", 6},
	}
	for _, tc := range tests {
		got, err := ToNumber(tc.col)
		require.NoError(t, err, "ToNumber(%q)", tc.col)
		assert.Equal(t, tc.want, got, "ToNumber(%q)", tc.col)
	}
}

func TestToNumberInvalid(t *testing.T) {
	for _, col := range []string{"", "A1", "4", "A-B", "É"} {
		_, err := ToNumber(col)
		assert.ErrorIs(t, err, ErrInvalidColumn, "ToNumber(%q)", col)
	}
}

func TestToLetters(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "A"},
		{2, "B"},
		{26, "Z"},
		{27, "AA"},
		{28, "AB"},
		{52, "AZ"},
		{702, "ZZ"},
		{703, "AAA"},
	}
	for _, tc := range tests {
		got, err := ToLetters(tc.n)
		require.NoError(t, err, "ToLetters(%d)", tc.n)
		assert.Equal(t, tc.want, got, "ToLetters(%d)", tc.n)
	}
}

func TestToLettersInvalid(t *testing.T) {
	for _, n := range []int{0, -1, -27} {
		_, err := ToLetters(n)
		assert.ErrorIs(t, err, ErrInvalidColumn, "ToLetters(%d)", n)
	}
}

func TestRoundTrip(t *testing.T) {
	for n := 1; n <= 10000; n++ {
		letters, err := ToLetters(n)
		require.NoError(t, err)
		back, err := ToNumber(letters)
		require.NoError(t, err)
		require.Equal(t, n, back, "round trip for %d via %q", n, letters)
	}
}

func TestNextQuestionPair(t *testing.T) {
	tests := []struct {
		name     string
		last     string
		start    string
		wantQ    string
		wantTime string
	}{
		{"no prior column starts at startColumn", "", "E", "E", "F"},
		{"advances two past the last question column", "F", "E", "H", "I"},
		{"crosses the Z boundary", "Y", "E", "AA", "AB"},
		{"start column in second letter range", "", "AA", "AA", "AB"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, tm, err := NextQuestionPair(tc.last, tc.start)
			require.NoError(t, err)
			assert.Equal(t, tc.wantQ, q)
			assert.Equal(t, tc.wantTime, tm)
		})
	}
}

func TestNextQuestionPairInvalid(t *testing.T) {
	_, _, err := NextQuestionPair("", "")
	assert.ErrorIs(t, err, ErrInvalidColumn)

	_, _, err = NextQuestionPair("5", "E")
	assert.ErrorIs(t, err, ErrInvalidColumn)
}
