// Package columns converts between spreadsheet column letters and 1-based
// column numbers, and computes the two-column slot a question occupies.
// The encoding is bijective base-26: A=1 ... Z=26, AA=27, no zero digit.
package columns

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidColumn = errors.New("invalid column reference")

// ToNumber parses column letters into a 1-based column number.
// A=1, B=2, ..., Z=26, AA=27, AB=28, ...
func ToNumber(col string) (int, error) {
	upper := strings.ToUpper(strings.TrimSpace(col))
	if upper == "" {
		return 0, fmt.Errorf("empty column letters: %w", ErrInvalidColumn)
	}
	result := 0
	for _, c := range upper {
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("column %q contains %q: %w", col, c, ErrInvalidColumn)
		}
		result = result*26 + int(c-'A'+1)
	}
	return result, nil
}

// ToLetters converts a 1-based column number into column letters.
// 1=A, 26=Z, 27=AA, 28=AB, ...
func ToLetters(n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("column number %d: %w", n, ErrInvalidColumn)
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b), nil
}

// NextQuestionPair returns the (question, time) column pair for the next
// question slot. Each question occupies two adjacent columns; the time column
// always immediately follows the question column. With no prior question the
// pair starts at startColumn; otherwise it starts two columns past the last
// question column.
func NextQuestionPair(lastQuestionColumn, startColumn string) (string, string, error) {
	if lastQuestionColumn == "" {
		startNum, err := ToNumber(startColumn)
		if err != nil {
			return "", "", err
		}
		timeCol, err := ToLetters(startNum + 1)
		if err != nil {
			return "", "", err
		}
		return strings.ToUpper(strings.TrimSpace(startColumn)), timeCol, nil
	}

	lastNum, err := ToNumber(lastQuestionColumn)
	if err != nil {
		return "", "", err
	}
	questionCol, err := ToLetters(lastNum + 2)
	if err != nil {
		return "", "", err
	}
	timeCol, err := ToLetters(lastNum + 3)
	if err != nil {
		return "", "", err
	}
	return questionCol, timeCol, nil
}
