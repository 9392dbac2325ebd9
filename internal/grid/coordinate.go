package grid

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TokenLength is the number of characters in a coordinate token.
const TokenLength = 3

// Coordinate is a resolved token: row, column and channel, all zero-based.
type Coordinate struct {
	Token   string
	Row     int
	Column  int
	Channel int
}

// Resolve maps one coordinate character to its zero-based index.
// 'A'..'H' and '1'..'8' both map onto 0..7; lowercase letters are rejected.
func Resolve(ch rune) (int, error) {
	switch {
	case ch >= 'A' && ch <= 'H':
		return int(ch - 'A'), nil
	case ch >= '1' && ch <= '8':
		return int(ch - '1'), nil
	default:
		return 0, fmt.Errorf("%w: character %q (expected A-H or 1-8)", ErrInvalidCoordinate, ch)
	}
}

// ParseCoordinate resolves a three-character token into row, column and
// channel, left to right.
func ParseCoordinate(token string) (Coordinate, error) {
	if n := utf8.RuneCountInString(token); n != TokenLength {
		return Coordinate{}, fmt.Errorf("%w: token %q has %d characters, want %d", ErrInvalidCoordinate, token, n, TokenLength)
	}

	var idx [TokenLength]int
	i := 0
	for _, ch := range token {
		v, err := Resolve(ch)
		if err != nil {
			return Coordinate{}, fmt.Errorf("token %q: %w", token, err)
		}
		idx[i] = v
		i++
	}

	return Coordinate{Token: token, Row: idx[0], Column: idx[1], Channel: idx[2]}, nil
}

// SplitTokens splits a comma-separated list, trimming whitespace around each
// token. Order and duplicates are preserved; empty tokens are kept so they
// fail resolution instead of being skipped.
func SplitTokens(list string) []string {
	parts := strings.Split(list, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
