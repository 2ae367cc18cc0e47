// Package pricing defines the price token grammar and the value transform
// that applies a markup and reformats the result.
package pricing

import "regexp"

// tokenPattern decomposes a price token into prefix, value, and currency.
// The value accepts either a grouped form (1-3 digits then "separator +
// three digits" groups) or a bare digit run; both branches are intentional,
// so ungrouped numbers of any length still match. The prefix label is
// case-insensitive and keeps its trailing whitespace so reconstruction can
// concatenate without guessing spacing.
var tokenPattern = regexp.MustCompile(`(?i)(Стоимость\s*[-–]?\s*)?(\d{1,3}(?:[\. ]\d{3})*|\d+)\s*(€)`)

// Match is one decomposed price token.
type Match struct {
	Start    int // byte offset of the full match
	End      int
	Text     string // full matched substring
	Prefix   string // possibly empty, never meaningful whitespace trimmed
	Value    string // numeric substring as it appeared, separators included
	Currency string
}

// FindAll scans text left to right and returns every non-overlapping price
// token. Scanning the same text twice yields identical results.
func FindAll(text string) []Match {
	var matches []Match
	for _, idx := range tokenPattern.FindAllStringSubmatchIndex(text, -1) {
		m := Match{
			Start:    idx[0],
			End:      idx[1],
			Text:     text[idx[0]:idx[1]],
			Value:    text[idx[4]:idx[5]],
			Currency: text[idx[6]:idx[7]],
		}
		if idx[2] >= 0 {
			m.Prefix = text[idx[2]:idx[3]]
		}
		matches = append(matches, m)
	}
	return matches
}
