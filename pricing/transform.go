package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Result is the outcome of a value transform. Applied distinguishes a real
// numeric rewrite from the identity fallback, so callers never have to
// compare strings to find out what happened.
type Result struct {
	Text    string
	Applied bool
	Value   int64 // parsed numeric value, when Applied
	Updated int64 // value after markup and rounding, when Applied
}

// Transform locates the first numeric run in text, scales it by multiplier,
// and rebuilds the token as "{prefix}{grouped value} {currency}". Rounding
// is half away from zero. Text without a parseable numeric run comes back
// unchanged with Applied false.
func Transform(text, prefix, currency string, multiplier float64) Result {
	start, end, ok := findNumericRun(text)
	if !ok {
		return Result{Text: text}
	}
	digits := strings.NewReplacer(" ", "", ".", "").Replace(text[start:end])
	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Result{Text: text}
	}
	updated := int64(math.Round(float64(value) * multiplier))
	return Result{
		Text:    prefix + groupThousands(updated) + " " + currency,
		Applied: true,
		Value:   value,
		Updated: updated,
	}
}

// findNumericRun finds the first numeric run: 1-3 leading digits then
// zero-or-more "separator + exactly 3 digits" groups, provided no digit
// follows the match, or else the maximal bare digit run. The group form
// backtracks the way a leftmost-first matcher would, so "160" never wins
// inside "1600" and "12 3456" yields "12".
func findNumericRun(s string) (int, int, bool) {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0, 0, false
	}

	for lead := 3; lead >= 1; lead-- {
		if start+lead > len(s) || !allDigits(s[start:start+lead]) {
			continue
		}
		ends := []int{start + lead}
		pos := start + lead
		for pos+4 <= len(s) && isSeparator(s[pos]) && allDigits(s[pos+1:pos+4]) {
			pos += 4
			ends = append(ends, pos)
		}
		for i := len(ends) - 1; i >= 0; i-- {
			end := ends[i]
			if end >= len(s) || !isDigit(rune(s[end])) {
				return start, end, true
			}
		}
	}

	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}
	return start, end, true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isSeparator(b byte) bool { return b == ' ' || b == '.' }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(rune(s[i])) {
			return false
		}
	}
	return len(s) > 0
}

// groupThousands formats 36750 as "36 750", with a plain space separator.
func groupThousands(v int64) string {
	digits := strconv.FormatInt(v, 10)
	neg := false
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
