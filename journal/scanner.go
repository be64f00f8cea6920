package journal

// Byte-level scanning helpers for the line parser. The scanner works on
// raw bytes with no backtracking beyond single-line lookahead.

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t'
}

// indentOf returns the number of leading whitespace bytes of the line.
func indentOf(line []byte) int {
	i := 0
	for i < len(line) && isSpace(line[i]) {
		i++
	}
	return i
}

// isBlank reports whether the line contains only whitespace.
func isBlank(line []byte) bool {
	return indentOf(line) == len(line)
}

// ScanDate scans a date token at the start of the line: YYYY-MM-DD or
// YYYY/MM/DD, with one- or two-digit month and day. It returns the parsed
// date and the number of bytes consumed. ok is false when the line does
// not start with a date-shaped token or the values are out of range.
func ScanDate(line []byte) (date Date, n int, ok bool) {
	year, n1 := scanDigits(line, 0, 4, 4)
	if n1 == 0 || n1 >= len(line) {
		return Date{}, 0, false
	}

	sep := line[n1]
	if sep != '-' && sep != '/' {
		return Date{}, 0, false
	}

	month, n2 := scanDigits(line, n1+1, 1, 2)
	if n2 == 0 || n2 >= len(line) || line[n2] != sep {
		return Date{}, 0, false
	}

	day, n3 := scanDigits(line, n2+1, 1, 2)
	if n3 == 0 {
		return Date{}, 0, false
	}

	// The token must end at whitespace or end of line, otherwise this is
	// some other word that merely starts with digits.
	if n3 < len(line) && !isSpace(line[n3]) {
		return Date{}, 0, false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, n3, false
	}

	// Reject normalized overflow such as 2024-02-31.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if int(t.Month()) != month || t.Day() != day {
		return Date{}, n3, false
	}

	return Date{t}, n3, true
}

// scanDigits scans between min and max digits starting at pos and returns
// their value and the position after the last digit. A zero position means
// the digit count was out of range.
func scanDigits(line []byte, pos, min, max int) (value, end int) {
	i := pos
	v := 0
	for i < len(line) && isDigit(line[i]) && i-pos < max {
		v = v*10 + int(line[i]-'0')
		i++
	}
	if i-pos < min || (i < len(line) && isDigit(line[i])) {
		return 0, 0
	}
	return v, i
}

// SplitPosting splits a posting line body into the account token and the
// amount token. The two are separated by a tab or by two or more spaces,
// matching ledger convention; single spaces belong to the account name.
func SplitPosting(body string) (account, amount string, amountStart int) {
	for i := 0; i < len(body); i++ {
		if body[i] == '\t' || (body[i] == ' ' && i+1 < len(body) && body[i+1] == ' ') {
			account = strings.TrimRight(body[:i], " \t")
			rest := body[i:]
			trimmed := strings.TrimLeft(rest, " \t")
			amountStart = i + (len(rest) - len(trimmed))
			amount = strings.TrimRight(trimmed, " \t")
			return account, amount, amountStart
		}
	}
	return strings.TrimRight(body, " \t"), "", len(body)
}

// parseAmount parses an amount token: a signed quantity with optional
// digit grouping and a commodity symbol before or after it, e.g.
// "10 USD", "-1,200.50 EUR", "$12", "-$12". ok is false when the token is
// not a well-formed amount.
func parseAmount(text string) (*Amount, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	sign := ""
	if text[0] == '-' || text[0] == '+' {
		sign = text[:1]
		text = strings.TrimLeft(text[1:], " \t")
		if text == "" {
			return nil, false
		}
	}

	if isDigit(text[0]) || text[0] == '.' {
		// Quantity first, optional trailing commodity.
		num, rest := splitNumber(text)
		qty, ok := parseQuantity(sign + num)
		if !ok {
			return nil, false
		}
		commodity := strings.TrimSpace(rest)
		if !validCommodity(commodity) {
			return nil, false
		}
		return &Amount{Quantity: qty, Commodity: commodity}, true
	}

	// Commodity first, e.g. "$12" or "USD 12" or "-$12" (sign consumed).
	i := 0
	for i < len(text) && !isDigit(text[i]) && text[i] != '-' && text[i] != '+' && !isSpace(text[i]) {
		i++
	}
	commodity := text[:i]
	rest := strings.TrimLeft(text[i:], " \t")
	if commodity == "" || rest == "" {
		return nil, false
	}
	if rest[0] == '-' || rest[0] == '+' {
		if sign != "" {
			return nil, false
		}
		sign = rest[:1]
		rest = rest[1:]
	}
	num, tail := splitNumber(rest)
	if strings.TrimSpace(tail) != "" {
		return nil, false
	}
	qty, ok := parseQuantity(sign + num)
	if !ok {
		return nil, false
	}
	return &Amount{Quantity: qty, Commodity: commodity}, true
}

// splitNumber splits off the leading numeric run (digits, grouping commas,
// one decimal point) and returns it with the remainder of the string.
func splitNumber(text string) (num, rest string) {
	i := 0
	dot := false
	for i < len(text) {
		ch := text[i]
		if isDigit(ch) || ch == ',' {
			i++
			continue
		}
		if ch == '.' && !dot {
			dot = true
			i++
			continue
		}
		break
	}
	return text[:i], text[i:]
}

// parseQuantity converts a numeric run into a decimal, stripping digit
// grouping commas first.
func parseQuantity(num string) (decimal.Decimal, bool) {
	num = strings.ReplaceAll(num, ",", "")
	if num == "" || num == "-" || num == "+" || num == "." {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// validCommodity reports whether the token may serve as a commodity symbol
// ("" is allowed: bare quantities are legal postings).
func validCommodity(s string) bool {
	if strings.ContainsAny(s, " \t") {
		return false
	}
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			return false
		}
	}
	return true
}
