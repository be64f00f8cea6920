package journal

import (
	"context"
	"strings"

	"github.com/DisezZ/ledger-ls/telemetry"
)

// Parse parses journal text into a Journal. It never fails: malformed
// lines become SyntaxError entries and parsing continues, so a document
// with one well-formed line always yields at least that line's structure.
func Parse(ctx context.Context, src []byte) *Journal {
	timer := telemetry.StartTimer(ctx, "journal.parse")
	defer timer.End()

	p := &parser{src: src, journal: &Journal{}}
	p.run()
	return p.journal
}

type parser struct {
	src     []byte
	journal *Journal

	// open is the transaction currently accepting postings. A blank line,
	// a comment line, or any unindented line closes it.
	open *Transaction
}

// Bare directives that legally appear unindented in ledger files. They
// carry no completion signal, so they are skipped without complaint
// instead of being reported as problems.
var bareDirectives = map[string]bool{
	"include":   true,
	"account":   true,
	"payee":     true,
	"commodity": true,
	"year":      true,
}

func (p *parser) run() {
	offset := 0
	lineNo := 1

	for offset <= len(p.src) {
		end := offset
		for end < len(p.src) && p.src[end] != '\n' {
			end++
		}

		content := p.src[offset:end]
		if len(content) > 0 && content[len(content)-1] == '\r' {
			content = content[:len(content)-1]
		}
		p.parseLine(content, offset, lineNo)

		if end >= len(p.src) {
			break
		}
		offset = end + 1
		lineNo++
	}
}

func (p *parser) parseLine(line []byte, offset, lineNo int) {
	if isBlank(line) {
		p.open = nil
		return
	}

	indent := indentOf(line)

	// Comment lines close the open transaction but are never problems.
	if line[indent] == ';' || line[indent] == '#' {
		p.open = nil
		return
	}

	if indent == 0 {
		p.parseUnindented(line, offset, lineNo)
		return
	}

	if p.open == nil {
		p.problem(offset, lineNo, indent+1, "posting outside of a transaction")
		return
	}
	p.parsePosting(line, indent, offset, lineNo)
}

func (p *parser) parseUnindented(line []byte, offset, lineNo int) {
	// Any unindented line ends the previous transaction's posting list,
	// whether or not it parses.
	p.open = nil

	date, n, ok := ScanDate(line)
	if n > 0 && !ok {
		p.problem(offset, lineNo, 1, "invalid date in transaction header")
		return
	}
	if !ok {
		word := string(line)
		if i := strings.IndexAny(word, " \t"); i >= 0 {
			word = word[:i]
		}
		if !bareDirectives[word] {
			p.problem(offset, lineNo, 1, "expected a dated transaction header")
		}
		return
	}

	tx := &Transaction{
		Pos:  Position{Offset: offset, Line: lineNo, Column: 1},
		Span: Span{Start: offset, End: offset + len(line)},
		Date: date,
	}

	i := skipSpace(line, n)
	if i < len(line) && (line[i] == '*' || line[i] == '!') && (i+1 >= len(line) || isSpace(line[i+1])) {
		if line[i] == '*' {
			tx.Status = StatusCleared
		} else {
			tx.Status = StatusPending
		}
		i = skipSpace(line, i+1)
	}

	if i < len(line) && line[i] == '(' {
		if j := strings.IndexByte(string(line[i:]), ')'); j > 0 {
			tx.Code = string(line[i+1 : i+j])
			i = skipSpace(line, i+j+1)
		}
	}

	payee := strings.TrimRight(string(line[i:]), " \t")
	tx.Payee = payee
	tx.PayeeSpan = Span{Start: offset + i, End: offset + i + len(payee)}

	p.journal.Transactions = append(p.journal.Transactions, tx)
	p.open = tx
}

func (p *parser) parsePosting(line []byte, indent, offset, lineNo int) {
	body := string(line[indent:])
	tokenStart := indent

	// Posting-level status flag, e.g. "  * Assets:Cash".
	if len(body) >= 2 && (body[0] == '*' || body[0] == '!') && isSpace(body[1]) {
		trimmed := strings.TrimLeft(body[1:], " \t")
		tokenStart += len(body) - len(trimmed)
		body = trimmed
	}

	accountText, amountText, amountOffset := SplitPosting(body)

	segments, ok := splitAccount(accountText)
	if !ok {
		p.problem(offset, lineNo, tokenStart+1, "cannot parse posting line")
		return
	}

	posting := &Posting{
		Pos:     Position{Offset: offset + tokenStart, Line: lineNo, Column: tokenStart + 1},
		Span:    Span{Start: offset, End: offset + len(line)},
		Account: segments,
		AccountSpan: Span{
			Start: offset + tokenStart,
			End:   offset + tokenStart + len(accountText),
		},
	}

	if amountText != "" {
		if amount, ok := parseAmount(amountText); ok {
			posting.Amount = amount
		} else {
			// The posting survives without its amount.
			p.problem(offset, lineNo, tokenStart+amountOffset+1, "cannot parse amount")
		}
	}

	p.open.Postings = append(p.open.Postings, posting)
	if end := offset + len(line); end > p.open.Span.End {
		p.open.Span.End = end
	}
}

// splitAccount splits an account token into trimmed hierarchy segments.
// Every segment must be non-empty and start with a letter, digit, or
// non-ASCII rune; anything else is not an account path.
func splitAccount(text string) ([]string, bool) {
	if text == "" {
		return nil, false
	}
	parts := strings.Split(text, ":")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		seg := strings.TrimSpace(part)
		if !validSegment(seg) {
			return nil, false
		}
		segments = append(segments, seg)
	}
	return segments, true
}

func validSegment(seg string) bool {
	if seg == "" {
		return false
	}
	ch := seg[0]
	return ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' || isDigit(ch) || ch >= 0x80
}

func skipSpace(line []byte, i int) int {
	for i < len(line) && isSpace(line[i]) {
		i++
	}
	return i
}

func (p *parser) problem(offset, lineNo, column int, message string) {
	p.journal.Problems = append(p.journal.Problems, &SyntaxError{
		Pos:     Position{Offset: offset + column - 1, Line: lineNo, Column: column},
		Message: message,
	})
}
