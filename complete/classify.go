package complete

import (
	"strings"

	"github.com/DisezZ/ledger-ls/journal"
)

// editContext classifies what the cursor is positioned over.
type editContext int

const (
	noContext editContext = iota
	accountContext
	payeeContext
)

// classify determines the edit context for a cursor column within a
// logical line and extracts the partial token text already typed.
//
// An indented line is a posting; the cursor must sit within or at the
// end of the account token, before any amount. An unindented line
// starting with a date is a transaction header; the cursor must sit
// after the date, status, and code tokens. Everything else, comment
// lines included, is no context.
func classify(line string, col int) (editContext, string) {
	if col < 0 {
		return noContext, ""
	}
	if col > len(line) {
		col = len(line)
	}

	indent := 0
	for indent < len(line) && (line[indent] == ' ' || line[indent] == '\t') {
		indent++
	}

	if indent < len(line) && (line[indent] == ';' || line[indent] == '#') {
		return noContext, ""
	}

	if indent > 0 {
		return classifyPosting(line, indent, col)
	}
	return classifyHeader(line, col)
}

func classifyPosting(line string, indent, col int) (editContext, string) {
	tokenStart := indent

	// Skip a posting-level status flag, e.g. "  * Assets:Cash".
	body := line[indent:]
	if len(body) >= 2 && (body[0] == '*' || body[0] == '!') && (body[1] == ' ' || body[1] == '\t') {
		trimmed := strings.TrimLeft(body[1:], " \t")
		tokenStart += len(body) - len(trimmed)
		body = trimmed
	}

	if col < tokenStart {
		// Cursor in the indentation: the account token is still empty.
		return accountContext, ""
	}

	account, amount, _ := journal.SplitPosting(body)
	if amount == "" {
		// No amount yet; the account token extends to the cursor.
		return accountContext, line[tokenStart:col]
	}

	accountEnd := tokenStart + len(account)
	if col <= accountEnd {
		return accountContext, line[tokenStart:col]
	}
	return noContext, ""
}

func classifyHeader(line string, col int) (editContext, string) {
	_, n, ok := journal.ScanDate([]byte(line))
	if !ok {
		return noContext, ""
	}

	i := skipSpace(line, n)
	if i < len(line) && (line[i] == '*' || line[i] == '!') && (i+1 >= len(line) || line[i+1] == ' ' || line[i+1] == '\t') {
		i = skipSpace(line, i+1)
	}
	if i < len(line) && line[i] == '(' {
		if j := strings.IndexByte(line[i:], ')'); j > 0 {
			i = skipSpace(line, i+j+1)
		}
	}

	if col < i {
		return noContext, ""
	}
	return payeeContext, line[i:col]
}

// lineAt returns the given 0-indexed logical line of the text.
func lineAt(text string, line int) (string, bool) {
	start := 0
	for ; line > 0; line-- {
		next := strings.IndexByte(text[start:], '\n')
		if next < 0 {
			return "", false
		}
		start += next + 1
	}

	end := strings.IndexByte(text[start:], '\n')
	if end < 0 {
		end = len(text) - start
	}
	return strings.TrimSuffix(text[start:start+end], "\r"), true
}

func skipSpace(line string, i int) int {
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i
}
