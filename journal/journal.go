// Package journal parses plain-text ledger journals into structured
// transactions. The parser is fault tolerant: a malformed line is recorded
// as a SyntaxError and skipped, and parsing continues with the next line.
// This matters because the parser runs on every keystroke while a document
// is being edited, so the line under the cursor is frequently incomplete.
package journal

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the transaction status marker from the header line.
type Status int

const (
	StatusNone    Status = iota
	StatusCleared        // *
	StatusPending        // !
)

// String returns the marker as it appears in source, or "" for none.
func (s Status) String() string {
	switch s {
	case StatusCleared:
		return "*"
	case StatusPending:
		return "!"
	default:
		return ""
	}
}

// Date is a calendar date from a transaction header.
type Date struct {
	time.Time
}

// NewDate creates a date from year, month, and day.
func NewDate(year, month, day int) Date {
	return Date{time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Amount is a posted quantity of a commodity, e.g. "10.50 USD" or "$12".
// The commodity may be empty when a posting carries a bare number.
type Amount struct {
	Quantity  decimal.Decimal
	Commodity string
}

// Posting is one leg of a transaction: an account path and an optional
// amount.
//
// Example:
//
//	  Expenses:Food:Groceries    42.10 USD
type Posting struct {
	Pos         Position
	Span        Span     // the whole posting line
	Account     []string // hierarchy segments, each non-empty
	AccountSpan Span     // the account token within the line
	Amount      *Amount  // nil when omitted or unparseable
}

// AccountPath returns the account segments joined with the hierarchy
// delimiter, e.g. "Expenses:Food:Groceries".
func (p *Posting) AccountPath() string {
	return strings.Join(p.Account, ":")
}

// Transaction is one dated accounting event: a header line followed by
// indented postings.
//
// Example:
//
//	2024-01-05 * (1234) Corner Store
//	  Expenses:Food    12.00 USD
//	  Assets:Cash
type Transaction struct {
	Pos       Position
	Span      Span // header start through the end of the last posting line
	Date      Date
	Status    Status
	Code      string // optional "(code)" between status and payee
	Payee     string // may be empty
	PayeeSpan Span   // zero-length at the payee position when Payee is empty
	Postings  []*Posting
}

// Journal is the immutable parse result of one document version: the
// ordered transactions plus every recoverable syntax problem encountered.
// A Journal is never nil and never shared with the parser after Parse
// returns; callers may read it concurrently.
type Journal struct {
	Transactions []*Transaction
	Problems     []*SyntaxError
}

// AccountPaths returns the account path of every posting, in source order,
// with duplicates preserved.
func (j *Journal) AccountPaths() []string {
	var paths []string
	for _, tx := range j.Transactions {
		for _, p := range tx.Postings {
			paths = append(paths, p.AccountPath())
		}
	}
	return paths
}

// Payees returns the non-empty payee of every transaction in source order.
func (j *Journal) Payees() []string {
	var payees []string
	for _, tx := range j.Transactions {
		if tx.Payee != "" {
			payees = append(payees, tx.Payee)
		}
	}
	return payees
}
