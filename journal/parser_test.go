package journal

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func parse(t *testing.T, input string) *Journal {
	t.Helper()
	return Parse(context.Background(), []byte(input))
}

func TestParse_Transactions(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		checkFunc func(*testing.T, *Journal)
	}{
		{
			name:  "empty input",
			input: "",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 0, len(j.Transactions))
				assert.Equal(t, 0, len(j.Problems))
			},
		},
		{
			name: "simple transaction",
			input: "2024-01-05 * Corner Store\n" +
				"  Expenses:Food:Groceries  42.10 USD\n" +
				"  Assets:Cash\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 1, len(j.Transactions))
				assert.Equal(t, 0, len(j.Problems))

				tx := j.Transactions[0]
				assert.Equal(t, NewDate(2024, 1, 5), tx.Date)
				assert.Equal(t, StatusCleared, tx.Status)
				assert.Equal(t, "Corner Store", tx.Payee)
				assert.Equal(t, 2, len(tx.Postings))

				food := tx.Postings[0]
				assert.Equal(t, []string{"Expenses", "Food", "Groceries"}, food.Account)
				assert.NotZero(t, food.Amount)
				assert.Equal(t, "42.1", food.Amount.Quantity.String())
				assert.Equal(t, "USD", food.Amount.Commodity)

				cash := tx.Postings[1]
				assert.Equal(t, "Assets:Cash", cash.AccountPath())
				assert.Zero(t, cash.Amount)
			},
		},
		{
			name: "pending status and code",
			input: "2024-02-01 ! (1234) Utility Co\n" +
				"  Expenses:Utilities  80 USD\n" +
				"  Liabilities:Card\n",
			checkFunc: func(t *testing.T, j *Journal) {
				tx := j.Transactions[0]
				assert.Equal(t, StatusPending, tx.Status)
				assert.Equal(t, "1234", tx.Code)
				assert.Equal(t, "Utility Co", tx.Payee)
			},
		},
		{
			name: "slash dates and single-digit components",
			input: "2024/3/7 Bakery\n" +
				"  Expenses:Food  3 EUR\n" +
				"  Assets:Cash\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 1, len(j.Transactions))
				assert.Equal(t, NewDate(2024, 3, 7), j.Transactions[0].Date)
				assert.Equal(t, StatusNone, j.Transactions[0].Status)
			},
		},
		{
			name: "header without payee",
			input: "2024-01-01\n" +
				"  Assets:Cash  5 USD\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 1, len(j.Transactions))
				assert.Equal(t, "", j.Transactions[0].Payee)
				assert.Equal(t, 1, len(j.Transactions[0].Postings))
			},
		},
		{
			name: "posting level status flag",
			input: "2024-01-01 Shop\n" +
				"  * Expenses:Food  10 USD\n" +
				"  Assets:Cash\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 0, len(j.Problems))
				tx := j.Transactions[0]
				assert.Equal(t, "Expenses:Food", tx.Postings[0].AccountPath())
			},
		},
		{
			name: "account names with single internal spaces",
			input: "2024-01-01 Shop\n" +
				"  Expenses:Dining Out  15 USD\n" +
				"  Assets:Cash\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 0, len(j.Problems))
				assert.Equal(t, []string{"Expenses", "Dining Out"}, j.Transactions[0].Postings[0].Account)
			},
		},
		{
			name: "tab separated amount",
			input: "2024-01-01 Shop\n" +
				"  Expenses:Food\t10 USD\n" +
				"  Assets:Cash\n",
			checkFunc: func(t *testing.T, j *Journal) {
				p := j.Transactions[0].Postings[0]
				assert.NotZero(t, p.Amount)
				assert.Equal(t, "10", p.Amount.Quantity.String())
			},
		},
		{
			name: "multiple transactions separated by blank line",
			input: "2024-01-01 One\n" +
				"  Assets:A  1 USD\n" +
				"\n" +
				"2024-01-02 Two\n" +
				"  Assets:B  2 USD\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 2, len(j.Transactions))
				assert.Equal(t, 1, len(j.Transactions[0].Postings))
				assert.Equal(t, 1, len(j.Transactions[1].Postings))
			},
		},
		{
			name: "comments are skipped and close a transaction",
			input: "; file comment\n" +
				"2024-01-01 Shop\n" +
				"  Assets:A  1 USD\n" +
				"# another comment\n" +
				"  Assets:B  2 USD\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 1, len(j.Transactions))
				assert.Equal(t, 1, len(j.Transactions[0].Postings))
				assert.Equal(t, 1, len(j.Problems))
			},
		},
		{
			name: "bare directives are not problems",
			input: "include other.journal\n" +
				"account Assets:Cash\n" +
				"payee Grocer\n" +
				"commodity USD\n" +
				"year 2024\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 0, len(j.Transactions))
				assert.Equal(t, 0, len(j.Problems))
			},
		},
		{
			name:  "crlf line endings",
			input: "2024-01-01 Shop\r\n  Assets:Cash  1 USD\r\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 1, len(j.Transactions))
				assert.Equal(t, "Shop", j.Transactions[0].Payee)
				assert.Equal(t, 0, len(j.Problems))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFunc(t, parse(t, tt.input))
		})
	}
}

func TestParse_FaultTolerance(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		checkFunc func(*testing.T, *Journal)
	}{
		{
			name: "garbage posting keeps the surrounding postings",
			input: "2024-01-01 Shop\n" +
				"  Expenses:Food  10 USD\n" +
				"  !!!garbage!!!\n" +
				"  Assets:Cash\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 1, len(j.Transactions))
				tx := j.Transactions[0]
				assert.Equal(t, 2, len(tx.Postings))
				assert.Equal(t, "Expenses:Food", tx.Postings[0].AccountPath())
				assert.Equal(t, "Assets:Cash", tx.Postings[1].AccountPath())

				assert.Equal(t, 1, len(j.Problems))
				assert.Equal(t, 3, j.Problems[0].Pos.Line)
			},
		},
		{
			name:  "posting outside of a transaction",
			input: "  Assets:Cash  1 USD\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 0, len(j.Transactions))
				assert.Equal(t, 1, len(j.Problems))
				assert.Contains(t, j.Problems[0].Message, "outside")
			},
		},
		{
			name:  "unindented garbage",
			input: "not a transaction\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 0, len(j.Transactions))
				assert.Equal(t, 1, len(j.Problems))
				assert.Equal(t, 1, j.Problems[0].Pos.Line)
				assert.Equal(t, 1, j.Problems[0].Pos.Column)
			},
		},
		{
			name:  "date with impossible day",
			input: "2024-02-31 Shop\n  Assets:Cash  1 USD\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 0, len(j.Transactions))
				assert.Equal(t, 2, len(j.Problems))
				assert.Contains(t, j.Problems[0].Message, "invalid date")
			},
		},
		{
			name: "unparseable amount keeps the posting",
			input: "2024-01-01 Shop\n" +
				"  Expenses:Food  10..5 USD USD\n" +
				"  Assets:Cash\n",
			checkFunc: func(t *testing.T, j *Journal) {
				tx := j.Transactions[0]
				assert.Equal(t, 2, len(tx.Postings))
				assert.Zero(t, tx.Postings[0].Amount)
				assert.Equal(t, 1, len(j.Problems))
				assert.Contains(t, j.Problems[0].Message, "amount")
			},
		},
		{
			name: "problems do not abort later transactions",
			input: "garbage here\n" +
				"2024-01-01 Shop\n" +
				"  Assets:Cash  1 USD\n" +
				"more garbage\n" +
				"2024-01-02 Other\n" +
				"  Assets:Bank  2 USD\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 2, len(j.Transactions))
				assert.Equal(t, 2, len(j.Problems))
			},
		},
		{
			name: "empty account segment is a problem",
			input: "2024-01-01 Shop\n" +
				"  Expenses::Food  10 USD\n",
			checkFunc: func(t *testing.T, j *Journal) {
				assert.Equal(t, 0, len(j.Transactions[0].Postings))
				assert.Equal(t, 1, len(j.Problems))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFunc(t, parse(t, tt.input))
		})
	}
}

func TestParse_Spans(t *testing.T) {
	input := "2024-01-05 * Corner Store\n" +
		"  Expenses:Food  12.00 USD\n" +
		"  Assets:Cash\n"

	j := parse(t, input)
	assert.Equal(t, 1, len(j.Transactions))

	tx := j.Transactions[0]
	assert.Equal(t, "Corner Store", input[tx.PayeeSpan.Start:tx.PayeeSpan.End])
	assert.Equal(t, input[tx.Span.Start:tx.Span.End],
		"2024-01-05 * Corner Store\n  Expenses:Food  12.00 USD\n  Assets:Cash")

	food := tx.Postings[0]
	assert.Equal(t, "Expenses:Food", input[food.AccountSpan.Start:food.AccountSpan.End])
	assert.Equal(t, 2, food.Pos.Line)
	assert.Equal(t, 3, food.Pos.Column)
}

func TestJournal_Collections(t *testing.T) {
	input := "2024-01-01 Grocer\n" +
		"  Expenses:Food  10 USD\n" +
		"  Assets:Cash\n" +
		"\n" +
		"2024-01-02\n" +
		"  Expenses:Food  5 USD\n" +
		"  Assets:Cash\n"

	j := parse(t, input)
	assert.Equal(t, []string{"Expenses:Food", "Assets:Cash", "Expenses:Food", "Assets:Cash"}, j.AccountPaths())
	assert.Equal(t, []string{"Grocer"}, j.Payees())
}
