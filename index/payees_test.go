package index

import (
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestPayeeSet_InsertAndAll(t *testing.T) {
	payees := NewPayeeSet()
	payees.Insert("Corner Store", "a")
	payees.Insert("Costco", "a")
	payees.Insert("corner store", "b")

	// Case-insensitive identity: two spellings, one entry, latest casing
	// wins for display.
	assert.Equal(t, 2, payees.Len())
	assert.Equal(t, []string{"corner store", "Costco"}, payees.All())
}

func TestPayeeSet_Query(t *testing.T) {
	payees := NewPayeeSet()
	payees.Insert("Corner Store", "a")
	payees.Insert("Costco", "a")
	payees.Insert("Costco", "a")
	payees.Insert("Walmart", "a")

	tests := []struct {
		name    string
		partial string
		want    []string
	}{
		{
			// Costco was seen most recently, Corner Store before it.
			name:    "prefix matches ranked by recency",
			partial: "co",
			want:    []string{"Costco", "Corner Store"},
		},
		{
			name:    "case insensitive",
			partial: "COST",
			want:    []string{"Costco"},
		},
		{
			name:    "substring matches follow prefix matches",
			partial: "st",
			want:    []string{"Costco", "Corner Store"},
		},
		{
			name:    "empty partial returns everything ranked",
			partial: "",
			want:    []string{"Walmart", "Costco", "Corner Store"},
		},
		{
			name:    "no match",
			partial: "zzz",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := payees.Query(tt.partial, 0)
			if tt.want == nil {
				assert.Equal(t, 0, len(got))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayeeSet_SubstringGroupIsRankedToo(t *testing.T) {
	payees := NewPayeeSet()
	payees.Insert("East Market", "a")
	payees.Insert("West Market", "a")
	payees.Insert("West Market", "a")
	payees.Insert("Market Hall", "a")

	// "mark" prefixes only Market Hall; the two substring matches rank by
	// recency among themselves.
	assert.Equal(t, []string{"Market Hall", "West Market", "East Market"}, payees.Query("mark", 0))
}

func TestPayeeSet_MostRecentWins(t *testing.T) {
	payees := NewPayeeSet()
	payees.Insert("Rare Shop", "a")
	payees.Insert("Busy Shop", "a")
	payees.Insert("Busy Shop", "a")

	assert.Equal(t, []string{"Busy Shop", "Rare Shop"}, payees.Query("shop", 0))
}

func TestPayeeSet_Limit(t *testing.T) {
	payees := NewPayeeSet()
	for i := 0; i < DefaultPayeeLimit+10; i++ {
		payees.Insert(fmt.Sprintf("Payee %02d", i), "a")
	}

	assert.Equal(t, DefaultPayeeLimit, len(payees.Query("", 0)))
	assert.Equal(t, 5, len(payees.Query("", 5)))
	assert.Equal(t, DefaultPayeeLimit+10, len(payees.Query("", DefaultPayeeLimit+10)))
}

func TestPayeeSet_Remove(t *testing.T) {
	payees := NewPayeeSet()
	payees.Insert("Grocer", "a")
	payees.Insert("Grocer", "b")

	assert.NoError(t, payees.Remove("Grocer", "a"))
	assert.Equal(t, 1, payees.Len())

	assert.NoError(t, payees.Remove("Grocer", "b"))
	assert.Equal(t, 0, payees.Len())

	err := payees.Remove("Grocer", "a")
	assert.Error(t, err)
	assert.IsError(t, err, ErrCorruptIndex)
}

func TestPayeeSet_RemoveUnknownSource(t *testing.T) {
	payees := NewPayeeSet()
	payees.Insert("Grocer", "a")

	err := payees.Remove("Grocer", "b")
	assert.Error(t, err)
	assert.IsError(t, err, ErrCorruptIndex)

	// The entry is untouched by the failed removal.
	assert.Equal(t, 1, payees.Len())
	assert.NoError(t, payees.Remove("Grocer", "a"))
}
