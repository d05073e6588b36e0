package shortid

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLengthAndAlphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		id := New()
		assert.Len(t, id, Length)
		for _, c := range id {
			assert.True(t, strings.ContainsRune(Alphabet, c), "unexpected character %q in %q", c, id)
		}
	}
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		assert.False(t, seen[id], "duplicate identifier %q", id)
		seen[id] = true
	}
}

func TestFromIntShortValues(t *testing.T) {
	// Encodings shorter than Length pass through untruncated.
	assert.Equal(t, "2", fromInt(big.NewInt(0)))
	assert.Equal(t, "33", fromInt(big.NewInt(58)))

	// Exactly Length digits: 57^9 is the smallest 10-digit value.
	min10 := new(big.Int).Exp(big.NewInt(57), big.NewInt(9), nil)
	assert.Len(t, fromInt(min10), Length)

	// Longer encodings are truncated to Length.
	big128 := new(big.Int).Lsh(big.NewInt(1), 127)
	assert.Len(t, fromInt(big128), Length)
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		num  int64
		want string
	}{
		{"zero", 0, "2"},
		{"one", 1, "3"},
		{"last single digit", 56, "z"},
		{"first two digit", 57, "32"},
		{"two digits", 58, "33"},
		{"three digits", 57 * 57, "322"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(big.NewInt(tt.num)))
		})
	}
}
