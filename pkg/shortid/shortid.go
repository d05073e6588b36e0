// Package shortid generates the short record identifiers used as primary
// keys for experiments and experiment states.
package shortid

import (
	"math/big"

	"github.com/google/uuid"
)

// Alphabet is base 57: alphanumerics minus the visually ambiguous
// characters 0, 1, I, O and l.
const Alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Length of a generated identifier.
const Length = 10

// New returns a fresh identifier: a random 128-bit value encoded in the
// alphabet, truncated to Length characters. Collisions are not checked
// against the database.
func New() string {
	id := uuid.New()
	return fromInt(new(big.Int).SetBytes(id[:]))
}

// fromInt encodes and truncates. Values that encode to fewer than Length
// digits are returned as-is.
func fromInt(num *big.Int) string {
	enc := Encode(num)
	if len(enc) > Length {
		return enc[:Length]
	}
	return enc
}

// Encode renders a non-negative integer in the alphabet, most significant
// digit first.
func Encode(num *big.Int) string {
	if num.Sign() == 0 {
		return string(Alphabet[0])
	}
	base := big.NewInt(int64(len(Alphabet)))
	n := new(big.Int).Set(num)
	rem := new(big.Int)
	var digits []byte
	for n.Sign() > 0 {
		n.DivMod(n, base, rem)
		digits = append(digits, Alphabet[rem.Int64()])
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}
