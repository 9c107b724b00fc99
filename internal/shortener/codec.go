package shortener

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"unicode/utf8"
)

// DefaultAlphabet leaves out vowels and the look-alikes l, 1, 0 so generated
// codes never spell words and are easy to read back.
const DefaultAlphabet = "23456789bcdfghjkmnpqrstvwxyzBCDFGHJKLMNPQRSTVWXYZ-_"

var (
	ErrInvalidAlphabet = errors.New("invalid alphabet")
	ErrTokenOverflow   = errors.New("short code exceeds identifier range")
)

// Codec converts identifiers to short codes and back using a fixed alphabet
// as the digits of a base-len(alphabet) number. A Codec is immutable and safe
// for concurrent use.
type Codec struct {
	symbols []rune
	index   map[rune]uint64
	base    uint64
}

// NewCodec builds a Codec for alphabet. The alphabet needs at least two
// distinct symbols.
func NewCodec(alphabet string) (*Codec, error) {
	if !utf8.ValidString(alphabet) {
		return nil, fmt.Errorf("%w: not valid UTF-8", ErrInvalidAlphabet)
	}

	symbols := []rune(alphabet)
	if len(symbols) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 symbols, got %d", ErrInvalidAlphabet, len(symbols))
	}

	index := make(map[rune]uint64, len(symbols))
	for i, r := range symbols {
		if _, dup := index[r]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %q", ErrInvalidAlphabet, r)
		}
		index[r] = uint64(i)
	}

	return &Codec{
		symbols: symbols,
		index:   index,
		base:    uint64(len(symbols)),
	}, nil
}

// MustCodec is like NewCodec but panics on an invalid alphabet.
func MustCodec(alphabet string) *Codec {
	c, err := NewCodec(alphabet)
	if err != nil {
		panic(err)
	}
	return c
}

// Base returns the number of symbols in the alphabet.
func (c *Codec) Base() int {
	return int(c.base)
}

// Alphabet returns the alphabet the Codec was built with.
func (c *Codec) Alphabet() string {
	return string(c.symbols)
}

// Encode converts id to its short code. Zero encodes to the first symbol of
// the alphabet, so every identifier has a non-empty code.
func (c *Codec) Encode(id uint64) string {
	if id == 0 {
		return string(c.symbols[0])
	}

	// Digits come out least significant first.
	digits := make([]rune, 0, 12)
	for id > 0 {
		digits = append(digits, c.symbols[id%c.base])
		id /= c.base
	}

	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}

	return string(digits)
}

// Decode converts a short code back to its identifier. It rejects empty
// codes, symbols outside the alphabet and codes with a leading zero symbol,
// which Encode never produces. Codes beyond the uint64 range return
// ErrTokenOverflow.
func (c *Codec) Decode(token string) (uint64, error) {
	if err := c.check(token); err != nil {
		return 0, err
	}

	var id uint64
	for _, r := range token {
		digit := c.index[r]
		if id > (math.MaxUint64-digit)/c.base {
			return 0, ErrTokenOverflow
		}
		id = id*c.base + digit
	}

	return id, nil
}

// EncodeBig is Encode for identifiers wider than 64 bits.
func (c *Codec) EncodeBig(id *big.Int) (string, error) {
	if id == nil || id.Sign() < 0 {
		return "", fmt.Errorf("cannot encode negative or nil identifier %v", id)
	}
	if id.Sign() == 0 {
		return string(c.symbols[0]), nil
	}

	base := new(big.Int).SetUint64(c.base)
	n := new(big.Int).Set(id)
	digit := new(big.Int)

	var digits []rune
	for n.Sign() > 0 {
		n.QuoRem(n, base, digit)
		digits = append(digits, c.symbols[digit.Uint64()])
	}

	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}

	return string(digits), nil
}

// DecodeBig is Decode without the uint64 bound.
func (c *Codec) DecodeBig(token string) (*big.Int, error) {
	if err := c.check(token); err != nil {
		return nil, err
	}

	base := new(big.Int).SetUint64(c.base)
	id := new(big.Int)
	digit := new(big.Int)
	for _, r := range token {
		id.Mul(id, base)
		id.Add(id, digit.SetUint64(c.index[r]))
	}

	return id, nil
}

func (c *Codec) check(token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	pos := 0
	for _, r := range token {
		digit, ok := c.index[r]
		if !ok {
			return fmt.Errorf("%w: character %q at position %d is not in the alphabet", ErrInvalidToken, r, pos)
		}
		if pos == 0 && digit == 0 && len(token) > utf8.RuneLen(r) {
			return fmt.Errorf("%w: leading %q", ErrInvalidToken, r)
		}
		pos++
	}

	return nil
}
