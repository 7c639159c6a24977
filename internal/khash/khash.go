// Package khash implements the keyed, prefix-preserving one-way encoding
// applied to payment tokens before they leave the process.
package khash

import (
	"crypto/sha1"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	alphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	hashLen   = 14
	window    = 7
	binLength = 6
	maskChar  = "X"
)

// Encoder hashes payment tokens against a configured salt.
type Encoder struct {
	salt string
}

func New(salt string) (*Encoder, error) {
	if salt == "" {
		return nil, ErrMissingSalt
	}
	return &Encoder{salt: salt}, nil
}

// NewFromConfigKey builds an Encoder from the Base85 config key issued with
// the merchant account.
func NewFromConfigKey(key string) (*Encoder, error) {
	salt, err := DecodeConfigKey(key)
	if err != nil {
		return nil, err
	}
	return New(salt)
}

// DecodeConfigKey returns the salt packed in a Base85 config key. The
// Adobe "<~" and "~>" delimiters are optional and whitespace is ignored.
func DecodeConfigKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	key = strings.TrimSuffix(strings.TrimPrefix(key, "<~"), "~>")
	if key == "" {
		return "", ErrMissingSalt
	}

	// "z" expands one character into four zero bytes
	dst := make([]byte, 4*len(key))
	n, _, err := ascii85.Decode(dst, []byte(key), true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfigKey, err)
	}
	if n == 0 {
		return "", ErrMissingSalt
	}
	return string(dst[:n]), nil
}

// Hash returns the 14 character code for plainText.
//
// The SHA-1 digest of plainText + "." + salt is rendered as uppercase hex and
// read in overlapping 7 character windows starting at every even offset
// 0..26. Each window is reduced mod 36 into alphabet.
func (e *Encoder) Hash(plainText string) (string, error) {
	if e == nil || e.salt == "" {
		return "", ErrMissingSalt
	}

	sum := sha1.Sum([]byte(plainText + "." + e.salt))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))

	var b strings.Builder
	b.Grow(hashLen)
	for i := 0; i < hashLen*2; i += 2 {
		n, err := strconv.ParseUint(digest[i:i+window], 16, 32)
		if err != nil {
			// digest is always valid hex
			return "", err
		}
		b.WriteByte(alphabet[n%uint64(len(alphabet))])
	}
	return b.String(), nil
}

// HashPaymentToken keeps up to the first six characters of token so that
// hashed tokens can still be bucketed by BIN.
func (e *Encoder) HashPaymentToken(token string) (string, error) {
	h, err := e.Hash(token)
	if err != nil {
		return "", err
	}
	return prefix(token, binLength) + h, nil
}

// HashGiftCard prefixes the hash with the merchant id instead of the BIN.
func (e *Encoder) HashGiftCard(merchantID int64, cardNumber string) (string, error) {
	h, err := e.Hash(cardNumber)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(merchantID, 10) + h, nil
}

// MaskToken keeps the first six and last four characters of token and
// replaces everything in between with X. Lengths count runes, not bytes.
func MaskToken(token string) (string, error) {
	n := utf8.RuneCountInString(token)
	if n < binLength+4 {
		return "", ErrTokenTooShort
	}
	return prefix(token, binLength) +
		strings.Repeat(maskChar, n-binLength-4) +
		suffix(token, 4), nil
}

func Last4(token string) string {
	return suffix(token, 4)
}

// prefix returns the first n runes of s.
func prefix(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

// suffix returns the last n runes of s.
func suffix(s string, n int) string {
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}
