package sharecode

import (
	"encoding/binary"
	"errors"
	"strings"
)

// Package sharecode implements the CS:GO/CS2 match sharing code format.
// A share code packs a (matchID, outcomeID, token) triple into 144 bits
// and renders them as 25 base-57 symbols.

const (
	// Prefix is the constant lead-in of every rendered share code.
	Prefix = "CSGO-"

	// dictionary holds the 57 valid payload symbols. I, g, l, 0 and 1 are
	// excluded to avoid visual ambiguity.
	dictionary = "ABCDEFGHJKLMNOPQRSTUVWXYZabcdefhijkmnopqrstuvwxyz23456789"

	codeLength  = 25
	payloadSize = 18
)

var (
	ErrInvalidLength = errors.New("share code must contain exactly 25 payload characters")
	ErrInvalidSymbol = errors.New("share code contains a character outside the base-57 dictionary")
	ErrOutOfRange    = errors.New("share code value does not fit 144 bits")
)

var dictionaryIndex = buildDictionaryIndex()

func buildDictionaryIndex() [256]int8 {
	var out [256]int8
	for i := range out {
		out[i] = -1
	}
	for i := 0; i < len(dictionary); i++ {
		out[dictionary[i]] = int8(i)
	}
	return out
}

// ShareCode is the decoded triple carried by a match sharing code.
type ShareCode struct {
	MatchID   uint64
	OutcomeID uint64
	Token     uint16
}

// Decode parses a share code in either its full rendered form
// ("CSGO-xxxxx-...-xxxxx") or as a bare 25-character payload.
//
// The payload is read as a base-57 number with the last character most
// significant. The resulting 144-bit value is expanded big-endian into 18
// bytes; the three fields are then read little-endian from that buffer.
func Decode(code string) (ShareCode, error) {
	payload, err := normalize(code)
	if err != nil {
		return ShareCode{}, err
	}

	var buf [payloadSize]byte
	for i := len(payload) - 1; i >= 0; i-- {
		digit := dictionaryIndex[payload[i]]
		if digit < 0 {
			return ShareCode{}, ErrInvalidSymbol
		}
		if !mulAdd(&buf, uint32(digit)) {
			return ShareCode{}, ErrOutOfRange
		}
	}

	return ShareCode{
		MatchID:   binary.LittleEndian.Uint64(buf[0:8]),
		OutcomeID: binary.LittleEndian.Uint64(buf[8:16]),
		Token:     binary.LittleEndian.Uint16(buf[16:18]),
	}, nil
}

// Encode renders the triple as a full share code with prefix and hyphens.
// It is the exact inverse of Decode for every representable triple.
func Encode(sc ShareCode) string {
	var buf [payloadSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], sc.MatchID)
	binary.LittleEndian.PutUint64(buf[8:16], sc.OutcomeID)
	binary.LittleEndian.PutUint16(buf[16:18], sc.Token)

	payload := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		payload[i] = dictionary[divMod57(&buf)]
	}

	var b strings.Builder
	b.Grow(len(Prefix) + codeLength + 4)
	b.WriteString(Prefix)
	for i := 0; i < codeLength; i += 5 {
		if i > 0 {
			b.WriteByte('-')
		}
		b.Write(payload[i : i+5])
	}
	return b.String()
}

// Validate reports whether the code is well formed and in range.
func Validate(code string) error {
	_, err := Decode(code)
	return err
}

// IsValid is a convenience wrapper around Validate.
func IsValid(code string) bool {
	return Validate(code) == nil
}

func normalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	code = strings.TrimPrefix(code, Prefix)
	code = strings.ReplaceAll(code, "-", "")
	if len(code) != codeLength {
		return "", ErrInvalidLength
	}
	return code, nil
}

// mulAdd computes buf = buf*57 + digit over the big-endian 18-byte buffer.
// It reports false when the result no longer fits 144 bits.
func mulAdd(buf *[payloadSize]byte, digit uint32) bool {
	carry := digit
	for i := payloadSize - 1; i >= 0; i-- {
		v := uint32(buf[i])*57 + carry
		buf[i] = byte(v)
		carry = v >> 8
	}
	return carry == 0
}

// divMod57 divides the big-endian 18-byte buffer by 57 in place and
// returns the remainder.
func divMod57(buf *[payloadSize]byte) uint32 {
	var rem uint32
	for i := 0; i < payloadSize; i++ {
		cur := rem<<8 | uint32(buf[i])
		buf[i] = byte(cur / 57)
		rem = cur % 57
	}
	return rem
}
