package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// CardNumberLength is the fixed length of generated card numbers.
const CardNumberLength = 16

// maxGenerateAttempts bounds the draw-until-checksum-valid loop. Roughly
// one in ten random draws passes the mod-10 check, so hitting the bound
// means the random source is broken, not that we were unlucky.
const maxGenerateAttempts = 1000

// ErrGenerationExhausted is returned when card number generation gives up
// after the attempt limit.
var ErrGenerationExhausted = errors.New("card number generation attempts exhausted")

// GenerateCardNumber generates a 16-digit card number that passes the
// mod-10 checksum, drawing random digits until one validates.
func GenerateCardNumber() (string, error) {
	buf := make([]byte, CardNumberLength)
	digits := make([]byte, CardNumberLength)
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random digits: %w", err)
		}
		for i, b := range buf {
			digits[i] = b%10 + '0'
		}
		number := string(digits)
		if IsValidCardNumber(number) {
			return number, nil
		}
	}
	return "", ErrGenerationExhausted
}

// IsValidCardNumber reports whether the number is a 16-digit string passing
// the alternating-double mod-10 checksum.
func IsValidCardNumber(number string) bool {
	if len(number) != CardNumberLength {
		return false
	}
	sum := 0
	alternate := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		n := int(c - '0')
		if alternate {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		alternate = !alternate
	}
	return sum%10 == 0
}

// MaskCardNumber returns the display form of a card number: all but the
// last four digits hidden. Used only for display, never for storage.
func MaskCardNumber(number string) string {
	if len(number) < 4 {
		return strings.Repeat("*", len(number))
	}
	return "**** **** **** " + number[len(number)-4:]
}

// CardFingerprint returns a deterministic one-way digest of a card number,
// used solely for uniqueness lookups. It is keyed so the stored value
// cannot be brute-forced over the 16-digit space without the secret.
func CardFingerprint(number, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(number))
	return hex.EncodeToString(h.Sum(nil))
}
