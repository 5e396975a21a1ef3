// Package phone normalizes caller-supplied phone numbers to canonical
// international form and classifies them onto a payment rail. It is pure
// and side-effect free so it can be reused from validation contexts.
package phone

import (
	"errors"
	"strings"

	"pesa-gateway/internal/core/domain"
)

// MinCanonicalLength is the minimum digit count of a valid canonical
// number (country code + subscriber number).
const MinCanonicalLength = 12

var (
	// ErrInvalidPhone means the normalized number is too short to be real.
	ErrInvalidPhone = errors.New("phone: number too short after normalization")
	// ErrUnsupportedRail means no rail claims the number's prefix.
	ErrUnsupportedRail = errors.New("phone: no supported rail for number")
)

// Prefix groups are ordered: Safaricom before Airtel, first match wins.
// Local-format prefixes are kept so Classify also works on raw input.
var (
	mpesaPrefixes  = []string{"2547", "2541", "01", "07"}
	airtelPrefixes = []string{"2548", "2550", "08", "050"}
)

// Classifier normalizes and classifies numbers for one country.
type Classifier struct {
	countryCode string
}

// NewClassifier creates a Classifier. countryCode is the international
// dialing code without "+", e.g. "254".
func NewClassifier(countryCode string) *Classifier {
	return &Classifier{countryCode: countryCode}
}

// Normalize strips all non-digit characters, converts a local leading
// zero to the country code, and prepends the country code when missing.
// It is idempotent. Returns ErrInvalidPhone if the canonical result is
// shorter than MinCanonicalLength.
func (c *Classifier) Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if strings.HasPrefix(cleaned, "0") {
		cleaned = c.countryCode + cleaned[1:]
	}
	if !strings.HasPrefix(cleaned, c.countryCode) {
		cleaned = c.countryCode + cleaned
	}

	if len(cleaned) < MinCanonicalLength {
		return "", ErrInvalidPhone
	}
	return cleaned, nil
}

// Classify inspects the ordered prefix groups and returns the first rail
// that claims the number. Numbers matching neither group but plausibly
// domestic (country code or local leading zero) fall back to M-Pesa, the
// majority rail, rather than being rejected.
func (c *Classifier) Classify(number string) (domain.Rail, bool) {
	for _, p := range mpesaPrefixes {
		if strings.HasPrefix(number, p) {
			return domain.RailMpesa, true
		}
	}
	for _, p := range airtelPrefixes {
		if strings.HasPrefix(number, p) {
			return domain.RailAirtel, true
		}
	}
	if strings.HasPrefix(number, c.countryCode) || strings.HasPrefix(number, "0") {
		return domain.RailMpesa, true
	}
	return "", false
}

// NormalizeAndClassify runs both steps, distinguishing an invalid number
// from an unclassifiable one. Normalize guarantees the country-code
// prefix, which Classify's fallback always claims, so ErrUnsupportedRail
// can only surface for raw input handed straight to Classify.
func (c *Classifier) NormalizeAndClassify(raw string) (string, domain.Rail, error) {
	canonical, err := c.Normalize(raw)
	if err != nil {
		return "", "", err
	}
	rail, ok := c.Classify(canonical)
	if !ok {
		return "", "", ErrUnsupportedRail
	}
	return canonical, rail, nil
}
