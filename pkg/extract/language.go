package extract

import (
	"errors"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// LanguageDetector guesses the ISO 639-1 language of a text
type LanguageDetector interface {
	Detect(text string) (string, error)
}

var (
	errNoLetters     = errors.New("text has no letters")
	errUndetermined  = errors.New("language could not be determined")
	errLowConfidence = errors.New("language guess is unreliable")
)

// WhatlangDetector detects languages with whatlanggo
type WhatlangDetector struct {
	// RequireReliable rejects guesses whatlanggo itself marks unreliable
	RequireReliable bool
}

// Detect returns the ISO 639-1 code for text
func (d WhatlangDetector) Detect(text string) (string, error) {
	if strings.IndexFunc(text, unicode.IsLetter) < 0 {
		return "", errNoLetters
	}
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return "", errUndetermined
	}
	if d.RequireReliable && !info.IsReliable() {
		return "", errLowConfidence
	}
	return code, nil
}

// keepLanguage applies the filter policy: only a successful detection
// matching target keeps the text.
func keepLanguage(det LanguageDetector, text, target string) bool {
	if det == nil || target == "" {
		return true
	}
	code, err := det.Detect(text)
	if err != nil {
		return false
	}
	return strings.EqualFold(code, target)
}
