package extract

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	xerrors "xwatch/pkg/errors"
)

// ConvertLikesToNumber turns an abbreviated counter such as "1,234",
// "12.5K" or "3M" into an integer. Anything unparseable yields 0, and
// the result is never negative.
func ConvertLikesToNumber(text string) int64 {
	n, ok := parseAbbreviated(text)
	if !ok {
		return 0
	}
	return n
}

// parseAbbreviated is the strict form of ConvertLikesToNumber
func parseAbbreviated(text string) (int64, bool) {
	s := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(text, ",", "")))
	if s == "" {
		return 0, false
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1e3, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1e6, strings.TrimSuffix(s, "m")
	}

	if mult == 1 {
		if !isDigits(s) {
			return 0, false
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}

	if s == "" || strings.ContainsAny(s, "+-eE") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	v := math.Floor(f*mult + 1e-6)
	if v > math.MaxInt64/2 {
		return 0, false
	}
	return int64(v), true
}

// looksLikeCount reports whether token is a counter ConvertLikesToNumber accepts
func looksLikeCount(token string) bool {
	_, ok := parseAbbreviated(token)
	return ok
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ExtractPostID returns the numeric status id of a permalink, which is the
// last path segment made only of ASCII digits.
func ExtractPostID(permalink string) (string, error) {
	path := permalink
	if u, err := url.Parse(permalink); err == nil {
		path = u.Path
	}

	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if isDigits(segments[i]) {
			return segments[i], nil
		}
	}
	return "", xerrors.New(xerrors.ErrorTypeIdentifierParse, "no numeric id in "+permalink)
}
