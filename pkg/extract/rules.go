package extract

import (
	"xwatch/pkg/browser"
)

// Scope is anything rules can be evaluated against
type Scope interface {
	Find(selector string) (*browser.Element, bool)
}

// Rule is one way of locating a field. Attr selects an attribute instead
// of the element's text.
type Rule struct {
	Selector string
	Attr     string
}

func (r Rule) eval(scope Scope) (string, bool) {
	el, ok := scope.Find(r.Selector)
	if !ok {
		return "", false
	}
	if r.Attr == "" {
		text := el.Text()
		return text, text != ""
	}
	v, ok := el.Attr(r.Attr)
	return v, ok && v != ""
}

// lookup returns the first non-empty result among rules
func lookup(scope Scope, rules []Rule) (string, bool) {
	return lookupValid(scope, rules, nil)
}

// lookupValid is lookup with an extra acceptance check per candidate
func lookupValid(scope Scope, rules []Rule, valid func(string) bool) (string, bool) {
	for _, r := range rules {
		v, ok := r.eval(scope)
		if ok && (valid == nil || valid(v)) {
			return v, true
		}
	}
	return "", false
}

// lookupCount returns the first result among rules that parses as a counter
func lookupCount(scope Scope, rules []Rule) (int64, bool) {
	for _, r := range rules {
		if v, ok := r.eval(scope); ok {
			if n, ok := parseAbbreviated(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}
