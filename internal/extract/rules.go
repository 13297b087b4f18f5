package extract

import (
	"regexp"
	"strings"
)

// Rule is one entry of a field's fallback list. When Value is set the rule
// classifies: a match yields Value instead of a capture.
type Rule struct {
	Pattern *regexp.Regexp
	Group   int
	Value   string
}

func capture(pattern string, group int) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern), Group: group}
}

func classify(pattern, value string) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern), Value: value}
}

// FirstMatch tries rules in order and returns the result of the first one that
// matches with a non-empty capture. Later rules are never consulted once an
// earlier one wins.
func FirstMatch(text string, rules []Rule) (string, bool) {
	for _, r := range rules {
		if r.Pattern == nil {
			continue
		}
		if r.Value != "" {
			if r.Pattern.MatchString(text) {
				return r.Value, true
			}
			continue
		}
		m := r.Pattern.FindStringSubmatch(text)
		if len(m) <= r.Group {
			continue
		}
		if v := strings.TrimSpace(m[r.Group]); v != "" {
			return v, true
		}
	}
	return "", false
}

// FirstMatchFunc is FirstMatch with a post-processing step; a candidate that
// accept rejects falls through to the next rule.
func FirstMatchFunc(text string, rules []Rule, accept func(string) (string, bool)) (string, bool) {
	for i := range rules {
		v, ok := FirstMatch(text, rules[i:i+1])
		if !ok {
			continue
		}
		if out, ok := accept(v); ok {
			return out, true
		}
	}
	return "", false
}

// FirstSubmatch returns the full submatch slice of the first rule whose
// capture group is non-empty and which accept (if non-nil) approves.
func FirstSubmatch(text string, rules []Rule, accept func([]string) bool) []string {
	for _, r := range rules {
		if r.Pattern == nil {
			continue
		}
		m := r.Pattern.FindStringSubmatch(text)
		if len(m) <= r.Group || strings.TrimSpace(m[r.Group]) == "" {
			continue
		}
		if accept != nil && !accept(m) {
			continue
		}
		return m
	}
	return nil
}

// Matches reports whether any rule pattern matches.
func Matches(text string, rules []Rule) bool {
	for _, r := range rules {
		if r.Pattern != nil && r.Pattern.MatchString(text) {
			return true
		}
	}
	return false
}
