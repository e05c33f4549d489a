package exclude

import (
	"regexp"
	"strings"
)

// Matcher decides whether a candidate path is excluded from a backup.
// Patterns are compiled once; matching is deterministic, case-sensitive,
// and safe for concurrent use.
//
// Grammar: `*` matches any sequence of characters within one path segment.
// A leading `*` unanchors the pattern on the left ("anywhere in path"),
// a trailing `*` unanchors it on the right. A pattern without `*` matches
// the path exactly. A path is excluded if any pattern matches.
type Matcher struct {
	rules []rule
}

type rule struct {
	raw string
	re  *regexp.Regexp
}

func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := compile(p)
		if err != nil {
			return nil, err
		}
		m.rules = append(m.rules, rule{raw: p, re: re})
	}
	return m, nil
}

func (m *Matcher) IsExcluded(path string) bool {
	for _, r := range m.rules {
		if r.re.MatchString(path) {
			return true
		}
	}
	return false
}

// Patterns returns the raw patterns in their original order, for backends
// that pass exclusions through to an underlying tool verbatim.
func (m *Matcher) Patterns() []string {
	out := make([]string, len(m.rules))
	for i, r := range m.rules {
		out[i] = r.raw
	}
	return out
}

func compile(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	if !strings.HasPrefix(pattern, "*") {
		b.WriteString(`^`)
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '*' {
			// Within-segment wildcard. A trailing star only unanchors the
			// right side; a leading star keeps the segment bound so that
			// *.log cannot swallow a parent directory.
			if i != len(pattern)-1 {
				b.WriteString(`[^/]*`)
			}
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(pattern[i])))
	}
	if !strings.HasSuffix(pattern, "*") {
		b.WriteString(`$`)
	}
	return regexp.Compile(b.String())
}
