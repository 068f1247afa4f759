// Package typefilter decides which files take part in an encryption run
// based on user-supplied content type tokens.
package typefilter

import "strings"

// Registry resolves type tokens and file names to content types.
type Registry interface {
	// Glob returns the content types matched by token.
	Glob(token string) []string
	// Lookup returns the content type inferred from name, or "".
	Lookup(name string) string
}

// Result partitions requested tokens. Every distinct input token appears in
// exactly one of Valid or Invalid, in input order.
type Result struct {
	Valid   []string
	Invalid []string
}

// OK reports whether every token was valid.
func (r Result) OK() bool {
	return len(r.Invalid) == 0
}

// Classify splits tokens into those that name at least one known content
// type and those that name none. Blank and repeated tokens are dropped.
func Classify(reg Registry, tokens []string) Result {
	var res Result
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}

		if len(reg.Glob(tok)) > 0 {
			res.Valid = append(res.Valid, tok)
		} else {
			res.Invalid = append(res.Invalid, tok)
		}
	}
	return res
}

// Matcher accepts files whose inferred content type belongs to the union of
// a set of tokens' content types.
type Matcher struct {
	reg   Registry
	types map[string]struct{}
}

// NewMatcher builds a Matcher for tokens. Invalid tokens contribute nothing.
func NewMatcher(reg Registry, tokens []string) *Matcher {
	m := &Matcher{reg: reg, types: make(map[string]struct{})}
	for _, tok := range tokens {
		for _, typ := range reg.Glob(strings.TrimSpace(tok)) {
			m.types[typ] = struct{}{}
		}
	}
	return m
}

// Match reports whether name's inferred content type is accepted.
func (m *Matcher) Match(name string) bool {
	typ := m.reg.Lookup(name)
	if typ == "" {
		return false
	}
	_, ok := m.types[typ]
	return ok
}

// Types returns the number of distinct content types the matcher accepts.
func (m *Matcher) Types() int {
	return len(m.types)
}
