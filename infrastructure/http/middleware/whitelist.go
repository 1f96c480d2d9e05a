package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/oily/oily-api/infrastructure/config"
)

// PathMatcher matches request paths against Ant-style patterns:
// ? is one character, * stays inside a segment, ** spans segments and a
// {name} variable matches like *.
type PathMatcher struct {
	globs []glob.Glob
}

var pathVariable = regexp.MustCompile(`\{[^/{}]*\}`)

// toGlob rewrites path variables to * and refuses the glob syntax Ant
// patterns do not have, so such a pattern fails at startup instead of never
// matching.
func toGlob(pattern string) (string, error) {
	translated := pathVariable.ReplaceAllString(pattern, "*")
	if strings.ContainsAny(translated, "{}[]") {
		return "", fmt.Errorf("invalid path pattern %q: braces and brackets are only allowed as {variable}", pattern)
	}
	return translated, nil
}

func NewPathMatcher(patterns []string) (*PathMatcher, error) {
	m := &PathMatcher{}
	for _, raw := range patterns {
		pattern, err := toGlob(raw)
		if err != nil {
			return nil, err
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid path pattern %q: %w", pattern, err)
		}
		m.globs = append(m.globs, g)

		// "/a/**" also covers "/a" itself.
		if base, ok := strings.CutSuffix(pattern, "/**"); ok && base != "" {
			g, err := glob.Compile(base, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid path pattern %q: %w", pattern, err)
			}
			m.globs = append(m.globs, g)
		}
	}
	return m, nil
}

func (m *PathMatcher) Match(path string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Whitelist is the immutable set of method+path pairs that do not require
// authentication.
type Whitelist struct {
	byMethod map[string]*PathMatcher
}

func NewWhitelist(rules []config.WhitelistRule) (*Whitelist, error) {
	grouped := make(map[string][]string)
	for _, rule := range rules {
		method := strings.ToUpper(rule.Method)
		grouped[method] = append(grouped[method], rule.Patterns...)
	}

	wl := &Whitelist{byMethod: make(map[string]*PathMatcher, len(grouped))}
	for method, patterns := range grouped {
		matcher, err := NewPathMatcher(patterns)
		if err != nil {
			return nil, err
		}
		wl.byMethod[method] = matcher
	}
	return wl, nil
}

func (w *Whitelist) Allows(method, path string) bool {
	if w == nil {
		return false
	}
	return w.byMethod[strings.ToUpper(method)].Match(path)
}
