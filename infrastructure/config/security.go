package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// WhitelistRule exempts method+pattern from mandatory authentication.
type WhitelistRule struct {
	Method   string
	Patterns []string
}

type SecurityPolicy struct {
	Whitelist  []WhitelistRule
	AdminPaths []string
}

type securityFile struct {
	Security struct {
		// keys are METHOD.index, e.g. GET.0
		Whitelist map[string][]string `yaml:"whitelist"`
		Role      struct {
			Admin []string `yaml:"admin"`
		} `yaml:"role"`
	} `yaml:"security"`
}

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
}

// DefaultSecurityPolicy is used when no security file exists.
func DefaultSecurityPolicy() *SecurityPolicy {
	return &SecurityPolicy{
		Whitelist: []WhitelistRule{
			{Method: http.MethodGet, Patterns: []string{"/health", "/metrics", "/oauth2/authorization/*", "/login/oauth2/code/*"}},
			{Method: http.MethodPost, Patterns: []string{"/v1/auth/refresh", "/v1/auth/logout"}},
		},
		AdminPaths: []string{"/v1/admin/**"},
	}
}

func LoadSecurityPolicy(path string) (*SecurityPolicy, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSecurityPolicy(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read security config %s: %w", path, err)
	}
	return ParseSecurityPolicy(data)
}

func ParseSecurityPolicy(data []byte) (*SecurityPolicy, error) {
	var file securityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse security config: %w", err)
	}

	rules, err := parseWhitelist(file.Security.Whitelist)
	if err != nil {
		return nil, err
	}

	return &SecurityPolicy{
		Whitelist:  rules,
		AdminPaths: file.Security.Role.Admin,
	}, nil
}

func parseWhitelist(raw map[string][]string) ([]WhitelistRule, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rules := make([]WhitelistRule, 0, len(keys))
	for _, key := range keys {
		method := strings.ToUpper(strings.SplitN(key, ".", 2)[0])
		if _, ok := knownMethods[method]; !ok {
			return nil, fmt.Errorf("whitelist key %q: unknown HTTP method %q", key, method)
		}
		for _, pattern := range raw[key] {
			if !strings.HasPrefix(pattern, "/") {
				return nil, fmt.Errorf("whitelist key %q: pattern %q must start with /", key, pattern)
			}
		}
		rules = append(rules, WhitelistRule{Method: method, Patterns: raw[key]})
	}
	return rules, nil
}
