package valueobject

import (
	"fmt"
	"strings"
)

// Role is the closed set of member roles.
type Role int

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

// String returns the persisted role name.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleAdmin:
		return "ADMIN"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Authority returns the authority string carried in access tokens.
func (r Role) Authority() string {
	switch r {
	case RoleUser:
		return "ROLE_USER"
	case RoleAdmin:
		return "ROLE_ADMIN"
	default:
		return ""
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if r.Authority() == "" {
		return nil, fmt.Errorf("unknown role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole parses a persisted role name such as "USER".
func ParseRole(name string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "USER":
		return RoleUser, nil
	case "ADMIN":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", name)
	}
}

// RoleFromAuthority parses an authority string such as "ROLE_ADMIN".
func RoleFromAuthority(authority string) (Role, error) {
	switch strings.TrimSpace(authority) {
	case "ROLE_USER":
		return RoleUser, nil
	case "ROLE_ADMIN":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown authority %q", authority)
	}
}

// Authorities is an ordered set of roles.
type Authorities []Role

// NewAuthorities builds an ordered set, dropping duplicates.
func NewAuthorities(roles ...Role) Authorities {
	out := make(Authorities, 0, len(roles))
	for _, r := range roles {
		if !out.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// ParseAuthorities parses a comma-joined authority claim.
func ParseAuthorities(claim string) (Authorities, error) {
	if strings.TrimSpace(claim) == "" {
		return nil, nil
	}
	parts := strings.Split(claim, ",")
	roles := make([]Role, 0, len(parts))
	for _, p := range parts {
		r, err := RoleFromAuthority(p)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return NewAuthorities(roles...), nil
}

func (a Authorities) Has(role Role) bool {
	for _, r := range a {
		if r == role {
			return true
		}
	}
	return false
}

// String returns the comma-joined authority claim.
func (a Authorities) String() string {
	names := make([]string, len(a))
	for i, r := range a {
		names[i] = r.Authority()
	}
	return strings.Join(names, ",")
}
