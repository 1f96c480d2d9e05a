package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidNickname(t *testing.T) {
	valid := []string{"oily", "유저0042", "ab", "가나다라마바사아자차"}
	for _, n := range valid {
		assert.True(t, IsValidNickname(n), n)
	}

	invalid := []string{"", "a", "toolongnickname", "with space", "emoji😀", "under_score", "ㄱㄴ"}
	for _, n := range invalid {
		assert.False(t, IsValidNickname(n), n)
	}
}

func TestParseSocialProvider(t *testing.T) {
	p, err := ParseSocialProvider("google")
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, p)
	assert.Equal(t, "google", p.RegistrationID())

	p, err = ParseSocialProvider(" Kakao ")
	require.NoError(t, err)
	assert.Equal(t, ProviderKakao, p)

	_, err = ParseSocialProvider("github")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)
	assert.Equal(t, "ROLE_ADMIN", r.Authority())

	_, err = ParseRole("ROOT")
	assert.Error(t, err)

	raw, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleUser})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"USER"}`, string(raw))

	_, err = Role(0).MarshalText()
	assert.Error(t, err)
}

func TestAuthorities(t *testing.T) {
	a := NewAuthorities(RoleUser, RoleAdmin, RoleUser)
	assert.Len(t, a, 2)
	assert.Equal(t, "ROLE_USER,ROLE_ADMIN", a.String())

	parsed, err := ParseAuthorities("ROLE_USER,ROLE_ADMIN")
	require.NoError(t, err)
	assert.True(t, parsed.Has(RoleAdmin))

	parsed, err = ParseAuthorities("  ")
	require.NoError(t, err)
	assert.Empty(t, parsed)

	_, err = ParseAuthorities("ROLE_USER,ROLE_ROOT")
	assert.Error(t, err)
}
