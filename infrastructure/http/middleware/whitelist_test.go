package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oily/oily-api/infrastructure/config"
)

func TestPathMatcher(t *testing.T) {
	m, err := NewPathMatcher([]string{"/v1/media/**", "/oauth2/authorization/*", "/v1/files/img?.png"})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"/v1/media/smile-videos/5", true},
		{"/v1/media/a", true},
		{"/v1/media", true},
		{"/v1/mediax", false},
		{"/oauth2/authorization/google", true},
		{"/oauth2/authorization/google/extra", false},
		{"/v1/files/img1.png", true},
		{"/v1/files/img10.png", false},
		{"/v1/member/me", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.path))
		})
	}
}

func TestWhitelist_MethodScoped(t *testing.T) {
	wl, err := NewWhitelist([]config.WhitelistRule{
		{Method: "GET", Patterns: []string{"/v1/media/**"}},
		{Method: "post", Patterns: []string{"/v1/auth/refresh"}},
		{Method: "GET", Patterns: []string{"/health"}},
	})
	require.NoError(t, err)

	assert.True(t, wl.Allows("GET", "/v1/media/smile-videos/5"))
	assert.False(t, wl.Allows("POST", "/v1/media/smile-videos/5"))
	assert.True(t, wl.Allows("POST", "/v1/auth/refresh"))
	assert.True(t, wl.Allows("get", "/health"))
	assert.False(t, wl.Allows("DELETE", "/health"))
}

func TestPathMatcher_PathVariables(t *testing.T) {
	m, err := NewPathMatcher([]string{"/v1/media/{id}", "/v1/members/{memberId}/avatar-{size}.png"})
	require.NoError(t, err)

	assert.True(t, m.Match("/v1/media/5"))
	assert.False(t, m.Match("/v1/media/5/frames"))
	assert.False(t, m.Match("/v1/media"))
	assert.True(t, m.Match("/v1/members/m1/avatar-64.png"))
	assert.False(t, m.Match("/v1/members/m1/x/avatar-64.png"))
}

func TestPathMatcher_RejectsGlobOnlySyntax(t *testing.T) {
	for _, pattern := range []string{"/v1/{a,b}/x", "/v1/[abc]", "/v1/media/{id"} {
		_, err := NewPathMatcher([]string{pattern})
		assert.Error(t, err, pattern)
	}

	_, err := NewWhitelist([]config.WhitelistRule{{Method: "GET", Patterns: []string{"/v1/[0-9]"}}})
	assert.Error(t, err)
}
