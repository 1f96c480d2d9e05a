package valueobject

import (
	"fmt"
	"strings"
)

type SocialProvider string

const (
	ProviderGoogle SocialProvider = "GOOGLE"
	ProviderNaver  SocialProvider = "NAVER"
	ProviderKakao  SocialProvider = "KAKAO"
)

var ErrUnsupportedProvider = fmt.Errorf("unsupported social provider")

// ParseSocialProvider resolves a registration id such as "google" case-insensitively.
func ParseSocialProvider(name string) (SocialProvider, error) {
	switch p := SocialProvider(strings.ToUpper(strings.TrimSpace(name))); p {
	case ProviderGoogle, ProviderNaver, ProviderKakao:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}
}

// RegistrationID is the lower-case form used in OAuth2 URLs.
func (p SocialProvider) RegistrationID() string {
	return strings.ToLower(string(p))
}
