package valueobject

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func NewTokenPair(accessToken, refreshToken string) *TokenPair {
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

// TokenKind distinguishes access from refresh tokens in the revocation registry.
type TokenKind int

const (
	AccessToken TokenKind = iota + 1
	RefreshToken
)

func (k TokenKind) String() string {
	switch k {
	case AccessToken:
		return "access"
	case RefreshToken:
		return "refresh"
	default:
		return "unknown"
	}
}
