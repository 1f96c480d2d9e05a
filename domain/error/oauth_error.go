package error

import (
	"errors"
	"fmt"
)

// OAuthError is the provider-agnostic failure surfaced through the OAuth
// error callback. ErrorCode follows the RFC 6749 style (lower snake case).
type OAuthError struct {
	ErrorCode   string
	Description string
	Cause       error
}

func (e *OAuthError) Error() string {
	return fmt.Sprintf("oauth2 error [%s]: %s", e.ErrorCode, e.Description)
}

func (e *OAuthError) Unwrap() error {
	return e.Cause
}

var oauthErrorCodes = map[ErrorCode]string{
	ErrCodeUnsupportedIdentityProvider: "unsupported_social_provider",
	ErrCodeNicknameGenerationExhausted: "nickname_generation_failed",
	ErrCodeDuplicateNickname:           "duplicate_nickname",
	ErrCodeDuplicateEmail:              "duplicate_email",
	ErrCodeOAuthStateInvalid:           "invalid_state",
	ErrCodeIdentityProviderFailure:     "access_denied",
	ErrCodeMemberNotFound:              "no_exist_user",
	ErrCodeStoreUnavailable:            "temporarily_unavailable",
}

// ToOAuthError translates any error raised during login completion. Errors
// already translated are returned as is; unknown errors become server_error.
func ToOAuthError(err error) *OAuthError {
	var oauthErr *OAuthError
	if errors.As(err, &oauthErr) {
		return oauthErr
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		code, ok := oauthErrorCodes[appErr.Code]
		if !ok {
			code = "server_error"
		}
		return &OAuthError{ErrorCode: code, Description: appErr.Message, Cause: err}
	}

	return &OAuthError{ErrorCode: "server_error", Description: ErrInternalServerError.Message, Cause: err}
}
