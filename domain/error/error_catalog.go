package error

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	// Authentication errors (1xxx)
	ErrCodeInvalidCredential      ErrorCode = "AUTH_1001"
	ErrCodeTokenMalformed         ErrorCode = "AUTH_1002"
	ErrCodeTokenExpired           ErrorCode = "AUTH_1003"
	ErrCodeTokenInvalidSignature  ErrorCode = "AUTH_1004"
	ErrCodeClaimMissing           ErrorCode = "AUTH_1005"
	ErrCodeAuthenticationRequired ErrorCode = "AUTH_1006"

	// Member errors (2xxx)
	ErrCodeMemberNotFound    ErrorCode = "MEMBER_2001"
	ErrCodeDuplicateNickname ErrorCode = "MEMBER_2002"
	ErrCodeInvalidInput      ErrorCode = "MEMBER_2003"
	ErrCodeDuplicateEmail    ErrorCode = "MEMBER_2004"

	// Rate limiting errors (3xxx)
	ErrCodeRateLimitExceeded ErrorCode = "RATE_3001"

	// Social login errors (4xxx)
	ErrCodeUnsupportedIdentityProvider ErrorCode = "SOCIAL_4001"
	ErrCodeNicknameGenerationExhausted ErrorCode = "SOCIAL_4002"
	ErrCodeOAuthStateInvalid           ErrorCode = "SOCIAL_4003"
	ErrCodeIdentityProviderFailure     ErrorCode = "SOCIAL_4004"

	// Server errors (6xxx)
	ErrCodeInternalServerError ErrorCode = "SERVER_6001"
	ErrCodeStoreUnavailable    ErrorCode = "SERVER_6002"
	ErrCodeConfigurationError  ErrorCode = "SERVER_6003"

	// Security errors (7xxx)
	ErrCodeAccessDenied ErrorCode = "SEC_7001"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError carrying the same code, so the
// sentinels below work with errors.Is regardless of details or cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Wrap returns a copy of kind with details and cause attached.
func Wrap(kind *AppError, details string, cause error) *AppError {
	return NewAppError(kind.Code, kind.Message, details, cause)
}

var (
	ErrInvalidCredential      = NewAppError(ErrCodeInvalidCredential, "Invalid credential", "", nil)
	ErrTokenMalformed         = NewAppError(ErrCodeTokenMalformed, "Malformed or unsupported token", "", nil)
	ErrTokenExpired           = NewAppError(ErrCodeTokenExpired, "Token has expired", "", nil)
	ErrTokenInvalidSignature  = NewAppError(ErrCodeTokenInvalidSignature, "Token signature is invalid", "", nil)
	ErrClaimMissing           = NewAppError(ErrCodeClaimMissing, "Token claims are missing or invalid", "", nil)
	ErrAuthenticationRequired = NewAppError(ErrCodeAuthenticationRequired, "Authentication is required", "", nil)

	ErrMemberNotFound    = NewAppError(ErrCodeMemberNotFound, "Member does not exist", "", nil)
	ErrDuplicateNickname = NewAppError(ErrCodeDuplicateNickname, "Nickname is already in use", "", nil)
	ErrInvalidInput      = NewAppError(ErrCodeInvalidInput, "Invalid input values", "", nil)
	ErrDuplicateEmail    = NewAppError(ErrCodeDuplicateEmail, "Email is already linked to another account", "", nil)

	ErrRateLimitExceeded = NewAppError(ErrCodeRateLimitExceeded, "Too many requests", "", nil)

	ErrUnsupportedIdentityProvider = NewAppError(ErrCodeUnsupportedIdentityProvider, "Unsupported social provider", "", nil)
	ErrNicknameGenerationExhausted = NewAppError(ErrCodeNicknameGenerationExhausted, "Failed to generate a unique nickname", "", nil)
	ErrOAuthStateInvalid           = NewAppError(ErrCodeOAuthStateInvalid, "Authorization state is invalid or expired", "", nil)
	ErrIdentityProviderFailure     = NewAppError(ErrCodeIdentityProviderFailure, "Identity provider rejected the login", "", nil)

	ErrInternalServerError = NewAppError(ErrCodeInternalServerError, "Internal server error", "", nil)
	ErrStoreUnavailable    = NewAppError(ErrCodeStoreUnavailable, "Session store is unavailable", "", nil)
	ErrConfiguration       = NewAppError(ErrCodeConfigurationError, "Invalid configuration", "", nil)

	ErrAccessDenied = NewAppError(ErrCodeAccessDenied, "Access denied", "", nil)
)

// StoreUnavailable wraps a connectivity failure of the session store.
func StoreUnavailable(op string, cause error) *AppError {
	return Wrap(ErrStoreUnavailable, op, cause)
}

// Status is the client-facing rendering of an error code.
type Status struct {
	HTTPStatus int
	Code       int
	Message    string
}

var statusCatalog = map[ErrorCode]Status{
	ErrCodeInvalidCredential:      {http.StatusUnauthorized, 401, "유효하지 않은 인증 정보입니다."},
	ErrCodeTokenMalformed:         {http.StatusUnauthorized, 401, "지원되지 않는 JWT 토큰입니다."},
	ErrCodeTokenExpired:           {http.StatusUnauthorized, 401, "만료된 JWT 토큰입니다."},
	ErrCodeTokenInvalidSignature:  {http.StatusUnauthorized, 401, "잘못된 JWT 서명입니다."},
	ErrCodeClaimMissing:           {http.StatusUnauthorized, 401, "토큰의 클레임 정보가 올바르지 않습니다."},
	ErrCodeAuthenticationRequired: {http.StatusUnauthorized, 401, "인증이 필요합니다."},
	ErrCodeAccessDenied:           {http.StatusForbidden, 403, "접근 권한이 없습니다."},

	ErrCodeMemberNotFound:    {http.StatusNotFound, 404, "존재하지 않는 유저입니다."},
	ErrCodeInvalidInput:      {http.StatusBadRequest, -1502, "입력값이 올바르지 않습니다."},
	ErrCodeDuplicateNickname: {http.StatusBadRequest, -1503, "이미 사용 중인 닉네임입니다."},
	ErrCodeDuplicateEmail:    {http.StatusConflict, -1504, "이미 다른 계정에 연결된 이메일입니다."},

	ErrCodeRateLimitExceeded: {http.StatusTooManyRequests, 429, "요청이 너무 많습니다. 잠시 후 다시 시도해주세요."},

	ErrCodeUnsupportedIdentityProvider: {http.StatusBadRequest, -1800, "지원하지 않는 소셜 로그인입니다."},
	ErrCodeOAuthStateInvalid:           {http.StatusBadRequest, -1801, "소셜 로그인 요청이 만료되었습니다."},
	ErrCodeIdentityProviderFailure:     {http.StatusBadGateway, -1802, "소셜 로그인에 실패했습니다."},
	ErrCodeNicknameGenerationExhausted: {http.StatusConflict, -1806, "닉네임 생성에 실패했습니다."},

	ErrCodeStoreUnavailable:    {http.StatusServiceUnavailable, 503, "일시적으로 서비스를 사용할 수 없습니다."},
	ErrCodeInternalServerError: {http.StatusInternalServerError, 500, "서버 내부 오류입니다."},
	ErrCodeConfigurationError:  {http.StatusInternalServerError, 500, "서버 내부 오류입니다."},
}

// StatusOf resolves the catalog status for err. Errors that do not carry an
// AppError render as an internal server error.
func StatusOf(err error) Status {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if s, ok := statusCatalog[appErr.Code]; ok {
			return s
		}
	}
	return statusCatalog[ErrCodeInternalServerError]
}

// IsAuthenticationError reports whether err belongs to the token/credential family.
func IsAuthenticationError(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case ErrCodeInvalidCredential, ErrCodeTokenMalformed, ErrCodeTokenExpired,
		ErrCodeTokenInvalidSignature, ErrCodeClaimMissing, ErrCodeAuthenticationRequired:
		return true
	}
	return false
}
