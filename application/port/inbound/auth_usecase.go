package inbound

import (
	"context"

	"github.com/oily/oily-api/application/port/outbound"
	"github.com/oily/oily-api/domain/entity"
	"github.com/oily/oily-api/domain/valueobject"
)

type SignOutRequest struct {
	AccessToken  string
	RefreshToken string
}

// TokenIssuer drives the session lifecycle of a member.
type TokenIssuer interface {
	Issue(ctx context.Context, member *entity.Member, authorities valueobject.Authorities) (*valueobject.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*valueobject.TokenPair, error)
	SignOut(ctx context.Context, req SignOutRequest) error
}

// OAuthCompletion is the outcome of a successful social login.
type OAuthCompletion struct {
	Member      *entity.Member
	Tokens      *valueobject.TokenPair
	FirstLogin  bool
	RedirectURL string
}

type OAuthCompletionUseCase interface {
	Complete(ctx context.Context, profile outbound.OAuthProfile) (*OAuthCompletion, error)
}

type NicknameService interface {
	GenerateNickname() string
	RandomNickname(ctx context.Context) (string, error)
}

type MeResponse struct {
	ID       string           `json:"uuid"`
	Email    string           `json:"email"`
	Nickname string           `json:"nickname"`
	Role     valueobject.Role `json:"role"`
}

type UpdateNicknameRequest struct {
	Nickname string `json:"nickname" validate:"required,nickname"`
}

type MemberUseCase interface {
	Me(ctx context.Context, memberID string) (*MeResponse, error)
	UpdateNickname(ctx context.Context, memberID string, req UpdateNicknameRequest) (*MeResponse, error)
}
