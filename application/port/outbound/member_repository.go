package outbound

import (
	"context"
	"errors"

	"github.com/oily/oily-api/domain/entity"
	"github.com/oily/oily-api/domain/valueobject"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("member already exists")
	ErrNicknameTaken       = errors.New("nickname already taken")
)

type MemberRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Member, error)
	FindBySocialLink(ctx context.Context, provider valueobject.SocialProvider, providerID string) (*entity.Member, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	Provision(ctx context.Context, member *entity.Member, social *entity.MemberSocial) error
	UpdateNickname(ctx context.Context, id, nickname string) error
	Ping(ctx context.Context) error
}
