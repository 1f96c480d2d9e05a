package usecase

import (
	"context"
	"errors"

	"github.com/oily/oily-api/application/port/inbound"
	"github.com/oily/oily-api/application/port/outbound"
	"github.com/oily/oily-api/domain/entity"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
	"github.com/oily/oily-api/infrastructure/service/logger"
)

type MemberUseCase struct {
	members outbound.MemberRepository
	logger  logger.Logger
}

func NewMemberUseCase(members outbound.MemberRepository, log logger.Logger) *MemberUseCase {
	return &MemberUseCase{members: members, logger: log}
}

var _ inbound.MemberUseCase = (*MemberUseCase)(nil)

func (uc *MemberUseCase) Me(ctx context.Context, memberID string) (*inbound.MeResponse, error) {
	member, err := uc.find(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return toMeResponse(member), nil
}

func (uc *MemberUseCase) UpdateNickname(ctx context.Context, memberID string, req inbound.UpdateNicknameRequest) (*inbound.MeResponse, error) {
	if !valueobject.IsValidNickname(req.Nickname) {
		return nil, domainerr.Wrap(domainerr.ErrInvalidInput, "nickname", nil)
	}

	member, err := uc.find(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.Nickname == req.Nickname {
		return toMeResponse(member), nil
	}

	taken, err := uc.members.ExistsByNickname(ctx, req.Nickname)
	if err != nil {
		return nil, asAppError(err)
	}
	if taken {
		return nil, domainerr.ErrDuplicateNickname
	}

	if err := uc.members.UpdateNickname(ctx, memberID, req.Nickname); err != nil {
		switch {
		case errors.Is(err, outbound.ErrNicknameTaken):
			return nil, domainerr.ErrDuplicateNickname
		case errors.Is(err, outbound.ErrMemberNotFound):
			return nil, domainerr.ErrMemberNotFound
		default:
			return nil, asAppError(err)
		}
	}

	uc.logger.Info(ctx, "Member nickname changed", map[string]interface{}{
		"member_id": memberID,
	})
	member.ChangeNickname(req.Nickname)
	return toMeResponse(member), nil
}

func (uc *MemberUseCase) find(ctx context.Context, memberID string) (*entity.Member, error) {
	member, err := uc.members.FindByID(ctx, memberID)
	if errors.Is(err, outbound.ErrMemberNotFound) {
		return nil, domainerr.Wrap(domainerr.ErrMemberNotFound, memberID, err)
	}
	if err != nil {
		return nil, asAppError(err)
	}
	return member, nil
}

func toMeResponse(m *entity.Member) *inbound.MeResponse {
	return &inbound.MeResponse{
		ID:       m.ID,
		Email:    m.Email,
		Nickname: m.Nickname,
		Role:     m.Role,
	}
}
