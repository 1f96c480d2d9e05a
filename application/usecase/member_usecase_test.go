package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oily/oily-api/application/port/inbound"
	"github.com/oily/oily-api/domain/entity"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
	"github.com/oily/oily-api/infrastructure/service/logger"
)

func TestMemberUseCase_Me(t *testing.T) {
	repo := newFakeMemberRepository()
	repo.add(newMember("m1"))
	uc := NewMemberUseCase(repo, logger.NewNopLogger())

	me, err := uc.Me(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", me.ID)
	assert.Equal(t, valueobject.RoleUser, me.Role)

	_, err = uc.Me(context.Background(), "nobody")
	assert.ErrorIs(t, err, domainerr.ErrMemberNotFound)
}

func TestMemberUseCase_UpdateNickname(t *testing.T) {
	repo := newFakeMemberRepository()
	repo.add(newMember("m1"))
	repo.add(entity.NewMember("m2", "m2@oily.dev", "당당한문어0002", valueobject.RoleUser))
	uc := NewMemberUseCase(repo, logger.NewNopLogger())
	ctx := context.Background()

	tests := []struct {
		name     string
		nickname string
		wantErr  error
	}{
		{name: "valid", nickname: "oily러버7"},
		{name: "too short", nickname: "a", wantErr: domainerr.ErrInvalidInput},
		{name: "too long", nickname: "abcdefghijk", wantErr: domainerr.ErrInvalidInput},
		{name: "symbols", nickname: "oily_lover", wantErr: domainerr.ErrInvalidInput},
		{name: "taken", nickname: "당당한문어0002", wantErr: domainerr.ErrDuplicateNickname},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			me, err := uc.UpdateNickname(ctx, "m1", inbound.UpdateNicknameRequest{Nickname: tt.nickname})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.nickname, me.Nickname)

			stored, err := repo.FindByID(ctx, "m1")
			require.NoError(t, err)
			assert.Equal(t, tt.nickname, stored.Nickname)
		})
	}
}

func TestMemberUseCase_UpdateToSameNicknameIsNoop(t *testing.T) {
	repo := newFakeMemberRepository()
	member := newMember("m1")
	repo.add(member)
	uc := NewMemberUseCase(repo, logger.NewNopLogger())

	me, err := uc.UpdateNickname(context.Background(), "m1", inbound.UpdateNicknameRequest{Nickname: member.Nickname})
	require.NoError(t, err)
	assert.Equal(t, member.Nickname, me.Nickname)
}
