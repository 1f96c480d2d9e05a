package entity

import (
	"time"

	"github.com/oily/oily-api/domain/valueobject"
)

type Member struct {
	ID        string           `json:"uuid"`
	Email     string           `json:"email"`
	Nickname  string           `json:"nickname"`
	Role      valueobject.Role `json:"role"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func NewMember(id, email, nickname string, role valueobject.Role) *Member {
	now := time.Now()
	return &Member{
		ID:        id,
		Email:     email,
		Nickname:  nickname,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Authorities returns the authorities granted by the member's current role.
func (m *Member) Authorities() valueobject.Authorities {
	return valueobject.NewAuthorities(m.Role)
}

func (m *Member) ChangeNickname(nickname string) {
	m.Nickname = nickname
	m.UpdatedAt = time.Now()
}
