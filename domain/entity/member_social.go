package entity

import (
	"time"

	"github.com/oily/oily-api/domain/valueobject"
)

// MemberSocial links a member to an account at an external identity provider.
type MemberSocial struct {
	ID         int64                      `json:"id"`
	MemberID   string                     `json:"memberUuid"`
	Email      string                     `json:"email"`
	Provider   valueobject.SocialProvider `json:"providerName"`
	ProviderID string                     `json:"providerId"`
	CreatedAt  time.Time                  `json:"createdAt"`
}

func NewMemberSocial(memberID, email string, provider valueobject.SocialProvider, providerID string) *MemberSocial {
	return &MemberSocial{
		MemberID:   memberID,
		Email:      email,
		Provider:   provider,
		ProviderID: providerID,
		CreatedAt:  time.Now(),
	}
}
