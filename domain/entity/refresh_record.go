package entity

import (
	"github.com/oily/oily-api/domain/valueobject"
)

// RefreshRecord is the server-side payload of a live refresh token.
type RefreshRecord struct {
	MemberID    string
	Authorities valueobject.Authorities
}

func NewRefreshRecord(memberID string, authorities valueobject.Authorities) *RefreshRecord {
	return &RefreshRecord{
		MemberID:    memberID,
		Authorities: authorities,
	}
}
