package session

import (
	"github.com/oily/oily-api/domain/valueobject"
)

const (
	refreshRecordPrefix    = "refresh:"
	memberRefreshPrefix    = "member-refresh:"
	accessBlacklistPrefix  = "blacklist:access:"
	refreshBlacklistPrefix = "blacklist:refresh:"
	blacklistMarker        = "blacklisted"
)

func refreshRecordKey(refreshTokenID string) string {
	return refreshRecordPrefix + refreshTokenID
}

func memberRefreshKey(memberID string) string {
	return memberRefreshPrefix + memberID
}

func blacklistKey(kind valueobject.TokenKind, token string) string {
	if kind == valueobject.RefreshToken {
		return refreshBlacklistPrefix + token
	}
	return accessBlacklistPrefix + token
}
