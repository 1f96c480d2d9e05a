package valueobject

import (
	"regexp"
)

const NicknameMaxLength = 10

var nicknamePattern = regexp.MustCompile(`^[0-9A-Za-z가-힣]{2,10}$`)

// IsValidNickname reports whether nickname is 2 to 10 Latin letters, digits or Hangul syllables.
func IsValidNickname(nickname string) bool {
	return nicknamePattern.MatchString(nickname)
}
