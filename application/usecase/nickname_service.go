package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"unicode/utf8"

	"github.com/oily/oily-api/application/port/outbound"
	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
)

const (
	nicknameSuffixLength   = 4
	nicknameAttempts       = 20
	nicknameUniqueAttempts = 10
	fallbackNicknamePrefix = "유저"
)

var (
	nicknameAdjectives = []string{
		"귀여운", "발랄한", "똑똑한", "용감한", "상냥한", "행복한",
		"느긋한", "온화한", "대담한", "당당한", "재빠른", "조용한", "부드러운", "당돌한",
		"하품하는", "신사적인",
	}
	nicknameNouns = []string{
		"강아지", "고양이", "햄스터", "토끼", "거북이", "고슴도치", "말티즈", "푸들", "치와와",
		"오징어", "꼬마", "스피츠", "쇠똥구리", "해파리", "닭강정", "참치", "다람쥐", "이구아나", "기니피그", "도롱뇽",
		"컵케잌", "바람", "문어", "문어빵", "계란빵", "신사", "타코야끼", "타코",
	}
)

type NicknameService struct {
	members outbound.MemberRepository
	intN    func(n int) int
}

func NewNicknameService(members outbound.MemberRepository) *NicknameService {
	return &NicknameService{
		members: members,
		intN:    rand.IntN,
	}
}

// GenerateNickname combines an adjective, a noun and a four digit suffix,
// e.g. 귀여운고양이0042. It never returns an invalid nickname.
func (s *NicknameService) GenerateNickname() string {
	for i := 0; i < nicknameAttempts; i++ {
		adjective := nicknameAdjectives[s.intN(len(nicknameAdjectives))]
		noun := nicknameNouns[s.intN(len(nicknameNouns))]

		if utf8.RuneCountInString(adjective)+utf8.RuneCountInString(noun) > valueobject.NicknameMaxLength-nicknameSuffixLength {
			continue
		}

		nickname := adjective + noun + s.suffix()
		if valueobject.IsValidNickname(nickname) {
			return nickname
		}
	}
	return fallbackNicknamePrefix + s.suffix()
}

// RandomNickname returns a generated nickname no member uses yet.
func (s *NicknameService) RandomNickname(ctx context.Context) (string, error) {
	for i := 0; i < nicknameUniqueAttempts; i++ {
		nickname := s.GenerateNickname()
		taken, err := s.members.ExistsByNickname(ctx, nickname)
		if err != nil {
			return "", asAppError(err)
		}
		if !taken {
			return nickname, nil
		}
	}
	return "", domainerr.ErrNicknameGenerationExhausted
}

func (s *NicknameService) suffix() string {
	return fmt.Sprintf("%0*d", nicknameSuffixLength, s.intN(10000))
}
