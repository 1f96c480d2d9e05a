package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/oily/oily-api/application/port/outbound"
	"github.com/oily/oily-api/domain/entity"
	"github.com/oily/oily-api/domain/valueobject"
	redisstore "github.com/oily/oily-api/infrastructure/adapter/redis"
	"github.com/oily/oily-api/infrastructure/service/jwt"
	"github.com/oily/oily-api/infrastructure/service/logger"
	"github.com/oily/oily-api/infrastructure/service/session"
)

const testSecret = "usecase-test-secret-usecase-test-secret"

type fakeMemberRepository struct {
	mu        sync.Mutex
	members   map[string]*entity.Member
	socials   map[string]string
	existsErr error
	findErr   error
	taken     func(nickname string) bool
	provision int
	// onProvision runs before the insert; a non-nil error aborts it.
	onProvision func(member *entity.Member, social *entity.MemberSocial) error
}

func newFakeMemberRepository() *fakeMemberRepository {
	return &fakeMemberRepository{
		members: make(map[string]*entity.Member),
		socials: make(map[string]string),
	}
}

func socialKey(provider valueobject.SocialProvider, providerID string) string {
	return string(provider) + ":" + providerID
}

func (r *fakeMemberRepository) add(m *entity.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *m
	r.members[m.ID] = &copied
}

func (r *fakeMemberRepository) link(memberID string, provider valueobject.SocialProvider, providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.socials[socialKey(provider, providerID)] = memberID
}

func (r *fakeMemberRepository) FindByID(ctx context.Context, id string) (*entity.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	m, ok := r.members[id]
	if !ok {
		return nil, outbound.ErrMemberNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMemberRepository) FindBySocialLink(ctx context.Context, provider valueobject.SocialProvider, providerID string) (*entity.Member, error) {
	r.mu.Lock()
	id, ok := r.socials[socialKey(provider, providerID)]
	r.mu.Unlock()
	if !ok {
		return nil, outbound.ErrMemberNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *fakeMemberRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsErr != nil {
		return false, r.existsErr
	}
	if r.taken != nil {
		return r.taken(nickname), nil
	}
	for _, m := range r.members {
		if m.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMemberRepository) Provision(ctx context.Context, member *entity.Member, social *entity.MemberSocial) error {
	r.mu.Lock()
	r.provision++
	hook := r.onProvision
	r.mu.Unlock()
	if hook != nil {
		if err := hook(member, social); err != nil {
			return err
		}
	}
	r.add(member)
	r.link(member.ID, social.Provider, social.ProviderID)
	return nil
}

func (r *fakeMemberRepository) UpdateNickname(ctx context.Context, id, nickname string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return outbound.ErrMemberNotFound
	}
	m.Nickname = nickname
	return nil
}

func (r *fakeMemberRepository) Ping(ctx context.Context) error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.AuthEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event entity.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []entity.AuthEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.AuthEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type issuerFixture struct {
	mr      *miniredis.Miniredis
	codec   *jwt.JWTService
	ledger  *session.RefreshLedger
	members *fakeMemberRepository
	events  *recordingPublisher
	issuer  *TokenIssuer
}

func newIssuerFixture(t *testing.T) *issuerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	codec, err := jwt.NewJWTService(testSecret)
	require.NoError(t, err)

	store := redisstore.NewSessionStore(client)
	ledger := session.NewRefreshLedger(store, codec, 14*24*time.Hour)
	registry := session.NewRevocationRegistry(store, codec)
	members := newFakeMemberRepository()
	events := &recordingPublisher{}

	issuer := NewTokenIssuer(codec, ledger, registry, members, events, nil, logger.NewNopLogger(), 30*time.Minute)

	return &issuerFixture{
		mr:      mr,
		codec:   codec,
		ledger:  ledger,
		members: members,
		events:  events,
		issuer:  issuer,
	}
}
