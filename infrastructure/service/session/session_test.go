package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oily/oily-api/application/port/outbound"
	"github.com/oily/oily-api/domain/valueobject"
	redisstore "github.com/oily/oily-api/infrastructure/adapter/redis"
	"github.com/oily/oily-api/infrastructure/service/jwt"
)

const testSecret = "session-test-secret-session-test-secret"

type fixture struct {
	mr     *miniredis.Miniredis
	store  *redisstore.SessionStore
	codec  *jwt.JWTService
	ledger *RefreshLedger
	reg    *RevocationRegistry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	codec, err := jwt.NewJWTService(testSecret)
	require.NoError(t, err)

	store := redisstore.NewSessionStore(client)
	return &fixture{
		mr:     mr,
		store:  store,
		codec:  codec,
		ledger: NewRefreshLedger(store, codec, 14*24*time.Hour),
		reg:    NewRevocationRegistry(store, codec),
	}
}

func refreshIDOf(t *testing.T, codec outbound.TokenCodec, token string) string {
	t.Helper()
	claims, err := codec.Verify(token)
	require.NoError(t, err)
	return claims.Subject
}

func TestRefreshLedger_IssueResolveConsume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	authorities := valueobject.NewAuthorities(valueobject.RoleUser)

	token, err := f.ledger.Issue(ctx, "m1", authorities)
	require.NoError(t, err)

	id := refreshIDOf(t, f.codec, token)
	assert.NotEqual(t, "m1", id)
	assert.True(t, f.mr.Exists("refresh:"+id))
	mapped, err := f.mr.Get("member-refresh:m1")
	require.NoError(t, err)
	assert.Equal(t, id, mapped)
	assert.Equal(t, 14*24*time.Hour, f.mr.TTL("refresh:"+id))

	record, err := f.ledger.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "m1", record.MemberID)
	assert.Equal(t, authorities, record.Authorities)

	require.NoError(t, f.ledger.Consume(ctx, "m1"))
	_, err = f.ledger.Resolve(ctx, id)
	assert.ErrorIs(t, err, outbound.ErrRefreshRecordNotFound)
	assert.False(t, f.mr.Exists("member-refresh:m1"))

	// idempotent
	require.NoError(t, f.ledger.Consume(ctx, "m1"))
}

func TestRefreshLedger_IssueReplacesPreviousRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.ledger.Issue(ctx, "m1", valueobject.NewAuthorities(valueobject.RoleUser))
	require.NoError(t, err)
	second, err := f.ledger.Issue(ctx, "m1", valueobject.NewAuthorities(valueobject.RoleUser))
	require.NoError(t, err)

	_, err = f.ledger.Resolve(ctx, refreshIDOf(t, f.codec, first))
	assert.ErrorIs(t, err, outbound.ErrRefreshRecordNotFound)

	_, err = f.ledger.Resolve(ctx, refreshIDOf(t, f.codec, second))
	assert.NoError(t, err)
}

func TestRefreshLedger_ConsumeIfCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.ledger.Issue(ctx, "m1", valueobject.NewAuthorities(valueobject.RoleUser))
	require.NoError(t, err)
	id := refreshIDOf(t, f.codec, token)

	ok, err := f.ledger.ConsumeIfCurrent(ctx, "m1", "stale-id")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.ledger.ConsumeIfCurrent(ctx, "m1", id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.ledger.ConsumeIfCurrent(ctx, "m1", id)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.mr.Exists("refresh:"+id))
}

func TestRevocationRegistry_BlacklistUsesRemainingLifetime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.codec.Sign("m1", outbound.TokenClaims{
		Authorities: valueobject.NewAuthorities(valueobject.RoleUser),
	}, time.Now().Add(10*time.Minute))
	require.NoError(t, err)

	blacklisted, err := f.reg.IsBlacklisted(ctx, valueobject.AccessToken, token)
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, f.reg.Blacklist(ctx, valueobject.AccessToken, token))

	blacklisted, err = f.reg.IsBlacklisted(ctx, valueobject.AccessToken, token)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	ttl := f.mr.TTL("blacklist:access:" + token)
	assert.True(t, ttl > 9*time.Minute && ttl <= 10*time.Minute, "ttl %s", ttl)

	// kinds do not share keys
	blacklisted, err = f.reg.IsBlacklisted(ctx, valueobject.RefreshToken, token)
	require.NoError(t, err)
	assert.False(t, blacklisted)

	f.mr.FastForward(11 * time.Minute)
	blacklisted, err = f.reg.IsBlacklisted(ctx, valueobject.AccessToken, token)
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestRevocationRegistry_ExpiredTokenIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.codec.Sign("m1", outbound.TokenClaims{}, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	require.NoError(t, f.reg.Blacklist(ctx, valueobject.RefreshToken, token))
	assert.False(t, f.mr.Exists("blacklist:refresh:"+token))
}

func TestRevocationRegistry_RejectsGarbage(t *testing.T) {
	f := newFixture(t)
	err := f.reg.Blacklist(context.Background(), valueobject.AccessToken, "garbage")
	assert.Error(t, err)
}
