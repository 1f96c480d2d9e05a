package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/oily/oily-api/application/port/outbound"
	"github.com/oily/oily-api/application/usecase"
	"github.com/oily/oily-api/domain/entity"
	"github.com/oily/oily-api/domain/valueobject"
	"github.com/oily/oily-api/infrastructure/adapter/kafka"
	"github.com/oily/oily-api/infrastructure/adapter/postgres"
	redisstore "github.com/oily/oily-api/infrastructure/adapter/redis"
	"github.com/oily/oily-api/infrastructure/config"
	"github.com/oily/oily-api/infrastructure/service/jwt"
	"github.com/oily/oily-api/infrastructure/service/logger"
	"github.com/oily/oily-api/infrastructure/service/metrics"
	"github.com/oily/oily-api/infrastructure/service/session"
)

// seed provisions a local member linked to a fake Google account, so the
// API can be exercised without a real identity provider. With -issue it
// also prints a fresh token pair for that member.
func main() {
	issue := flag.Bool("issue", false, "issue and print a token pair for the seeded member")
	admin := flag.Bool("admin", false, "seed the member with the ADMIN role")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to seed a production environment")
	}

	email := getenvDefault("SEED_MEMBER_EMAIL", "demo@example.com")
	providerID := "seed-" + email

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	defer db.Close()

	authMetrics := metrics.NewAuthMetrics()
	members := postgres.NewMemberRepository(db, authMetrics)

	member, err := members.FindBySocialLink(ctx, valueobject.ProviderGoogle, providerID)
	switch {
	case errors.Is(err, outbound.ErrMemberNotFound):
		member, err = provision(ctx, members, email, providerID, *admin)
		if err != nil {
			log.Fatalf("failed to seed member: %v", err)
		}
		fmt.Printf("Seeded member: id=%s email=%s nickname=%s role=%s\n", member.ID, member.Email, member.Nickname, member.Role)
	case err != nil:
		log.Fatalf("failed to look up seeded member: %v", err)
	default:
		fmt.Printf("Member already seeded: id=%s nickname=%s role=%s\n", member.ID, member.Nickname, member.Role)
	}

	if !*issue {
		return
	}

	redisClient, err := redisstore.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	codec, err := jwt.NewJWTService(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("failed to initialize jwt: %v", err)
	}
	store := redisstore.NewSessionStore(redisClient)
	issuer := usecase.NewTokenIssuer(
		codec,
		session.NewRefreshLedger(store, codec, cfg.RefreshTokenTTL),
		session.NewRevocationRegistry(store, codec),
		members,
		kafka.NoopPublisher{},
		authMetrics,
		logger.NewNopLogger(),
		cfg.AccessTokenTTL,
	)

	pair, err := issuer.Issue(ctx, member, member.Authorities())
	if err != nil {
		log.Fatalf("failed to issue tokens: %v", err)
	}
	fmt.Printf("Authorization: Bearer %s\n", pair.AccessToken)
	fmt.Printf("Cookie: refreshToken=%s\n", pair.RefreshToken)
}

func provision(ctx context.Context, members *postgres.MemberRepository, email, providerID string, admin bool) (*entity.Member, error) {
	nickname, err := usecase.NewNicknameService(members).RandomNickname(ctx)
	if err != nil {
		return nil, err
	}

	role := valueobject.RoleUser
	if admin {
		role = valueobject.RoleAdmin
	}
	member := entity.NewMember(uuid.NewString(), email, nickname, role)
	social := entity.NewMemberSocial(member.ID, email, valueobject.ProviderGoogle, providerID)
	if err := members.Provision(ctx, member, social); err != nil {
		return nil, err
	}
	return member, nil
}

func getenvDefault(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
