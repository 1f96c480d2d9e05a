package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/oily/oily-api/domain/valueobject"
	"github.com/oily/oily-api/infrastructure/adapter/postgres"
	"github.com/oily/oily-api/infrastructure/service/metrics"
)

// grant_admin promotes an existing member to ADMIN, or demotes with -revoke.
// Tokens already issued keep their old authorities until they are refreshed.
func main() {
	memberID := flag.String("member", "", "member id to update")
	revoke := flag.Bool("revoke", false, "demote the member back to USER")
	flag.Parse()

	if *memberID == "" {
		log.Fatal("-member is required")
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	members := postgres.NewMemberRepository(db, metrics.NewAuthMetrics())

	role := valueobject.RoleAdmin
	if *revoke {
		role = valueobject.RoleUser
	}
	if err := members.UpdateRole(ctx, *memberID, role); err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}

	member, err := members.FindByID(ctx, *memberID)
	if err != nil {
		log.Fatalf("Failed to reload member: %v", err)
	}
	fmt.Printf("member %s (%s) is now %s\n", member.ID, member.Nickname, member.Role)
}
