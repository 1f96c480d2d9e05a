package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/oily/oily-api/application/port/outbound"
	"github.com/oily/oily-api/domain/entity"
	"github.com/oily/oily-api/domain/valueobject"
	"github.com/oily/oily-api/infrastructure/service/metrics"
)

const (
	uniqueViolation    = "23505"
	nicknameConstraint = "uq_members_nickname"
)

type MemberRepository struct {
	db      *sql.DB
	metrics *metrics.AuthMetrics
}

func NewMemberRepository(db *sql.DB, authMetrics *metrics.AuthMetrics) *MemberRepository {
	return &MemberRepository{
		db:      db,
		metrics: authMetrics,
	}
}

var _ outbound.MemberRepository = (*MemberRepository)(nil)

const selectMember = `
		SELECT m.id, m.email, m.nickname, m.role, m.created_at, m.updated_at
		FROM members m`

func (r *MemberRepository) FindByID(ctx context.Context, id string) (member *entity.Member, err error) {
	defer r.observe("FindByID", time.Now(), &err)

	if id == "" {
		return nil, outbound.ErrMemberNotFound
	}

	member, err = r.scanMember(r.db.QueryRowContext(ctx, selectMember+`
		WHERE m.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *MemberRepository) FindBySocialLink(ctx context.Context, provider valueobject.SocialProvider, providerID string) (member *entity.Member, err error) {
	defer r.observe("FindBySocialLink", time.Now(), &err)

	member, err = r.scanMember(r.db.QueryRowContext(ctx, selectMember+`
		JOIN member_socials s ON s.member_id = m.id
		WHERE s.provider_name = $1 AND s.provider_id = $2`, string(provider), providerID))
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *MemberRepository) ExistsByNickname(ctx context.Context, nickname string) (exists bool, err error) {
	defer r.observe("ExistsByNickname", time.Now(), &err)

	query := `SELECT EXISTS(SELECT 1 FROM members WHERE nickname = $1)`
	if err = r.db.QueryRowContext(ctx, query, nickname).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check nickname: %w", err)
	}
	return exists, nil
}

// Provision creates the member and its social link in one transaction.
func (r *MemberRepository) Provision(ctx context.Context, member *entity.Member, social *entity.MemberSocial) (err error) {
	defer r.observe("Provision", time.Now(), &err)

	if member == nil || social == nil {
		return fmt.Errorf("member and social link are required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO members (id, email, nickname, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		member.ID, member.Email, member.Nickname, member.Role.String(), member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		return translateWriteError("create member", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO member_socials (member_id, email, provider_name, provider_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		social.MemberID, social.Email, string(social.Provider), social.ProviderID, social.CreatedAt,
	).Scan(&social.ID)
	if err != nil {
		return translateWriteError("link social account", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit provisioning: %w", err)
	}
	return nil
}

func (r *MemberRepository) UpdateNickname(ctx context.Context, id, nickname string) (err error) {
	defer r.observe("UpdateNickname", time.Now(), &err)

	result, err := r.db.ExecContext(ctx, `
		UPDATE members SET nickname = $1, updated_at = $2
		WHERE id = $3`, nickname, time.Now(), id)
	if err != nil {
		return translateWriteError("update nickname", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return outbound.ErrMemberNotFound
	}
	return nil
}

// UpdateRole is used by operator tooling; no HTTP route changes roles.
func (r *MemberRepository) UpdateRole(ctx context.Context, id string, role valueobject.Role) (err error) {
	defer r.observe("UpdateRole", time.Now(), &err)

	result, err := r.db.ExecContext(ctx, `
		UPDATE members SET role = $1, updated_at = $2
		WHERE id = $3`, role.String(), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return outbound.ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *MemberRepository) scanMember(row *sql.Row) (*entity.Member, error) {
	var (
		member entity.Member
		role   string
	)
	err := row.Scan(
		&member.ID,
		&member.Email,
		&member.Nickname,
		&role,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, outbound.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	if member.Role, err = valueobject.ParseRole(role); err != nil {
		return nil, fmt.Errorf("member %s: %w", member.ID, err)
	}
	return &member, nil
}

// observe records the call unless it ended in a plain not-found.
func (r *MemberRepository) observe(method string, started time.Time, err *error) {
	callErr := *err
	if errors.Is(callErr, outbound.ErrMemberNotFound) {
		callErr = nil
	}
	r.metrics.RepositoryCall(method, started, callErr)
}

func translateWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == nicknameConstraint {
			return fmt.Errorf("%s: %w", op, outbound.ErrNicknameTaken)
		}
		return fmt.Errorf("%s: %w", op, outbound.ErrMemberAlreadyExists)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
