package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/league-ledger/internal/domain"
)

type memberRepository struct {
	db *sqlx.DB
}

func NewMemberRepository(db *sqlx.DB) MemberRepository {
	return &memberRepository{db: db}
}

const memberColumns = `id, registration_number, first_name, surname, email, phone,
	registration_status, registration_checked_at, created_at`

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	query := r.db.Rebind(`
		INSERT INTO members (` + memberColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		member.ID,
		member.RegistrationNumber,
		member.FirstName,
		member.Surname,
		member.Email,
		member.Phone,
		member.RegistrationStatus,
		member.RegistrationCheckedAt,
		member.CreatedAt,
	)

	return translateConstraintViolation(err)
}

func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	query := r.db.Rebind(`SELECT ` + memberColumns + ` FROM members WHERE id = ?`)

	var member domain.Member
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, translateNotFound(err)
	}

	return &member, nil
}

func (r *memberRepository) ListByRegistrationStatus(ctx context.Context, status string) ([]*domain.Member, error) {
	query := r.db.Rebind(`
		SELECT ` + memberColumns + `
		FROM members
		WHERE registration_status = ?
		ORDER BY surname, first_name
	`)

	var members []*domain.Member
	if err := r.db.SelectContext(ctx, &members, query, status); err != nil {
		return nil, err
	}

	return members, nil
}
