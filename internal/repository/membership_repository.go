package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/segyhp/league-ledger/internal/domain"
)

type membershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepository(db *sqlx.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

const membershipColumns = `id, member_id, league_id, team_id, balance_owing, joined_at`

func (r *membershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	query := r.db.Rebind(`
		INSERT INTO memberships (` + membershipColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		membership.ID,
		membership.MemberID,
		membership.LeagueID,
		membership.TeamID,
		membership.BalanceOwing,
		membership.JoinedAt,
	)

	return translateConstraintViolation(err)
}

func (r *membershipRepository) Get(ctx context.Context, memberID, leagueID uuid.UUID) (*domain.Membership, error) {
	query := r.db.Rebind(`
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE member_id = ? AND league_id = ?
	`)

	var membership domain.Membership
	if err := r.db.GetContext(ctx, &membership, query, memberID, leagueID); err != nil {
		return nil, translateNotFound(err)
	}

	return &membership, nil
}

func (r *membershipRepository) ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*domain.Membership, error) {
	query := r.db.Rebind(`
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE league_id = ?
		ORDER BY joined_at
	`)

	var memberships []*domain.Membership
	if err := r.db.SelectContext(ctx, &memberships, query, leagueID); err != nil {
		return nil, err
	}

	return memberships, nil
}

func (r *membershipRepository) UpdateBalance(ctx context.Context, membershipID uuid.UUID, balance decimal.Decimal) error {
	query := r.db.Rebind(`UPDATE memberships SET balance_owing = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, balance, membershipID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
