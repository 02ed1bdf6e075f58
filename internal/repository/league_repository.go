package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/league-ledger/internal/domain"
)

type leagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) LeagueRepository {
	return &leagueRepository{db: db}
}

const leagueColumns = `id, name, start_date, finish_date, social_fee, bowling_fee, has_fines, fine_amount,
	league_type, players_per_team, is_active, created_at`

func (r *leagueRepository) Create(ctx context.Context, league *domain.League) error {
	query := r.db.Rebind(`
		INSERT INTO leagues (` + leagueColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		league.ID,
		league.Name,
		league.StartDate,
		league.FinishDate,
		league.SocialFee,
		league.BowlingFee,
		league.HasFines,
		league.FineAmount,
		league.LeagueType,
		league.PlayersPerTeam,
		league.IsActive,
		league.CreatedAt,
	)

	return err
}

func (r *leagueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.League, error) {
	query := r.db.Rebind(`SELECT ` + leagueColumns + ` FROM leagues WHERE id = ?`)

	var league domain.League
	if err := r.db.GetContext(ctx, &league, query, id); err != nil {
		return nil, translateNotFound(err)
	}

	return &league, nil
}

func (r *leagueRepository) ListActive(ctx context.Context) ([]*domain.League, error) {
	query := r.db.Rebind(`SELECT ` + leagueColumns + ` FROM leagues WHERE is_active = ? ORDER BY start_date, name`)

	var leagues []*domain.League
	if err := r.db.SelectContext(ctx, &leagues, query, true); err != nil {
		return nil, err
	}

	return leagues, nil
}

func (r *leagueRepository) CreateTeam(ctx context.Context, team *domain.Team) error {
	query := r.db.Rebind(`
		INSERT INTO teams (id, league_id, name, created_at)
		VALUES (?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query, team.ID, team.LeagueID, team.Name, team.CreatedAt)
	return err
}

func (r *leagueRepository) ListTeams(ctx context.Context, leagueID uuid.UUID) ([]*domain.Team, error) {
	query := r.db.Rebind(`
		SELECT id, league_id, name, created_at
		FROM teams
		WHERE league_id = ?
		ORDER BY name
	`)

	var teams []*domain.Team
	if err := r.db.SelectContext(ctx, &teams, query, leagueID); err != nil {
		return nil, err
	}

	return teams, nil
}
