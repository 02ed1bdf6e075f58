package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/league-ledger/internal/domain"
)

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `id, member_id, league_id, week_number, week_date, status, amount_paid,
	fine_applied, fine_paid, modified_by, created_at, updated_at`

func (r *attendanceRepository) GetRecord(ctx context.Context, memberID, leagueID uuid.UUID, week int) (*domain.AttendanceRecord, error) {
	query := r.db.Rebind(`
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE member_id = ? AND league_id = ? AND week_number = ?
	`)

	var record domain.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, memberID, leagueID, week); err != nil {
		return nil, translateNotFound(err)
	}

	return &record, nil
}

func (r *attendanceRepository) Save(ctx context.Context, record *domain.AttendanceRecord) ([]*domain.AttendanceRecord, error) {
	upsert := r.db.Rebind(`
		INSERT INTO attendance (` + attendanceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (member_id, league_id, week_number) DO UPDATE SET
			status = excluded.status,
			amount_paid = excluded.amount_paid,
			fine_applied = excluded.fine_applied,
			fine_paid = excluded.fine_paid,
			modified_by = excluded.modified_by,
			updated_at = excluded.updated_at
	`)

	tx, err := r.db.BeginTxx(ctx, r.txOptions())
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, upsert,
		record.ID,
		record.MemberID,
		record.LeagueID,
		record.WeekNumber,
		record.WeekDate,
		record.Status,
		record.AmountPaid,
		record.FineApplied,
		record.FinePaid,
		record.ModifiedBy,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	records, err := r.listByMembership(ctx, tx, record.MemberID, record.LeagueID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *attendanceRepository) ListByMembership(ctx context.Context, memberID, leagueID uuid.UUID) ([]*domain.AttendanceRecord, error) {
	return r.listByMembership(ctx, r.db, memberID, leagueID)
}

func (r *attendanceRepository) ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*domain.AttendanceRecord, error) {
	query := r.db.Rebind(`
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE league_id = ?
		ORDER BY member_id, week_number
	`)

	var records []*domain.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, leagueID); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *attendanceRepository) listByMembership(ctx context.Context, q sqlx.QueryerContext, memberID, leagueID uuid.UUID) ([]*domain.AttendanceRecord, error) {
	query := r.db.Rebind(`
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE member_id = ? AND league_id = ?
		ORDER BY week_number
	`)

	var records []*domain.AttendanceRecord
	if err := sqlx.SelectContext(ctx, q, &records, query, memberID, leagueID); err != nil {
		return nil, err
	}

	return records, nil
}

// txOptions picks the isolation of the upsert-and-read transaction. SQLite
// transactions are already serializable and modernc rejects explicit levels.
func (r *attendanceRepository) txOptions() *sql.TxOptions {
	if r.db.DriverName() == "postgres" {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	}
	return nil
}
