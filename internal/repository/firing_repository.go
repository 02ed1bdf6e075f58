package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/league-ledger/internal/domain"
)

type firingRepository struct {
	db *sqlx.DB
}

// NewFiringRepository returns a FiringLedger backed by the notification_firings table.
func NewFiringRepository(db *sqlx.DB) FiringLedger {
	return &firingRepository{db: db}
}

func (r *firingRepository) Claim(ctx context.Context, key domain.FiringKey) (bool, error) {
	query := r.db.Rebind(`
		INSERT INTO notification_firings (rule_id, entity_id, trigger_date, status, fired_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (rule_id, entity_id, trigger_date) DO NOTHING
	`)

	res, err := r.db.ExecContext(ctx, query,
		key.RuleID,
		key.EntityID,
		key.TriggerDate,
		domain.FiringStatusPending,
		time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (r *firingRepository) Complete(ctx context.Context, firing *domain.NotificationFiring) error {
	query := r.db.Rebind(`
		UPDATE notification_firings
		SET status = ?, recipients = ?, error = ?, fired_at = ?
		WHERE rule_id = ? AND entity_id = ? AND trigger_date = ?
	`)

	res, err := r.db.ExecContext(ctx, query,
		firing.Status,
		firing.Recipients,
		firing.Error,
		firing.FiredAt,
		firing.RuleID,
		firing.EntityID,
		firing.TriggerDate,
	)
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

func (r *firingRepository) ListByDate(ctx context.Context, date time.Time) ([]*domain.NotificationFiring, error) {
	query := r.db.Rebind(`
		SELECT rule_id, entity_id, trigger_date, status, recipients, error, fired_at
		FROM notification_firings
		WHERE trigger_date = ?
		ORDER BY rule_id, entity_id
	`)

	var firings []*domain.NotificationFiring
	if err := r.db.SelectContext(ctx, &firings, query, date); err != nil {
		return nil, err
	}

	return firings, nil
}
