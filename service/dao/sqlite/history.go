package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/flowgate/internal/clock"
	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/audit"
	"github.com/viant/flowgate/service/dao"
)

// AuditLog is the SQLite-backed append-only history. Rows are never updated
// or deleted; the primary key on (instance_id, seq) rejects duplicates.
type AuditLog struct {
	sqlDB *sql.DB
}

func (l *AuditLog) Append(ctx context.Context, entry *model.Entry) error {
	if entry == nil {
		return dao.ErrNilEntity
	}
	if entry.InstanceID == "" {
		return dao.ErrInvalidID
	}
	tx, err := l.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	recorded := *entry
	if recorded.Seq == 0 {
		row := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM history WHERE instance_id = ?`, entry.InstanceID)
		if err = row.Scan(&recorded.Seq); err != nil {
			return fmt.Errorf("allocate history seq: %w", err)
		}
	}
	if recorded.CreatedAt.IsZero() {
		recorded.CreatedAt = clock.Now()
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO history (instance_id, seq, step_id, step_order, operator, action, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recorded.InstanceID, recorded.Seq, recorded.StepID, recorded.StepOrder,
		recorded.Operator, string(recorded.Action), recorded.Comment, toMillis(recorded.CreatedAt)); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	entry.Seq = recorded.Seq
	entry.CreatedAt = recorded.CreatedAt
	return nil
}

func (l *AuditLog) List(ctx context.Context, instanceID string) ([]*model.Entry, error) {
	if instanceID == "" {
		return nil, dao.ErrInvalidID
	}
	rows, err := l.sqlDB.QueryContext(ctx,
		`SELECT instance_id, seq, step_id, step_order, operator, action, comment, created_at
		 FROM history WHERE instance_id = ? ORDER BY seq`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var result []*model.Entry
	for rows.Next() {
		entry := &model.Entry{}
		var action string
		var createdAt int64
		if err = rows.Scan(&entry.InstanceID, &entry.Seq, &entry.StepID, &entry.StepOrder,
			&entry.Operator, &action, &entry.Comment, &createdAt); err != nil {
			return nil, err
		}
		entry.Action = model.Action(action)
		entry.CreatedAt = fromMillis(createdAt)
		result = append(result, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var _ audit.Service = (*AuditLog)(nil)
