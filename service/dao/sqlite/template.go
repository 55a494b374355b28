package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/viant/flowgate/internal/clock"
	"github.com/viant/flowgate/internal/idgen"
	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/model/types"
	"github.com/viant/flowgate/service/dao"
	"github.com/viant/flowgate/service/template"
)

// TemplateService is the SQLite-backed template store. Version rows are
// insert-only; per-template metadata carries the mutable last version and
// lifecycle status.
type TemplateService struct {
	sqlDB *sql.DB
}

func (s *TemplateService) Create(ctx context.Context, name string, steps []*model.Step) (*model.Template, error) {
	result := &model.Template{
		ID:      idgen.New(),
		Name:    name,
		Version: 1,
		Status:  model.TemplateActive,
		Steps:   steps,
	}
	if issues := result.Validate(); len(issues) > 0 {
		return nil, types.NewValidationError(issues...)
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO template_meta (id, name, last_version, status) VALUES (?, ?, ?, ?)`,
		result.ID, name, result.Version, string(result.Status)); err != nil {
		return nil, fmt.Errorf("create template meta: %w", err)
	}
	if err = insertVersion(ctx, tx, result); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TemplateService) Update(ctx context.Context, id string, steps []*model.Step) (*model.Template, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var name, status string
	var lastVersion int
	row := tx.QueryRowContext(ctx, `SELECT name, last_version, status FROM template_meta WHERE id = ?`, id)
	if err = row.Scan(&name, &lastVersion, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template %s: %w", id, dao.ErrNotFound)
		}
		return nil, fmt.Errorf("load template meta: %w", err)
	}
	result := &model.Template{
		ID:      id,
		Name:    name,
		Version: lastVersion + 1,
		Status:  model.TemplateStatus(status),
		Steps:   steps,
	}
	if issues := result.Validate(); len(issues) > 0 {
		return nil, types.NewValidationError(issues...)
	}
	if err = insertVersion(ctx, tx, result); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE template_meta SET last_version = ? WHERE id = ?`, result.Version, id); err != nil {
		return nil, fmt.Errorf("update template meta: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TemplateService) Retire(ctx context.Context, id string) error {
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE template_meta SET status = ? WHERE id = ?`, string(model.TemplateRetired), id)
	if err != nil {
		return fmt.Errorf("retire template: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("template %s: %w", id, dao.ErrNotFound)
	}
	return nil
}

func (s *TemplateService) Snapshot(ctx context.Context, id string, version int) (*model.Template, error) {
	var status string
	row := s.sqlDB.QueryRowContext(ctx, `SELECT status FROM template_meta WHERE id = ?`, id)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template %s: %w", id, dao.ErrNotFound)
		}
		return nil, fmt.Errorf("load template meta: %w", err)
	}

	var name, stepsBlob string
	row = s.sqlDB.QueryRowContext(ctx,
		`SELECT name, steps_blob FROM templates WHERE id = ? AND version = ?`, id, version)
	if err := row.Scan(&name, &stepsBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template %s version %d: %w", id, version, dao.ErrNotFound)
		}
		return nil, fmt.Errorf("load template version: %w", err)
	}
	var steps []*model.Step
	if err := json.Unmarshal([]byte(stepsBlob), &steps); err != nil {
		return nil, fmt.Errorf("decode template steps: %w", err)
	}
	result := &model.Template{
		ID:      id,
		Name:    name,
		Version: version,
		Status:  model.TemplateStatus(status),
		Steps:   steps,
	}
	// re-validate to reconstruct the parsed condition expressions
	if issues := result.Validate(); len(issues) > 0 {
		return nil, types.NewValidationError(issues...)
	}
	return result, nil
}

func (s *TemplateService) Latest(ctx context.Context, id string) (*model.Template, error) {
	var lastVersion int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT last_version FROM template_meta WHERE id = ?`, id)
	if err := row.Scan(&lastVersion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template %s: %w", id, dao.ErrNotFound)
		}
		return nil, fmt.Errorf("load template meta: %w", err)
	}
	return s.Snapshot(ctx, id, lastVersion)
}

func (s *TemplateService) List(ctx context.Context) ([]*model.Template, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id FROM template_meta ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	result := make([]*model.Template, 0, len(ids))
	for _, id := range ids {
		tmpl, err := s.Latest(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, tmpl)
	}
	return result, nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, tmpl *model.Template) error {
	stepsBlob, err := marshal(tmpl.Steps)
	if err != nil {
		return fmt.Errorf("encode template steps: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO templates (id, version, name, steps_blob, created_at) VALUES (?, ?, ?, ?, ?)`,
		tmpl.ID, tmpl.Version, tmpl.Name, stepsBlob, toMillis(clock.Now())); err != nil {
		return fmt.Errorf("insert template version: %w", err)
	}
	return nil
}

var _ template.Service = (*TemplateService)(nil)
