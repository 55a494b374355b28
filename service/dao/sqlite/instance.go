package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/viant/flowgate/model"
	"github.com/viant/flowgate/service/dao"
	"github.com/viant/flowgate/service/dao/criteria"
)

// InstanceStore is the SQLite-backed instance projection store.
type InstanceStore struct {
	sqlDB *sql.DB
}

func (s *InstanceStore) Save(ctx context.Context, instance *model.Instance) error {
	if instance == nil {
		return dao.ErrNilEntity
	}
	contextBlob, err := marshal(instance.Context)
	if err != nil {
		return fmt.Errorf("encode instance context: %w", err)
	}
	assignmentsBlob, err := marshal(instance.Assignments)
	if err != nil {
		return fmt.Errorf("encode instance assignments: %w", err)
	}
	responsesBlob, err := marshal(instance.Responses)
	if err != nil {
		return fmt.Errorf("encode instance responses: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO instances (id, template_id, template_version, business_ref, initiator_id,
			current_step_order, status, context_blob, assignments_blob, responses_blob, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   current_step_order = excluded.current_step_order,
		   status = excluded.status,
		   context_blob = excluded.context_blob,
		   responses_blob = excluded.responses_blob,
		   updated_at = excluded.updated_at`,
		instance.ID, instance.TemplateID, instance.TemplateVersion, instance.BusinessRef, instance.InitiatorID,
		instance.CurrentStepOrder, string(instance.Status), contextBlob, assignmentsBlob, responsesBlob,
		toMillis(instance.CreatedAt), toMillis(instance.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save instance: %w", err)
	}
	return nil
}

func (s *InstanceStore) Load(ctx context.Context, id string) (*model.Instance, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, template_id, template_version, business_ref, initiator_id,
			current_step_order, status, context_blob, assignments_blob, responses_blob, created_at, updated_at
		 FROM instances WHERE id = ?`, id)
	instance, err := scanInstance(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return instance, nil
}

func (s *InstanceStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM instances WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete instance: %w", err)
	}
	return nil
}

// List returns instances matching the supplied parameters ordered by
// creation time; unknown parameter names are ignored.
func (s *InstanceStore) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Instance, error) {
	query := `SELECT id, template_id, template_version, business_ref, initiator_id,
		current_step_order, status, context_blob, assignments_blob, responses_blob, created_at, updated_at
	 FROM instances`
	where, args := buildWhere(parameters)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at, id"

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var result []*model.Instance
	for rows.Next() {
		instance, err := scanInstance(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, instance)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func buildWhere(parameters []*dao.Parameter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	textClause := func(column string, value interface{}) {
		switch actual := value.(type) {
		case string:
			clauses = append(clauses, column+" = ?")
			args = append(args, actual)
		case []string:
			if len(actual) == 0 {
				return
			}
			placeholders := ""
			for i, candidate := range actual {
				if i > 0 {
					placeholders += ", "
				}
				placeholders += "?"
				args = append(args, candidate)
			}
			clauses = append(clauses, column+" IN ("+placeholders+")")
		}
	}
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		switch parameter.Name {
		case criteria.ParamStatus:
			textClause("status", parameter.Value)
		case criteria.ParamTemplateID:
			textClause("template_id", parameter.Value)
		case criteria.ParamInitiatorID:
			textClause("initiator_id", parameter.Value)
		case criteria.ParamCreatedFrom:
			if at, ok := parameter.Value.(time.Time); ok {
				clauses = append(clauses, "created_at >= ?")
				args = append(args, toMillis(at))
			}
		case criteria.ParamCreatedTo:
			if at, ok := parameter.Value.(time.Time); ok {
				clauses = append(clauses, "created_at <= ?")
				args = append(args, toMillis(at))
			}
		}
	}
	where := ""
	for i, clause := range clauses {
		if i > 0 {
			where += " AND "
		}
		where += clause
	}
	return where, args
}

func scanInstance(scan func(...interface{}) error) (*model.Instance, error) {
	instance := &model.Instance{}
	var status, contextBlob, assignmentsBlob, responsesBlob string
	var createdAt, updatedAt int64
	if err := scan(&instance.ID, &instance.TemplateID, &instance.TemplateVersion, &instance.BusinessRef,
		&instance.InitiatorID, &instance.CurrentStepOrder, &status, &contextBlob, &assignmentsBlob,
		&responsesBlob, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	instance.Status = model.Status(status)
	instance.CreatedAt = fromMillis(createdAt)
	instance.UpdatedAt = fromMillis(updatedAt)
	if err := json.Unmarshal([]byte(contextBlob), &instance.Context); err != nil {
		return nil, fmt.Errorf("decode instance context: %w", err)
	}
	if err := json.Unmarshal([]byte(assignmentsBlob), &instance.Assignments); err != nil {
		return nil, fmt.Errorf("decode instance assignments: %w", err)
	}
	if err := json.Unmarshal([]byte(responsesBlob), &instance.Responses); err != nil {
		return nil, fmt.Errorf("decode instance responses: %w", err)
	}
	return instance, nil
}

var _ dao.Service[string, model.Instance] = (*InstanceStore)(nil)
