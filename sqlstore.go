package finpilot

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLStore is a Store backed by a relational DB (SQLite/Postgres/MySQL).
// Table schema is provided in sqlstore_test.go and mirrors finpilot_tasks.
// Queries are written with '?' placeholders and retried with '$n' so the
// same code runs against both placeholder dialects.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) InsertPending(ctx context.Context, task Task) error {
	if s.db == nil {
		return errors.New("nil db")
	}
	q := `INSERT INTO finpilot_tasks (id, kind, payload_json, status, submitted_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, task.ID, string(task.Kind), task.PayloadJSON, string(StatusPending), task.SubmittedAt.UTC())
	if err != nil {
		qpg := `INSERT INTO finpilot_tasks (id, kind, payload_json, status, submitted_at)
			VALUES ($1, $2, $3, $4, $5)`
		_, err2 := s.db.ExecContext(ctx, qpg, task.ID, string(task.Kind), task.PayloadJSON, string(StatusPending), task.SubmittedAt.UTC())
		return err2
	}
	return nil
}

func (s *SQLStore) MarkResolved(ctx context.Context, taskID string, resultJSON string, resolvedAt time.Time) error {
	q := `UPDATE finpilot_tasks SET status = ?, result_json = ?, resolved_at = ? WHERE id = ? AND status = ?`
	qpg := `UPDATE finpilot_tasks SET status = $1, result_json = $2, resolved_at = $3 WHERE id = $4 AND status = $5`
	return s.markTerminal(ctx, q, qpg, taskID, string(StatusResolved), resultJSON, resolvedAt)
}

func (s *SQLStore) MarkFailed(ctx context.Context, taskID string, errorMsg string, resolvedAt time.Time) error {
	q := `UPDATE finpilot_tasks SET status = ?, error_msg = ?, resolved_at = ? WHERE id = ? AND status = ?`
	qpg := `UPDATE finpilot_tasks SET status = $1, error_msg = $2, resolved_at = $3 WHERE id = $4 AND status = $5`
	return s.markTerminal(ctx, q, qpg, taskID, string(StatusFailed), errorMsg, resolvedAt)
}

// markTerminal performs the guarded pending -> terminal update. The WHERE
// clause pins status = pending so repeated resolution attempts are no-ops.
func (s *SQLStore) markTerminal(ctx context.Context, q, qpg, taskID, status, value string, resolvedAt time.Time) error {
	if s.db == nil {
		return errors.New("nil db")
	}
	res, err := s.db.ExecContext(ctx, q, status, value, resolvedAt.UTC(), taskID, string(StatusPending))
	if err != nil {
		res, err = s.db.ExecContext(ctx, qpg, status, value, resolvedAt.UTC(), taskID, string(StatusPending))
		if err != nil {
			return err
		}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetByID(ctx, taskID); err != nil {
			return err
		}
		return ErrTaskTerminal
	}
	return nil
}

func (s *SQLStore) GetByID(ctx context.Context, taskID string) (*Task, error) {
	if s.db == nil {
		return nil, errors.New("nil db")
	}
	q := `SELECT id, kind, payload_json, status, error_msg, result_json, submitted_at, resolved_at FROM finpilot_tasks WHERE id = ?`
	row := s.db.QueryRowContext(ctx, q, taskID)
	task, err := scanTask(row)
	if err != nil {
		qpg := `SELECT id, kind, payload_json, status, error_msg, result_json, submitted_at, resolved_at FROM finpilot_tasks WHERE id = $1`
		task, err = scanTask(s.db.QueryRowContext(ctx, qpg, taskID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrTaskNotFound
			}
			return nil, err
		}
	}
	return task, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Task, error) {
	if s.db == nil {
		return nil, errors.New("nil db")
	}
	q := `SELECT id, kind, payload_json, status, error_msg, result_json, submitted_at, resolved_at FROM finpilot_tasks ORDER BY submitted_at, id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *task)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		task                 Task
		kind, status         string
		errorMsg, resultJSON sql.NullString
		resolvedAt           sql.NullTime
	)
	if err := row.Scan(&task.ID, &kind, &task.PayloadJSON, &status, &errorMsg, &resultJSON, &task.SubmittedAt, &resolvedAt); err != nil {
		return nil, err
	}
	task.Kind = Kind(kind)
	task.Status = Status(status)
	if errorMsg.Valid {
		v := errorMsg.String
		task.ErrorMsg = &v
	}
	if resultJSON.Valid {
		v := resultJSON.String
		task.ResultJSON = &v
	}
	if resolvedAt.Valid {
		ts := resolvedAt.Time
		task.ResolvedAt = &ts
	}
	return &task, nil
}
