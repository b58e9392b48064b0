package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"task-tracker/internal/domain"
	"task-tracker/internal/repository"
)

const selectExportColumns = `SELECT id, user_id, status, task_count, location, error_message, created_at, updated_at, completed_at FROM exports`

type ExportRepository struct {
	db *sql.DB
}

func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

func (r *ExportRepository) Create(ctx context.Context, export *domain.Export) (int64, error) {
	if export.UserID == 0 {
		return 0, errors.New("insert export: owner is required")
	}
	now := time.Now().UTC()
	export.CreatedAt = now
	export.UpdatedAt = now
	if export.Status == "" {
		export.Status = domain.ExportStatusPending
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO exports (user_id, status, task_count, location, error_message, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		export.UserID,
		string(export.Status),
		export.TaskCount,
		export.Location,
		export.ErrorMessage,
		export.CreatedAt,
		export.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert export: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("export last insert id: %w", err)
	}
	export.ID = id
	return id, nil
}

func (r *ExportRepository) Get(ctx context.Context, userID, id int64) (*domain.Export, error) {
	row := r.db.QueryRowContext(ctx, selectExportColumns+`
WHERE id=? AND user_id=?`, id, userID)
	return scanExport(row)
}

func (r *ExportRepository) List(ctx context.Context, userID int64) ([]domain.Export, error) {
	rows, err := r.db.QueryContext(ctx, selectExportColumns+`
WHERE user_id=?
ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	return collectExports(rows)
}

func (r *ExportRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM exports WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete export: %w", err)
	}
	return expectOneRow(res, "delete export")
}

func (r *ExportRepository) UpdateStatus(ctx context.Context, userID, id int64, status domain.ExportStatus, errorMessage *string) error {
	msg := ""
	if errorMessage != nil {
		msg = *errorMessage
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE exports
SET status=?, error_message=?, updated_at=?
WHERE id=? AND user_id=?`,
		string(status),
		msg,
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return fmt.Errorf("update export status: %w", err)
	}
	return expectOneRow(res, "update export status")
}

func (r *ExportRepository) MarkCompleted(ctx context.Context, userID, id int64, location string, taskCount int, completedAt time.Time) error {
	t := completedAt.UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE exports
SET status=?, location=?, task_count=?, error_message='', completed_at=?, updated_at=?
WHERE id=? AND user_id=?`,
		string(domain.ExportStatusCompleted),
		location,
		taskCount,
		nullTime(&t),
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	return expectOneRow(res, "mark export completed")
}

func (r *ExportRepository) ListByStatuses(ctx context.Context, statuses ...domain.ExportStatus) ([]domain.Export, error) {
	if len(statuses) == 0 {
		return []domain.Export{}, nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		placeholders[i] = "?"
		args[i] = string(status)
	}

	query := fmt.Sprintf(`%s
WHERE status IN (%s)
ORDER BY id ASC`, selectExportColumns, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports by status: %w", err)
	}
	return collectExports(rows)
}

func collectExports(rows *sql.Rows) ([]domain.Export, error) {
	defer rows.Close()

	exports := []domain.Export{}
	for rows.Next() {
		export, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		exports = append(exports, *export)
	}
	return exports, rows.Err()
}

func scanExport(scanner rowScanner) (*domain.Export, error) {
	var (
		export      domain.Export
		status      string
		completedAt sql.NullTime
	)
	if err := scanner.Scan(
		&export.ID,
		&export.UserID,
		&status,
		&export.TaskCount,
		&export.Location,
		&export.ErrorMessage,
		&export.CreatedAt,
		&export.UpdatedAt,
		&completedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("export: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan export: %w", err)
	}

	export.Status = domain.ExportStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		export.CompletedAt = &t
	}
	return &export, nil
}

var _ repository.ExportRepository = (*ExportRepository)(nil)
