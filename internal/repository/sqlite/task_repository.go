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

const selectTaskColumns = `SELECT id, user_id, title, description, status, priority, created_at, updated_at FROM tasks`

const priorityRankExpr = `CASE priority WHEN 'URGENT' THEN 4 WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 WHEN 'LOW' THEN 1 ELSE 0 END`

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (int64, error) {
	if task.UserID == 0 {
		return 0, errors.New("insert task: owner is required")
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO tasks (user_id, title, description, status, priority, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	task.ID = id
	return id, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	task.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE tasks
SET title=?, description=?, status=?, priority=?, updated_at=?
WHERE id=? AND user_id=?`,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectOneRow(res, "update task")
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, userID, id int64, status domain.TaskStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE tasks
SET status=?, updated_at=?
WHERE id=? AND user_id=?`,
		string(status),
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return expectOneRow(res, "update task status")
}

func (r *TaskRepository) UpdatePriority(ctx context.Context, userID, id int64, priority domain.TaskPriority) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE tasks
SET priority=?, updated_at=?
WHERE id=? AND user_id=?`,
		string(priority),
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return fmt.Errorf("update task priority: %w", err)
	}
	return expectOneRow(res, "update task priority")
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOneRow(res, "delete task")
}

func (r *TaskRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id=?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("tasks delete rows affected: %w", err)
	}
	return aff, nil
}

func (r *TaskRepository) Get(ctx context.Context, userID, id int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, selectTaskColumns+`
WHERE id=? AND user_id=?`,
		id,
		userID,
	)
	return scanTask(row)
}

func (r *TaskRepository) List(ctx context.Context, userID int64, filter repository.TaskFilter) ([]domain.Task, error) {
	var (
		clauses = []string{"user_id = ?"}
		args    = []any{userID}
	)
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		clauses = append(clauses, "priority = ?")
		args = append(args, string(filter.Priority))
	}
	if title := strings.TrimSpace(filter.TitleContains); title != "" {
		clauses = append(clauses, "instr(lower(title), lower(?)) > 0")
		args = append(args, title)
	}

	order := "created_at DESC, id DESC"
	if filter.Order == repository.OrderByPriority {
		order = priorityRankExpr + " DESC, created_at DESC, id DESC"
	}

	query := fmt.Sprintf(`%s
WHERE %s
ORDER BY %s`, selectTaskColumns, strings.Join(clauses, " AND "), order)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, rows.Err()
}

func scanTask(scanner rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		status   string
		priority string
	)

	if err := scanner.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	return &task, nil
}

// expectOneRow turns a write that matched nothing (missing or foreign row) into ErrNotFound.
func expectOneRow(res sql.Result, op string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}

var _ repository.TaskRepository = (*TaskRepository)(nil)
