package repository

import (
	"context"
	"time"

	"task-tracker/internal/domain"
)

// TaskOrder selects the sort order of task listings.
type TaskOrder string

const (
	OrderByDate     TaskOrder = "date"
	OrderByPriority TaskOrder = "priority"
)

// TaskFilter narrows a listing of one user's tasks. Zero values mean "any".
type TaskFilter struct {
	Status        domain.TaskStatus
	Priority      domain.TaskPriority
	TitleContains string
	Order         TaskOrder
}

// TaskRepository exposes owner-scoped persistence operations for tasks.
// Every method filters by userID; a task owned by someone else behaves as missing.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (int64, error)
	Update(ctx context.Context, task *domain.Task) error
	UpdateStatus(ctx context.Context, userID, id int64, status domain.TaskStatus) error
	UpdatePriority(ctx context.Context, userID, id int64, priority domain.TaskPriority) error
	Delete(ctx context.Context, userID, id int64) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
	Get(ctx context.Context, userID, id int64) (*domain.Task, error)
	List(ctx context.Context, userID int64, filter TaskFilter) ([]domain.Task, error)
}

// ExportRepository manages task export records.
type ExportRepository interface {
	Create(ctx context.Context, export *domain.Export) (int64, error)
	Get(ctx context.Context, userID, id int64) (*domain.Export, error)
	List(ctx context.Context, userID int64) ([]domain.Export, error)
	Delete(ctx context.Context, userID, id int64) error
	// UpdateStatus and MarkCompleted are used by the export worker on behalf of the row's owner.
	UpdateStatus(ctx context.Context, userID, id int64, status domain.ExportStatus, errorMessage *string) error
	MarkCompleted(ctx context.Context, userID, id int64, location string, taskCount int, completedAt time.Time) error
	ListByStatuses(ctx context.Context, statuses ...domain.ExportStatus) ([]domain.Export, error)
}
