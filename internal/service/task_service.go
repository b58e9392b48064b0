package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"task-tracker/internal/auth"
	"task-tracker/internal/domain"
	"task-tracker/internal/repository"
)

// ErrTaskNotFound is returned for missing tasks and for tasks owned by another user alike.
var ErrTaskNotFound = errors.New("task not found")

// TaskInput carries the client-editable fields of a task.
// Empty Status or Priority means "default" on create and "unchanged" on update.
type TaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
}

// TaskService coordinates owner-scoped task operations. Every method takes the
// caller's user id and never touches another user's rows.
type TaskService interface {
	CreateTask(ctx context.Context, userID int64, in TaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, userID, id int64) (*domain.Task, error)
	ListTasks(ctx context.Context, userID int64, filter repository.TaskFilter) ([]domain.Task, error)
	UpdateTask(ctx context.Context, userID, id int64, in TaskInput) (*domain.Task, error)
	SetStatus(ctx context.Context, userID, id int64, status domain.TaskStatus) (*domain.Task, error)
	SetPriority(ctx context.Context, userID, id int64, priority domain.TaskPriority) (*domain.Task, error)
	DeleteTask(ctx context.Context, userID, id int64) error
	DeleteAllTasks(ctx context.Context, userID int64) (int64, error)
}

type taskService struct {
	tasks repository.TaskRepository
}

func NewTaskService(tasks repository.TaskRepository) TaskService {
	return &taskService{tasks: tasks}
}

func (s *taskService) CreateTask(ctx context.Context, userID int64, in TaskInput) (*domain.Task, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	if err := validateTaskInput(in); err != nil {
		return nil, err
	}

	task := &domain.Task{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = domain.TaskPriorityMedium
	}

	if _, err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, userID, id int64) (*domain.Task, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	task, err := s.tasks.Get(ctx, userID, id)
	if err != nil {
		return nil, mapTaskErr(err)
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, userID int64, filter repository.TaskFilter) ([]domain.Task, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	return s.tasks.List(ctx, userID, filter)
}

func (s *taskService) UpdateTask(ctx context.Context, userID, id int64, in TaskInput) (*domain.Task, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	if err := validateTaskInput(in); err != nil {
		return nil, err
	}

	task, err := s.tasks.Get(ctx, userID, id)
	if err != nil {
		return nil, mapTaskErr(err)
	}

	task.Title = strings.TrimSpace(in.Title)
	task.Description = in.Description
	if in.Status != "" {
		task.Status = in.Status
	}
	if in.Priority != "" {
		task.Priority = in.Priority
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, mapTaskErr(err)
	}
	return task, nil
}

func (s *taskService) SetStatus(ctx context.Context, userID, id int64, status domain.TaskStatus) (*domain.Task, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	if _, err := domain.ParseTaskStatus(string(status)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.tasks.UpdateStatus(ctx, userID, id, status); err != nil {
		return nil, mapTaskErr(err)
	}
	return s.GetTask(ctx, userID, id)
}

func (s *taskService) SetPriority(ctx context.Context, userID, id int64, priority domain.TaskPriority) (*domain.Task, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	if _, err := domain.ParseTaskPriority(string(priority)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.tasks.UpdatePriority(ctx, userID, id, priority); err != nil {
		return nil, mapTaskErr(err)
	}
	return s.GetTask(ctx, userID, id)
}

func (s *taskService) DeleteTask(ctx context.Context, userID, id int64) error {
	if err := requireOwner(userID); err != nil {
		return err
	}
	return mapTaskErr(s.tasks.Delete(ctx, userID, id))
}

func (s *taskService) DeleteAllTasks(ctx context.Context, userID int64) (int64, error) {
	if err := requireOwner(userID); err != nil {
		return 0, err
	}
	return s.tasks.DeleteAll(ctx, userID)
}

func validateTaskInput(in TaskInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if utf8.RuneCountInString(in.Description) > domain.MaxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", ErrValidation, domain.MaxDescriptionLength)
	}
	if in.Status != "" {
		if _, err := domain.ParseTaskStatus(string(in.Status)); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if in.Priority != "" {
		if _, err := domain.ParseTaskPriority(string(in.Priority)); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return nil
}

// requireOwner fails closed when no caller identity reached the service.
func requireOwner(userID int64) error {
	if userID <= 0 {
		return auth.ErrUnauthenticated
	}
	return nil
}

func mapTaskErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}
