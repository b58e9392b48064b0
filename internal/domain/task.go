package domain

import (
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// MaxDescriptionLength bounds Task.Description.
const MaxDescriptionLength = 1000

// ParseTaskStatus accepts TODO, IN_PROGRESS and DONE in any case; "in-progress" is accepted too.
func ParseTaskStatus(s string) (TaskStatus, error) {
	normalized := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
	switch TaskStatus(normalized) {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return TaskStatus(normalized), nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

func ParseTaskPriority(s string) (TaskPriority, error) {
	normalized := TaskPriority(strings.ToUpper(strings.TrimSpace(s)))
	switch normalized {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return normalized, nil
	}
	return "", fmt.Errorf("unknown task priority %q", s)
}

// Rank orders priorities from LOW (1) to URGENT (4).
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityLow:
		return 1
	case TaskPriorityMedium:
		return 2
	case TaskPriorityHigh:
		return 3
	case TaskPriorityUrgent:
		return 4
	}
	return 0
}

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
