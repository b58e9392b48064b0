package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"task-tracker/internal/domain"
	"task-tracker/internal/repository"
)

// mockUserRepository is an in-memory UserRepository keyed by lowercase email.
type mockUserRepository struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int64

	existsErr error
	createErr error
	getErr    error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: map[string]*domain.User{}}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	key := strings.ToLower(user.Email)
	if _, ok := m.users[key]; ok {
		return 0, repository.ErrDuplicate
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[key] = &stored
	return user.ID, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.users[strings.ToLower(email)]
	return ok, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) delete(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, strings.ToLower(email))
}

// mockTaskRepository is an in-memory TaskRepository that honours owner scoping.
type mockTaskRepository struct {
	mu     sync.Mutex
	tasks  map[int64]domain.Task
	nextID int64
}

func newMockTaskRepository() *mockTaskRepository {
	return &mockTaskRepository{tasks: map[int64]domain.Task{}}
}

func (m *mockTaskRepository) Create(ctx context.Context, task *domain.Task) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	task.ID = m.nextID
	task.CreatedAt = time.Now().UTC()
	task.UpdatedAt = task.CreatedAt
	m.tasks[task.ID] = *task
	return task.ID, nil
}

func (m *mockTaskRepository) owned(userID, id int64) (domain.Task, bool) {
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return domain.Task{}, false
	}
	return task, true
}

func (m *mockTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owned(task.UserID, task.ID); !ok {
		return repository.ErrNotFound
	}
	m.tasks[task.ID] = *task
	return nil
}

func (m *mockTaskRepository) UpdateStatus(ctx context.Context, userID, id int64, status domain.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.owned(userID, id)
	if !ok {
		return repository.ErrNotFound
	}
	task.Status = status
	m.tasks[id] = task
	return nil
}

func (m *mockTaskRepository) UpdatePriority(ctx context.Context, userID, id int64, priority domain.TaskPriority) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.owned(userID, id)
	if !ok {
		return repository.ErrNotFound
	}
	task.Priority = priority
	m.tasks[id] = task
	return nil
}

func (m *mockTaskRepository) Delete(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owned(userID, id); !ok {
		return repository.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockTaskRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, task := range m.tasks {
		if task.UserID == userID {
			delete(m.tasks, id)
			n++
		}
	}
	return n, nil
}

func (m *mockTaskRepository) Get(ctx context.Context, userID, id int64) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.owned(userID, id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &task, nil
}

func (m *mockTaskRepository) List(ctx context.Context, userID int64, filter repository.TaskFilter) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Task{}
	for _, task := range m.tasks {
		if task.UserID == userID {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// mockExportRepository is an in-memory ExportRepository.
type mockExportRepository struct {
	mu      sync.Mutex
	exports map[int64]domain.Export
	nextID  int64
}

func newMockExportRepository() *mockExportRepository {
	return &mockExportRepository{exports: map[int64]domain.Export{}}
}

func (m *mockExportRepository) Create(ctx context.Context, export *domain.Export) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	export.ID = m.nextID
	m.exports[export.ID] = *export
	return export.ID, nil
}

func (m *mockExportRepository) Get(ctx context.Context, userID, id int64) (*domain.Export, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	export, ok := m.exports[id]
	if !ok || export.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &export, nil
}

func (m *mockExportRepository) List(ctx context.Context, userID int64) ([]domain.Export, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Export{}
	for _, export := range m.exports {
		if export.UserID == userID {
			out = append(out, export)
		}
	}
	return out, nil
}

func (m *mockExportRepository) Delete(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	export, ok := m.exports[id]
	if !ok || export.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.exports, id)
	return nil
}

func (m *mockExportRepository) UpdateStatus(ctx context.Context, userID, id int64, status domain.ExportStatus, errorMessage *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	export, ok := m.exports[id]
	if !ok || export.UserID != userID {
		return repository.ErrNotFound
	}
	export.Status = status
	if errorMessage != nil {
		export.ErrorMessage = *errorMessage
	}
	m.exports[id] = export
	return nil
}

func (m *mockExportRepository) MarkCompleted(ctx context.Context, userID, id int64, location string, taskCount int, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	export, ok := m.exports[id]
	if !ok || export.UserID != userID {
		return repository.ErrNotFound
	}
	export.Status = domain.ExportStatusCompleted
	export.Location = location
	export.TaskCount = taskCount
	export.CompletedAt = &completedAt
	m.exports[id] = export
	return nil
}

func (m *mockExportRepository) ListByStatuses(ctx context.Context, statuses ...domain.ExportStatus) ([]domain.Export, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Export{}
	for _, export := range m.exports {
		for _, status := range statuses {
			if export.Status == status {
				out = append(out, export)
			}
		}
	}
	return out, nil
}
