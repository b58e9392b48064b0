package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"task-tracker/internal/domain"
	"task-tracker/internal/repository"
	"task-tracker/internal/service"
	"task-tracker/internal/storage"
)

// ErrNotStarted is returned by Enqueue and Resume before Start.
var ErrNotStarted = errors.New("export manager not started")

// Manager runs task snapshot exports on a bounded worker pool.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	Enqueue(ctx context.Context, userID, exportID int64) error
	Resume(ctx context.Context) error
	Cancel(ctx context.Context, exportID int64) error
}

type Config struct {
	Bucket        string
	KeyPrefix     string
	MaxConcurrent int
	Logger        *logrus.Logger
}

type manager struct {
	cfg     Config
	exports service.ExportService
	tasks   service.TaskService
	storage storage.Service
	now     func() time.Time

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	active map[int64]*exportHandle
}

type exportHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Snapshot is the JSON document uploaded for every export.
type Snapshot struct {
	ExportID    int64          `json:"export_id"`
	UserID      int64          `json:"user_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	TaskCount   int            `json:"task_count"`
	Tasks       []SnapshotTask `json:"tasks"`
}

type SnapshotTask struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewManager(cfg Config, exports service.ExportService, tasks service.TaskService, store storage.Service) Manager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:     cfg,
		exports: exports,
		tasks:   tasks,
		storage: store,
		now:     time.Now,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		active:  make(map[int64]*exportHandle),
	}
}

func (m *manager) Start(ctx context.Context) error {
	if m.cfg.Bucket == "" {
		return fmt.Errorf("export bucket is required")
	}
	m.mu.Lock()
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()
	m.cfg.Logger.Infof("export manager started, bucket: %s, workers: %d", m.cfg.Bucket, m.cfg.MaxConcurrent)
	return nil
}

func (m *manager) Shutdown() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	m.cfg.Logger.Info("export manager stopped")
}

func (m *manager) Enqueue(ctx context.Context, userID, exportID int64) error {
	export, err := m.exports.GetExport(ctx, userID, exportID)
	if err != nil {
		return err
	}
	return m.spawnExport(*export)
}

func (m *manager) Resume(ctx context.Context) error {
	exports, err := m.exports.ListByStatuses(ctx,
		domain.ExportStatusPending,
		domain.ExportStatusUploading,
	)
	if err != nil {
		return err
	}

	for i := range exports {
		if err := m.spawnExport(exports[i]); err != nil {
			return err
		}
	}
	if len(exports) > 0 {
		m.cfg.Logger.Infof("resumed %d unfinished exports", len(exports))
	}
	return nil
}

func (m *manager) spawnExport(export domain.Export) error {
	m.mu.Lock()
	root := m.ctx
	m.mu.Unlock()
	if root == nil {
		return ErrNotStarted
	}

	exportCtx, cancel := context.WithCancel(root)
	handle := &exportHandle{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.registerExport(export.ID, handle)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			cancel()
			m.unregisterExport(export.ID, handle)
			close(handle.done)
		}()
		select {
		case <-root.Done():
			return
		case <-exportCtx.Done():
			return
		case m.sem <- struct{}{}:
			defer func() { <-m.sem }()
			m.handleExport(exportCtx, &export)
		}
	}()
	return nil
}

func (m *manager) registerExport(id int64, handle *exportHandle) {
	m.mu.Lock()
	m.active[id] = handle
	m.mu.Unlock()
}

func (m *manager) unregisterExport(id int64, handle *exportHandle) {
	m.mu.Lock()
	if m.active[id] == handle {
		delete(m.active, id)
	}
	m.mu.Unlock()
}

func (m *manager) getExportHandle(id int64) (*exportHandle, bool) {
	m.mu.Lock()
	handle, ok := m.active[id]
	m.mu.Unlock()
	return handle, ok
}

// Cancel stops a queued or running export and waits for its worker to exit.
// Unknown ids are a no-op.
func (m *manager) Cancel(ctx context.Context, exportID int64) error {
	handle, ok := m.getExportHandle(exportID)
	if !ok {
		return nil
	}

	handle.cancel()

	select {
	case <-handle.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *manager) handleExport(ctx context.Context, export *domain.Export) {
	logger := m.cfg.Logger.WithFields(logrus.Fields{
		"export_id": export.ID,
		"user_id":   export.UserID,
	})
	if export.Status == domain.ExportStatusCompleted {
		logger.Debug("export already completed, skipping")
		return
	}

	if err := m.exports.UpdateStatus(ctx, export.UserID, export.ID, domain.ExportStatusUploading, nil); err != nil {
		logger.Errorf("update status failed: %v", err)
		return
	}
	export.Status = domain.ExportStatusUploading

	tasks, err := m.tasks.ListTasks(ctx, export.UserID, repository.TaskFilter{Order: repository.OrderByDate})
	if err != nil {
		m.failExport(ctx, export, fmt.Errorf("load tasks: %w", err))
		return
	}

	payload, err := json.Marshal(buildSnapshot(export, tasks, m.now().UTC()))
	if err != nil {
		m.failExport(ctx, export, fmt.Errorf("encode snapshot: %w", err))
		return
	}

	key := ObjectKey(m.cfg.KeyPrefix, export.UserID, export.ID)
	logger.Infof("upload started, %d tasks", len(tasks))

	location, err := m.storage.PutObject(ctx, bytes.NewReader(payload), storage.PutOptions{
		Bucket:      m.cfg.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		m.failExport(ctx, export, fmt.Errorf("upload: %w", err))
		return
	}

	if err := m.exports.MarkCompleted(ctx, export.UserID, export.ID, location, len(tasks)); err != nil {
		logger.Errorf("mark completed: %v", err)
		// the row no longer points at the object, so nothing else would delete it
		m.discardUpload(ctx, logger, key)
		return
	}
	export.Status = domain.ExportStatusCompleted

	logger.Infof("export completed and uploaded to %s", location)
}

func (m *manager) discardUpload(ctx context.Context, logger *logrus.Entry, key string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := m.storage.DeletePrefix(cleanupCtx, m.cfg.Bucket, key); err != nil {
		logger.Warnf("delete orphaned object %s: %v", key, err)
		return
	}
	logger.Infof("deleted orphaned object %s", key)
}

func (m *manager) failExport(ctx context.Context, export *domain.Export, failErr error) {
	logger := m.cfg.Logger.WithField("export_id", export.ID)
	if ctx.Err() != nil {
		logger.Info("export cancelled")
		return
	}
	msg := failErr.Error()
	if err := m.exports.UpdateStatus(ctx, export.UserID, export.ID, domain.ExportStatusFailed, &msg); err != nil {
		logger.Errorf("persist failure status: %v", err)
	}
	logger.Error(msg)
}

// ObjectKey names a fresh object for one export under the user's prefix.
func ObjectKey(keyPrefix string, userID, exportID int64) string {
	return fmt.Sprintf("%sexports/%d-%s.json", storage.UserPrefix(keyPrefix, userID), exportID, uuid.NewString())
}

func buildSnapshot(export *domain.Export, tasks []domain.Task, generatedAt time.Time) Snapshot {
	items := make([]SnapshotTask, len(tasks))
	for i, task := range tasks {
		items[i] = SnapshotTask{
			ID:          task.ID,
			Title:       task.Title,
			Description: task.Description,
			Status:      string(task.Status),
			Priority:    string(task.Priority),
			CreatedAt:   task.CreatedAt,
			UpdatedAt:   task.UpdatedAt,
		}
	}
	return Snapshot{
		ExportID:    export.ID,
		UserID:      export.UserID,
		GeneratedAt: generatedAt,
		TaskCount:   len(items),
		Tasks:       items,
	}
}

var _ Manager = (*manager)(nil)
