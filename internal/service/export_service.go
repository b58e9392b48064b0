package service

import (
	"context"
	"errors"
	"time"

	"task-tracker/internal/domain"
	"task-tracker/internal/repository"
)

var (
	// ErrExportNotFound is returned for missing exports and for exports owned by another user.
	ErrExportNotFound = errors.New("export not found")
	// ErrStorageDisabled is returned when no object storage bucket is configured.
	ErrStorageDisabled = errors.New("object storage is not configured")
	// ErrExportNotReady is returned when a download URL is requested before the upload finished.
	ErrExportNotReady = errors.New("export is not completed")
)

// ExportService coordinates export records. The owner-scoped methods serve the
// HTTP layer; UpdateStatus, MarkCompleted and ListByStatuses serve the export worker.
type ExportService interface {
	CreateExport(ctx context.Context, userID int64) (*domain.Export, error)
	GetExport(ctx context.Context, userID, id int64) (*domain.Export, error)
	ListExports(ctx context.Context, userID int64) ([]domain.Export, error)
	DeleteExport(ctx context.Context, userID, id int64) error

	UpdateStatus(ctx context.Context, userID, id int64, status domain.ExportStatus, errorMessage *string) error
	MarkCompleted(ctx context.Context, userID, id int64, location string, taskCount int) error
	ListByStatuses(ctx context.Context, statuses ...domain.ExportStatus) ([]domain.Export, error)
}

type exportService struct {
	exports repository.ExportRepository
	now     func() time.Time
}

func NewExportService(exports repository.ExportRepository) ExportService {
	return &exportService{exports: exports, now: time.Now}
}

func (s *exportService) CreateExport(ctx context.Context, userID int64) (*domain.Export, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	export := &domain.Export{
		UserID: userID,
		Status: domain.ExportStatusPending,
	}
	if _, err := s.exports.Create(ctx, export); err != nil {
		return nil, err
	}
	return export, nil
}

func (s *exportService) GetExport(ctx context.Context, userID, id int64) (*domain.Export, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	export, err := s.exports.Get(ctx, userID, id)
	if err != nil {
		return nil, mapExportErr(err)
	}
	return export, nil
}

func (s *exportService) ListExports(ctx context.Context, userID int64) ([]domain.Export, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	return s.exports.List(ctx, userID)
}

func (s *exportService) DeleteExport(ctx context.Context, userID, id int64) error {
	if err := requireOwner(userID); err != nil {
		return err
	}
	return mapExportErr(s.exports.Delete(ctx, userID, id))
}

func (s *exportService) UpdateStatus(ctx context.Context, userID, id int64, status domain.ExportStatus, errorMessage *string) error {
	if err := requireOwner(userID); err != nil {
		return err
	}
	return mapExportErr(s.exports.UpdateStatus(ctx, userID, id, status, errorMessage))
}

func (s *exportService) MarkCompleted(ctx context.Context, userID, id int64, location string, taskCount int) error {
	if err := requireOwner(userID); err != nil {
		return err
	}
	return mapExportErr(s.exports.MarkCompleted(ctx, userID, id, location, taskCount, s.now()))
}

func (s *exportService) ListByStatuses(ctx context.Context, statuses ...domain.ExportStatus) ([]domain.Export, error) {
	return s.exports.ListByStatuses(ctx, statuses...)
}

func mapExportErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrExportNotFound
	}
	return err
}
