package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/internal/domain"
	"task-tracker/internal/repository"
)

func TestExportRepository_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	exports := NewExportRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice@example.com")
	bob := createTestUser(t, users, "bob@example.com")

	export := &domain.Export{UserID: alice.ID}
	id, err := exports.Create(ctx, export)
	require.NoError(t, err)
	assert.Equal(t, domain.ExportStatusPending, export.Status)

	_, err = exports.Get(ctx, bob.ID, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	msg := "network down"
	assert.ErrorIs(t, exports.UpdateStatus(ctx, bob.ID, id, domain.ExportStatusFailed, &msg), repository.ErrNotFound)
	require.NoError(t, exports.UpdateStatus(ctx, alice.ID, id, domain.ExportStatusFailed, &msg))
	got, err := exports.Get(ctx, alice.ID, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ExportStatusFailed, got.Status)
	assert.Equal(t, "network down", got.ErrorMessage)
	assert.Nil(t, got.CompletedAt)

	completedAt := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	assert.ErrorIs(t, exports.MarkCompleted(ctx, bob.ID, id, "s3://bucket/other.json", 9, completedAt), repository.ErrNotFound)
	require.NoError(t, exports.MarkCompleted(ctx, alice.ID, id, "s3://bucket/key.json", 3, completedAt))
	got, err = exports.Get(ctx, alice.ID, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ExportStatusCompleted, got.Status)
	assert.Equal(t, "s3://bucket/key.json", got.Location)
	assert.Equal(t, 3, got.TaskCount)
	assert.Empty(t, got.ErrorMessage)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, completedAt.Equal(*got.CompletedAt))

	list, err := exports.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, exports.Delete(ctx, bob.ID, id), repository.ErrNotFound)
	require.NoError(t, exports.Delete(ctx, alice.ID, id))
	_, err = exports.Get(ctx, alice.ID, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestExportRepository_ListByStatuses(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	exports := NewExportRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice@example.com")

	pending := &domain.Export{UserID: alice.ID}
	_, err := exports.Create(ctx, pending)
	require.NoError(t, err)
	uploading := &domain.Export{UserID: alice.ID, Status: domain.ExportStatusUploading}
	_, err = exports.Create(ctx, uploading)
	require.NoError(t, err)
	done := &domain.Export{UserID: alice.ID}
	_, err = exports.Create(ctx, done)
	require.NoError(t, err)
	require.NoError(t, exports.MarkCompleted(ctx, alice.ID, done.ID, "s3://b/k", 0, time.Now()))

	list, err := exports.ListByStatuses(ctx, domain.ExportStatusPending, domain.ExportStatusUploading)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, pending.ID, list[0].ID)
	assert.Equal(t, uploading.ID, list[1].ID)

	none, err := exports.ListByStatuses(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExportRepository_CascadeOnUserDelete(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	tasks := NewTaskRepository(db)
	exports := NewExportRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice@example.com")
	task := createTestTask(t, tasks, alice.ID, "t", domain.TaskStatusTodo, domain.TaskPriorityLow)
	export := &domain.Export{UserID: alice.ID}
	_, err := exports.Create(ctx, export)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, alice.ID)
	require.NoError(t, err)

	_, err = tasks.Get(ctx, alice.ID, task.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = exports.Get(ctx, alice.ID, export.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestExportRepository_WorkerUpdatesOnDeletedRow(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	exports := NewExportRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice@example.com")
	export := &domain.Export{UserID: alice.ID}
	_, err := exports.Create(ctx, export)
	require.NoError(t, err)
	require.NoError(t, exports.Delete(ctx, alice.ID, export.ID))

	assert.ErrorIs(t, exports.UpdateStatus(ctx, alice.ID, export.ID, domain.ExportStatusUploading, nil), repository.ErrNotFound)
	assert.ErrorIs(t, exports.MarkCompleted(ctx, alice.ID, export.ID, "s3://b/k", 1, time.Now()), repository.ErrNotFound)
}
