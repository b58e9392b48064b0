package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"task-tracker/internal/domain"
	"task-tracker/internal/service"
	"task-tracker/internal/storage"
)

// createExport godoc
// @Summary Start an export of the caller's tasks
// @Tags exports
// @Produce json
// @Security BearerAuth
// @Success 202 {object} ExportResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/exports [post]
func (h *Handler) createExport(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	export, err := h.exports.CreateExport(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.manager.Enqueue(c.Request.Context(), userID, export.ID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, exportToResponse(*export))
}

// listExports godoc
// @Summary List the caller's exports
// @Tags exports
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ExportResponse
// @Router /api/exports [get]
func (h *Handler) listExports(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	exports, err := h.exports.ListExports(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]ExportResponse, len(exports))
	for i := range exports {
		resp[i] = exportToResponse(exports[i])
	}
	c.JSON(http.StatusOK, resp)
}

// getExport godoc
// @Summary Get one of the caller's exports
// @Tags exports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Export ID"
// @Success 200 {object} ExportResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/exports/{id} [get]
func (h *Handler) getExport(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "export")
	if !ok {
		return
	}

	export, err := h.exports.GetExport(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, exportToResponse(*export))
}

// exportURL godoc
// @Summary Presigned download URL for a completed export
// @Tags exports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Export ID"
// @Success 200 {object} ExportURLResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/exports/{id}/url [get]
func (h *Handler) exportURL(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "export")
	if !ok {
		return
	}

	export, err := h.exports.GetExport(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if export.Status != domain.ExportStatusCompleted {
		h.writeError(c, service.ErrExportNotReady)
		return
	}

	key, err := storage.ParseLocation(export.Location, h.bucket)
	if err != nil {
		h.writeError(c, fmt.Errorf("export %d: %w", export.ID, err))
		return
	}

	url, err := h.storage.GetObjectURL(c.Request.Context(), h.bucket, key, h.urlExpiry)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ExportURLResponse{
		URL:       url,
		ExpiresAt: h.now().Add(h.urlExpiry).UTC().Format(time.RFC3339),
	})
}

// deleteExport godoc
// @Summary Cancel and delete one of the caller's exports
// @Tags exports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Export ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /api/exports/{id} [delete]
func (h *Handler) deleteExport(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "export")
	if !ok {
		return
	}

	export, err := h.exports.GetExport(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	var warnings []string
	cancelCtx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	if err := h.manager.Cancel(cancelCtx, export.ID); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		warnings = append(warnings, fmt.Sprintf("cancel export: %v", err))
	}

	// the worker may have completed while we were cancelling it
	if refreshed, err := h.exports.GetExport(c.Request.Context(), userID, id); err == nil {
		export = refreshed
	}
	if export.Location != "" {
		key, err := storage.ParseLocation(export.Location, h.bucket)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("parse location: %v", err))
		} else {
			remoteCtx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
			defer cancel()
			if err := h.storage.DeletePrefix(remoteCtx, h.bucket, key); err != nil {
				warnings = append(warnings, fmt.Sprintf("delete remote data: %v", err))
			}
		}
	}

	if err := h.exports.DeleteExport(c.Request.Context(), userID, export.ID); err != nil {
		h.writeError(c, err)
		return
	}

	resp := gin.H{"deleted": export.ID}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

// listObjects godoc
// @Summary List stored export objects under the caller's prefix
// @Tags exports
// @Produce json
// @Security BearerAuth
// @Success 200 {array} StorageObjectResponse
// @Router /api/exports/objects [get]
func (h *Handler) listObjects(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	objects, err := h.storage.ListObjects(c.Request.Context(), h.bucket, storage.UserPrefix(h.keyPrefix, userID))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}
