package server

import (
	"errors"
	"net/http"

	"github.com/akinfemi/timetable/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChangesHandler struct {
	approvals *service.ApprovalService
	logger    *zap.Logger
}

func NewChangesHandler(approvals *service.ApprovalService, logger *zap.Logger) *ChangesHandler {
	return &ChangesHandler{approvals: approvals, logger: logger}
}

// ListPending returns the review queue, oldest first.
func (h *ChangesHandler) ListPending(c *gin.Context) {
	changes, err := h.approvals.ListPending(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": changes})
}

// Approve applies the proposal to the timetable and resolves it.
func (h *ChangesHandler) Approve(c *gin.Context) {
	change, err := h.approvals.Approve(c.Request.Context(), c.Param("id"), identityFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

// Reject resolves the proposal without touching the timetable.
func (h *ChangesHandler) Reject(c *gin.Context) {
	change, err := h.approvals.Reject(c.Request.Context(), c.Param("id"), identityFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

func (h *ChangesHandler) writeError(c *gin.Context, err error) {
	var merge *service.SlotMergeError
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrChangeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &merge):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "approval could not be applied, change is still pending",
			"change_id": merge.ChangeID,
		})
	default:
		h.logger.Error("change review failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
