package server

import (
	"errors"
	"net/http"

	"github.com/akinfemi/timetable/internal/model"
	"github.com/akinfemi/timetable/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TimetableHandler struct {
	timetable *service.TimetableService
	sessions  *service.SessionManager
	logger    *zap.Logger
}

func NewTimetableHandler(timetable *service.TimetableService, sessions *service.SessionManager, logger *zap.Logger) *TimetableHandler {
	return &TimetableHandler{
		timetable: timetable,
		sessions:  sessions,
		logger:    logger,
	}
}

// GetTimetable returns the canonical slot list for one level and installs
// it as the caller's diff baseline.
func (h *TimetableHandler) GetTimetable(c *gin.Context) {
	level := c.Query("level")
	if err := model.ValidateLevel(level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := identityFrom(c)
	sess := h.sessions.Get(identity.UserID, level)

	slots, err := h.timetable.LoadLevel(c.Request.Context(), sess)
	if err != nil {
		h.logger.Error("load timetable failed", zap.String("level", level), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch timetable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"level": level, "slots": slots})
}

type recordEditRequest struct {
	Level     string `json:"level" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	Day       string `json:"day" binding:"required"`
	Field     string `json:"field" binding:"required"`
	Value     string `json:"value"`
}

// RecordEdit stores one field edit in the caller's session overlay.
// Nothing is persisted until commit.
func (h *TimetableHandler) RecordEdit(c *gin.Context) {
	var req recordEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	identity := identityFrom(c)
	if !identity.Role.CanPropose() {
		c.JSON(http.StatusForbidden, gin.H{"error": service.ErrUnauthorized.Error()})
		return
	}

	if err := model.ValidateLevel(req.Level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := model.ValidateCell(req.Day, req.StartTime); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := model.ValidateField(req.Field); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := h.sessions.Get(identity.UserID, req.Level)
	sess.Acc.RecordEdit(req.StartTime, req.Day, req.Field, req.Value)

	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

type commitRequest struct {
	Level string `json:"level" binding:"required"`
}

// Commit drains the caller's session and runs the reconciliation engine.
func (h *TimetableHandler) Commit(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := model.ValidateLevel(req.Level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := identityFrom(c)
	sess := h.sessions.Get(identity.UserID, req.Level)

	result, err := h.timetable.Commit(c.Request.Context(), sess, identity)
	if err != nil {
		h.writeCommitError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *TimetableHandler) writeCommitError(c *gin.Context, err error) {
	var partial *service.PartialWriteError
	switch {
	case errors.Is(err, service.ErrNoChanges):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &partial):
		failed := make([]gin.H, len(partial.Failures))
		for i, f := range partial.Failures {
			failed[i] = gin.H{"day": f.Cell.Day, "start_time": f.Cell.StartTime}
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":        partial.Error(),
			"applied":      partial.Applied,
			"failed_cells": failed,
		})
	case errors.Is(err, service.ErrInvalidEdit):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("commit failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save changes"})
	}
}
