package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akinfemi/timetable/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server is the HTTP surface: the editor endpoints for recording and
// committing edits, and the review endpoints for the approval queue.
type Server struct {
	engine *gin.Engine
	addr   string
	logger *zap.Logger
}

func New(
	addr string,
	jwtSecret []byte,
	environment string,
	timetable *service.TimetableService,
	approvals *service.ApprovalService,
	sessions *service.SessionManager,
	logger *zap.Logger,
) *Server {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	timetableHandler := NewTimetableHandler(timetable, sessions, logger)
	changesHandler := NewChangesHandler(approvals, logger)

	api := engine.Group("/api", Auth(jwtSecret))
	{
		api.GET("/timetable", timetableHandler.GetTimetable)
		api.POST("/timetable/edits", timetableHandler.RecordEdit)
		api.POST("/timetable/commit", timetableHandler.Commit)

		api.GET("/changes", changesHandler.ListPending)
		api.POST("/changes/:id/approve", changesHandler.Approve)
		api.POST("/changes/:id/reject", changesHandler.Reject)
	}

	return &Server{
		engine: engine,
		addr:   addr,
		logger: logger,
	}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}
