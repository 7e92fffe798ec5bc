// Package server serves task collections over HTTP for local development.
// It speaks the protocol the docstore client expects and can inject
// failures and latency so rollback paths can be exercised by hand.
package server

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gin-gonic/gin"

	"github.com/five82/ticklist/internal/docdb"
	"github.com/five82/ticklist/internal/docstore"
	"github.com/five82/ticklist/internal/task"
)

// Store is the persistence the server needs. *docdb.DB satisfies it.
type Store interface {
	Create(ctx context.Context, collection string, fields task.Fields) (string, error)
	List(ctx context.Context, collection string) ([]task.Task, error)
	Update(ctx context.Context, collection, id string, patch task.Patch) error
	Delete(ctx context.Context, collection, id string) error
}

var _ Store = (*docdb.DB)(nil)

// Options tune the server.
type Options struct {
	// FailRate is the probability (0..1) that an API request is answered
	// with 503 before reaching the store.
	FailRate float64
	// Latency delays every API request.
	Latency time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
	// Rand returns a float in [0,1); nil uses math/rand.
	Rand func() float64
}

// Server routes document requests to a Store.
type Server struct {
	store  Store
	opts   Options
	engine *gin.Engine
}

// New builds a Server. Call Handler to obtain the http.Handler.
func New(store Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	s := &Server{store: store, opts: opts}
	s.engine = s.routes()
	return s
}

// Handler returns the router wrapped with access logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(s.engine, w, r)
		s.opts.Logger.Info("handled",
			"method", r.Method,
			"url", r.URL.String(),
			"status", m.Code,
			"duration", m.Duration,
			"bytes", m.Written,
		)
	})
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", s.health)

	api := r.Group("/api/collections/:collection/documents")
	api.Use(s.delay, s.injectFailures)
	api.GET("", s.listDocuments)
	api.POST("", s.createDocument)
	api.PATCH("/:id", s.updateDocument)
	api.DELETE("/:id", s.deleteDocument)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) delay(c *gin.Context) {
	if s.opts.Latency <= 0 {
		return
	}
	t := time.NewTimer(s.opts.Latency)
	defer t.Stop()
	select {
	case <-t.C:
	case <-c.Request.Context().Done():
		c.AbortWithStatus(http.StatusRequestTimeout)
	}
}

func (s *Server) injectFailures(c *gin.Context) {
	if s.opts.FailRate > 0 && s.opts.Rand() < s.opts.FailRate {
		abort(c, http.StatusServiceUnavailable, "injected failure")
	}
}

func (s *Server) listDocuments(c *gin.Context) {
	docs, err := s.store.List(c.Request.Context(), c.Param("collection"))
	if err != nil {
		s.internal(c, "list documents", err)
		return
	}
	if docs == nil {
		docs = []task.Task{}
	}
	c.JSON(http.StatusOK, docstore.ListResponse{Documents: docs})
}

func (s *Server) createDocument(c *gin.Context) {
	var fields task.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}
	fields.Text = strings.TrimSpace(fields.Text)
	if fields.Text == "" {
		abort(c, http.StatusBadRequest, "text is required")
		return
	}
	if fields.CreatedAt.IsZero() {
		fields.CreatedAt = s.opts.Now().UTC()
	}

	id, err := s.store.Create(c.Request.Context(), c.Param("collection"), fields)
	if err != nil {
		s.internal(c, "create document", err)
		return
	}
	c.JSON(http.StatusCreated, docstore.CreateResponse{ID: id})
}

func (s *Server) updateDocument(c *gin.Context) {
	var patch task.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			abort(c, http.StatusBadRequest, "text is required")
			return
		}
		patch.Text = &text
	}

	err := s.store.Update(c.Request.Context(), c.Param("collection"), c.Param("id"), patch)
	if errors.Is(err, docdb.ErrNotFound) {
		abort(c, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.internal(c, "update document", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteDocument(c *gin.Context) {
	err := s.store.Delete(c.Request.Context(), c.Param("collection"), c.Param("id"))
	if errors.Is(err, docdb.ErrNotFound) {
		abort(c, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.internal(c, "delete document", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) internal(c *gin.Context, what string, err error) {
	s.opts.Logger.Error(what+" failed", "err", err)
	abort(c, http.StatusInternalServerError, "internal error")
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, docstore.ErrorResponse{Error: msg})
}
