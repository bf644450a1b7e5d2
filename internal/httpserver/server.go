package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbeam/tbview/internal/index"
	"github.com/tbeam/tbview/internal/model"
)

const (
	defaultListLimit = 100
	maxListLimit     = 10000
)

// QueryStore is the narrow index contract required by the HTTP API.
type QueryStore interface {
	Run(ctx context.Context, key index.RunKey) (index.RunRecord, bool, error)
	Summary(ctx context.Context, key index.RunKey, i int) (model.EventSummary, error)
	List(ctx context.Context, key index.RunKey, minADC float64, limit int) ([]model.EventSummary, error)
	Stats(ctx context.Context, key index.RunKey) (model.RunStats, error)
}

// Server provides a read-only HTTP API over the event index of the run
// open in the viewer.
type Server struct {
	addr      string
	store     QueryStore
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time

	mu     sync.RWMutex
	key    index.RunKey
	hasRun bool
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, store QueryStore) *Server {
	if addr == "" {
		addr = "127.0.0.1:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetRun points the API at the run open in the viewer.
func (s *Server) SetRun(key index.RunKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	s.hasRun = true
}

func (s *Server) currentRun() (index.RunKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.hasRun
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/run", s.handleRun)
	r.GET("/api/events", s.handleEvents)
	r.GET("/api/events/:n", s.handleEvent)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()
	slog.Info(fmt.Sprintf("api listening on %s", listener.Addr()), "module", "api")

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// requireRun writes a 404 and returns false when no run is open.
func (s *Server) requireRun(c *gin.Context) (index.RunKey, bool) {
	key, ok := s.currentRun()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run open"})
	}
	return key, ok
}

func (s *Server) handleHealth(c *gin.Context) {
	key, ok := s.currentRun()
	body := gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	if ok {
		body["run"] = key.Path
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleRun(c *gin.Context) {
	key, ok := s.requireRun(c)
	if !ok {
		return
	}
	rec, found, err := s.store.Run(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read run"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not indexed yet"})
		return
	}
	stats, err := s.store.Stats(c.Request.Context(), key)
	if err != nil && !errors.Is(err, index.ErrNotIndexed) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read run stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run":   rec,
		"stats": stats,
	})
}

func (s *Server) handleEvents(c *gin.Context) {
	key, ok := s.requireRun(c)
	if !ok {
		return
	}
	minADC, err := strconv.ParseFloat(c.DefaultQuery("min_adc", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_adc must be a number"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	limit = min(limit, maxListLimit)

	events, err := s.store.List(c.Request.Context(), key, minADC, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if events == nil {
		events = []model.EventSummary{}
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) handleEvent(c *gin.Context) {
	key, ok := s.requireRun(c)
	if !ok {
		return
	}
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event must be a non-negative integer"})
		return
	}
	ev, err := s.store.Summary(c.Request.Context(), key, n)
	if errors.Is(err, index.ErrNotIndexed) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ev)
}
