// Package server exposes the print dispatcher to the host UI over loopback
// HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"receiptprint/internal/dispatch"
	"receiptprint/internal/journal"
	"receiptprint/internal/receipt"
)

// HeaderDispatchID carries the ID assigned to each print request.
const HeaderDispatchID = "X-Dispatch-ID"

type Server struct {
	// Logger receives lifecycle records. Nil means slog.Default().
	Logger *slog.Logger

	dispatcher dispatch.Dispatcher
	recorder   *journal.Recorder
	origins    []string
}

// New returns a Server. recorder may be nil, in which case /dispatches is
// always empty.
func New(d dispatch.Dispatcher, recorder *journal.Recorder, allowedOrigins []string) *Server {
	return &Server{dispatcher: d, recorder: recorder, origins: allowedOrigins}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(s.origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  s.origins,
			AllowMethods:  []string{"GET", "POST"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{HeaderDispatchID},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/print", s.Print)
	r.GET("/dispatches", s.Dispatches)

	return r
}

type printRequest struct {
	ReceiptData *string          `json:"receiptData"`
	Receipt     *receipt.Payload `json:"receipt"`
}

// Print dispatches one receipt. receiptData is forwarded verbatim; a
// structured receipt is encoded first.
func (s *Server) Print(c *gin.Context) {
	var req printRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var text string
	switch {
	case req.ReceiptData != nil:
		text = *req.ReceiptData
	case req.Receipt != nil:
		encoded, err := receipt.Encode(*req.Receipt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		text = encoded
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiptData or receipt is required"})
		return
	}

	id := journal.NewID()
	c.Header(HeaderDispatchID, id)

	res := s.dispatcher.Dispatch(journal.WithID(c.Request.Context(), id), text)
	if !res.OK {
		c.JSON(http.StatusBadGateway, gin.H{
			"id":    id,
			"ok":    false,
			"kind":  res.Kind(),
			"error": res.Text,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     id,
		"ok":     true,
		"output": res.Text,
	})
}

// Dispatches lists recent journal entries, oldest first.
func (s *Server) Dispatches(c *gin.Context) {
	entries := s.recorder.Snapshot()
	if entries == nil {
		entries = []journal.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"dispatches": entries})
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
