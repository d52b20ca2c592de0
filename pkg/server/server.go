package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/c9s/chartdesk/pkg/blob/s3blob"
	"github.com/c9s/chartdesk/pkg/session"
)

var log = logrus.WithField("component", "server")

const shutdownTimeout = 10 * time.Second

type Server struct {
	Bind         string
	AllowOrigins []string

	Sessions *session.Manager

	// Uploader is optional; without it export uploads are rejected.
	Uploader s3blob.Writer
}

// Run serves until the context is cancelled, then shuts down gracefully and
// flushes every session.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Bind,
		Handler:           s.newEngine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", s.Bind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	select {
	case err := <-errC:
		return err

	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}

	return s.Sessions.Close()
}
