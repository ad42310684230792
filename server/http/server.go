package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/w-h-a/shebot/knowledge"
	"github.com/w-h-a/shebot/pipeline"
	"github.com/w-h-a/shebot/server"
	"go.uber.org/zap"
)

type httpServer struct {
	options  server.Options
	pipeline *pipeline.Pipeline
	kb       *knowledge.KnowledgeBase
	srv      *http.Server
}

func (s *httpServer) Run() error {
	router := mux.NewRouter()

	router.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	router.HandleFunc("/index", s.handleIndex).Methods(http.MethodPost)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	var handler http.Handler = router
	if ms, ok := MiddlewareFrom(s.options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			handler = ms[i](handler)
		}
	}

	s.srv = &http.Server{
		Addr:    s.options.Address,
		Handler: handler,
	}

	s.options.Logger.Info("http server listening", zap.String("address", s.options.Address))

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *httpServer) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// ClientIdentifier is the rate-limit key for a request: the forwarded
// address when a proxy set one, the peer address otherwise.
func ClientIdentifier(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func NewServer(p *pipeline.Pipeline, kb *knowledge.KnowledgeBase, opts ...server.Option) server.Server {
	options := server.NewOptions(opts...)

	return &httpServer{
		options:  options,
		pipeline: p,
		kb:       kb,
	}
}

// The embedding and generation backends make no latency promises of their
// own, so every handler bounds them explicitly.
const (
	queryTimeout  = 30 * time.Second
	ingestTimeout = 2 * time.Minute
)
