package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
	"github.com/ibotty/kube-redirect-operator/internal/config"
	"github.com/ibotty/kube-redirect-operator/internal/controller"
	"github.com/ibotty/kube-redirect-operator/internal/controller/redirects"
	"github.com/ibotty/kube-redirect-operator/internal/helpers"
	"github.com/ibotty/kube-redirect-operator/internal/logger"
	"github.com/ibotty/kube-redirect-operator/internal/metrics"
)

const (
	healthcheckURL = "/healthz"
	readyURL       = "/ready"
	metricsURL     = "/metrics"
	statusURL      = "/status"
)

// Store is the read side of the redirect store
type Store interface {
	FindByHost(host string) (*v1alpha1.Redirect, bool)
	HasSynced() bool
	Snapshot() *redirects.Snapshot
}

// Leader reports the leadership state of this replica
type Leader interface {
	IsLeader() bool
}

// Engine reports the reconciliation driver state
type Engine interface {
	State() controller.State
}

// Server component
type Server struct {
	logger     logger.Logger
	config     *config.Config
	store      Store
	leader     Leader
	engine     Engine
	metrics    *metrics.Metrics
	httpLogger *log.Logger
}

// New server component
func New(logger logger.Logger, config *config.Config, store Store, leader Leader, engine Engine, metrics *metrics.Metrics) *Server {
	return &Server{
		logger:     logger,
		config:     config,
		store:      store,
		leader:     leader,
		engine:     engine,
		metrics:    metrics,
		httpLogger: newHTTPLogger(logger),
	}
}

// newHTTPLogger routes net/http errors to the application logger
func newHTTPLogger(l logger.Logger) *log.Logger {
	return log.New(httpErrorWriter{logger: l}, "", 0)
}

type httpErrorWriter struct {
	logger logger.Logger
}

func (w httpErrorWriter) Write(p []byte) (int, error) {
	w.logger.Warningf("HTTP server %s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Start serves redirects and operations until ctx is done, then drains both
// listeners within the shutdown timeout
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting web server...")

	redirectServer := &http.Server{
		Addr:              ":" + s.config.RedirectPort,
		Handler:           http.HandlerFunc(s.handleRequest),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		ErrorLog:          s.httpLogger,
	}
	operationsServer := &http.Server{
		Addr:              ":" + s.config.OperationsPort,
		Handler:           s.operationsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		ErrorLog:          s.httpLogger,
	}

	redirectListener, err := net.Listen("tcp", redirectServer.Addr)
	if err != nil {
		return s.logger.Errorf("Unable to listen on %s %s", redirectServer.Addr, err)
	}
	operationsListener, err := net.Listen("tcp", operationsServer.Addr)
	if err != nil {
		redirectListener.Close()
		return s.logger.Errorf("Unable to listen on %s %s", operationsServer.Addr, err)
	}

	return s.serve(ctx, map[*http.Server]net.Listener{
		redirectServer:   redirectListener,
		operationsServer: operationsListener,
	})
}

func (s *Server) serve(ctx context.Context, servers map[*http.Server]net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	for srv, listener := range servers {
		g.Go(func() error {
			s.logger.Infof("Listening on HTTP %s", listener.Addr())
			if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return s.logger.Errorf("HTTP server on %s failed %s", listener.Addr(), err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Warningf("HTTP server on %s did not drain %s", listener.Addr(), err)
				return srv.Close()
			}
			return nil
		})
	}
	err := g.Wait()
	s.logger.Info("Stopped web server")
	return err
}

func (s *Server) handleRequest(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte("Method not allowed\n"))
		return
	}

	host := helpers.ExtractHostname(req.Host)
	redirect, ok := s.store.FindByHost(host)
	if !ok {
		s.logger.Warningf("No redirect found for host %s", host)
		s.metrics.HTTPFailure(host)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not found\n"))
		return
	}

	destination := destinationFor(redirect, req.URL.EscapedPath())
	s.logger.Verbosef("Redirecting %s to %s", host, destination)
	s.metrics.HTTPRequest(host)
	w.Header().Set("Location", destination)
	w.WriteHeader(http.StatusPermanentRedirect)
}

// destinationFor appends the request path to the target uri when enabled.
// The separator is always inserted, the query string is not forwarded.
func destinationFor(redirect *v1alpha1.Redirect, path string) string {
	to := redirect.Spec.To
	if !to.IncludesRequestURI() {
		return to.URI
	}
	return to.URI + "/" + strings.TrimPrefix(path, "/")
}

func (s *Server) operationsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(healthcheckURL, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy\n"))
	})
	mux.HandleFunc(readyURL, func(w http.ResponseWriter, req *http.Request) {
		if !s.store.HasSynced() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not ready\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ready\n"))
	})
	mux.Handle(metricsURL, s.metrics.Handler())
	mux.HandleFunc(statusURL, s.handleStatusRequest)
	return mux
}

func (s *Server) handleStatusRequest(w http.ResponseWriter, req *http.Request) {
	snapshot := s.store.Snapshot()
	response := statusResponse{
		Identity:  s.config.Identity,
		Leader:    s.leader.IsLeader(),
		Synced:    s.store.HasSynced(),
		Engine:    s.engine.State(),
		Redirects: []redirectSummary{},
		Conflicts: snapshot.Conflicts(),
	}
	for _, redirect := range snapshot.Items() {
		response.Redirects = append(response.Redirects, summarize(redirect))
	}

	responseRaw, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Error returning status"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(responseRaw)
}
