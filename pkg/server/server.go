package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"

	"github.com/stromtarif/stromtarif/pkg/chart"
	"github.com/stromtarif/stromtarif/pkg/log"
	"github.com/stromtarif/stromtarif/pkg/metrics"
	"github.com/stromtarif/stromtarif/pkg/registry"
	"github.com/stromtarif/stromtarif/pkg/source"
	"github.com/stromtarif/stromtarif/pkg/storage"
	"github.com/stromtarif/stromtarif/pkg/tariff"
	"github.com/stromtarif/stromtarif/pkg/types"
)

const (
	dataSourceUpstream = "upstream"
	dataSourceStorage  = "storage"
)

// tokenVerifier validates an OIDC ID Token and returns its email claim.
type tokenVerifier func(ctx context.Context, rawIDToken string) (string, error)

// datasetCache is a Loader whose cached value can be dropped.
type datasetCache interface {
	source.Loader
	Invalidate()
}

// Server handles the HTTP API on top of the tariff engine.
type Server struct {
	// dataset serves all read requests
	dataset datasetCache
	// upstream is used by sync to fetch fresh data
	upstream source.Loader
	sessions *registry.Sessions
	storage  storage.Database
	metrics  *metrics.Collector
	charts   *chart.Renderer

	listenAddr   string
	httpServer   *http.Server
	serverName   string
	weekStrategy types.WeekStrategy
	syncEmails   []string
	syncVerifier tokenVerifier
	now          func() time.Time
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(src *source.Client, sessions *registry.Sessions, st storage.Database, m *metrics.Collector) *Server {
	srv := &Server{
		upstream:   src,
		sessions:   sessions,
		storage:    st,
		metrics:    m,
		charts:     chart.New(),
		serverName: "stromtarif",
		now:        time.Now,
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	dataSource := lflag.String("data-source", dataSourceUpstream, "Where requests read prices from (upstream or storage)")
	weekStrategy := lflag.String("week-strategy", string(types.WeekStrategyTable), "Default week bucketing (table or computed)")
	oidcAudience := lflag.String("oidc-audience", "", "Audience of the Google ID tokens allowed to call /api/sync")
	syncEmails := lflag.String("sync-emails", "", "comma-delimited list of email addresses allowed to call /api/sync")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr

		if err := src.Validate(); err != nil {
			panic(fmt.Errorf("invalid source configuration: %w", err))
		}
		src.SetObserver(m.ObserveUpstream)
		switch *dataSource {
		case dataSourceUpstream:
			srv.dataset = source.NewCache(src, src.CacheTTL())
		case dataSourceStorage:
			srv.dataset = source.NewCache(storage.NewLoader(st), src.CacheTTL())
		default:
			panic(fmt.Sprintf("unknown data source: %s", *dataSource))
		}

		if _, err := tariff.Bucketer(types.WeekStrategy(*weekStrategy)); err != nil {
			panic(err)
		}
		srv.weekStrategy = types.WeekStrategy(*weekStrategy)

		if *syncEmails != "" {
			for _, email := range strings.Split(*syncEmails, ",") {
				srv.syncEmails = append(srv.syncEmails, strings.TrimSpace(email))
			}
		}
		if *oidcAudience != "" {
			provider, err := oidc.NewProvider(context.Background(), "https://accounts.google.com")
			if err != nil {
				log.Ctx(context.Background()).Error("failed to initialize Google OIDC provider", slog.Any("error", err))
				os.Exit(1)
			}
			verifier := provider.Verifier(&oidc.Config{ClientID: *oidcAudience})
			srv.syncVerifier = func(ctx context.Context, rawIDToken string) (string, error) {
				token, err := verifier.Verify(ctx, rawIDToken)
				if err != nil {
					return "", err
				}
				var claims struct {
					Email         string `json:"email"`
					EmailVerified bool   `json:"email_verified"`
				}
				if err := token.Claims(&claims); err != nil {
					return "", fmt.Errorf("failed to parse claims: %w", err)
				}
				if !claims.EmailVerified {
					return "", fmt.Errorf("email not verified: %s", claims.Email)
				}
				return claims.Email, nil
			}
		}

		m.RegisterSessions(sessions.Len)
	})

	return srv
}

// handle registers fn for pattern, instrumented with the route's metrics.
func (s *Server) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	var h http.Handler = fn
	if s.metrics != nil {
		h = s.metrics.InstrumentHandler(pattern, h)
	}
	mux.Handle(pattern, h)
}

func (s *Server) setupHandler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "GET /api/prices", s.handlePrices)
	s.handle(mux, "GET /api/prices/day", s.handlePriceDay)
	s.handle(mux, "GET /api/profiles", s.handleProfile)
	s.handle(mux, "GET /api/aggregate", s.handleAggregate)
	s.handle(mux, "GET /api/weeks", s.handleWeeks)
	s.handle(mux, "GET /api/devices", s.handleListDevices)
	s.handle(mux, "POST /api/devices", s.handleAddDevice)
	s.handle(mux, "PUT /api/devices/{id}", s.handleUpdateDevice)
	s.handle(mux, "DELETE /api/devices/{id}", s.handleRemoveDevice)
	s.handle(mux, "POST /api/cost/device", s.handleDeviceCost)
	s.handle(mux, "POST /api/cost/ev", s.handleEVCost)
	s.handle(mux, "GET /api/curve", s.handleCurve)
	s.handle(mux, "GET /api/charts/month.png", s.handleMonthChart)
	s.handle(mux, "GET /api/charts/day.png", s.handleDayChart)
	s.handle(mux, "POST /api/sync", s.handleSync)

	mux.HandleFunc("/healthz", s.handleHealthz)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(s.requestLogMiddleware(mux))))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go s.sessions.Run(ctx, time.Minute)

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, struct {
		Error string `json:"error"`
	}{Error: msg}, code)
}

// loadDataset returns the dataset or writes the single user-visible load
// error and returns false.
func (s *Server) loadDataset(w http.ResponseWriter, r *http.Request) (types.Dataset, bool) {
	ctx := r.Context()
	ds, err := s.dataset.Load(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load dataset", slog.Any("error", err))
		writeJSONError(w, source.UserMessage(err), http.StatusBadGateway)
		return types.Dataset{}, false
	}
	if s.metrics != nil {
		s.metrics.SetDataset(ds)
	}
	return ds, true
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
