// Package http serves the expense-splitting dashboard: the htmx index
// page, its UI partials, and the JSON-free form endpoints behind them.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"splitdash/internal/authsvc"
	"splitdash/internal/cache"
	"splitdash/internal/core"
	"splitdash/internal/middleware/ratelimit"
	"splitdash/internal/middleware/security"
	"splitdash/internal/middleware/trace"
	"splitdash/internal/session"
	"splitdash/internal/store"
	appweb "splitdash/web"
)

// ScanPublisher enqueues scan jobs for the worker.
type ScanPublisher interface {
	PublishScanJob(ctx context.Context, jobID, userID, source string) error
}

// Server wires storage, session, caches and middleware into a
// ready-to-run HTTP server.
type Server struct {
	http.Server
	templates *template.Template

	store     store.Store
	sessions  *session.Store
	publisher ScanPublisher

	snapshotCache *cache.LRUCache[core.BalanceSnapshot]
	expenseCache  *cache.LRUCache[[]core.Expense]
	cacheManager  *cache.Manager

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes, templates and middleware. publisher may
// be nil; receipt scanning then falls back to the periodic worker drain.
func NewServer(addr string, st store.Store, sessions *session.Store, publisher ScanPublisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:         st,
		sessions:      sessions,
		publisher:     publisher,
		snapshotCache: cache.NewLRUCache[core.BalanceSnapshot](100, 5*time.Minute),
		expenseCache:  cache.NewLRUCache[[]core.Expense](200, 5*time.Minute),
		cacheManager:  cache.NewManager(),
		limiter:       ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}
	s.cacheManager.Register(s.snapshotCache)
	s.cacheManager.Register(s.expenseCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// A signed-in user invalidates everything cached for the previous
	// one.
	sessions.Subscribe(func(session.Snapshot) {
		s.snapshotCache.Flush()
		s.expenseCache.Flush()
	})

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /ui/balance-summary", s.handleBalanceSummary)
	mux.HandleFunc("GET /ui/expenses", s.handleExpenseList)
	mux.HandleFunc("GET /ui/participants", s.handleParticipants)

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("POST /payments", s.handleRecordPayment)
	mux.HandleFunc("POST /receipts/scan", s.handleScanReceipt)

	mux.HandleFunc("POST /auth/signin", s.handleSignIn)
	mux.HandleFunc("POST /auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /auth/signout", s.handleSignOut)

	resolver := security.NewClientIPResolver()
	tracer := trace.NewMiddleware(resolver.Resolve)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	handler := tracer.Middleware(
		headers.Middleware(
			s.limiter.Middleware(resolver.Resolve)(mux)))

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Shutdown stops the background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Storage must answer before we accept traffic.
	if _, err := s.store.ListExpenses(r.Context(), ""); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// currentUserID resolves the user the dashboard renders for. Anonymous
// sessions see the demo collection.
func (s *Server) currentUserID() string {
	snap := s.sessions.Current()
	if snap.State == session.StateAuthenticated && snap.User != nil {
		return snap.User.ID
	}
	return store.DemoUserID
}

func (s *Server) currentUser() (string, *authsvc.User, *core.UserProfile) {
	snap := s.sessions.Current()
	if snap.State == session.StateAuthenticated && snap.User != nil {
		return snap.User.ID, snap.User, snap.Profile
	}
	return store.DemoUserID, nil, nil
}

func (s *Server) invalidateUser(userID string) {
	s.snapshotCache.Delete(userID)
	s.expenseCache.Delete(userID)
}
