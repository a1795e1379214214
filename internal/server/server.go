package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pmoura/listinha/internal/auth"
	"github.com/pmoura/listinha/internal/handler"
	"github.com/pmoura/listinha/internal/middleware"
	"github.com/pmoura/listinha/internal/snapshot"
	"github.com/pmoura/listinha/internal/store"
	ws "github.com/pmoura/listinha/internal/websocket"
)

// Config carries runtime settings for the server.
type Config struct {
	// ShareSecret signs snapshot share tokens.
	ShareSecret []byte
	// SnapshotTTL bounds how long an exported share link stays importable.
	SnapshotTTL time.Duration
	// AllowedOrigins lists browser origins allowed to open the WebSocket
	// feed. Empty means same-origin only.
	AllowedOrigins []string
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	groupH       *handler.GroupHandler
	itemH        *handler.ItemHandler
	shareH       *handler.ShareHandler
	snapshotH    *handler.SnapshotHandler
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	shareStore   *store.ShareStore
	rateLimiter  *middleware.RateLimiter
	origins      []string
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	groupStore := store.NewGroupStore(db)
	itemStore := store.NewItemStore(db)
	shareStore := store.NewShareStore(db)

	codec := snapshot.NewCodec(cfg.ShareSecret, cfg.SnapshotTTL)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, groupStore, logger.With("component", "auth")),
		groupH:       handler.NewGroupHandler(groupStore, hub, logger.With("component", "group")),
		itemH:        handler.NewItemHandler(itemStore, hub, logger.With("component", "item")),
		shareH:       handler.NewShareHandler(shareStore, userStore, groupStore, itemStore, hub, logger.With("component", "share")),
		snapshotH:    handler.NewSnapshotHandler(itemStore, groupStore, codec, hub, logger.With("component", "snapshot")),
		userStore:    userStore,
		sessionStore: sessionStore,
		shareStore:   shareStore,
		rateLimiter:  middleware.NewRateLimiter(),
		origins:      cfg.AllowedOrigins,
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Group routes
	mux.HandleFunc("GET /api/groups", s.groupH.List)
	mux.HandleFunc("POST /api/groups", s.groupH.Create)
	mux.HandleFunc("DELETE /api/groups/{name}", s.groupH.Delete)

	// Item routes
	mux.HandleFunc("GET /api/items", s.itemH.List)
	mux.HandleFunc("POST /api/items", s.itemH.Create)
	mux.HandleFunc("POST /api/items/{id}/toggle", s.itemH.Toggle)
	mux.HandleFunc("DELETE /api/items/{id}", s.itemH.Delete)
	mux.HandleFunc("POST /api/items/reset", s.itemH.Reset)
	mux.HandleFunc("PUT /api/items/reorder", s.itemH.Reorder)

	// Live sharing routes
	mux.HandleFunc("GET /api/shares", s.shareH.ListViewers)
	mux.HandleFunc("GET /api/shares/received", s.shareH.ListReceived)
	mux.HandleFunc("POST /api/shares", s.shareH.Grant)
	mux.HandleFunc("DELETE /api/shares/{user_id}", s.shareH.Revoke)
	mux.HandleFunc("GET /api/shared/{user_id}/groups", s.shareH.SharedGroups)
	mux.HandleFunc("GET /api/shared/{user_id}/items", s.shareH.SharedItems)

	// Snapshot share-link routes
	mux.HandleFunc("GET /api/snapshot", s.snapshotH.Export)
	mux.HandleFunc("POST /api/snapshot/import", s.snapshotH.Import)

	// WebSocket change feed. Connections start watching the caller's own
	// list and may re-scope to any owner who granted them access.
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.identity, s.authorizeFeed, s.origins, s.logger.With("component", "websocket")))
}

func (s *Server) identity(r *http.Request) string {
	return auth.PublicID(r.Context())
}

// authorizeFeed allows a client to watch its own feed or the feed of an
// owner who granted it shared access.
func (s *Server) authorizeFeed(r *http.Request, owner string) bool {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		return false
	}
	if owner == ac.PublicID {
		return true
	}

	ownerUser, err := s.userStore.GetByPublicID(owner)
	if err != nil || ownerUser == nil {
		return false
	}
	granted, err := s.shareStore.Exists(ownerUser.ID, ac.UserID)
	if err != nil {
		s.logger.Error("authorize feed", "error", err)
		return false
	}
	return granted
}
