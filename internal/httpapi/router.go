package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hobbiesapp/internal/auth"
	"hobbiesapp/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth          *service.AuthService
	Friends       *service.FriendsService
	Similar       *service.SimilarService
	Profile       *service.ProfileService
	Hobbies       *service.HobbyService
	Notifications *service.NotificationService
	CookieCodec   auth.CookieCodec
	CookieSecure  bool
	SessionTTL    time.Duration

	// TrustProxy makes client IPs come from X-Forwarded-For. Only set it
	// when a reverse proxy overwrites that header.
	TrustProxy bool
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:           logger,
		dbPing:           opts.DBPing,
		authSvc:          opts.Auth,
		friendsSvc:       opts.Friends,
		similarSvc:       opts.Similar,
		profileSvc:       opts.Profile,
		hobbySvc:         opts.Hobbies,
		notificationsSvc: opts.Notifications,
		cookieCodec:      opts.CookieCodec,
		cookieSecure:     opts.CookieSecure,
		sessionTTL:       opts.SessionTTL,
		trustProxy:       opts.TrustProxy,
		loginLimiter:     newLoginLimiter(),
		now:              time.Now,
	}

	mux := http.NewServeMux()
	handle := func(method, path string, h http.HandlerFunc) {
		path = strings.TrimSuffix(path, "/")
		mux.HandleFunc(method+" "+path, h)
		mux.HandleFunc(method+" "+path+"/{$}", h)
	}

	handle("GET", "/healthz", api.handleHealthz)

	if api.authSvc == nil {
		for _, p := range []string{"/signup", "/login", "/logout", "/auth/token", "/auth/google", "/auth/apple"} {
			handle("POST", p, handleNotImplemented)
		}
	} else {
		handle("POST", "/signup", api.handleSignup)
		handle("POST", "/login", api.handleLogin)
		handle("POST", "/logout", api.requireAuth(api.handleLogout))
		handle("POST", "/auth/token", api.handleAuthToken)
		handle("POST", "/auth/google", api.handleAuthGoogle)
		handle("POST", "/auth/apple", api.handleAuthApple)

		if api.profileSvc != nil {
			handle("GET", "/profile", api.requireAuth(api.handleProfile))
			handle("POST", "/profile/update", api.requireAuth(api.handleProfileUpdate))
			handle("POST", "/profile/password/update", api.requireAuth(api.handlePasswordUpdate))
		}
		if api.hobbySvc != nil {
			handle("GET", "/hobbies", api.requireAuth(api.handleHobbiesList))
			handle("POST", "/hobbies/add", api.requireAuth(api.handleHobbiesAdd))
		}
		if api.friendsSvc != nil {
			handle("GET", "/friends", api.requireAuth(api.handleFriendsList))
			handle("GET", "/friend_requests/sent", api.requireAuth(api.handleRequestsSent))
			handle("GET", "/friend_requests/received", api.requireAuth(api.handleRequestsReceived))
			handle("POST", "/friend_requests/send/{userId}", api.requireAuth(api.handleFriendRequestSend))
			handle("POST", "/friend_requests/accept/{requestId}", api.requireAuth(api.handleFriendRequestAccept))
			handle("POST", "/friend_requests/reject/{requestId}", api.requireAuth(api.handleFriendRequestReject))
		}
		if api.similarSvc != nil {
			handle("GET", "/similar_users", api.requireAuth(api.handleSimilarUsers))
		}
		if api.notificationsSvc != nil {
			handle("POST", "/notifications/tokens", api.requireAuth(api.handleNotificationsTokenUpsert))
			handle("DELETE", "/notifications/tokens", api.requireAuth(api.handleNotificationsTokenDelete))
		}
	}

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Handler only looks the route up; ServeHTTP also fills in path values.
		if _, pattern := mux.Handler(r); pattern == "" {
			handleNotFound(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "unavailable", "not_implemented", "not implemented")
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not_found", "not found")
}

type api struct {
	logger *slog.Logger

	dbPing func(context.Context) error

	authSvc          *service.AuthService
	friendsSvc       *service.FriendsService
	similarSvc       *service.SimilarService
	profileSvc       *service.ProfileService
	hobbySvc         *service.HobbyService
	notificationsSvc *service.NotificationService
	cookieCodec      auth.CookieCodec
	cookieSecure     bool
	sessionTTL       time.Duration
	trustProxy       bool

	loginLimiter *loginLimiter
	now          func() time.Time
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
