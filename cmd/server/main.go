package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hobbiesapp/internal/auth"
	"hobbiesapp/internal/config"
	"hobbiesapp/internal/httpapi"
	"hobbiesapp/internal/notifications"
	"hobbiesapp/internal/service"
	"hobbiesapp/internal/store/memory"
	"hobbiesapp/internal/store/postgres"
)

// stores groups the repository implementations the services are built on.
type stores struct {
	users       service.UsersStore
	sessions    service.SessionsStore
	profiles    service.ProfileStore
	hobbies     service.HobbiesStore
	friendships service.FriendshipsStore
	similarity  service.SimilarityStore
	tokens      service.NotificationTokensStore
	ping        func(context.Context) error
	closeFn     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	st, err := openStores(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("store setup failed", "err", err)
		os.Exit(1)
	}
	defer st.closeFn()

	tokens := auth.NewTokenIssuer(tokenSecret(cfg, logger), cfg.TokenTTL)

	notificationsSvc := &service.NotificationService{
		Tokens: st.tokens,
		Users:  st.users,
		Logger: logger,
	}
	if cfg.PushEnabled() {
		sender, err := notifications.NewFCMSender(context.Background(), cfg.FCMProjectID, cfg.FCMCredentialsFile)
		if err != nil {
			logger.Error("fcm setup failed", "err", err)
			os.Exit(1)
		}
		notificationsSvc.Sender = sender
		logger.Info("push notifications enabled", "project_id", cfg.FCMProjectID)
	} else {
		logger.Info("push notifications disabled")
	}

	authSvc := &service.AuthService{
		Users:          st.users,
		Sessions:       st.sessions,
		Tokens:         tokens,
		SessionTTL:     cfg.SessionTTL,
		GoogleClientID: cfg.GoogleClientID,
		AppleServiceID: cfg.AppleServiceID,
		VerifyGoogle:   auth.VerifyGoogleIDToken,
		VerifyApple:    auth.VerifyAppleIDToken,
	}

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger: logger,
		IsProd: cfg.IsProd(),
		DBPing: st.ping,
		Auth:   authSvc,
		Friends: &service.FriendsService{
			Friendships: st.friendships,
			Notifier:    notificationsSvc,
			Logger:      logger,
		},
		Similar:       &service.SimilarService{Store: st.similarity, PageSize: cfg.SimilarPageSize},
		Profile:       &service.ProfileService{Store: st.profiles, Credentials: st.users, Tokens: tokens},
		Hobbies:       &service.HobbyService{Store: st.hobbies},
		Notifications: notificationsSvc,
		CookieCodec:   auth.NewCookieCodec([]byte(cfg.CookieSecret)),
		CookieSecure:  cfg.CookieSecure(),
		SessionTTL:    cfg.SessionTTL,
		TrustProxy:    cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "err", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

// openStores connects to PostgreSQL when a DSN is configured and falls back
// to the in-memory store otherwise.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	if cfg.DBDSN == "" {
		logger.Warn("APP_DB_DSN not set; using in-memory store, data is lost on restart")
		m := memory.New()
		return stores{
			users:       m,
			sessions:    m,
			profiles:    m,
			hobbies:     m,
			friendships: m,
			similarity:  m,
			tokens:      m,
			closeFn:     func() {},
		}, nil
	}

	pool, err := postgres.Open(ctx, cfg.DBDSN)
	if err != nil {
		return stores{}, err
	}
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return stores{}, err
		}
	}

	return stores{
		users:       postgres.NewUsersStore(pool),
		sessions:    postgres.NewSessionsStore(pool),
		profiles:    postgres.NewProfileStore(pool),
		hobbies:     postgres.NewHobbiesStore(pool),
		friendships: postgres.NewFriendshipsStore(pool),
		similarity:  postgres.NewSimilarityStore(pool),
		tokens:      postgres.NewNotificationTokensStore(pool),
		ping:        pool.Ping,
		closeFn:     pool.Close,
	}, nil
}

// tokenSecret returns the signing key for bearer tokens. Without a configured
// secret (dev only) a random key is used, so tokens do not survive a restart.
func tokenSecret(cfg config.Config, logger *slog.Logger) []byte {
	if cfg.CookieSecret != "" {
		return []byte(cfg.CookieSecret)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		logger.Error("generate token secret failed", "err", err)
		os.Exit(1)
	}
	logger.Warn("APP_COOKIE_SECRET not set; cookies are unsigned and tokens use an ephemeral key")
	return key
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
