package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"lantern/internal/activity"
	"lantern/internal/crypto"
	"lantern/internal/metrics"
	mw "lantern/internal/middleware"
	"lantern/internal/notify"
	"lantern/internal/social"
	"lantern/internal/store"
)

// Options configures NewRouter.
type Options struct {
	Store          store.Store
	Cipher         *crypto.Cipher
	JWTSecret      []byte
	WeekStart      time.Weekday
	StoreTimeout   time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	// Limiter overrides the limiter built from RateLimitRPS and RateLimitBurst,
	// letting the caller own its cleanup loop.
	Limiter *mw.RateLimiter
	Logger  *zap.Logger
}

// NewRouter wires services and handlers onto a chi router serving /api,
// /healthz and /metrics.
func NewRouter(o Options) http.Handler {
	log := o.Logger
	acts := activity.NewService(o.Store, o.Cipher, log)
	soc := social.NewService(o.Store, log)
	disp := notify.NewDispatcher(o.Store, log)

	authHandler := NewAuthHandler(o.Store, o.JWTSecret, log)
	userHandler := NewUserHandler(o.Store, log)
	activityHandler := NewActivityHandler(acts, log)
	dashboardHandler := NewDashboardHandler(o.Store, acts, o.WeekStart, log)
	socialHandler := NewSocialHandler(o.Store, soc, log)
	notificationHandler := NewNotificationHandler(disp, log)
	authMW := mw.NewAuthMiddleware(o.JWTSecret)
	limiter := o.Limiter
	if limiter == nil {
		limiter = mw.NewRateLimiter(o.RateLimitRPS, o.RateLimitBurst, log)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHTTP)
	r.Use(mw.ZapRequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", health(o.Store, o.StoreTimeout))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(storeTimeout(o.StoreTimeout))
		api.Group(func(pub chi.Router) {
			pub.Use(limiter.Handler)
			pub.Post("/auth/signup", authHandler.Signup)
			pub.Post("/auth/login", authHandler.Login)
		})
		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)
			pr.Use(limiter.Handler)

			pr.Get("/me", userHandler.GetMe)
			pr.Put("/me", userHandler.UpdateMe)

			pr.Post("/activities", activityHandler.Create)
			pr.Get("/activities", activityHandler.List)
			pr.Get("/activities/scoring", activityHandler.Scoring)

			pr.Get("/dashboard", dashboardHandler.Get)
			pr.Get("/analytics", dashboardHandler.Analytics)

			pr.Get("/users/search", socialHandler.SearchUsers)
			pr.Get("/friends", socialHandler.Friends)
			pr.Post("/friends/requests", socialHandler.SendRequest)
			pr.Get("/feed", socialHandler.Feed)
			pr.Post("/stories", socialHandler.PostStory)
			pr.Get("/stories", socialHandler.Stories)

			pr.Get("/notifications", notificationHandler.List)
			pr.Get("/notifications/unread-count", notificationHandler.UnreadCount)
			pr.Post("/notifications/read-all", notificationHandler.MarkAllRead)
			pr.Post("/notifications/{id}/read", notificationHandler.MarkRead)
			pr.Post("/notifications/{id}/accept", socialHandler.Accept)
			pr.Post("/notifications/{id}/decline", socialHandler.Decline)
		})
	})
	return r
}

// storeTimeout bounds every store call made while serving the request.
func storeTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func health(st store.Store, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
