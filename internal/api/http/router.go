package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mind-engage/mindengage-quiz/internal/auth"
	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/report"
	"github.com/mind-engage/mindengage-quiz/internal/review"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

// Deps is everything the router mounts handlers over.
type Deps struct {
	Config   config.Config
	DB       *sql.DB
	Auth     *authmw.AuthService
	Users    *authmw.Users
	Quizzes  quiz.Store
	Sessions *session.Manager
	Reports  report.Store
	Reviews  *review.Scheduler
	Events   *events.Log
	Assets   storage.BlobStore // optional
	Log      *logger.Logger
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func(r *http.Request) error
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.Users, cfg.Mode == config.ModeOffline))
	}
	if cfg.EnableGuestAuth {
		r.Post("/auth/guest", auth.GuestLoginHandler(d.Auth, d.DB, cfg.Mode == config.ModeOnline))
	}

	timeout := middleware.Timeout(30 * time.Second)

	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))
		pr.Use(authmw.AttachRoleFromDB(d.Users, cfg.Mode == config.ModeOffline))

		pr.Route("/sessions", func(sr chi.Router) {
			sr.Use(rbac.Require(rbac.PermSessionPlay))
			// the socket outlives any request timeout
			sr.Get("/{sessionID}/ws", SessionSocketHandler(d.Sessions, cfg.CORSOrigins(), d.Log))

			sr.Group(func(tr chi.Router) {
				tr.Use(timeout)
				tr.Post("/", StartSessionHandler(d.Quizzes, d.Sessions))
				tr.Get("/{sessionID}", GetSessionHandler(d.Sessions))
				tr.Delete("/{sessionID}", DiscardSessionHandler(d.Sessions))
				tr.Put("/{sessionID}/answers/{q}", SelectAnswerHandler(d.Sessions))
				tr.Delete("/{sessionID}/answers/{q}", ClearAnswerHandler(d.Sessions))
				tr.Post("/{sessionID}/next", NavigateHandler(d.Sessions, "next"))
				tr.Post("/{sessionID}/previous", NavigateHandler(d.Sessions, "previous"))
				tr.Post("/{sessionID}/goto/{q}", NavigateHandler(d.Sessions, "goto"))
				tr.Post("/{sessionID}/timer/{action}", TimerHandler(d.Sessions))
				tr.Post("/{sessionID}/submit", SubmitHandler(d.Sessions))
				tr.Post("/{sessionID}/events", SessionEventHandler(d.Sessions))
				tr.Post("/{sessionID}/beacon", BeaconHandler(d.Sessions))
			})
		})

		pr.Group(func(tr chi.Router) {
			tr.Use(timeout)

			tr.Get("/me", ProfileHandler(d.Reports))
			tr.Post("/users/change-password", ChangePasswordHandler(d.Users))

			tr.With(rbac.Require(rbac.PermQuizCreate)).Post("/quizzes", UploadQuizHandler(d.Quizzes))
			tr.With(rbac.Require(rbac.PermQuizView)).Get("/quizzes", ListQuizzesHandler(d.Quizzes))
			tr.With(rbac.Require(rbac.PermQuizView)).Get("/quizzes/{quizID}", GetQuizHandler(d.Quizzes))

			reports := rbac.RequireAny(rbac.PermReportViewOwn, rbac.PermReportViewAll)
			tr.With(reports).Get("/reports", ListReportsHandler(d.Reports))
			tr.With(reports).Get("/reports/{reportID}", GetReportHandler(d.Reports))
			tr.With(reports).Get("/stats/{quizID}", GetStatsHandler(d.Reports))

			if d.Reviews != nil {
				tr.With(rbac.Require(rbac.PermReviewViewOwn)).Get("/reviews/due", DueReviewsHandler(d.Reviews))
			}
			if d.Events != nil {
				tr.With(rbac.Require(rbac.PermEventsView)).Get("/events", ListEventsHandler(d.Events))
			}
			if d.Assets != nil {
				tr.Route("/assets", func(ar chi.Router) { MountAssets(ar, d.Assets) })
			}
		})
	})
	return r
}
