// Package rest exposes the application services as a JSON API.
package rest

import (
	"net/http"
	"time"

	"chatapi/application/ports"
	"chatapi/application/services"
	"chatapi/interfaces/http/rest/handlers"
	"chatapi/interfaces/http/rest/middleware"
	"chatapi/pkg/auth"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Services are the application services the API exposes.
type Services struct {
	Auth       *services.AuthService
	Users      *services.UserService
	Topics     *services.TopicService
	Messages   *services.MessageService
	Tags       *services.TagService
	Categories *services.CategoryService
	Prompts    *services.PromptService
	Files      *services.FileService
}

// Options tune the transport.
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
	// RequestsPerMinute bounds requests per client IP. Zero disables it.
	RequestsPerMinute int
}

// Router creates and configures the HTTP router
type Router struct {
	services Services
	errs     *apperrors.ErrorHandler
	tracer   *observability.Tracer
	metrics  ports.Metrics
	opts     Options
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	svc Services,
	errs *apperrors.ErrorHandler,
	tracer *observability.Tracer,
	metrics ports.Metrics,
	opts Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		services: svc,
		errs:     errs,
		tracer:   tracer,
		metrics:  metrics,
		opts:     opts,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errs.Middleware)
	router.Use(rt.tracer.Middleware)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)

	router.Route("/api/v1", func(r chi.Router) {
		if rt.opts.RequestsPerMinute > 0 {
			limiter := auth.NewSlidingWindowLimiter(rt.opts.RequestsPerMinute, time.Minute)
			r.Use(middleware.RateLimit(limiter, rt.opts.RequestsPerMinute, time.Minute.String(), rt.errs))
		}
		r.Use(middleware.Authenticate(rt.services.Auth, rt.errs, rt.logger))

		r.Route("/auth", func(r chi.Router) {
			h := handlers.NewAuthHandler(rt.services.Auth, rt.services.Files, rt.errs, rt.logger)
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Get("/viewer", h.Viewer)
			r.Put("/account", h.UpdateAccount)
		})

		r.Route("/users", func(r chi.Router) {
			h := handlers.NewUserHandler(rt.services.Users, rt.services.Files, rt.errs, rt.logger)
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{userID}", h.GetUser)
			r.Put("/{userID}", h.UpdateUser)
			r.Delete("/{userID}", h.DeleteUser)
		})

		r.Route("/topics", func(r chi.Router) {
			h := handlers.NewTopicHandler(rt.services.Topics, rt.errs, rt.logger)
			r.Get("/", h.ListTopics)
			r.Post("/", h.CreateTopic)
			r.Get("/{topicID}", h.GetTopic)
			r.Put("/{topicID}", h.UpdateTopic)
			r.Delete("/{topicID}", h.DeleteTopic)
			r.Post("/{topicID}/pin", h.PinTopic)
			r.Delete("/{topicID}/pin", h.UnpinTopic)

			m := handlers.NewMessageHandler(rt.services.Messages, rt.errs, rt.logger)
			r.Get("/{topicID}/messages", m.ListMessages)
			r.Post("/{topicID}/messages", m.CreateMessage)
			r.Get("/{topicID}/messages/{messageID}", m.GetMessage)
			r.Put("/{topicID}/messages/{messageID}", m.UpdateMessage)
			r.Delete("/{topicID}/messages/{messageID}", m.DeleteMessage)
		})

		r.Route("/tags", func(r chi.Router) {
			h := handlers.NewTagHandler(rt.services.Tags, rt.errs, rt.logger)
			r.Get("/", h.ListTags)
			r.Post("/", h.CreateTag)
			r.Get("/{tagID}", h.GetTag)
			r.Put("/{tagID}", h.UpdateTag)
			r.Delete("/{tagID}", h.DeleteTag)
		})

		r.Route("/categories", func(r chi.Router) {
			h := handlers.NewCategoryHandler(rt.services.Categories, rt.errs, rt.logger)
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Get("/{categoryID}", h.GetCategory)
			r.Put("/{categoryID}", h.UpdateCategory)
			r.Delete("/{categoryID}", h.DeleteCategory)
		})

		r.Route("/prompts", func(r chi.Router) {
			h := handlers.NewPromptHandler(rt.services.Prompts, rt.errs, rt.logger)
			r.Get("/", h.ListPrompts)
			r.Post("/", h.CreatePrompt)
			r.Get("/{promptID}", h.GetPrompt)
			r.Put("/{promptID}", h.UpdatePrompt)
			r.Delete("/{promptID}", h.DeletePrompt)
		})

		r.Route("/files", func(r chi.Router) {
			h := handlers.NewFileHandler(rt.services.Files, rt.errs, rt.logger)
			r.Post("/upload-url", h.UploadURL)
			r.Get("/download-url", h.DownloadURL)
			r.Get("/content", h.Content)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
