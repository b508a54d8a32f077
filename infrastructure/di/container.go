// Package di wires the application's dependencies with google/wire.
package di

import (
	"chatapi/application/cascade"
	"chatapi/application/ports"
	"chatapi/application/repositories"
	"chatapi/application/services"
	"chatapi/infrastructure/config"
	"chatapi/interfaces/http/rest"
	apperrors "chatapi/pkg/errors"
	"chatapi/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Tracer       *observability.Tracer
	ErrorHandler *apperrors.ErrorHandler
	Store        ports.DocumentStore
	Users        *repositories.UserRepository
	Coordinator  *cascade.Coordinator
	Metrics      ports.Metrics

	Auth       *services.AuthService
	UserSvc    *services.UserService
	Topics     *services.TopicService
	Messages   *services.MessageService
	Tags       *services.TagService
	Categories *services.CategoryService
	Prompts    *services.PromptService
	Files      *services.FileService

	Router *rest.Router
}
