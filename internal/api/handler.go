// Package api содержит HTTP-слой сервиса: обработчики, middleware и
// маршрутизатор. Поток обработки каждого запроса одинаков: middleware
// определяет действующее лицо, предикаты пакета access решают, разрешено
// ли действие, хранилище проверяет бизнес-инварианты.
package api

import (
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/code3452/api-yamdb/internal/mail"
	"github.com/code3452/api-yamdb/internal/store"
	"github.com/code3452/api-yamdb/pkg/auth"
)

// Stores собирает интерфейсы хранилищ, нужные HTTP-слою. В боевой
// конфигурации это Postgres-реализации, в тестах - MockStore, который
// реализует все шесть интерфейсов.
type Stores struct {
	Users      store.UserStore
	Categories store.CategoryStore
	Genres     store.GenreStore
	Titles     store.TitleStore
	Reviews    store.ReviewStore
	Comments   store.CommentStore
}

// Handler держит зависимости всех HTTP-обработчиков.
type Handler struct {
	stores       Stores
	logger       *slog.Logger
	validator    *validator.Validate
	tokenManager auth.TokenManager
	mailer       mail.Sender
}

// NewHandler создает новый Handler.
func NewHandler(stores Stores, logger *slog.Logger, v *validator.Validate, tm auth.TokenManager, mailer mail.Sender) *Handler {
	return &Handler{
		stores:       stores,
		logger:       logger,
		validator:    v,
		tokenManager: tm,
		mailer:       mailer,
	}
}
