package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter создает и настраивает маршрутизатор сервиса. Все эндпоинты
// живут под префиксом /api/v1 и проходят через ActorMiddleware: решение
// о доступе принимается в обработчиках, а не на уровне маршрутов.
func NewRouter(handler *Handler) *mux.Router {
	router := mux.NewRouter()
	router.StrictSlash(true) // /path и /path/ обрабатываются одинаково

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(handler.ActorMiddleware)

	// Аутентификация: регистрация с кодом подтверждения и выдача токенов
	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/signup/", handler.SignUp).Methods(http.MethodPost)              // POST /api/v1/auth/signup/
	authRouter.HandleFunc("/token/", handler.Token).Methods(http.MethodPost)                // POST /api/v1/auth/token/
	authRouter.HandleFunc("/token/refresh/", handler.RefreshToken).Methods(http.MethodPost) // POST /api/v1/auth/token/refresh/

	// Пользователи: /users/me для владельца токена, остальное - админу.
	// Маршруты /me регистрируются раньше /{username}, чтобы mux не
	// трактовал "me" как имя пользователя.
	usersRouter := apiRouter.PathPrefix("/users").Subrouter()
	meRouter := usersRouter.PathPrefix("/me").Subrouter()
	meRouter.Use(handler.RequireAuth)
	meRouter.HandleFunc("/", handler.GetMe).Methods(http.MethodGet)      // GET /api/v1/users/me/
	meRouter.HandleFunc("/", handler.UpdateMe).Methods(http.MethodPatch) // PATCH /api/v1/users/me/

	usersRouter.HandleFunc("/", handler.ListUsers).Methods(http.MethodGet)                    // GET /api/v1/users/
	usersRouter.HandleFunc("/", handler.CreateUser).Methods(http.MethodPost)                  // POST /api/v1/users/
	usersRouter.HandleFunc("/{username}/", handler.GetUser).Methods(http.MethodGet)           // GET /api/v1/users/{username}/
	usersRouter.HandleFunc("/{username}/", handler.UpdateUser).Methods(http.MethodPatch)      // PATCH /api/v1/users/{username}/
	usersRouter.HandleFunc("/{username}/", handler.DeleteUser).Methods(http.MethodDelete)     // DELETE /api/v1/users/{username}/

	// Каталог: категории и жанры без детальных маршрутов - только
	// список, создание и удаление по слагу
	categoriesRouter := apiRouter.PathPrefix("/categories").Subrouter()
	categoriesRouter.HandleFunc("/", handler.ListCategories).Methods(http.MethodGet)           // GET /api/v1/categories/
	categoriesRouter.HandleFunc("/", handler.CreateCategory).Methods(http.MethodPost)          // POST /api/v1/categories/
	categoriesRouter.HandleFunc("/{slug}/", handler.DeleteCategory).Methods(http.MethodDelete) // DELETE /api/v1/categories/{slug}/

	genresRouter := apiRouter.PathPrefix("/genres").Subrouter()
	genresRouter.HandleFunc("/", handler.ListGenres).Methods(http.MethodGet)           // GET /api/v1/genres/
	genresRouter.HandleFunc("/", handler.CreateGenre).Methods(http.MethodPost)         // POST /api/v1/genres/
	genresRouter.HandleFunc("/{slug}/", handler.DeleteGenre).Methods(http.MethodDelete) // DELETE /api/v1/genres/{slug}/

	titlesRouter := apiRouter.PathPrefix("/titles").Subrouter()
	titlesRouter.HandleFunc("/", handler.ListTitles).Methods(http.MethodGet)                // GET /api/v1/titles/
	titlesRouter.HandleFunc("/", handler.CreateTitle).Methods(http.MethodPost)              // POST /api/v1/titles/
	titlesRouter.HandleFunc("/{titleID}/", handler.GetTitle).Methods(http.MethodGet)        // GET /api/v1/titles/{titleID}/
	titlesRouter.HandleFunc("/{titleID}/", handler.UpdateTitle).Methods(http.MethodPatch)   // PATCH /api/v1/titles/{titleID}/
	titlesRouter.HandleFunc("/{titleID}/", handler.DeleteTitle).Methods(http.MethodDelete)  // DELETE /api/v1/titles/{titleID}/

	// Отзывы вложены в произведение
	reviewsRouter := titlesRouter.PathPrefix("/{titleID}/reviews").Subrouter()
	reviewsRouter.HandleFunc("/", handler.ListReviews).Methods(http.MethodGet)                  // GET /api/v1/titles/{titleID}/reviews/
	reviewsRouter.HandleFunc("/", handler.CreateReview).Methods(http.MethodPost)                // POST /api/v1/titles/{titleID}/reviews/
	reviewsRouter.HandleFunc("/{reviewID}/", handler.GetReview).Methods(http.MethodGet)         // GET .../reviews/{reviewID}/
	reviewsRouter.HandleFunc("/{reviewID}/", handler.UpdateReview).Methods(http.MethodPatch)    // PATCH .../reviews/{reviewID}/
	reviewsRouter.HandleFunc("/{reviewID}/", handler.DeleteReview).Methods(http.MethodDelete)   // DELETE .../reviews/{reviewID}/

	// Комментарии вложены в отзыв
	commentsRouter := reviewsRouter.PathPrefix("/{reviewID}/comments").Subrouter()
	commentsRouter.HandleFunc("/", handler.ListComments).Methods(http.MethodGet)                 // GET .../comments/
	commentsRouter.HandleFunc("/", handler.CreateComment).Methods(http.MethodPost)               // POST .../comments/
	commentsRouter.HandleFunc("/{commentID}/", handler.GetComment).Methods(http.MethodGet)       // GET .../comments/{commentID}/
	commentsRouter.HandleFunc("/{commentID}/", handler.UpdateComment).Methods(http.MethodPatch)  // PATCH .../comments/{commentID}/
	commentsRouter.HandleFunc("/{commentID}/", handler.DeleteComment).Methods(http.MethodDelete) // DELETE .../comments/{commentID}/

	return router
}
