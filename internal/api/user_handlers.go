package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/code3452/api-yamdb/internal/access"
	"github.com/code3452/api-yamdb/internal/domain"
	"github.com/code3452/api-yamdb/internal/store"
)

// requireAdmin проверяет, что запрос выполняет администратор или
// суперпользователь. При отказе сам пишет 401/403 и возвращает false.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (access.Actor, bool) {
	actor := actorFromContext(r.Context())
	if !actor.Authenticated {
		h.respondError(w, r, http.StatusUnauthorized, "Authentication required")
		return actor, false
	}
	if !access.IsAdminOrSuperuser(actor) {
		h.logger.WarnContext(r.Context(), "Admin access denied",
			slog.String("username", actor.Username), slog.String("path", r.URL.Path))
		h.respondError(w, r, http.StatusForbidden, "Admin access required")
		return actor, false
	}
	return actor, true
}

// ListUsers возвращает страницу пользователей. Доступно только
// администратору.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()

	params := store.UserListParams{
		ListParams: parseListParams(r),
		Search:     r.URL.Query().Get("search"),
		Username:   r.URL.Query().Get("username"),
	}
	users, totalCount, err := h.stores.Users.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list users", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Results:    users,
		TotalCount: totalCount,
		Page:       params.Page,
		PageSize:   params.PageSize,
	})
}

// CreateUser создает пользователя от имени администратора, в том числе
// с назначенной ролью.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()

	var req domain.CreateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if domain.IsReservedUsername(req.Username) {
		h.respondError(w, r, http.StatusBadRequest, `Username "me" is not allowed`)
		return
	}

	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}
	newUser := &domain.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
	}
	if err := h.stores.Users.Create(ctx, newUser); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			h.respondError(w, r, http.StatusBadRequest, "User with this username or email already exists")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create user", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create user")
		return
	}
	h.logger.InfoContext(ctx, "User created by admin", slog.String("username", newUser.Username), slog.String("role", newUser.Role))
	h.respondJSON(w, r, http.StatusCreated, newUser)
}

// GetUser возвращает пользователя по username. Доступно только
// администратору.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()
	username := mux.Vars(r)["username"]

	user, err := h.stores.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondError(w, r, http.StatusNotFound, "User not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get user", slog.String("username", username), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}
	h.respondJSON(w, r, http.StatusOK, user)
}

// UpdateUser частично обновляет пользователя по username, включая роль.
// Доступно только администратору.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()
	username := mux.Vars(r)["username"]

	var req domain.UpdateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Username != nil && domain.IsReservedUsername(*req.Username) {
		h.respondError(w, r, http.StatusBadRequest, `Username "me" is not allowed`)
		return
	}

	user, err := h.stores.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondError(w, r, http.StatusNotFound, "User not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get user for update", slog.String("username", username), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update user")
		return
	}

	applyUserPatch(user, req.Username, req.Email, req.FirstName, req.LastName, req.Bio)
	if req.Role != nil {
		// Назначение ролей ничем не ограничено: администратор может
		// повышать и понижать кого угодно, включая себя.
		user.Role = *req.Role
	}

	if err := h.stores.Users.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			h.respondError(w, r, http.StatusBadRequest, "Username or email already in use")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to update user", slog.String("username", username), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update user")
		return
	}
	h.logger.InfoContext(ctx, "User updated by admin", slog.String("username", user.Username))
	h.respondJSON(w, r, http.StatusOK, user)
}

// DeleteUser удаляет пользователя по username вместе с его отзывами и
// комментариями. Доступно только администратору.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()
	username := mux.Vars(r)["username"]

	if err := h.stores.Users.Delete(ctx, username); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondError(w, r, http.StatusNotFound, "User not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to delete user", slog.String("username", username), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	h.logger.InfoContext(ctx, "User deleted by admin", slog.String("username", username))
	h.respondJSON(w, r, http.StatusNoContent, nil)
}

// GetMe возвращает профиль текущего пользователя.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFromContext(ctx)

	user, err := h.stores.Users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Токен валиден, но пользователь уже удален.
			h.respondError(w, r, http.StatusNotFound, "User associated with token not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get own profile", slog.String("userID", actor.ID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve profile")
		return
	}
	h.respondJSON(w, r, http.StatusOK, user)
}

// UpdateMe частично обновляет профиль текущего пользователя. Роль через
// этот эндпоинт изменить нельзя.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFromContext(ctx)

	var req domain.UpdateProfileRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Username != nil && domain.IsReservedUsername(*req.Username) {
		h.respondError(w, r, http.StatusBadRequest, `Username "me" is not allowed`)
		return
	}

	user, err := h.stores.Users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondError(w, r, http.StatusNotFound, "User associated with token not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get own profile for update", slog.String("userID", actor.ID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	applyUserPatch(user, req.Username, req.Email, req.FirstName, req.LastName, req.Bio)

	if err := h.stores.Users.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			h.respondError(w, r, http.StatusBadRequest, "Username or email already in use")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to update own profile", slog.String("userID", actor.ID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	h.logger.InfoContext(ctx, "Profile updated", slog.String("username", user.Username))
	h.respondJSON(w, r, http.StatusOK, user)
}

// applyUserPatch накладывает переданные поля на запись пользователя.
func applyUserPatch(user *domain.User, username, email, firstName, lastName, bio *string) {
	if username != nil {
		user.Username = *username
	}
	if email != nil {
		user.Email = *email
	}
	if firstName != nil {
		user.FirstName = *firstName
	}
	if lastName != nil {
		user.LastName = *lastName
	}
	if bio != nil {
		user.Bio = *bio
	}
}
