package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/code3452/api-yamdb/internal/domain"
	"github.com/code3452/api-yamdb/internal/store"
)

// SignUp регистрирует пользователя по паре (username, email) и отправляет
// ему код подтверждения. Повторный запрос с той же парой не создает
// дубликата: код перегенерируется и отправляется заново.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.SignUpRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if domain.IsReservedUsername(req.Username) {
		h.logger.WarnContext(ctx, "Sign-up attempt with reserved username", slog.String("username", req.Username))
		h.respondError(w, r, http.StatusBadRequest, `Username "me" is not allowed`)
		return
	}

	// Точное совпадение пары (username, email) означает повторную
	// регистрацию: перегенерируем код и отправляем его еще раз.
	existing, err := h.stores.Users.GetByUsernameAndEmail(ctx, req.Username, req.Email)
	if err == nil {
		existing.ConfirmationCode = uuid.NewString()
		if err := h.stores.Users.Update(ctx, existing); err != nil {
			h.logger.ErrorContext(ctx, "Failed to rotate confirmation code", slog.String("username", req.Username), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to process sign-up")
			return
		}
		h.sendConfirmationCode(r, existing)
		h.logger.InfoContext(ctx, "Confirmation code re-sent to existing user", slog.String("username", req.Username))
		h.respondJSON(w, r, http.StatusOK, req)
		return
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		h.logger.ErrorContext(ctx, "Failed to look up user on sign-up", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to process sign-up")
		return
	}

	newUser := &domain.User{
		ID:               uuid.NewString(),
		Username:         req.Username,
		Email:            req.Email,
		Role:             domain.RoleUser,
		ConfirmationCode: uuid.NewString(),
	}
	if err := h.stores.Users.Create(ctx, newUser); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			// Пара не совпала целиком, но username или email уже занят.
			h.respondError(w, r, http.StatusBadRequest, "User with this username or email already exists")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create user on sign-up", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to process sign-up")
		return
	}

	// Пользователь уже создан, поэтому сбой доставки не откатывает
	// запись: клиент может запросить код повторно тем же запросом.
	h.sendConfirmationCode(r, newUser)

	h.logger.InfoContext(ctx, "User signed up", slog.String("username", newUser.Username))
	h.respondJSON(w, r, http.StatusOK, req)
}

// sendConfirmationCode отправляет код подтверждения на почту пользователя.
// Ошибка доставки логируется и не влияет на результат запроса.
func (h *Handler) sendConfirmationCode(r *http.Request, user *domain.User) {
	subject := "Ваш код для получения token"
	body := fmt.Sprintf("Ваш код для получения token: %s", user.ConfirmationCode)
	if err := h.mailer.Send(user.Email, subject, body); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to deliver confirmation code",
			slog.String("username", user.Username), slog.String("error", err.Error()))
	}
}

// Token обменивает код подтверждения на пару JWT токенов.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.TokenRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.stores.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondError(w, r, http.StatusNotFound, "User not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get user for token exchange", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	// Точное строковое сравнение. Сообщение об ошибке не уточняет,
	// какое из полей не подошло.
	if user.ConfirmationCode == "" || user.ConfirmationCode != req.ConfirmationCode {
		h.logger.WarnContext(ctx, "Confirmation code mismatch", slog.String("username", req.Username))
		h.respondError(w, r, http.StatusBadRequest, "Check the username and confirmation code provided")
		return
	}

	// Код подтверждения сознательно не гасится после обмена: его можно
	// использовать повторно, пока signup не выдаст новый.
	accessToken, refreshToken, err := h.tokenManager.GeneratePair(user.ID, user.Username, user.Role, user.IsSuperuser)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to generate token pair", slog.String("username", user.Username), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	h.logger.InfoContext(ctx, "Token pair issued", slog.String("username", user.Username))
	h.respondJSON(w, r, http.StatusOK, domain.TokenResponse{Token: accessToken, RefreshToken: refreshToken})
}

// refreshRequest - тело запроса обновления пары токенов.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken выпускает новую пару токенов по действующему refresh токену.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	accessToken, refreshToken, err := h.tokenManager.Refresh(req.RefreshToken)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Refresh token rejected", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	h.respondJSON(w, r, http.StatusOK, domain.TokenResponse{Token: accessToken, RefreshToken: refreshToken})
}
