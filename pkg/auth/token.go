package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenManager предоставляет методы для выпуска и валидации пары JWT
// токенов (access + refresh).
type TokenManager interface {
	// GeneratePair выпускает access и refresh токены для пользователя.
	GeneratePair(userID, username, role string, isSuperuser bool) (access, refresh string, err error)
	// Validate проверяет access токен и возвращает его Claims.
	// Refresh токен здесь не принимается.
	Validate(tokenString string) (*Claims, error)
	// Refresh проверяет refresh токен и выпускает новую пару.
	Refresh(refreshToken string) (access, refresh string, err error)
}

// jwtManager реализует TokenManager поверх HMAC-SHA256.
type jwtManager struct {
	secretKey       []byte
	accessDuration  time.Duration
	refreshDuration time.Duration
}

const refreshTokenType = "refresh"

// Claims определяет структуру данных, хранимых в JWT.
type Claims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
	TokenType   string `json:"token_type,omitempty"` // Пусто для access, "refresh" для refresh
	jwt.RegisteredClaims
}

// NewTokenManager создает новый экземпляр jwtManager. secretKey должен
// храниться безопасно и иметь длину не меньше 32 байт для HS256.
func NewTokenManager(secretKey string, accessDuration, refreshDuration time.Duration) (TokenManager, error) {
	if secretKey == "" {
		return nil, errors.New("JWT secret key cannot be empty")
	}
	return &jwtManager{
		secretKey:       []byte(secretKey),
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
	}, nil
}

// GeneratePair выпускает подписанную пару токенов.
func (m *jwtManager) GeneratePair(userID, username, role string, isSuperuser bool) (string, string, error) {
	access, err := m.sign(userID, username, role, isSuperuser, "", m.accessDuration)
	if err != nil {
		return "", "", err
	}
	refresh, err := m.sign(userID, username, role, isSuperuser, refreshTokenType, m.refreshDuration)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (m *jwtManager) sign(userID, username, role string, isSuperuser bool, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      userID,
		Username:    username,
		Role:        role,
		IsSuperuser: isSuperuser,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "api-yamdb",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (m *jwtManager) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Validate проверяет access токен и возвращает извлеченные из него Claims.
func (m *jwtManager) Validate(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType == refreshTokenType {
		return nil, errors.New("refresh token cannot be used as access token")
	}
	return claims, nil
}

// Refresh проверяет refresh токен и выпускает новую пару токенов.
func (m *jwtManager) Refresh(refreshToken string) (string, string, error) {
	claims, err := m.parse(refreshToken)
	if err != nil {
		return "", "", err
	}
	if claims.TokenType != refreshTokenType {
		return "", "", errors.New("not a refresh token")
	}
	return m.GeneratePair(claims.UserID, claims.Username, claims.Role, claims.IsSuperuser)
}
