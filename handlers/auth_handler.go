package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/league-system/services"
	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	authService  services.AuthService
	emailService *services.EmailService
	jwtSecret    []byte
	logger       *slog.Logger
}

func NewAuthHandler(authService services.AuthService, emailService *services.EmailService, jwtSecret string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		emailService: emailService,
		jwtSecret:    []byte(jwtSecret),
		logger:       logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Email == "" || input.Password == "" || input.FirstName == "" {
		badRequestResponse(w, r, errors.New("first name, email, and password are required"))
		return
	}

	user, confirmationToken, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := h.emailService.SendWelcomeEmail(user.Email, confirmationToken); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to send welcome email",
			slog.String("email", user.Email), slog.Any("error", err))
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	user, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(tokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to sign token: %w", err))
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": tokenString, "user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		badRequestResponse(w, r, errors.New("confirmation token is required"))
		return
	}

	if err := h.authService.ConfirmEmail(r.Context(), token); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "email confirmed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" {
		badRequestResponse(w, r, errors.New("email is required"))
		return
	}

	resetToken, err := h.authService.GeneratePasswordResetToken(r.Context(), input.Email)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if resetToken != "" {
		if err := h.emailService.SendPasswordResetEmail(input.Email, resetToken); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to send password reset email",
				slog.String("email", input.Email), slog.Any("error", err))
		}
	}

	// Same answer whether or not the email is registered.
	message := jsonResponse{"message": "if the email is registered, a reset link has been sent"}
	if err := writeJSON(w, http.StatusOK, message, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Token == "" || input.NewPassword == "" {
		badRequestResponse(w, r, errors.New("token and new password are required"))
		return
	}

	if err := h.authService.ResetPasswordByToken(r.Context(), input.Token, input.NewPassword); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "password updated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
