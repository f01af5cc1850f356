package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lantern/internal/apperr"
	"lantern/internal/models"
	"lantern/internal/progress"
	"lantern/internal/store"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	users     store.Users
	jwtSecret []byte
	log       *zap.Logger
}

func NewAuthHandler(users store.Users, jwtSecret []byte, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, log: log}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	username := strings.TrimSpace(c.Username)
	if username == "" {
		username, _, _ = strings.Cut(c.Email, "@")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, h.log, fmt.Errorf("hash password: %w", err))
		return
	}

	goals := progress.DefaultGoals()
	user := models.User{
		Email:         c.Email,
		PasswordHash:  string(hashed),
		Username:      username,
		StudyMinutes:  goals.StudyMinutes,
		SleepHours:    goals.SleepHours,
		SocialMinutes: goals.SocialMinutes,
		MealsCount:    goals.MealsCount,
	}
	if err := h.users.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, r, h.log, apperr.Conflict("email already registered"))
			return
		}
		writeError(w, r, h.log, apperr.FromStore(err, "user"))
		return
	}

	token, err := h.issueJWT(user)
	if err != nil {
		writeError(w, r, h.log, fmt.Errorf("issue token: %w", err))
		return
	}
	h.log.Info("user signed up", zap.Int64("user_id", user.ID))
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: ToUserDTO(user)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), c.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, h.log, apperr.Unauthorized("invalid credentials"))
			return
		}
		writeError(w, r, h.log, apperr.FromStore(err, "user"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)) != nil {
		writeError(w, r, h.log, apperr.Unauthorized("invalid credentials"))
		return
	}
	token, err := h.issueJWT(*user)
	if err != nil {
		writeError(w, r, h.log, fmt.Errorf("issue token: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: ToUserDTO(*user)})
}

// readCredentials decodes the body and normalises the email.
func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if err := decodeJSON(r, &c); err != nil {
		return c, err
	}
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Email == "" || c.Password == "" {
		return c, apperr.Validation("email and password required")
	}
	return c, nil
}

func (h *AuthHandler) issueJWT(u models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"exp":   now.Add(tokenTTL).Unix(),
		"iat":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}
