package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/pkg/response"
	"github.com/confera/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register. Accounts created
// through the public endpoint are always authors; the admin account is
// seeded at startup.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	FullName    string `json:"full_name" binding:"required"`
	Mobile      string `json:"mobile"`
	Institution string `json:"institution"`
	Department  string `json:"department"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.Conflict(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	profile := &CreateUserParams{
		Mobile:      req.Mobile,
		Institution: req.Institution,
		Department:  req.Department,
	}
	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, models.RoleAuthor, profile)
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create account")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// EnsureAdmin creates the administrator account from config when no user
// with that email exists yet. Called once at startup.
func EnsureAdmin(ctx context.Context, repo *Repository, email, password string, logger *zap.Logger) error {
	if email == "" || password == "" {
		logger.Warn("admin account not configured (ADMIN_EMAIL/ADMIN_PASSWORD unset)")
		return nil
	}
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := repo.Create(ctx, email, hash, "Administrator", models.RoleAdmin, nil); err != nil {
		return err
	}
	logger.Info("admin account created", zap.String("email", email))
	return nil
}
