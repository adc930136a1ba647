package auth

import (
	"errors"

	"qrbooks/core/logger"
	coreauth "qrbooks/core/middleware/auth"
	"qrbooks/core/middleware/ratelimit"
	auditfeat "qrbooks/feature/audit"
	auditmodels "qrbooks/feature/audit/models"
	"qrbooks/feature/auth/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for authentication and the user's own account.
type Handler struct {
	service *Service
	audit   *auditfeat.Service
	tokens  *coreauth.Manager
	logger  *zap.Logger
	login   *ratelimit.Limiter
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, audit *auditfeat.Service, tokens *coreauth.Manager, logger *zap.Logger, login *ratelimit.Limiter) *Handler {
	return &Handler{service: service, audit: audit, tokens: tokens, logger: logger, login: login}
}

// RegisterRoutes registers the auth routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/auth")
	group.Post("/login", ratelimit.Middleware(h.login, ratelimit.ByIP("login")), h.HandleLogin)
	group.Post("/logout", h.HandleLogout)
	group.Post("/signup", h.HandleSignup)
	group.Post("/register", coreauth.New(h.tokens), coreauth.RequireRoles(string(models.RoleAdmin)), h.HandleRegister)
	group.Post("/refresh", h.HandleRefresh)
	group.Get("/me", coreauth.New(h.tokens), h.HandleMe)
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// HandleLogin verifies credentials and issues token cookies.
// @Summary Log in
// @Description Verify name and password, then issue access and refresh tokens.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body credentialsRequest true "User credentials"
// @Success 200 {object} tokenResponse "Tokens and user"
// @Failure 401 {object} map[string]string "Bad credentials"
// @Router /auth/login [post]
func (h *Handler) HandleLogin(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	user, err := h.service.GetByName(c.Context(), req.Name)
	if err != nil {
		l.Error("Login lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if user == nil || !h.service.VerifyPassword(user, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "bad username or password"})
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		l.Error("Token issue failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	h.audit.Record(c.Context(), &user.ID, auditmodels.ActionLogin, "user logged in", fiber.Map{"name": user.Name})
	return c.JSON(resp)
}

// HandleLogout clears the token cookies.
// @Summary Log out
// @Description Expire the access and refresh token cookies.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout confirmation"
// @Router /auth/logout [post]
func (h *Handler) HandleLogout(c *fiber.Ctx) error {
	if claims := h.currentClaims(c); claims != nil {
		h.audit.Record(c.Context(), &claims.UserID, auditmodels.ActionLogout, "user logged out", nil)
	}
	h.tokens.ClearTokenCookies(c)
	return c.JSON(fiber.Map{"msg": "logged out"})
}

// HandleSignup creates a self-service account. Only the student and
// teacher roles may be chosen here; admins are created by other admins.
// @Summary Sign up
// @Description Create a student or teacher account and issue tokens.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body credentialsRequest true "New account"
// @Success 201 {object} tokenResponse "Tokens and user"
// @Failure 400 {object} map[string]string "Validation failure"
// @Failure 409 {object} map[string]string "Name taken"
// @Router /auth/signup [post]
func (h *Handler) HandleSignup(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	role := models.UserRole(req.Role)
	if req.Role == "" {
		role = models.RoleStudent
	}
	if !role.SelfServiceAllowed() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "role must be student or teacher"})
	}

	user, err := h.service.Create(c.Context(), req.Name, req.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"msg": err.Error()})
		case errors.Is(err, ErrWeakPassword), errors.Is(err, ErrInvalidRole):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
		default:
			l.Error("Signup failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		l.Error("Token issue failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	h.audit.Record(c.Context(), &user.ID, auditmodels.ActionCreateUser, "self-service signup", fiber.Map{"name": user.Name, "role": user.Role})
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleRegister creates an account with any role. Admin only.
// @Summary Register user
// @Description Create an account on behalf of someone else, any role allowed.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body credentialsRequest true "New account"
// @Success 201 {object} models.User "Account"
// @Failure 400 {object} map[string]string "Validation failure"
// @Failure 409 {object} map[string]string "Name taken"
// @Router /auth/register [post]
func (h *Handler) HandleRegister(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid request body"})
	}

	role := models.UserRole(req.Role)
	if req.Role == "" {
		role = models.RoleStudent
	}

	user, err := h.service.Create(c.Context(), req.Name, req.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"msg": err.Error()})
		case errors.Is(err, ErrWeakPassword), errors.Is(err, ErrInvalidRole):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
		default:
			l.Error("Register failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
	}

	actorID, _ := coreauth.UserID(c)
	h.audit.Record(c.Context(), &actorID, auditmodels.ActionCreateUser, "admin created user", fiber.Map{"name": user.Name, "role": user.Role})
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleRefresh exchanges a valid refresh token for fresh token cookies.
// @Summary Refresh tokens
// @Description Rotate access and refresh tokens using the refresh cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} tokenResponse "Tokens and user"
// @Failure 401 {object} map[string]string "Missing or invalid refresh token"
// @Router /auth/refresh [post]
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	raw := c.Cookies(coreauth.RefreshCookie)
	if raw == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "missing refresh token"})
	}
	claims, err := h.tokens.Parse(raw)
	if err != nil || !claims.Refresh {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "token invalid"})
	}

	user, err := h.service.GetByID(c.Context(), claims.UserID)
	if err != nil {
		l.Error("Refresh lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "token invalid"})
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		l.Error("Token issue failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(resp)
}

// HandleMe returns the authenticated user's account.
// @Summary Current user
// @Description Return the account behind the presented access token.
// @Tags auth
// @Produce json
// @Success 200 {object} models.User "Account"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func (h *Handler) HandleMe(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	id, _ := coreauth.UserID(c)
	user, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		l.Error("Account lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "account no longer exists"})
	}
	return c.JSON(user)
}

func (h *Handler) issueTokens(c *fiber.Ctx, user *models.User) (*tokenResponse, error) {
	access, err := h.tokens.IssueAccess(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := h.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	h.tokens.SetTokenCookies(c, access, refresh)
	return &tokenResponse{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

func (h *Handler) currentClaims(c *fiber.Ctx) *coreauth.Claims {
	raw := coreauth.TokenFromRequest(c)
	if raw == "" {
		return nil
	}
	claims, err := h.tokens.Parse(raw)
	if err != nil || claims.Refresh {
		return nil
	}
	return claims
}
