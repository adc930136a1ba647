package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Config holds configuration for token issuing and validation.
type Config struct {
	// Secret is the HMAC key used to sign JWTs.
	Secret string `mapstructure:"secret" default:"dev-secret"`
	// AccessTTLMinutes is the lifetime of access tokens.
	AccessTTLMinutes int `mapstructure:"access_ttl_minutes" default:"60"`
	// RefreshTTLHours is the lifetime of refresh tokens.
	RefreshTTLHours int `mapstructure:"refresh_ttl_hours" default:"168"`
	// CookieSecure marks token cookies as Secure (HTTPS only).
	CookieSecure bool `mapstructure:"cookie_secure" default:"false"`
}

// Cookie names for token delivery.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// Token type claim values.
const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// ErrInvalidToken is returned when a token fails validation for any reason.
var ErrInvalidToken = errors.New("token invalid")

// Claims is the decoded identity carried by a verified token.
type Claims struct {
	UserID  uint
	Role    string
	Refresh bool
}

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager issues and validates JWTs.
type Manager struct {
	cfg Config
}

// NewManager creates a token manager from the configuration.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// IssueAccess creates a signed access token for the user.
func (m *Manager) IssueAccess(userID uint, role string) (string, error) {
	return m.sign(userID, role, typeAccess, time.Duration(m.cfg.AccessTTLMinutes)*time.Minute)
}

// IssueRefresh creates a signed refresh token for the user.
func (m *Manager) IssueRefresh(userID uint) (string, error) {
	return m.sign(userID, "", typeRefresh, time.Duration(m.cfg.RefreshTTLHours)*time.Hour)
}

func (m *Manager) sign(userID uint, role, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its claims.
func (m *Manager) Parse(raw string) (*Claims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(m.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:  uint(userID),
		Role:    claims.Role,
		Refresh: claims.Type == typeRefresh,
	}, nil
}

// SetTokenCookies attaches access and refresh token cookies to the response.
func (m *Manager) SetTokenCookies(c *fiber.Ctx, access, refresh string) {
	c.Cookie(&fiber.Cookie{
		Name:     AccessCookie,
		Value:    access,
		HTTPOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Duration(m.cfg.AccessTTLMinutes) * time.Minute),
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookie,
		Value:    refresh,
		HTTPOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Duration(m.cfg.RefreshTTLHours) * time.Hour),
		Path:     "/",
	})
}

// ClearTokenCookies expires both token cookies.
func (m *Manager) ClearTokenCookies(c *fiber.Ctx) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			HTTPOnly: true,
			Secure:   m.cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
			Expires:  time.Now().Add(-time.Hour),
			Path:     "/",
		})
	}
}

// TokenFromRequest extracts a raw access token from the Authorization header
// or the access cookie. Returns an empty string when absent.
func TokenFromRequest(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Cookies(AccessCookie)
}

// New returns a middleware that requires a valid access token.
// The verified user id and role are stored in the request locals.
func New(m *Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := TokenFromRequest(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "missing authorization"})
		}
		claims, err := m.Parse(raw)
		if err != nil || claims.Refresh {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "token invalid"})
		}
		c.Locals("user_id", claims.UserID)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

// Optional returns a middleware that populates the request identity when a
// valid token is present but lets anonymous requests through.
func Optional(m *Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := TokenFromRequest(c); raw != "" {
			if claims, err := m.Parse(raw); err == nil && !claims.Refresh {
				c.Locals("user_id", claims.UserID)
				c.Locals("role", claims.Role)
			}
		}
		return c.Next()
	}
}

// RequireRoles returns a middleware rejecting identities outside the given roles.
// It must run after New.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := Role(c)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"msg": "insufficient permissions"})
	}
}

// UserID returns the authenticated user id from the request locals.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok
}

// Role returns the authenticated role from the request locals.
func Role(c *fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}
