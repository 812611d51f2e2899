package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionIssuer   = "yatube"
	sessionAudience = "yatube-web"
	defaultTTL      = 24 * time.Hour
)

// Locals keys set by Identify.
const (
	localUser   = "user"
	localUserID = "userID"
)

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *Server) cookieName() string {
	if s.config.SessionCookieName != "" {
		return s.config.SessionCookieName
	}
	return "yatube_session"
}

func (s *Server) sessionTTL() time.Duration {
	if s.config.SessionTTLHours > 0 {
		return time.Duration(s.config.SessionTTLHours) * time.Hour
	}
	return defaultTTL
}

// signSession returns a signed session token for user.
func (s *Server) signSession(user *models.User, now time.Time) (string, error) {
	claims := sessionClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    sessionIssuer,
			Audience:  jwt.ClaimStrings{sessionAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// issueSession signs a token for user and stores it in the session cookie.
func (s *Server) issueSession(c *fiber.Ctx, user *models.User) error {
	now := time.Now()
	token, err := s.signSession(user, now)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  now.Add(s.sessionTTL()),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// parseSession validates the signature, issuer, audience and expiry of raw.
func (s *Server) parseSession(raw string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithAudience(sessionAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// Identify resolves the session cookie into the current user. Requests
// without a valid session continue anonymously; the cookie is cleared when it
// no longer identifies anyone.
func (s *Server) Identify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(s.cookieName())
		if raw == "" {
			return c.Next()
		}
		ctx := c.UserContext()

		claims, err := s.parseSession(raw)
		if err != nil {
			middleware.Logger.DebugContext(ctx, "discarding invalid session", "error", err.Error())
			s.clearSession(c)
			return c.Next()
		}

		revoked, err := cache.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "token revocation check failed", "error", err.Error())
		}
		if revoked {
			s.clearSession(c)
			return c.Next()
		}

		id, err := strconv.ParseUint(claims.Subject, 10, 32)
		if err != nil {
			s.clearSession(c)
			return c.Next()
		}

		user, err := s.userService.GetUserByID(ctx, uint(id))
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				s.clearSession(c)
				return c.Next()
			}
			return err
		}

		c.Locals(localUser, user)
		c.Locals(localUserID, user.ID)
		c.SetUserContext(middleware.WithUserID(ctx, user.ID))
		return c.Next()
	}
}

// currentUser returns the identity resolved by Identify, or nil.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

// revokeSession blacklists the token in the session cookie until it expires.
func (s *Server) revokeSession(c *fiber.Ctx) {
	raw := c.Cookies(s.cookieName())
	if raw == "" {
		return
	}
	claims, err := s.parseSession(raw)
	if err != nil || claims.ID == "" {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := cache.RevokeToken(c.UserContext(), claims.ID, ttl); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to revoke session", "error", err.Error())
	}
}
