package middleware

import (
	"strconv"
	"strings"
	"time"

	"guildlink/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionIssuer is the issuer expected on session tokens minted by the OAuth front.
	SessionIssuer = "guildlink-oauth"
	// SessionAudience is the audience expected on session tokens.
	SessionAudience = "guildlink-api"

	sessionLocal = "session"
)

// SessionClaims carries the tokens obtained during the OAuth handshakes.
type SessionClaims struct {
	IdentityToken string `json:"identity_token"`
	ChatID        string `json:"chat_id"`
	ChatToken     string `json:"chat_token"`
	jwt.RegisteredClaims
}

// Session is the authenticated request context stored in fiber locals.
type Session struct {
	VID           int64
	IdentityToken string
	ChatID        string
	ChatToken     string
	TokenID       string
	ExpiresAt     time.Time
}

// SessionFrom returns the session stored by SessionRequired.
func SessionFrom(c *fiber.Ctx) (*Session, bool) {
	s, ok := c.Locals(sessionLocal).(*Session)
	return s, ok
}

// BlacklistKey is the Redis key marking a revoked session token id.
func BlacklistKey(jti string) string {
	return "session_blacklist:" + jti
}

// ParseSession validates a signed session token and returns its claims.
func ParseSession(tokenString, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(SessionIssuer),
		jwt.WithAudience(SessionAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired session")
	}
	return claims, nil
}

// SessionRequired authenticates the bearer session token and stores the Session in locals.
// Revoked token ids are rejected when rdb is available.
func SessionRequired(secret string, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ""
		if parts := strings.Split(c.Get("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := ParseSession(tokenString, secret)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		vid, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || vid <= 0 {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid member id in session"))
		}
		if claims.IdentityToken == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Session is missing the identity token"))
		}

		if claims.ID != "" && rdb != nil {
			revoked, err := rdb.Exists(c.UserContext(), BlacklistKey(claims.ID)).Result()
			if err == nil && revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Session has been revoked"))
			}
		}

		c.Locals(sessionLocal, &Session{
			VID:           vid,
			IdentityToken: claims.IdentityToken,
			ChatID:        claims.ChatID,
			ChatToken:     claims.ChatToken,
			TokenID:       claims.ID,
			ExpiresAt:     claims.ExpiresAt.Time,
		})
		c.Locals("vid", vid)
		c.SetUserContext(WithVID(c.UserContext(), vid))

		return c.Next()
	}
}
