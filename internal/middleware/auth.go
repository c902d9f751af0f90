// Package middleware contains HTTP middleware functions for the Club League API.
// Middleware sits between the HTTP server and route handlers. It runs on every
// request that passes through it, making it the right place for cross-cutting
// concerns like authentication, logging, and rate limiting.
package middleware

import (
	"context"
	"errors"
	"strings"

	// fiber is the HTTP framework; fiber.Handler is the function signature for middleware
	"github.com/gofiber/fiber/v2"
	// jwt parses and verifies JSON Web Tokens from the Authorization header
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

// actorKey is the c.Locals key the authenticated caller is stored under.
const actorKey = "actor"

// ActorLoader resolves a user ID from a verified token into the caller with
// their platform roles. repository.Users implements it.
type ActorLoader interface {
	LoadActor(ctx context.Context, userID uuid.UUID) (models.Actor, error)
}

// Auth returns a Fiber middleware handler that:
//  1. Reads the token from the "Authorization: Bearer <token>" header
//  2. Verifies its HS256 signature and expiry against secret
//  3. Loads the user named by the "sub" claim along with their roles
//  4. Stores the resulting models.Actor in c.Locals for handlers to read
//
// Any failure ends the request with 401. Identity itself is issued elsewhere;
// this service only trusts tokens signed with the shared secret.
func Auth(secret string, users ActorLoader) fiber.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "missing or invalid authorization header")
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		var claims jwt.RegisteredClaims
		_, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil {
			return unauthorized(c, "invalid token")
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return unauthorized(c, "token subject is not a user id")
		}

		actor, err := users.LoadActor(c.UserContext(), userID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return unauthorized(c, "unknown user")
			}
			return err
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// ActorFrom returns the caller stored by Auth. The second result is false on
// routes Auth did not run on.
func ActorFrom(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals(actorKey).(models.Actor)
	return actor, ok
}

// ErrNoActor is returned by handlers reached without Auth in front of them.
var ErrNoActor = errors.New("no authenticated actor on request")

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{"code": "unauthenticated", "message": msg},
	})
}
