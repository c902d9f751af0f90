// Package handlers contains the HTTP route handler functions for the Club League API.
// Each handler corresponds to one API endpoint and is responsible for reading the
// request, calling the domain service that owns the operation, and shaping the response.
//
// Every exported function follows the "handler factory" pattern: it takes the
// service it needs and returns a fiber.Handler. Services are accepted as small
// interfaces declared next to the handlers that use them, so tests can swap in fakes.
//
// Handlers never write error bodies themselves. They return *apperr.Error values
// and the app-wide middleware.ErrorHandler turns them into
//
//	{"error": {"code": "<kind>", "message": "<text>"}}
package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/middleware"
	"github.com/trentd187/club-league/internal/models"
)

// validate checks request bodies against their `validate` struct tags.
// Field names in messages are the JSON names the client sent.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := validate.StructCtx(c.UserContext(), dst); err != nil {
		return apperr.Validation("%s", validationMessage(err))
	}
	return nil
}

// validationMessage reports the first failing field, e.g. "league_id is required".
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "invalid request body"
	}
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_without":
		return fmt.Sprintf("%s is required when %s is not set", fe.Field(), strings.ToLower(fe.Param()))
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// actorOf returns the authenticated caller. Reaching a handler without one
// means the route was registered without middleware.Auth.
func actorOf(c *fiber.Ctx) (models.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return models.Actor{}, middleware.ErrNoActor
	}
	return actor, nil
}

// paramUUID reads a UUID route parameter such as :id or :fixtureId.
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("%s must be a valid id", name)
	}
	return id, nil
}

// queryUUID reads an optional UUID query parameter. Absent means nil.
func queryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a valid id", name)
	}
	return &id, nil
}

// parseOptionalDate parses an optional date string ("YYYY-MM-DD") into a *time.Time.
// Returns nil if the input string pointer is nil or empty.
func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, apperr.Validation("%s must be in YYYY-MM-DD format", field)
	}
	return &t, nil
}
