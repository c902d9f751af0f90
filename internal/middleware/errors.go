package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/trentd187/club-league/internal/apperr"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:    fiber.StatusBadRequest,
	apperr.KindNotFound:      fiber.StatusNotFound,
	apperr.KindAuthorization: fiber.StatusForbidden,
	apperr.KindConflict:      fiber.StatusConflict,
	apperr.KindPersistence:   fiber.StatusInternalServerError,
}

// statusFor maps an error returned by a handler to its HTTP status.
// *fiber.Error (unknown route, bad method, oversized body) keeps its own code.
func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return kindStatus[apperr.KindOf(err)]
}

// ErrorHandler is the app-wide fiber.ErrorHandler. Domain errors become
//
//	{"error": {"code": "<kind>", "message": "<text>"}}
//
// with the status for their kind. Persistence failures are logged with their
// cause and answered with a generic message.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := statusFor(err)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(status).JSON(fiber.Map{
				"error": fiber.Map{"code": "http_error", "message": fe.Message},
			})
		}

		kind := apperr.KindOf(err)
		message := "internal server error"
		var appErr *apperr.Error
		if errors.As(err, &appErr) && kind != apperr.KindPersistence {
			message = appErr.Message
		}
		if kind == apperr.KindPersistence {
			logger.Error().Err(err).
				Str("path", c.Path()).
				Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
				Msg("request failed")
		}
		return c.Status(status).JSON(fiber.Map{
			"error": fiber.Map{"code": string(kind), "message": message},
		})
	}
}
