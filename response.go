package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// APIError is the error half of the response envelope.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// APIResponse is the envelope every endpoint answers with, success or
// failure.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// RespondError translates any error into the envelope. Rich errors map
// through their embedded HTTP code and text code; ozzo validation
// errors surface field-level details; everything else is a 500 with a
// generic message so internals never leak.
func RespondError(c *fiber.Ctx, logger Logger, err error) error {
	if verrs, ok := err.(validation.Errors); ok {
		return respondValidation(c, verrs)
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		status := richErr.Code
		if status <= 0 {
			status = statusFromCategory(richErr.Category)
		}

		code := richErr.TextCode
		if code == "" {
			code = TextCodeInternal
		}

		if status >= fiber.StatusInternalServerError {
			if logger != nil {
				logger.Error("request failed: %s (category=%s text_code=%s)", richErr.Message, richErr.Category, richErr.TextCode)
			}
			return respondInternal(c)
		}

		return c.Status(status).JSON(APIResponse{
			Success: false,
			Error: &APIError{
				Code:    code,
				Message: richErr.Message,
			},
		})
	}

	if logger != nil {
		logger.Error("unclassified request error: %v", err)
	}

	return respondInternal(c)
}

func respondValidation(c *fiber.Ctx, verrs validation.Errors) error {
	details := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			details[field] = ferr.Error()
		}
	}

	return c.Status(fiber.StatusBadRequest).JSON(APIResponse{
		Success: false,
		Error: &APIError{
			Code:    TextCodeValidation,
			Message: "request validation failed",
			Details: details,
		},
	})
}

func respondInternal(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(APIResponse{
		Success: false,
		Error: &APIError{
			Code:    TextCodeInternal,
			Message: "an unexpected error occurred",
		},
	})
}

func statusFromCategory(category errors.Category) int {
	switch category {
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	case errors.CategoryBadInput, errors.CategoryValidation:
		return fiber.StatusBadRequest
	case errors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}
