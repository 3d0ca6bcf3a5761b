package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	codeValidation   = "VALIDATION_ERROR"
	codeUnauthorized = "UNAUTHORIZED"
	codeNotFound     = "NOT_FOUND"
	codeConflict     = "RUN_ACTIVE"
	codeService      = "SERVICE_ERROR"
)

func writeError(c *fiber.Ctx, status int, code, message string, details map[string]string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: details},
	})
}

func validationError(c *fiber.Ctx, message string, details map[string]string) error {
	return writeError(c, fiber.StatusBadRequest, codeValidation, message, details)
}

func serviceError(c *fiber.Ctx, err error) error {
	return writeError(c, fiber.StatusInternalServerError, codeService, err.Error(), nil)
}

func formatValidationErrors(err error) map[string]string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
