package utils

import (
	"github.com/gofiber/fiber/v2"
)

// SuccessResponse sends a success JSON response
func SuccessResponse(c *fiber.Ctx, data any, message string, code ...int) error {
	statusCode := fiber.StatusOK
	if len(code) > 0 {
		statusCode = code[0]
	}

	body := fiber.Map{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}

	return c.Status(statusCode).JSON(body)
}

// ErrorResponse sends an error JSON response built from apiErr.
// An explicit status code overrides apiErr.Status for this response only; apiErr is never modified.
// The JSON body contains the fields "success": false and "error": {code, message}.
func ErrorResponse(c *fiber.Ctx, apiErr *APIError, code ...int) error {
	if apiErr == nil {
		apiErr = ErrInternalServer
	}

	statusCode := apiErr.Status
	if len(code) > 0 {
		statusCode = code[0]
	}
	if statusCode == 0 {
		statusCode = fiber.StatusInternalServerError
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"success": false,
		"error":   apiErr,
	})
}
