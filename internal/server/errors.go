package server

import (
	"errors"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// handleError maps a service error onto the HTTP response for page handlers.
// Validation errors are handled by the form handlers before reaching here.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return err
	}

	switch appErr.Code {
	case models.CodeNotFound:
		return fiber.NewError(fiber.StatusNotFound, appErr.Message)
	case models.CodeUnauthenticated:
		middleware.AuthRedirects.WithLabelValues("login").Inc()
		return c.Redirect(loginURL(c.OriginalURL()))
	case models.CodeValidation:
		return fiber.NewError(fiber.StatusBadRequest, appErr.Message)
	default:
		return err
	}
}

// errorHandler is the fiber ErrorHandler. Not-found and internal errors render
// pages; other fiber errors are returned as plain text with their status.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else if models.IsCode(err, models.CodeNotFound) {
		code = fiber.StatusNotFound
	}

	switch {
	case code == fiber.StatusNotFound:
		if rerr := s.render(c, code, "errors/404", fiber.Map{"path": c.Path()}); rerr == nil {
			return nil
		}
		return c.Status(code).SendString("Not Found")
	case code >= fiber.StatusInternalServerError:
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
			"path", c.Path(), "method", c.Method(), "error", err.Error())
		if rerr := s.render(c, code, "errors/500", nil); rerr == nil {
			return nil
		}
		return c.Status(code).SendString("Internal server error")
	default:
		return c.Status(code).SendString(message)
	}
}
