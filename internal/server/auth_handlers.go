package server

import (
	"yatube/internal/featureflags"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// MsgPasswordMismatch is shown when the signup passwords differ.
const MsgPasswordMismatch = "The two password fields didn't match."

// signupEnabled hides the signup routes when open signup is switched off.
func (s *Server) signupEnabled(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.FlagOpenSignup, 0) {
		return fiber.ErrNotFound
	}
	return c.Next()
}

// LoginForm renders the login page.
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "auth/login", fiber.Map{
		"form": formContext(nil, nil),
		"next": safeNext(c.Query("next")),
	})
}

// Login checks credentials, starts a session and redirects to next.
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := safeNext(c.FormValue("next", c.Query("next")))

	user, err := s.userService.Authenticate(c.UserContext(), username, c.FormValue("password"))
	if err != nil {
		if models.IsCode(err, models.CodeUnauthenticated) {
			errs := models.FieldErrors{}
			errs.Add("__all__", service.MsgBadCredentials)
			return s.render(c, fiber.StatusOK, "auth/login", fiber.Map{
				"form": formContext(fiber.Map{"username": username}, errs),
				"next": next,
			})
		}
		return s.handleError(c, err)
	}

	if err := s.issueSession(c, user); err != nil {
		return err
	}
	return c.Redirect(next)
}

// SignupForm renders the registration page.
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "auth/signup", fiber.Map{
		"form": formContext(nil, nil),
	})
}

// Signup registers an account, signs it in and redirects home.
func (s *Server) Signup(c *fiber.Ctx) error {
	in := service.RegisterInput{
		Username:  c.FormValue("username"),
		Password:  c.FormValue("password"),
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
	}
	values := fiber.Map{
		"username":   in.Username,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
	}

	if in.Password != c.FormValue("password_confirm") {
		errs := models.FieldErrors{}
		errs.Add("password_confirm", MsgPasswordMismatch)
		return s.render(c, fiber.StatusOK, "auth/signup", fiber.Map{
			"form": formContext(values, errs),
		})
	}

	user, err := s.userService.Register(c.UserContext(), in)
	if err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return s.render(c, fiber.StatusOK, "auth/signup", fiber.Map{
				"form": formContext(values, models.FieldErrorsOf(err)),
			})
		}
		return s.handleError(c, err)
	}

	if err := s.issueSession(c, user); err != nil {
		return err
	}
	return c.Redirect("/")
}

// Logout revokes the current session token and clears the cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.revokeSession(c)
	s.clearSession(c)
	return c.Redirect("/")
}
