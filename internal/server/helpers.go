package server

import (
	"fmt"
	"net/url"
	"strings"

	"yatube/internal/models"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	csrfField      = "csrf_token"
	csrfContextKey = "csrf"
	loginPath      = "/auth/login/"
)

// render executes the named template with the identity and CSRF token added
// to data.
func (s *Server) render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["user"] = currentUser(c)
	token, _ := c.Locals(csrfContextKey).(string)
	data["csrf_token"] = token
	return c.Status(status).Render(name, data)
}

// loginURL returns the login page URL that leads back to next.
func loginURL(next string) string {
	return loginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// postURL returns the post view path.
func postURL(username string, id uint) string {
	return fmt.Sprintf("/%s/%d/", url.PathEscape(username), id)
}

// safeNext accepts only local absolute paths. Anything else falls back to "/".
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return "/"
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}

// formHas reports whether the submitted form carries field, even when empty.
func formHas(c *fiber.Ctx, field string) bool {
	if c.Request().PostArgs().Has(field) {
		return true
	}
	if form, err := c.MultipartForm(); err == nil {
		_, ok := form.Value[field]
		return ok
	}
	return false
}

// postForm reads the post form fields from the request body.
func postForm(c *fiber.Ctx) validation.PostForm {
	form := validation.PostForm{Text: c.FormValue("text")}
	if formHas(c, "group") {
		group := c.FormValue("group")
		form.Group = &group
	}
	return form
}

// postID parses the post_id route parameter.
func postID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("post_id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "post not found")
	}
	return uint(id), nil
}

// formContext builds the "form" template value from submitted values and errors.
func formContext(values fiber.Map, errs models.FieldErrors) fiber.Map {
	if values == nil {
		values = fiber.Map{}
	}
	if errs == nil {
		errs = models.FieldErrors{}
	}
	return fiber.Map{"values": values, "errors": errs}
}

// postFormValues returns the form values for a post, used to prefill the edit form.
func postFormValues(post *models.Post) fiber.Map {
	group := ""
	if post.GroupID != nil {
		group = fmt.Sprint(*post.GroupID)
	}
	return fiber.Map{"text": post.Text, "group": group}
}

// submittedValues echoes a submitted post form back into the template.
func submittedValues(form validation.PostForm) fiber.Map {
	group := ""
	if form.Group != nil {
		group = *form.Group
	}
	return fiber.Map{"text": form.Text, "group": group}
}
