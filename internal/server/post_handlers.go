package server

import (
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index renders the home listing of all posts.
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.postService.Feed(c.UserContext(), c.Query("page"))
	if err != nil {
		return s.handleError(c, err)
	}
	return s.render(c, fiber.StatusOK, "index", fiber.Map{
		"page": page.Map(),
	})
}

// GroupPosts renders the listing of one group's posts.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.postService.GroupFeed(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return s.handleError(c, err)
	}
	return s.render(c, fiber.StatusOK, "group", fiber.Map{
		"group": group,
		"page":  page.Map(),
	})
}

// Profile renders an author's posts with their total post count.
func (s *Server) Profile(c *fiber.Ctx) error {
	author, page, err := s.postService.ProfileFeed(c.UserContext(), c.Params("username"), c.Query("page"))
	if err != nil {
		return s.handleError(c, err)
	}
	return s.render(c, fiber.StatusOK, "profile", fiber.Map{
		"author":         author,
		"page":           page.Map(),
		"posts_quantity": page.Count,
	})
}

// PostView renders a single post. The username in the path must match the author.
func (s *Server) PostView(c *fiber.Ctx) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	post, quantity, err := s.postService.GetPost(c.UserContext(), c.Params("username"), id)
	if err != nil {
		return s.handleError(c, err)
	}
	return s.render(c, fiber.StatusOK, "post", fiber.Map{
		"post":           post,
		"author":         &post.Author,
		"posts_quantity": quantity,
	})
}

func (s *Server) renderPostForm(c *fiber.Ctx, data fiber.Map) error {
	groups, err := s.postService.Groups(c.UserContext())
	if err != nil {
		return s.handleError(c, err)
	}
	data["groups"] = groups
	return s.render(c, fiber.StatusOK, "posts/new", data)
}

// NewPostForm renders an empty post form.
func (s *Server) NewPostForm(c *fiber.Ctx) error {
	if err := service.RequireAuthenticated(currentUser(c)); err != nil {
		return s.handleError(c, err)
	}
	return s.renderPostForm(c, fiber.Map{
		"form":    formContext(nil, nil),
		"is_edit": false,
	})
}

// CreatePost stores a submitted post and redirects home. Invalid submissions
// re-render the form with field errors.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form := postForm(c)
	_, err := s.postService.CreatePost(c.UserContext(), currentUser(c), form)
	if err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return s.renderPostForm(c, fiber.Map{
				"form":    formContext(submittedValues(form), models.FieldErrorsOf(err)),
				"is_edit": false,
			})
		}
		return s.handleError(c, err)
	}
	return c.Redirect("/")
}

// EditPostForm renders the edit form prefilled with the post. Anyone but the
// author is sent to the post view.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	username := c.Params("username")

	post, err := s.postService.EditablePost(c.UserContext(), currentUser(c), username, id)
	if err != nil {
		if models.IsCode(err, models.CodeForbidden) {
			middleware.AuthRedirects.WithLabelValues("not_author").Inc()
			return c.Redirect(postURL(username, id))
		}
		return s.handleError(c, err)
	}
	return s.renderPostForm(c, fiber.Map{
		"form":    formContext(postFormValues(post), nil),
		"post":    post,
		"is_edit": true,
	})
}

// UpdatePost applies a submitted edit and redirects to the post view.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	username := c.Params("username")
	form := postForm(c)

	post, err := s.postService.UpdatePost(c.UserContext(), currentUser(c), username, id, form)
	if err != nil {
		switch {
		case models.IsCode(err, models.CodeForbidden):
			middleware.AuthRedirects.WithLabelValues("not_author").Inc()
			return c.Redirect(postURL(username, id))
		case models.IsCode(err, models.CodeValidation):
			return s.renderPostForm(c, fiber.Map{
				"form":    formContext(submittedValues(form), models.FieldErrorsOf(err)),
				"post":    post,
				"is_edit": true,
			})
		}
		return s.handleError(c, err)
	}
	return c.Redirect(postURL(username, id))
}
