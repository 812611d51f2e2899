package server

import (
	"yatube/internal/featureflags"
	"yatube/internal/pagination"

	"github.com/gofiber/fiber/v2"
)

// Groups renders the directory of all groups, paged like the post listings.
func (s *Server) Groups(c *fiber.Ctx) error {
	var userID uint
	if user := currentUser(c); user != nil {
		userID = user.ID
	}
	if !s.featureFlags.Enabled(featureflags.FlagGroupDirectory, userID) {
		return fiber.ErrNotFound
	}

	groups, err := s.groupService.ListGroups(c.UserContext())
	if err != nil {
		return s.handleError(c, err)
	}
	page := pagination.Paginate(groups, s.postService.PageSize(), c.Query("page"))
	return s.render(c, fiber.StatusOK, "groups", fiber.Map{
		"page": page.Map(),
	})
}
