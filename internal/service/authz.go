package service

import "yatube/internal/models"

// RequireAuthenticated fails with UNAUTHENTICATED when there is no identity.
func RequireAuthenticated(identity *models.User) error {
	if identity == nil || identity.ID == 0 {
		return models.NewUnauthenticatedError("Authentication required")
	}
	return nil
}

// RequireAuthor fails with FORBIDDEN unless identity wrote post. Anonymous
// callers are also FORBIDDEN here, so the edit flow sends them to the post view.
func RequireAuthor(identity *models.User, post *models.Post) error {
	if post == nil || !identity.Is(&models.User{ID: post.AuthorID}) {
		return models.NewForbiddenError("You can only edit your own posts")
	}
	return nil
}
