// Package service implements the application's use cases on top of the repositories.
package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// PostPage is one page of a post listing.
type PostPage = pagination.Page[models.Post]

type PostService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	pageSize  int
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	pageSize int,
) *PostService {
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	return &PostService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		userRepo:  userRepo,
		pageSize:  pageSize,
	}
}

// PageSize returns the number of posts per listing page.
func (s *PostService) PageSize() int {
	return s.pageSize
}

func (s *PostService) page(ctx context.Context, filter repository.PostFilter, rawPage string) (PostPage, error) {
	return pagination.Fetch[models.Post](ctx, s.pageSize, rawPage,
		func(ctx context.Context) (int64, error) {
			return s.postRepo.Count(ctx, filter)
		},
		func(ctx context.Context, limit, offset int) ([]models.Post, error) {
			return s.postRepo.List(ctx, filter, limit, offset)
		},
	)
}

// Feed returns a page of all posts, newest first.
func (s *PostService) Feed(ctx context.Context, rawPage string) (PostPage, error) {
	return s.page(ctx, repository.PostFilter{}, rawPage)
}

// GroupFeed returns the group named by slug and a page of its posts.
func (s *PostService) GroupFeed(ctx context.Context, slug, rawPage string) (*models.Group, PostPage, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, PostPage{}, err
	}
	page, err := s.page(ctx, repository.PostFilter{GroupID: &group.ID}, rawPage)
	if err != nil {
		return nil, PostPage{}, err
	}
	return group, page, nil
}

// ProfileFeed returns the author named by username and a page of their posts.
// The page Count is the author's total number of posts.
func (s *PostService) ProfileFeed(ctx context.Context, username, rawPage string) (*models.User, PostPage, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, PostPage{}, err
	}
	page, err := s.page(ctx, repository.PostFilter{AuthorID: &author.ID}, rawPage)
	if err != nil {
		return nil, PostPage{}, err
	}
	return author, page, nil
}

// GetPost returns post id by username along with the author's post count.
func (s *PostService) GetPost(ctx context.Context, username string, id uint) (*models.Post, int64, error) {
	post, err := s.postRepo.GetByAuthorAndID(ctx, username, id)
	if err != nil {
		return nil, 0, err
	}
	quantity, err := s.postRepo.Count(ctx, repository.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		return nil, 0, err
	}
	return post, quantity, nil
}

// EditablePost loads a post for editing. NOT_FOUND wins over FORBIDDEN.
func (s *PostService) EditablePost(ctx context.Context, identity *models.User, username string, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByAuthorAndID(ctx, username, id)
	if err != nil {
		return nil, err
	}
	if err := RequireAuthor(identity, post); err != nil {
		return post, err
	}
	return post, nil
}

// Groups lists the choices offered by the post form.
func (s *PostService) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

func (s *PostService) clean(ctx context.Context, form validation.PostForm) (validation.CleanPost, error) {
	var known map[uint]struct{}
	if form.Group != nil {
		groups, err := s.groupRepo.List(ctx)
		if err != nil {
			return validation.CleanPost{}, err
		}
		known = make(map[uint]struct{}, len(groups))
		for _, g := range groups {
			known[g.ID] = struct{}{}
		}
	}

	clean, fieldErrs := validation.CleanPostForm(form, func(id uint) bool {
		_, ok := known[id]
		return ok
	})
	if fieldErrs != nil {
		return validation.CleanPost{}, models.NewFieldValidationError(fieldErrs)
	}
	return clean, nil
}

// CreatePost validates form and stores a new post authored by identity.
func (s *PostService) CreatePost(ctx context.Context, identity *models.User, form validation.PostForm) (post *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "post_service", "create")
	defer func() { finish(err) }()

	if err := RequireAuthenticated(identity); err != nil {
		return nil, err
	}

	clean, err := s.clean(ctx, form)
	if err != nil {
		observability.FormRejections.WithLabelValues("create").Inc()
		return nil, err
	}

	post = &models.Post{
		Text:     clean.Text,
		AuthorID: identity.ID,
		GroupID:  clean.GroupID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = *identity

	observability.PostWrites.WithLabelValues("create").Inc()
	return post, nil
}

// UpdatePost applies form to the post if identity wrote it. The group changes
// only when the group field was submitted. Author and pub_date never change.
// The stored post is returned with its author and group loaded.
func (s *PostService) UpdatePost(ctx context.Context, identity *models.User, username string, id uint, form validation.PostForm) (post *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "post_service", "update", attribute.Int("post.id", int(id)))
	defer func() { finish(err) }()

	post, err = s.EditablePost(ctx, identity, username, id)
	if err != nil {
		return post, err
	}

	clean, err := s.clean(ctx, form)
	if err != nil {
		observability.FormRejections.WithLabelValues("update").Inc()
		return post, err
	}

	post.Text = clean.Text
	if clean.GroupPresent {
		post.GroupID = clean.GroupID
		post.Group = nil
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return post, err
	}

	observability.PostWrites.WithLabelValues("update").Inc()
	return s.postRepo.GetByID(ctx, post.ID)
}
