package repository

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
)

// PostFilter restricts listings to a group and/or an author. Nil fields match everything.
type PostFilter struct {
	GroupID  *uint
	AuthorID *uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByAuthorAndID(ctx context.Context, username string, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	Update(ctx context.Context, post *models.Post) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if strings.TrimSpace(post.Text) == "" {
		return models.NewValidationError("post text is required")
	}
	if err := r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		return translateWriteError(err, "Post", "id", post.ID)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := readDB(r.db).WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		return nil, translateReadError(err, "Post", id)
	}
	return &post, nil
}

// GetByAuthorAndID loads post id only when it was written by username.
func (r *postRepository) GetByAuthorAndID(ctx context.Context, username string, id uint) (*models.Post, error) {
	var post models.Post
	err := readDB(r.db).WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Where("id = ? AND author_id = (SELECT id FROM users WHERE username = ?)", id, username).
		First(&post).Error
	if err != nil {
		return nil, translateReadError(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error) {
	defer observability.TrackQuery("list", "posts")()

	var posts []models.Post
	err := applyPostFilter(readDB(r.db).WithContext(ctx), filter).
		Preload("Author").
		Preload("Group").
		Order(models.DefaultPostOrder).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	defer observability.TrackQuery("count", "posts")()

	var count int64
	if err := applyPostFilter(readDB(r.db).WithContext(ctx).Model(&models.Post{}), filter).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// Update persists the editable fields of post: text and group. Author and
// publication date are never changed here.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if post.ID == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	if strings.TrimSpace(post.Text) == "" {
		return models.NewValidationError("post text is required")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id").
		Updates(map[string]interface{}{"text": post.Text, "group_id": post.GroupID})
	if result.Error != nil {
		return translateWriteError(result.Error, "Post", "id", post.ID)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

func applyPostFilter(db *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.GroupID != nil {
		db = db.Where("group_id = ?", *filter.GroupID)
	}
	if filter.AuthorID != nil {
		db = db.Where("author_id = ?", *filter.AuthorID)
	}
	return db
}
