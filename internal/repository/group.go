package repository

import (
	"context"

	"yatube/internal/cache"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uint) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository returns a new GroupRepository implementation.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := cache.Aside(ctx, cache.GroupKey(slug), &group, cache.GroupTTL, func() error {
		return translateReadError(readDB(r.db).WithContext(ctx).Where("slug = ?", slug).First(&group).Error, "Group", slug)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := readDB(r.db).WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, translateReadError(err, "Group", id)
	}
	return &group, nil
}

// List returns every group ordered by title, the order used for form choices.
func (r *groupRepository) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := readDB(r.db).WithContext(ctx).Order("title ASC, id ASC").Find(&groups).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.Slug == "" || group.Title == "" {
		return models.NewValidationError("group title and slug are required")
	}
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return translateWriteError(err, "Group", "slug", group.Slug)
	}
	cache.InvalidateGroup(ctx, group.Slug)
	return nil
}

// Delete removes the group. Its posts survive with no group, per models.PostGroupPolicy.
func (r *groupRepository) Delete(ctx context.Context, id uint) error {
	var slug string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, id).Error; err != nil {
			return translateReadError(err, "Group", id)
		}
		slug = group.Slug
		if models.PostGroupPolicy == models.DeleteSetNull {
			if err := tx.Model(&models.Post{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		if err := tx.Delete(&models.Group{}, id).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cache.InvalidateGroup(ctx, slug)
	return nil
}
