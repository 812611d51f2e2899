package seed

import (
	"fmt"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers     int
	PostsPerUser int
	MaxDays      int
	RandSeed     int64
	GroupsFile   string
	ShouldClean  bool
	FastHash     bool
	DryRun       bool
}

// Result summarises what Seed created.
type Result struct {
	Groups int
	Users  int
	Posts  int
}

// Seed upserts the group fixtures, then creates fake users and their posts.
func Seed(db *gorm.DB, opts Options) (Result, error) {
	var res Result
	log := middleware.Logger

	log.Info("starting database seeding", "users", opts.NumUsers, "posts_per_user", opts.PostsPerUser, "dry_run", opts.DryRun)

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			return res, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	fixtures, err := loadFixtures(opts.GroupsFile)
	if err != nil {
		return res, err
	}

	var groups []models.Group
	if opts.DryRun {
		for i, fx := range fixtures {
			groups = append(groups, models.Group{ID: uint(i + 1), Title: fx.Title, Slug: fx.Slug, Description: fx.Description})
		}
	} else if groups, err = Groups(db, fixtures); err != nil {
		return res, err
	}
	res.Groups = len(groups)
	log.Info("groups available", "count", res.Groups)

	f := NewFactory(db, opts)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return res, fmt.Errorf("failed to create user: %w", err)
		}
		res.Users++

		posts := make([]*models.Post, 0, opts.PostsPerUser)
		for j := 0; j < opts.PostsPerUser; j++ {
			posts = append(posts, f.BuildPost(user, f.pickGroup(groups)))
		}
		if err := f.CreatePostsBatch(posts); err != nil {
			return res, fmt.Errorf("failed to create posts for %s: %w", user.Username, err)
		}
		res.Posts += len(posts)
	}

	log.Info("database seeding completed", "groups", res.Groups, "users", res.Users, "posts", res.Posts)
	return res, nil
}

func loadFixtures(path string) ([]GroupFixture, error) {
	if path == "" {
		return DefaultGroups()
	}
	return LoadGroupsFile(path)
}

// clearData removes all posts, groups and users.
func clearData(db *gorm.DB) error {
	middleware.Logger.Warn("clearing existing data")
	return db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Post{}, &models.Group{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
