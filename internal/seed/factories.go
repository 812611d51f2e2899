// Package seed creates demo data for development databases.
package seed

import (
	"fmt"
	"strings"
	"time"

	"yatube/internal/models"
	"yatube/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password given to every seeded account.
const DefaultPassword = "Yatube-Seed-2024"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	fake *gofakeit.Faker
	// synthetic ID counter when running in DryRun mode
	nextID uint
	hash   string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
// A zero opts.RandSeed picks a random seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	return &Factory{db: db, opts: opts, fake: gofakeit.New(opts.RandSeed), nextID: 1000}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.FastHash {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", err
	}
	f.hash = string(hashed)
	return f.hash, nil
}

// username returns a fake username accepted by validation.ValidateUsername.
func (f *Factory) username() string {
	for i := 0; i < 10; i++ {
		var b strings.Builder
		for _, r := range strings.ToLower(f.fake.Username()) {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		name := fmt.Sprintf("%s%d", b.String(), f.fake.Number(100, 9999))
		if validation.ValidateUsername(name) == nil {
			return name
		}
	}
	return fmt.Sprintf("user%d", f.fake.Number(100000, 999999))
}

// BuildUser constructs a user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:  f.username(),
		Password:  hash,
		FirstName: f.fake.FirstName(),
		LastName:  f.fake.LastName(),
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post by author, optionally in group, with a
// publication date spread over the last MaxDays days. It is not persisted.
func (f *Factory) BuildPost(author *models.User, group *models.Group, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Text:     f.fake.Paragraph(1, f.fake.Number(1, 4), 12, "\n"),
		AuthorID: author.ID,
	}
	if group != nil {
		post.GroupID = &group.ID
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.fake.Number(0, maxDays*24*60-1)) * time.Minute
	post.PubDate = time.Now().Add(-back)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		return nil
	}
	return f.db.Omit("Author", "Group").CreateInBatches(posts, 200).Error
}

// CreatePost constructs and persists a sample post for author.
func (f *Factory) CreatePost(author *models.User, group *models.Group, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, group, overrides...)
	if err := f.CreatePostsBatch([]*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// pickGroup returns a random group or nil; roughly a third of posts have no group.
func (f *Factory) pickGroup(groups []models.Group) *models.Group {
	if len(groups) == 0 || f.fake.Number(0, 2) == 0 {
		return nil
	}
	return &groups[f.fake.Number(0, len(groups)-1)]
}
