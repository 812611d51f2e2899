package seed

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"yatube/internal/models"
	"yatube/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupFixture is one group entry of a fixtures file.
type GroupFixture struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

//go:embed groups.yml
var defaultGroups []byte

// DefaultGroups returns the built-in group fixtures.
func DefaultGroups() ([]GroupFixture, error) {
	return ParseGroups(defaultGroups)
}

// ParseGroups decodes and validates a YAML list of groups.
func ParseGroups(data []byte) ([]GroupFixture, error) {
	var groups []GroupFixture
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("decode group fixtures: %w", err)
	}

	seen := make(map[string]struct{}, len(groups))
	for i, g := range groups {
		if err := validation.ValidateGroupSlug(g.Slug); err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		if err := validation.ValidateGroupTitle(g.Title); err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Slug, err)
		}
		if _, dup := seen[g.Slug]; dup {
			return nil, fmt.Errorf("group %q listed twice", g.Slug)
		}
		seen[g.Slug] = struct{}{}
	}
	return groups, nil
}

// LoadGroups reads group fixtures from r.
func LoadGroups(r io.Reader) ([]GroupFixture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseGroups(data)
}

// LoadGroupsFile reads group fixtures from path.
func LoadGroupsFile(path string) ([]GroupFixture, error) {
	f, err := os.Open(path) // #nosec G304: operator supplied fixtures path
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadGroups(f)
}

// Groups upserts fixtures by slug and returns the stored rows in fixture order.
// Existing groups keep their id and posts; title and description are refreshed.
func Groups(db *gorm.DB, fixtures []GroupFixture) ([]models.Group, error) {
	out := make([]models.Group, 0, len(fixtures))
	for _, item := range fixtures {
		group := models.Group{
			Title:       item.Title,
			Slug:        item.Slug,
			Description: item.Description,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description"}),
		}).Create(&group).Error; err != nil {
			return nil, fmt.Errorf("upsert group %q: %w", item.Slug, err)
		}

		// Some drivers do not report the id of an updated row.
		if err := db.Where("slug = ?", item.Slug).First(&group).Error; err != nil {
			return nil, err
		}
		out = append(out, group)
	}
	return out, nil
}
