package models

// Group is a named category a post may optionally belong to.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Slug        string `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Posts       []Post `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"posts,omitempty"`
}

func (g Group) String() string {
	return g.Title
}
