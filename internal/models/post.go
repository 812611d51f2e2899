package models

import "time"

// labelLength is the number of characters of Text used as a post's label.
const labelLength = 15

// Post is an authored text entry with optional group membership.
// Posts are listed newest first unless a caller overrides the order.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;not null;index" json:"pub_date"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}

// DefaultPostOrder is the ORDER BY clause applied to post listings.
const DefaultPostOrder = "pub_date DESC, id DESC"

func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > labelLength {
		return string(runes[:labelLength])
	}
	return p.Text
}
