package models

// DeletePolicy describes what happens to posts when a referenced row is deleted.
type DeletePolicy int

const (
	// DeleteCascade removes the dependent posts together with the referenced row.
	DeleteCascade DeletePolicy = iota + 1
	// DeleteSetNull keeps the dependent posts and clears their reference.
	DeleteSetNull
)

func (p DeletePolicy) String() string {
	switch p {
	case DeleteCascade:
		return "cascade"
	case DeleteSetNull:
		return "set_null"
	default:
		return "unknown"
	}
}

// Relationship policies for Post. Repositories apply these explicitly inside
// the deleting transaction; the foreign keys in the schema mirror them.
var (
	PostAuthorPolicy = DeleteCascade
	PostGroupPolicy  = DeleteSetNull
)
