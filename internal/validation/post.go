package validation

import (
	"strconv"
	"strings"

	"yatube/internal/models"
)

// Field messages rendered next to form inputs.
const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// PostForm is a submitted new-post or edit-post form. Group is nil when the
// field was absent from the submission and points to "" when it was left blank.
type PostForm struct {
	Text  string
	Group *string
}

// CleanPost is a PostForm that passed validation.
type CleanPost struct {
	Text         string
	GroupID      *uint
	GroupPresent bool
}

// CleanPostForm validates form. knownGroup reports whether an id names an
// existing group; it is only consulted for syntactically valid ids.
func CleanPostForm(form PostForm, knownGroup func(id uint) bool) (CleanPost, models.FieldErrors) {
	errs := models.FieldErrors{}
	clean := CleanPost{Text: strings.TrimSpace(form.Text)}

	if clean.Text == "" {
		errs.Add("text", MsgRequired)
	}

	if form.Group != nil {
		clean.GroupPresent = true
		raw := strings.TrimSpace(*form.Group)
		if raw != "" {
			id, err := strconv.ParseUint(raw, 10, 0)
			if err != nil || id == 0 || knownGroup == nil || !knownGroup(uint(id)) {
				errs.Add("group", MsgInvalidChoice)
			} else {
				gid := uint(id)
				clean.GroupID = &gid
			}
		}
	}

	if len(errs) > 0 {
		return CleanPost{}, errs
	}
	return clean, nil
}
