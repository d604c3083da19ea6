package model

import "time"

const (
	DefaultMemberColor     = "#4A90D9"
	PlaceholderMemberColor = "#999999"
)

type TeamMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMemberPatch holds the fields of a partial update. Nil fields are left
// untouched.
type TeamMemberPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// Apply returns a copy of m with the patch merged in.
func (p TeamMemberPatch) Apply(m TeamMember) TeamMember {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Color != nil {
		m.Color = *p.Color
	}
	return m
}
