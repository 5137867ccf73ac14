package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/liveboard/internal/application"
)

// Announcement mirrors content/message and active/isActive.
type Announcement struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Message   string     `json:"message"`
	Priority  string     `json:"priority"`
	ExpiresAt *time.Time `json:"expiresAt"`
	Active    bool       `json:"active"`
	IsActive  bool       `json:"isActive"`
	CreatedBy string     `json:"createdBy"`
	UpdatedBy string     `json:"updatedBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// FromAnnouncement converts a stored announcement.
func FromAnnouncement(a application.Announcement) Announcement {
	return Announcement{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		Message:   a.Content,
		Priority:  string(a.Priority),
		ExpiresAt: a.ExpiresAt,
		Active:    a.Active,
		IsActive:  a.Active,
		CreatedBy: a.CreatedBy,
		UpdatedBy: a.UpdatedBy,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// FromAnnouncements converts a list of announcements.
func FromAnnouncements(announcements []application.Announcement) []Announcement {
	out := make([]Announcement, 0, len(announcements))
	for _, a := range announcements {
		out = append(out, FromAnnouncement(a))
	}
	return out
}

// OptionalTime distinguishes an absent field from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON implements json.Unmarshaler. Empty strings clear the value.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expiresAt must be a string: %w", err)
	}
	if raw == "" {
		o.Value = nil
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			o.Value = &t
			return nil
		}
	}
	return fmt.Errorf("expiresAt %q is not an ISO date or date-time", raw)
}

// AnnouncementRequest accepts content or message and active or isActive.
type AnnouncementRequest struct {
	ID        string       `json:"id"`
	Title     *string      `json:"title"`
	Content   *string      `json:"content"`
	Message   *string      `json:"message"`
	Priority  *string      `json:"priority"`
	ExpiresAt OptionalTime `json:"expiresAt"`
	Active    *bool        `json:"active"`
	IsActive  *bool        `json:"isActive"`
}

// Input converts the request, preferring content over message and active over isActive.
func (r AnnouncementRequest) Input() application.AnnouncementInput {
	input := application.AnnouncementInput{
		Title:    r.Title,
		Content:  r.Content,
		Priority: r.Priority,
		Active:   r.Active,
	}
	if input.Content == nil {
		input.Content = r.Message
	}
	if input.Active == nil {
		input.Active = r.IsActive
	}
	if r.ExpiresAt.Set {
		value := r.ExpiresAt.Value
		input.ExpiresAt = &value
	}
	return input
}
