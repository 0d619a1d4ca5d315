package domain

import "github.com/google/uuid"

// Settings is the shared follow-up configuration document.
type Settings struct {
	ID              string     `json:"-"`
	FollowUpOptions []string   `json:"followUpOptions"`
	DefaultFollowUp string     `json:"defaultFollowUp"`
	UpdatedBy       *uuid.UUID `json:"updatedBy,omitempty"`
}

// RecordID returns the document id.
func (s Settings) RecordID() string { return s.ID }

// Settings document field names.
const (
	SettingsFieldFollowUpOptions = "followUpOptions"
	SettingsFieldDefaultFollowUp = "defaultFollowUp"
	SettingsFieldUpdatedBy       = "updatedBy"
)
