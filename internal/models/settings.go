package models

import "time"

// Settings is the single conference-wide configuration row. It is loaded
// explicitly and passed into the operations that need it (fee lookup,
// registration-open check) rather than read as ambient global state.
type Settings struct {
	ConferenceName     string         `json:"conference_name"`
	AuthorIDPrefix     string         `json:"author_id_prefix"`
	RegistrationOpen   bool           `json:"registration_open"`
	SubmissionDeadline *time.Time     `json:"submission_deadline,omitempty"`
	FeeOverrides       map[string]int `json:"fee_overrides,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
