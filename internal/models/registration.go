package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the registration lifecycle state.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
)

// Terminal reports whether the status is a final review decision.
// Terminal registrations are frozen: no further draft edits or review
// transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// PaymentStatus tracks fee payment independently of review status.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Category is a participant class, shared by the principal author and
// each team member. The fee schedule is keyed on it.
type Category string

const (
	CategoryStudent  Category = "UG/PG STUDENTS"
	CategoryFaculty  Category = "FACULTY/RESEARCH SCHOLARS"
	CategoryExternal Category = "EXTERNAL/ONLINE PRESENTATION"
	CategoryIndustry Category = "INDUSTRY PERSONNEL"
)

// PersonalDetails holds the principal author's profile on a registration.
type PersonalDetails struct {
	FullName    string   `json:"full_name"`
	Email       string   `json:"email"`
	Mobile      string   `json:"mobile"`
	Institution string   `json:"institution"`
	Department  string   `json:"department"`
	Category    Category `json:"category"`
}

// TeamMember is one co-author. Slice order is display order only.
type TeamMember struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Affiliation string   `json:"affiliation"`
	Category    Category `json:"category"`
}

// FileRef points at an uploaded manuscript in object storage.
type FileRef struct {
	FileURL      string `json:"file_url"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
	OriginalName string `json:"original_name"`
}

// PaperDetails holds the submitted paper's metadata.
type PaperDetails struct {
	Title            string   `json:"title,omitempty"`
	Abstract         string   `json:"abstract,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	Track            string   `json:"track,omitempty"`
	File             *FileRef `json:"file,omitempty"`
	ReviewStatus     Status   `json:"review_status,omitempty"`
	ReviewerComments string   `json:"reviewer_comments,omitempty"`
}

// Registration is the single per-author conference registration document.
// Nested detail objects are stored as JSONB and merged in application code.
type Registration struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	AuthorID        string          `json:"author_id"`
	PersonalDetails PersonalDetails `json:"personal_details"`
	TeamMembers     []TeamMember    `json:"team_members"`
	PaperDetails    PaperDetails    `json:"paper_details"`
	Status          Status          `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Attended        bool            `json:"attended"`
	AttendedAt      *time.Time      `json:"attended_at,omitempty"`
	TransactionID   string          `json:"transaction_id,omitempty"`
	AmountPaid      int             `json:"amount_paid,omitempty"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Editable reports whether draft fields may still be mutated.
func (r *Registration) Editable() bool {
	return !r.Status.Terminal()
}
