package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types surfaced in the author's in-app feed.
const (
	NotificationSubmission = "submission"
	NotificationReview     = "review"
	NotificationPayment    = "payment"
	NotificationBroadcast  = "broadcast"
)

// Notification is one entry in a user's in-app notification feed.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Link      string     `json:"link,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
