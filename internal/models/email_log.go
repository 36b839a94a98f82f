package models

import (
	"time"

	"github.com/google/uuid"
)

// Email delivery outcomes.
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog records one outbound email attempt for auditing.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	RegistrationID *uuid.UUID `json:"registration_id,omitempty"`
	Recipient      string     `json:"recipient"`
	Subject        string     `json:"subject"`
	EmailType      string     `json:"email_type"`
	Status         string     `json:"status"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
