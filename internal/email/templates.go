package email

import (
	"fmt"
	"html"

	"github.com/confera/backend/internal/models"
)

// Email types recorded in email_logs and carried on queue jobs.
const (
	TypeSubmission = "submission_received"
	TypeDecision   = "review_decision"
	TypeReceipt    = "payment_receipt"
)

// SubmissionReceived builds the confirmation sent when an author
// submits their registration.
func SubmissionReceived(reg *models.Registration, conferenceName string) (subject, body string) {
	subject = fmt.Sprintf("%s: submission received (%s)", conferenceName, reg.AuthorID)
	body = fmt.Sprintf(
		`<p>Dear %s,</p>
<p>Your registration for %s has been received and is now under review.</p>
<p>Author ID: <b>%s</b><br>Paper: %s</p>
<p>You will be notified once the review is complete.</p>`,
		html.EscapeString(reg.PersonalDetails.FullName),
		html.EscapeString(conferenceName),
		html.EscapeString(reg.AuthorID),
		html.EscapeString(reg.PaperDetails.Title))
	return subject, body
}

// Decision builds the outcome email for an accepted or rejected paper.
func Decision(reg *models.Registration, conferenceName string) (subject, body string) {
	switch reg.Status {
	case models.StatusAccepted:
		subject = fmt.Sprintf("%s: paper accepted (%s)", conferenceName, reg.AuthorID)
		body = fmt.Sprintf(
			`<p>Dear %s,</p>
<p>Congratulations, your paper <b>%s</b> has been accepted for %s.</p>
<p>Please log in to the portal to complete your registration fee payment.</p>`,
			html.EscapeString(reg.PersonalDetails.FullName),
			html.EscapeString(reg.PaperDetails.Title),
			html.EscapeString(conferenceName))
	case models.StatusRejected:
		subject = fmt.Sprintf("%s: review decision (%s)", conferenceName, reg.AuthorID)
		body = fmt.Sprintf(
			`<p>Dear %s,</p>
<p>We regret to inform you that your paper <b>%s</b> was not accepted for %s.</p>`,
			html.EscapeString(reg.PersonalDetails.FullName),
			html.EscapeString(reg.PaperDetails.Title),
			html.EscapeString(conferenceName))
	default:
		subject = fmt.Sprintf("%s: registration update (%s)", conferenceName, reg.AuthorID)
		body = fmt.Sprintf(
			`<p>Dear %s,</p><p>Your registration status is now: %s.</p>`,
			html.EscapeString(reg.PersonalDetails.FullName),
			html.EscapeString(string(reg.Status)))
	}
	if reg.PaperDetails.ReviewerComments != "" {
		body += fmt.Sprintf("<p>Reviewer remarks: %s</p>", html.EscapeString(reg.PaperDetails.ReviewerComments))
	}
	return subject, body
}

// PaymentReceipt builds the receipt sent after a completed fee payment.
func PaymentReceipt(reg *models.Registration, conferenceName string) (subject, body string) {
	subject = fmt.Sprintf("%s: payment received (%s)", conferenceName, reg.AuthorID)
	body = fmt.Sprintf(
		`<p>Dear %s,</p>
<p>Your registration fee payment for %s has been received.</p>
<p>Amount: INR %d<br>Transaction ID: %s<br>Author ID: %s</p>
<p>Your registration is now complete. We look forward to seeing you at the conference.</p>`,
		html.EscapeString(reg.PersonalDetails.FullName),
		html.EscapeString(conferenceName),
		reg.AmountPaid,
		html.EscapeString(reg.TransactionID),
		html.EscapeString(reg.AuthorID))
	return subject, body
}
