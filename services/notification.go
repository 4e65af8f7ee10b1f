package services

import (
	"fmt"
	"log"

	"penaltybox-backend/config"
	"penaltybox-backend/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notifier sends email notifications via SendGrid. Without an API key it
// is a silent no-op, so every caller can fire-and-forget.
type Notifier struct {
	client  *sendgrid.Client
	from    *mail.Email
	appName string
}

func NewNotifier(cfg *config.Config) *Notifier {
	n := &Notifier{appName: cfg.AppName}
	if cfg.SendGridAPIKey == "" {
		log.Println("⚠️  SENDGRID_API_KEY not set, email notifications disabled")
		return n
	}
	n.client = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	n.from = mail.NewEmail(cfg.AppName, cfg.SendGridFrom)
	return n
}

func (n *Notifier) PenaltyAssigned(user models.User, group models.Group, rule models.Rule) {
	subject := fmt.Sprintf("New penalty in %s", group.Name)
	body := fmt.Sprintf(
		"Hi %s,\n\nYou received a penalty in %s: \"%s\" (%.2f).\n\nUpload a payment proof to settle it.\n\n— %s",
		user.Name, group.Name, rule.Title, rule.Amount, n.appName,
	)
	n.send(user, subject, body)
}

func (n *Notifier) ProofReviewed(user models.User, proof models.Proof, approved bool) {
	verdict := "declined"
	if approved {
		verdict = "approved"
	}
	subject := fmt.Sprintf("Your payment proof was %s", verdict)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour payment proof has been %s.", user.Name, verdict)
	if proof.AdminNote != "" {
		body += fmt.Sprintf("\n\nAdmin note: %s", proof.AdminNote)
	}
	body += fmt.Sprintf("\n\n— %s", n.appName)
	n.send(user, subject, body)
}

func (n *Notifier) send(to models.User, subject, body string) {
	if n.client == nil {
		return
	}
	message := mail.NewSingleEmail(n.from, subject, mail.NewEmail(to.Name, to.Email), body, "")
	resp, err := n.client.Send(message)
	if err != nil {
		log.Printf("❌ Failed to send email to %s: %v", to.Email, err)
		return
	}
	if resp.StatusCode >= 300 {
		log.Printf("❌ SendGrid returned %d for email to %s", resp.StatusCode, to.Email)
	}
}
