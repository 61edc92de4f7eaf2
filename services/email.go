package services

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail/v2"
	"go.uber.org/zap"

	"turing-review/config"
)

// DecisionLabels übersetzt die Editor-Entscheidung in lesbare Betreffzeilen.
var DecisionLabels = map[string]string{
	"accept":         "Accepted for Publication",
	"minor_revision": "Minor Revision Requested",
	"major_revision": "Major Revision Requested",
	"reject":         "Rejected",
}

// MailService verschickt Entscheidungs-Benachrichtigungen an die Autoren.
// Versand ist best-effort: Fehler werden geloggt, blockieren aber nie die
// Review-Pipeline.
type MailService struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewMailService erstellt eine neue Instanz des MailService.
func NewMailService(cfg *config.Config, logger *zap.Logger) *MailService {
	return &MailService{Config: cfg, Logger: logger}
}

// SendDecisionEmail informiert den Autor über die redaktionelle
// Entscheidung zu seinem Paper.
func (m *MailService) SendDecisionEmail(to string, paperID uint, title, finalDecision string) error {
	if to == "" {
		return nil
	}
	if m.Config.SMTPUser == "" || m.Config.SMTPPassword == "" {
		m.Logger.Debug("SMTP not configured, skipping decision email",
			zap.Uint("paper_id", paperID))
		return nil
	}

	label, ok := DecisionLabels[finalDecision]
	if !ok {
		label = finalDecision
	}

	paperURL := fmt.Sprintf("%s/papers/%d", m.Config.SiteURL, paperID)
	html := fmt.Sprintf(`<html><body>
<h2>Editorial Decision: %s</h2>
<p>Dear author,</p>
<p>The review of your submission has been completed.</p>
<p><b>Title:</b> %s<br>
<b>Decision:</b> %s</p>
<p>You can read the full reviews and the decision letter here:<br>
<a href="%s">%s</a></p>
<p>Thank you for your submission.</p>
</body></html>`, label, title, label, paperURL, paperURL)

	msg := mail.NewMessage()
	msg.SetHeader("From", m.Config.SMTPFrom)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("[Paper #%d] %s", paperID, label))
	msg.SetBody("text/html", html)

	d := mail.NewDialer(m.Config.SMTPHost, m.Config.SMTPPort, m.Config.SMTPUser, m.Config.SMTPPassword)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{ServerName: m.Config.SMTPHost}

	if err := d.DialAndSend(msg); err != nil {
		m.Logger.Warn("Failed to send decision email",
			zap.Uint("paper_id", paperID),
			zap.Error(err))
		return err
	}
	m.Logger.Info("Decision email sent",
		zap.Uint("paper_id", paperID),
		zap.String("decision", finalDecision))
	return nil
}
