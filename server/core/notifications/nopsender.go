package notifications

type nopSender struct{}

// NopSender drops every message. Used when SMTP is not configured.
var NopSender EmailSender = &nopSender{}

func (n *nopSender) SendEmail(to, subject, body string) error {
	return nil
}
