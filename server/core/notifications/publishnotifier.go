package notifications

import (
	"fmt"
	"sync"
	"time"

	"github.com/soundpost/soundpost/server/core/ccc/logging"
)

// maxReasonLength bounds the publisher diagnostics quoted in an alert mail.
const maxReasonLength = 4000

type PublishNotifier interface {
	// NotifyRepeatedPublishFailure notifies when an account keeps failing to publish.
	NotifyRepeatedPublishFailure(account string, failureCount int, lastReason string) error
}

type nopPublishNotifier struct{}

var NopPublishNotifier PublishNotifier = &nopPublishNotifier{}

func (n *nopPublishNotifier) NotifyRepeatedPublishFailure(account string, failureCount int, lastReason string) error {
	return nil
}

type PublishNotificationSettings struct {
	Recipient   string
	MinInterval time.Duration
}

type emailPublishNotifier struct {
	settings         PublishNotificationSettings
	sender           EmailSender
	logger           logging.Logger
	lastNotification map[string]time.Time
	mu               sync.Mutex
	now              func() time.Time
}

func NewEmailPublishNotifier(settings PublishNotificationSettings, sender EmailSender, logger logging.Logger) PublishNotifier {
	if logger == nil {
		logger = logging.NopLogger
	}
	if sender == nil {
		sender = NopSender
	}

	return &emailPublishNotifier{
		settings:         settings,
		sender:           sender,
		logger:           logger,
		lastNotification: make(map[string]time.Time),
		now:              time.Now,
	}
}

func (n *emailPublishNotifier) NotifyRepeatedPublishFailure(account string, failureCount int, lastReason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if last, ok := n.lastNotification[account]; ok && n.now().Sub(last) < n.settings.MinInterval {
		n.logger.Info("Skipping publish failure notification due to rate limiting.", "account", account)
		return nil
	}

	if len(lastReason) > maxReasonLength {
		lastReason = lastReason[:maxReasonLength] + "\n[truncated]"
	}

	subject := fmt.Sprintf("SoundPost: repeated publish failures for account '%s'", account)
	body := fmt.Sprintf("Publishing for account '%s' failed %d times in a row.\n\nLast publisher output:\n%s\n\nThe stored session credential may have expired. Re-provision it and retry the upload.",
		account,
		failureCount,
		lastReason)

	n.logger.Info("Sending publish failure notification.", "account", account, "recipient", n.settings.Recipient, "failureCount", failureCount)
	if err := n.sender.SendEmail(n.settings.Recipient, subject, body); err != nil {
		n.logger.Error("Failed to send publish failure notification.", "error", err, "account", account)
		return err
	}

	n.lastNotification[account] = n.now()
	return nil
}
