package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender writes messages to the log instead of delivering them. It is
// selected when no SMTP host is configured. The action link is logged at
// debug level only, since it carries a live single-use token.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(_ context.Context, msg *Message) error {
	if msg.To == "" {
		return ErrMissingRecipient
	}
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("email not delivered, no SMTP host configured")
	if msg.Link != "" {
		logrus.WithFields(logrus.Fields{
			"to":   msg.To,
			"link": msg.Link,
		}).Debug("undelivered email action link")
	}
	return nil
}
