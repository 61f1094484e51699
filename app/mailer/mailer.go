// Package mailer delivers transactional email such as account verification
// and password reset links.
package mailer

import (
	"context"
	"errors"
	"strings"
)

var ErrMissingRecipient = errors.New("mailer: recipient is required")

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
	// Link is the action URL carried by the body, if any.
	Link string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Compose renders content into a message addressed to a single recipient.
func Compose(to, toName, subject string, content Content) (*Message, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, ErrMissingRecipient
	}

	text, html, err := content.Render()
	if err != nil {
		return nil, err
	}

	return &Message{
		To:      to,
		ToName:  toName,
		Subject: subject,
		Text:    text,
		HTML:    html,
		Link:    content.Link,
	}, nil
}
