package testutil

import (
	"context"
	"regexp"
	"sync"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/mailer"
)

var linkTokenPattern = regexp.MustCompile(`/(?:verify-email|reset-password)/([0-9a-f]+)`)

// Sender records every message it is asked to deliver. When Err is set the
// message is still recorded and Err is returned.
type Sender struct {
	mu       sync.Mutex
	messages []*mailer.Message

	Err error
}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(_ context.Context, msg *mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return s.Err
}

func (s *Sender) Messages() []*mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*mailer.Message(nil), s.messages...)
}

// LastToken extracts the single-use token from the link in the most recent
// message, or returns "".
func (s *Sender) LastToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return ""
	}

	match := linkTokenPattern.FindStringSubmatch(s.messages[len(s.messages)-1].Text)
	if match == nil {
		return ""
	}
	return match[1]
}
