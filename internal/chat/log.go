// Package chat owns the client-side conversation state: the message log, the
// pending UI directive and the controller that drives orchestration turns.
package chat

import (
	"sync"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

// WelcomeText is the synthetic assistant greeting. It seeds every empty
// conversation; the user is never shown a blank one.
const WelcomeText = "Bonjour ! Je suis OMEGA, votre assistant pour l'achat et la reprise de votre voiture. Décrivez-moi votre projet !"

// MessageLog is the ordered, append-only sequence of chat turns for the
// active session.
type MessageLog struct {
	mu       sync.Mutex
	messages []domain.Message
}

// NewMessageLog returns a log seeded with the welcome message.
func NewMessageLog() *MessageLog {
	l := &MessageLog{}
	l.Reset(nil)
	return l
}

// Reset replaces the log with the given messages. An empty slice reseeds the
// welcome message instead of leaving the log blank.
func (l *MessageLog) Reset(messages []domain.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(messages) == 0 {
		l.messages = []domain.Message{domain.NewMessage(domain.RoleAssistant, WelcomeText)}
		return
	}
	l.messages = make([]domain.Message, len(messages))
	copy(l.messages, messages)
}

// Append adds a message to the log and returns it.
func (l *MessageLog) Append(m domain.Message) domain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, m)
	return m
}

// AppendUser appends a user turn.
func (l *MessageLog) AppendUser(content string) domain.Message {
	return l.Append(domain.NewMessage(domain.RoleUser, content))
}

// AppendAssistant appends an assistant turn.
func (l *MessageLog) AppendAssistant(content string) domain.Message {
	return l.Append(domain.NewMessage(domain.RoleAssistant, content))
}

// Messages returns a copy of the full log.
func (l *MessageLog) Messages() []domain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Tail returns the last n messages, oldest first. Older history is dropped,
// not summarized.
func (l *MessageLog) Tail(n int) []domain.Message {
	if n <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	start := len(l.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]domain.Message, len(l.messages)-start)
	copy(out, l.messages[start:])
	return out
}

// Len returns the number of messages in the log.
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}
