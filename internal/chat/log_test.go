package chat

import (
	"testing"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

func TestNewMessageLogSeedsWelcome(t *testing.T) {
	t.Parallel()

	log := NewMessageLog()
	messages := log.Messages()
	if len(messages) != 1 {
		t.Fatalf("fresh log has %d messages, want exactly 1", len(messages))
	}
	if messages[0].Role != domain.RoleAssistant || messages[0].Content != WelcomeText {
		t.Fatalf("unexpected seed message: %+v", messages[0])
	}
}

func TestResetWithNoMessagesReseedsWelcome(t *testing.T) {
	t.Parallel()

	log := NewMessageLog()
	log.AppendUser("Bonjour")
	log.Reset(nil)

	messages := log.Messages()
	if len(messages) != 1 || messages[0].Content != WelcomeText {
		t.Fatalf("reset log = %+v, want single welcome message", messages)
	}
}

func TestResetReplacesMessages(t *testing.T) {
	t.Parallel()

	log := NewMessageLog()
	log.Reset([]domain.Message{
		domain.NewMessage(domain.RoleUser, "Je cherche une 3008"),
		domain.NewMessage(domain.RoleAssistant, "Très bon choix !"),
	})

	messages := log.Messages()
	if len(messages) != 2 {
		t.Fatalf("log has %d messages, want 2", len(messages))
	}
	if messages[0].Role != domain.RoleUser {
		t.Errorf("first message role = %s", messages[0].Role)
	}
}

func TestTailReturnsTrailingWindowOldestFirst(t *testing.T) {
	t.Parallel()

	log := NewMessageLog()
	for i := 0; i < 15; i++ {
		log.AppendUser("message")
	}

	tail := log.Tail(10)
	if len(tail) != 10 {
		t.Fatalf("tail length = %d, want 10", len(tail))
	}
	all := log.Messages()
	if tail[0].ID != all[len(all)-10].ID || tail[9].ID != all[len(all)-1].ID {
		t.Fatal("tail is not the trailing window in order")
	}

	if got := log.Tail(100); len(got) != log.Len() {
		t.Fatalf("oversized tail = %d messages, want whole log", len(got))
	}

	if got := log.Tail(0); got != nil {
		t.Fatalf("Tail(0) = %d messages, want none", len(got))
	}
	if got := log.Tail(-1); got != nil {
		t.Fatalf("Tail(-1) = %d messages, want none", len(got))
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	t.Parallel()

	log := NewMessageLog()
	messages := log.Messages()
	messages[0].Content = "tampered"

	if log.Messages()[0].Content != WelcomeText {
		t.Fatal("mutating the returned slice leaked into the log")
	}
}
