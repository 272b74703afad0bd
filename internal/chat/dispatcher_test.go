package chat

import (
	"testing"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

type recordingStarter struct {
	armed []domain.StartNegotiation
}

func (r *recordingStarter) Arm(start domain.StartNegotiation) {
	r.armed = append(r.armed, start)
}

func TestDispatchHoldsSinglePendingAction(t *testing.T) {
	t.Parallel()

	d := NewActionDispatcher(nil, nil)
	if d.Pending() != nil {
		t.Fatal("fresh dispatcher should have no pending action")
	}

	d.Dispatch(domain.ShowTradeInForm{})
	if _, ok := d.Pending().(domain.ShowTradeInForm); !ok {
		t.Fatalf("pending = %T", d.Pending())
	}

	// A new action overwrites an unconsumed one.
	d.Dispatch(domain.StartNegotiation{SessionID: "neg-1"})
	if _, ok := d.Pending().(domain.StartNegotiation); !ok {
		t.Fatalf("pending = %T, want StartNegotiation", d.Pending())
	}

	if d.Consume() == nil {
		t.Fatal("consume returned nil")
	}
	if d.Pending() != nil {
		t.Fatal("consume should clear the pending action")
	}
}

func TestDispatchStartNegotiationArmsMachine(t *testing.T) {
	t.Parallel()

	starter := &recordingStarter{}
	d := NewActionDispatcher(starter, nil)

	d.Dispatch(domain.ShowTradeInForm{})
	if len(starter.armed) != 0 {
		t.Fatal("trade-in form must not arm the negotiation machine")
	}

	d.Dispatch(domain.StartNegotiation{SessionID: "neg-1", MaxRounds: 5, CurrentRound: 1})
	if len(starter.armed) != 1 || starter.armed[0].SessionID != "neg-1" {
		t.Fatalf("armed = %+v", starter.armed)
	}
}

func TestClearDismissesPendingAction(t *testing.T) {
	t.Parallel()

	d := NewActionDispatcher(nil, nil)
	d.Dispatch(domain.ShowTradeInForm{})
	d.Clear()
	if d.Pending() != nil {
		t.Fatal("clear should dismiss the pending action")
	}
}
