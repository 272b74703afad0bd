package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

func TestActSendsCounterOfferAndDecodesOutcome(t *testing.T) {
	t.Parallel()

	var gotReq map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/negotiation/neg-42/message" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		JSONResponse(w, map[string]any{
			"agent_response":   "Nous pouvons descendre à 175 000 MAD.",
			"revised_offer":    map[string]any{"offer_price_mad": 175000.0},
			"round":            2,
			"remaining_rounds": 3,
			"status":           "active",
			"session_id":       "neg-42",
		})
	}))

	outcome, err := client.Act(context.Background(), "neg-42", domain.ActionCounter,
		"Je propose 170000 MAD.", domain.Offer{"offer_price_mad": 170000.0})
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}

	if gotReq["action"] != "counter" {
		t.Errorf("action = %v", gotReq["action"])
	}
	counter := gotReq["counter_offer"].(map[string]any)
	if counter["offer_price_mad"] != 170000.0 {
		t.Errorf("counter_offer = %v", counter)
	}

	if outcome.Round != 2 || outcome.Status != domain.NegotiationActive {
		t.Errorf("outcome = %+v", outcome)
	}
	if price, ok := outcome.RevisedOffer.PriceMAD(); !ok || price != 175000 {
		t.Errorf("revised offer price = %v, %v", price, ok)
	}
}

func TestActUnknownStatusIsProtocolViolation(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSONResponse(w, map[string]any{
			"agent_response": "ok",
			"round":          2,
			"status":         "validating",
		})
	}))

	_, err := client.Act(context.Background(), "neg-42", domain.ActionAccept, "J'accepte.", nil)
	if !errors.Is(err, domain.ErrProtocol) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
}

func TestActInvalidRoundIsProtocolViolation(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSONResponse(w, map[string]any{
			"agent_response": "ok",
			"round":          0,
			"status":         "active",
		})
	}))

	_, err := client.Act(context.Background(), "neg-42", domain.ActionAccept, "J'accepte.", nil)
	if !errors.Is(err, domain.ErrProtocol) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
}

func TestActDecodesValidationInfo(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSONResponse(w, map[string]any{
			"agent_response": "Nous devons ajuster l'offre pour respecter nos contraintes.",
			"round":          3,
			"status":         "active",
			"validation": map[string]any{
				"is_approved":      false,
				"violations":       []string{"margin below floor"},
				"audit_trail":      []string{"margin check", "regulatory check"},
				"confidence_score": 0.87,
			},
		})
	}))

	outcome, err := client.Act(context.Background(), "neg-42", domain.ActionAccept, "J'accepte.", nil)
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	v := outcome.Validation
	if v == nil || v.Approved || len(v.Violations) != 1 || v.Confidence != 0.87 {
		t.Fatalf("validation = %+v", v)
	}
}

func TestHistoryPreservesOrder(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/negotiation/neg-42/history" {
			t.Errorf("path = %s", r.URL.Path)
		}
		JSONResponse(w, []any{
			map[string]any{"round_number": 1, "speaker": "agent", "message": "Première offre", "offer_data": map[string]any{"offer_price_mad": 180000.0}},
			map[string]any{"round_number": 1, "speaker": "client", "message": "Trop cher"},
			map[string]any{"round_number": 2, "speaker": "agent", "message": "Offre révisée"},
		})
	}))

	turns, err := client.History(context.Background(), "neg-42")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("turns = %d", len(turns))
	}
	if turns[0].Speaker != "agent" || turns[1].Speaker != "client" || turns[2].Round != 2 {
		t.Errorf("order not preserved: %+v", turns)
	}
	if turns[1].Offer != nil {
		t.Errorf("client turn should carry no offer data: %v", turns[1].Offer)
	}
}

func TestResetFailureKeepsError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/negotiation/neg-42" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "Session not found"}`))
	}))

	err := client.Reset(context.Background(), "neg-42")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
