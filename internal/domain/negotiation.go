package domain

import (
	"fmt"
	"time"
)

// NegotiationStatus is the server-authoritative state of a negotiation
// session. Any other value coming off the wire is a protocol violation.
type NegotiationStatus string

const (
	// NegotiationActive accepts accept/reject/counter actions.
	NegotiationActive NegotiationStatus = "active"
	// NegotiationCompleted means the offer was accepted and a finalized
	// contract document is available.
	NegotiationCompleted NegotiationStatus = "completed"
	// NegotiationRejected means the user explicitly refused the offer.
	NegotiationRejected NegotiationStatus = "rejected"
	// NegotiationMaxRounds means the round ceiling was hit without resolution.
	NegotiationMaxRounds NegotiationStatus = "max_rounds_reached"
)

// ParseNegotiationStatus validates a wire status value.
func ParseNegotiationStatus(s string) (NegotiationStatus, error) {
	switch NegotiationStatus(s) {
	case NegotiationActive, NegotiationCompleted, NegotiationRejected, NegotiationMaxRounds:
		return NegotiationStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown negotiation status %q", ErrProtocol, s)
}

// Terminal reports whether the status ends the negotiation.
func (s NegotiationStatus) Terminal() bool {
	return s == NegotiationCompleted || s == NegotiationRejected || s == NegotiationMaxRounds
}

// NegotiationAction is one of the three moves available in an active round.
type NegotiationAction string

const (
	ActionAccept  NegotiationAction = "accept"
	ActionReject  NegotiationAction = "reject"
	ActionCounter NegotiationAction = "counter"
)

// Offer is the structured offer payload produced by the negotiation service.
// It is treated as opaque; the accessors below read the keys the client
// actually renders.
type Offer map[string]any

func (o Offer) float(key string) (float64, bool) {
	v, ok := o[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func (o Offer) str(key string) (string, bool) {
	s, ok := o[key].(string)
	return s, ok && s != ""
}

// PriceMAD returns the proposed price in MAD.
func (o Offer) PriceMAD() (float64, bool) { return o.float("offer_price_mad") }

// MonthlyPaymentMAD returns the suggested monthly payment, if financing.
func (o Offer) MonthlyPaymentMAD() (float64, bool) { return o.float("monthly_payment_mad") }

// ContractID returns the contract reference set once the offer is finalized.
func (o Offer) ContractID() (string, bool) { return o.str("contract_id") }

// PDFReference returns the generated contract document reference.
func (o Offer) PDFReference() (string, bool) { return o.str("pdf_reference") }

// MarketingMessage returns the pitch line attached to the offer.
func (o Offer) MarketingMessage() (string, bool) { return o.str("marketing_message") }

// ValidationInfo is the business-rule verdict carried inside a successful
// negotiation response. A disapproval is not an error: the negotiation stays
// active and the user may counter again.
type ValidationInfo struct {
	Approved   bool
	Violations []string
	AuditTrail []string
	Confidence float64
}

// NegotiationOutcome is the applied result of one accept/reject/counter call.
type NegotiationOutcome struct {
	AgentResponse   string
	RevisedOffer    Offer // nil when the response carried no revised offer
	Round           int
	RemainingRounds int
	Status          NegotiationStatus
	Validation      *ValidationInfo
}

// NegotiationTurn is one entry of the negotiation history.
type NegotiationTurn struct {
	Round     int
	Speaker   string
	Message   string
	Offer     Offer // nil when the turn carried no offer data
	Timestamp time.Time
}

// TradeIn is the structured trade-in record produced by the form collector.
// Field validation (required fields, numeric ranges) is the form's concern.
type TradeIn struct {
	Brand     string
	Model     string
	Year      int
	Mileage   int
	Condition string
}

// Summary renders the trade-in as the human-readable user turn that precedes
// the machine-tagged negotiation query.
func (t TradeIn) Summary() string {
	return fmt.Sprintf("Reprise: %s %s (%d), %d km, état %s",
		t.Brand, t.Model, t.Year, t.Mileage, t.Condition)
}
