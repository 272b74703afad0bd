package domain

// UIAction is a one-shot presentation directive emitted by the backend.
// The set of variants is closed: adding a directive means adding a type here,
// which every switch over UIAction then has to handle.
type UIAction interface {
	isUIAction()
}

// ShowTradeInForm asks the presentation layer to collect trade-in details.
type ShowTradeInForm struct{}

func (ShowTradeInForm) isUIAction() {}

// StartNegotiation arms the negotiation state machine. It is the only path
// that ever starts one.
type StartNegotiation struct {
	SessionID    string // negotiation session id, distinct from the chat session id
	InitialOffer Offer
	CurrentRound int
	MaxRounds    int
}

func (StartNegotiation) isUIAction() {}

// TurnResult is what one orchestrate round-trip produces: the reply text plus
// the optional profile fragment and UI directive.
type TurnResult struct {
	Reply             string
	ProfileFragment   ProfileSnapshot
	Action            UIAction // nil when the response carried no directive
	ProfileCompletion int
}
