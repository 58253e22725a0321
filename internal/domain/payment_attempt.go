package domain

type AttemptState string

const (
	AttemptCreated          AttemptState = "created"
	AttemptAwaitingApproval AttemptState = "awaiting_approval"
	AttemptCaptured         AttemptState = "captured"
	AttemptFailed           AttemptState = "failed"
	// AttemptAbandoned is reached when the payer cancels at the gateway. The local order
	// stays pending.
	AttemptAbandoned AttemptState = "abandoned"
)

var attemptTransitions = map[AttemptState][]AttemptState{
	AttemptCreated:          {AttemptAwaitingApproval, AttemptFailed},
	AttemptAwaitingApproval: {AttemptCaptured, AttemptFailed, AttemptAbandoned},
}

func (s AttemptState) IsTerminal() bool {
	return s == AttemptCaptured || s == AttemptFailed || s == AttemptAbandoned
}

func (s AttemptState) String() string {
	return string(s)
}

func CanTransitionTo(from, to AttemptState) bool {
	for _, next := range attemptTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentAttempt tracks one hosted-gateway payment for a local order.
type PaymentAttempt struct {
	OrderID       string       `json:"order_id"`
	RemoteOrderID string       `json:"remote_order_id"`
	State         AttemptState `json:"state"`
	LastStatus    string       `json:"last_status,omitempty"`
}

// Advance moves the attempt to the next state, refusing illegal transitions.
func (a *PaymentAttempt) Advance(to AttemptState) bool {
	if !CanTransitionTo(a.State, to) {
		return false
	}
	a.State = to
	return true
}
