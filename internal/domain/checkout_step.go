package domain

type CheckoutStep int

const (
	StepAddress CheckoutStep = 1
	StepPayment CheckoutStep = 2
)

func (s CheckoutStep) String() string {
	switch s {
	case StepAddress:
		return "address"
	case StepPayment:
		return "payment"
	default:
		return "unknown"
	}
}

// WizardState is the step-scoped state of one checkout.
type WizardState struct {
	Step      CheckoutStep     `json:"step"`
	Address   *ShippingAddress `json:"address,omitempty"`
	Method    PaymentMethod    `json:"method,omitempty"`
	OrderID   string           `json:"order_id,omitempty"`
	Completed bool             `json:"completed"`
}

func NewWizardState() WizardState {
	return WizardState{Step: StepAddress}
}
