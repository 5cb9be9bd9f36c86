package domain

// Address holds the shipping address collected during checkout. All fields
// are required free text; nothing is cross-validated against a registry.
type Address struct {
	FullName      string `json:"full_name" validate:"required"`
	PhoneNumber   string `json:"phone_number" validate:"required"`
	StreetAddress string `json:"street_address" validate:"required"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state" validate:"required"`
	ZipCode       string `json:"zip_code" validate:"required"`
}

// PaymentMethod enumerates the supported ways to pay for an order.
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCOD  PaymentMethod = "cod"
)

// Valid reports whether the payment method is one of the supported values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodCOD:
		return true
	}
	return false
}

// Label returns the user-facing name of the payment method.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentMethodCard:
		return "Credit/Debit Card"
	case PaymentMethodUPI:
		return "UPI"
	case PaymentMethodCOD:
		return "Cash on Delivery"
	}
	return string(m)
}

// CheckoutState is the orchestrator's position in the checkout flow for one
// session.
type CheckoutState string

const (
	StateIdle        CheckoutState = "idle"
	StateCollecting  CheckoutState = "collecting"
	StateSubmitting  CheckoutState = "submitting"
	StateRedirecting CheckoutState = "redirecting"
	StateCompleted   CheckoutState = "completed"
	StateFailed      CheckoutState = "failed"
	StateCanceled    CheckoutState = "canceled"
)

// SubmitOutcome classifies the result of a checkout submission.
type SubmitOutcome string

const (
	OutcomeRedirect  SubmitOutcome = "redirect"
	OutcomeCompleted SubmitOutcome = "completed"
	OutcomeFailed    SubmitOutcome = "failed"
)

// SubmitResult is the terminal result of one submission attempt: either a
// redirect to the external payment provider, an immediate completion, or a
// failure with a reason. The terminal state of a redirect is only known later
// through the callback signal.
type SubmitResult struct {
	Outcome     SubmitOutcome `json:"outcome"`
	RedirectURL string        `json:"redirect_url,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	OrderID     string        `json:"order_id,omitempty"`
}

// Notice is a user-visible notification describing a state change, the
// server-side equivalent of a toast.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
