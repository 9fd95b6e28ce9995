// Package wizard sequences the four checkout steps and captures the data
// entered on each of them.
package wizard

import (
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/checkout-shipping/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Gate reports whether the current selections allow submission.
type Gate func() bool

// Machine owns a State. It is not safe for concurrent use.
type Machine struct {
	state State
	gate  Gate
}

// New starts a wizard at the Address step.
func New(gate Gate) *Machine {
	return &Machine{state: State{Step: StepAddress}, gate: gate}
}

// Resume rebuilds a machine from a persisted state.
func Resume(state State, gate Gate) (*Machine, error) {
	if !state.Step.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid wizard step").
			WithDetails(map[string]any{"step": int(state.Step)})
	}
	return &Machine{state: state.clone(), gate: gate}, nil
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state.clone()
}

func (m *Machine) Step() Step {
	return m.state.Step
}

// NextStep moves forward one step. Summary is the last step; calling NextStep
// there stays on Summary and re-evaluates readiness.
func (m *Machine) NextStep() Transition {
	to := m.state.Step + 1
	if to > StepSummary {
		to = StepSummary
	}
	return m.move(to)
}

// PrevStep moves back one step, stopping at Address.
func (m *Machine) PrevStep() Transition {
	to := m.state.Step - 1
	if to < StepAddress {
		to = StepAddress
	}
	return m.move(to)
}

// GoToStep jumps to any step without validating the steps in between.
func (m *Machine) GoToStep(step Step) (Transition, error) {
	if !step.IsValid() {
		return Transition{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid wizard step").
			WithDetails(map[string]any{"step": int(step)})
	}
	return m.move(step), nil
}

func (m *Machine) move(to Step) Transition {
	t := Transition{From: m.state.Step, To: to}
	m.state.Step = to
	if to == StepSummary {
		t.SubmitReady = m.SubmitReady()
	}
	return t
}

// SubmitReady runs the gate. Nothing is cached between calls.
func (m *Machine) SubmitReady() bool {
	if m.gate == nil {
		return false
	}
	return m.gate()
}

// SetAddress validates and stores the primary address.
func (m *Machine) SetAddress(address AddressData) error {
	address.FirstName = strings.TrimSpace(address.FirstName)
	address.LastName = strings.TrimSpace(address.LastName)
	address.Email = strings.TrimSpace(address.Email)
	address.Phone = strings.TrimSpace(address.Phone)
	address.Street = strings.TrimSpace(address.Street)
	address.PostalCode = strings.TrimSpace(address.PostalCode)
	address.City = strings.TrimSpace(address.City)
	address.Country = strings.ToUpper(strings.TrimSpace(address.Country))
	if err := validate.Struct(address); err != nil {
		return validationError(err)
	}
	m.state.Address = &address
	return nil
}

// SetShipping stores the shipping overview.
func (m *Machine) SetShipping(summary ShippingSummary) {
	m.state.Shipping = &summary
}

// SetPayment validates and stores the payment method.
func (m *Machine) SetPayment(payment PaymentSelection) error {
	payment.Method = strings.TrimSpace(payment.Method)
	if err := validate.Struct(payment); err != nil {
		return validationError(err)
	}
	m.state.Payment = &payment
	return nil
}

func (m *Machine) SetAcceptTerms(accepted bool) {
	m.state.AcceptTerms = accepted
}

func validationError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := map[string]string{}
	for _, fieldErr := range errs {
		switch fieldErr.Tag() {
		case "required":
			details[fieldErr.Field()] = "is required"
		case "email":
			details[fieldErr.Field()] = "must be a valid email"
		default:
			details[fieldErr.Field()] = "is invalid"
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}
