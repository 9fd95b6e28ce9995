package checkout

import (
	"context"

	checkoutsvc "github.com/angelmondragon/checkout-shipping/internal/checkout"
	"github.com/angelmondragon/checkout-shipping/internal/lockers"
	"github.com/angelmondragon/checkout-shipping/internal/packages"
	"github.com/angelmondragon/checkout-shipping/internal/wizard"
	"github.com/angelmondragon/checkout-shipping/pkg/enums"
)

// Service is the checkout session surface the handlers depend on.
type Service interface {
	Create(ctx context.Context, input checkoutsvc.CreateInput) (*checkoutsvc.View, error)
	Get(ctx context.Context, id string) (*checkoutsvc.View, error)
	Abandon(ctx context.Context, id string) error
	ReplaceCart(ctx context.Context, id string, cart []packages.CartLineItem) (*checkoutsvc.View, error)
	Refresh(ctx context.Context, id string) (*checkoutsvc.View, error)
	Readiness(ctx context.Context, id string) (*checkoutsvc.Readiness, error)

	SelectMethod(ctx context.Context, id, packageID, methodID string) (*checkoutsvc.View, error)
	SetLockerSlot(ctx context.Context, id, packageID string, input checkoutsvc.LockerInput) (*checkoutsvc.View, error)
	ToggleCustomAddress(ctx context.Context, id, packageID string) (*checkoutsvc.View, error)
	UpdateCustomAddressFields(ctx context.Context, id, packageID string, fields map[enums.AddressField]string) (*checkoutsvc.View, error)

	SetAddress(ctx context.Context, id string, address wizard.AddressData) (*checkoutsvc.View, error)
	SetPayment(ctx context.Context, id string, payment wizard.PaymentSelection) (*checkoutsvc.View, error)
	SetAcceptTerms(ctx context.Context, id string, accepted bool) (*checkoutsvc.View, error)
	NextStep(ctx context.Context, id string) (*checkoutsvc.StepView, error)
	PrevStep(ctx context.Context, id string) (*checkoutsvc.StepView, error)
	GoToStep(ctx context.Context, id string, step wizard.Step) (*checkoutsvc.StepView, error)

	Submit(ctx context.Context, id string) (*checkoutsvc.SubmitResult, error)
}

// RecentLockers lists lockers a customer picked before.
type RecentLockers interface {
	List(ctx context.Context, customerID string) ([]lockers.Locker, error)
}

var _ Service = (*checkoutsvc.Service)(nil)
