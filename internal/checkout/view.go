package checkout

import (
	"github.com/angelmondragon/checkout-shipping/internal/selection"
	"github.com/angelmondragon/checkout-shipping/internal/shippingoptions"
	"github.com/angelmondragon/checkout-shipping/internal/submission"
	"github.com/angelmondragon/checkout-shipping/internal/wizard"
	"github.com/angelmondragon/checkout-shipping/pkg/money"
)

// PackageView is one package as shown on the Shipping step.
type PackageView struct {
	shippingoptions.PackageOptions
	Selection    selection.PackageSelection `json:"selection"`
	Ready        bool                       `json:"ready"`
	Requirements []selection.Requirement    `json:"requirements"`
}

// Totals summarizes money across the checkout.
type Totals struct {
	ItemsTotal    money.Money `json:"items_total"`
	ShippingTotal money.Money `json:"shipping_total"`
	GrandTotal    money.Money `json:"grand_total"`
}

// Readiness reports what still blocks the checkout. SelectionsReady covers
// shipping selections only; CanSubmit additionally needs address, payment
// and accepted terms.
type Readiness struct {
	SelectionsReady bool                    `json:"selections_ready"`
	CanSubmit       bool                    `json:"can_submit"`
	Missing         []selection.Requirement `json:"missing"`
}

// View is the client-facing projection of a session.
type View struct {
	ID             string        `json:"id"`
	CustomerID     *string       `json:"customer_id,omitempty"`
	CartRevision   int64         `json:"cart_revision"`
	OptionsPending bool          `json:"options_pending"`
	Step           wizard.Step   `json:"step"`
	StepName       string        `json:"step_name"`
	Wizard         wizard.State  `json:"wizard"`
	Packages       []PackageView `json:"packages"`
	Totals         Totals        `json:"totals"`
	Readiness      Readiness     `json:"readiness"`
	Warnings       []string      `json:"warnings"`
}

// StepView pairs a wizard transition with the resulting session view.
type StepView struct {
	Transition wizard.Transition `json:"transition"`
	Session    *View             `json:"session"`
}

func buildView(sess *Session, store *selection.Store) *View {
	validator := selection.NewValidator(store)
	entries := store.Packages()
	pkgs := make([]PackageView, 0, len(entries))
	for _, entry := range entries {
		sel, _ := store.Selection(entry.Package.ID)
		reqs := validator.PackageRequirements(entry.Package.ID)
		if reqs == nil {
			reqs = []selection.Requirement{}
		}
		pkgs = append(pkgs, PackageView{
			PackageOptions: entry,
			Selection:      sel,
			Ready:          len(reqs) == 0,
			Requirements:   reqs,
		})
	}

	shipments := submission.Shipments(store)
	itemsTotal := submission.ItemsTotal(sess.Cart)
	shippingTotal := submission.ShippingTotal(shipments)

	missing := submission.Requirements(sess.Cart, sess.Wizard, store)
	if missing == nil {
		missing = []selection.Requirement{}
	}
	warnings := sess.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return &View{
		ID:             sess.ID,
		CustomerID:     sess.CustomerID,
		CartRevision:   sess.CartRevision,
		OptionsPending: sess.OptionsPending(),
		Step:           sess.Wizard.Step,
		StepName:       sess.Wizard.Step.String(),
		Wizard:         sess.Wizard,
		Packages:       pkgs,
		Totals: Totals{
			ItemsTotal:    itemsTotal,
			ShippingTotal: shippingTotal,
			GrandTotal:    itemsTotal.Add(shippingTotal),
		},
		Readiness: Readiness{
			SelectionsReady: validator.IsWizardReadyToSubmit(),
			CanSubmit:       len(missing) == 0 && !sess.OptionsPending(),
			Missing:         missing,
		},
		Warnings: warnings,
	}
}

func shippingSummary(store *selection.Store) wizard.ShippingSummary {
	shipments := submission.Shipments(store)
	entries := store.Packages()
	summary := wizard.ShippingSummary{
		PackageCount:  len(entries),
		ShipmentCount: len(shipments),
		ShippingTotal: submission.ShippingTotal(shipments),
	}
	for _, entry := range entries {
		if entry.Package.HasFreeShipping {
			summary.HasFreeShipping = true
			break
		}
	}
	return summary
}
