// Package checkout runs checkout sessions: it regroups the cart, resolves
// shipping options, applies selection changes, drives the wizard and submits
// the order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/checkout-shipping/internal/lockers"
	"github.com/angelmondragon/checkout-shipping/internal/orders"
	"github.com/angelmondragon/checkout-shipping/internal/packages"
	"github.com/angelmondragon/checkout-shipping/internal/selection"
	"github.com/angelmondragon/checkout-shipping/internal/shippingoptions"
	"github.com/angelmondragon/checkout-shipping/internal/submission"
	"github.com/angelmondragon/checkout-shipping/internal/wizard"
	"github.com/angelmondragon/checkout-shipping/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-shipping/pkg/errors"
	"github.com/angelmondragon/checkout-shipping/pkg/logger"
	"github.com/google/uuid"
)

// maxSaveAttempts bounds how often an update is replayed on a newer copy of
// the session after losing a concurrent save.
const maxSaveAttempts = 3

var errSkipSave = errors.New("checkout: skip save")

const (
	submissionSubmitted  = "submitted"
	submissionIncomplete = "incomplete"
	submissionFailed     = "failed"
)

type directoryLoader interface {
	Directory(ctx context.Context) (packages.Directory, error)
}

type recentLockers interface {
	Remember(ctx context.Context, customerID string, locker lockers.Locker) error
}

type checkoutMetrics interface {
	IncStale()
	IncSubmission(outcome string)
}

// StaticDirectory serves a fixed directory.
type StaticDirectory packages.Directory

func (d StaticDirectory) Directory(context.Context) (packages.Directory, error) {
	return packages.Directory(d), nil
}

// Params groups the service collaborators.
type Params struct {
	Sessions  SessionStore
	Resolver  shippingoptions.Resolver
	Directory directoryLoader
	Submitter orders.Submitter
	Recent    recentLockers
	Metrics   checkoutMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service executes checkout session operations.
type Service struct {
	sessions  SessionStore
	resolver  shippingoptions.Resolver
	directory directoryLoader
	submitter orders.Submitter
	recent    recentLockers
	metrics   checkoutMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(p Params) (*Service, error) {
	if p.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if p.Resolver == nil {
		return nil, fmt.Errorf("shipping resolver required")
	}
	if p.Submitter == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.Directory == nil {
		p.Directory = StaticDirectory(packages.DefaultDirectory())
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Service{
		sessions:  p.Sessions,
		resolver:  p.Resolver,
		directory: p.Directory,
		submitter: p.Submitter,
		recent:    p.Recent,
		metrics:   p.Metrics,
		logg:      p.Logger,
		now:       p.Now,
	}, nil
}

// CreateInput starts a session.
type CreateInput struct {
	CustomerID *string
	Cart       []packages.CartLineItem
}

// Create starts a session at the Address step. When a cart is given its
// shipping options are resolved right away; a resolver failure still leaves
// the session in place so the client can retry with Refresh.
func (s *Service) Create(ctx context.Context, input CreateInput) (*View, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:         uuid.NewString(),
		CustomerID: normalizeCustomer(input.CustomerID),
		Cart:       []packages.CartLineItem{},
		Packages:   []shippingoptions.PackageOptions{},
		Selections: []selection.PackageSelection{},
		Wizard:     wizard.State{Step: wizard.StepAddress},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if len(input.Cart) > 0 {
		sess.Cart = input.Cart
		sess.CartRevision = 1
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	ctx = s.logg.WithSessionID(ctx, sess.ID)
	s.logg.Info(ctx, "checkout session created")

	if sess.OptionsPending() {
		resolved, err := s.resolve(ctx, sess.ID, sess.CartRevision)
		if err != nil {
			return nil, withSessionID(err, sess.ID)
		}
		sess = resolved
	}
	return buildView(sess, sess.store()), nil
}

// Get returns the session view.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildView(sess, sess.store()), nil
}

// Abandon discards the session.
func (s *Service) Abandon(ctx context.Context, id string) error {
	if _, err := s.sessions.Load(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithSessionID(ctx, id), "checkout session abandoned")
	return nil
}

// ReplaceCart stores a new cart and resolves shipping options for it. If a
// later cart change lands while the resolver is running, this response is
// discarded and the newer one wins.
func (s *Service) ReplaceCart(ctx context.Context, id string, cart []packages.CartLineItem) (*View, error) {
	if cart == nil {
		cart = []packages.CartLineItem{}
	}
	sess, err := s.update(ctx, id, func(sess *Session) error {
		sess.Cart = cart
		sess.CartRevision++
		return nil
	})
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolve(s.logg.WithSessionID(ctx, id), id, sess.CartRevision)
	if err != nil {
		return nil, err
	}
	return buildView(resolved, resolved.store()), nil
}

// Refresh re-runs the resolver for the stored cart.
func (s *Service) Refresh(ctx context.Context, id string) (*View, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	resolved, err := s.resolve(s.logg.WithSessionID(ctx, id), id, sess.CartRevision)
	if err != nil {
		return nil, err
	}
	return buildView(resolved, resolved.store()), nil
}

func (s *Service) resolve(ctx context.Context, id string, revision int64) (*Session, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.CartRevision != revision {
		return sess, nil
	}

	dir, err := s.directory.Directory(ctx)
	if err != nil {
		s.logg.Warn(ctx, "warehouse directory unavailable, using default")
		dir = packages.DefaultDirectory()
	}
	grouped := packages.Group(sess.Cart, dir)

	res := &shippingoptions.Resolution{Warnings: []string{}}
	if len(grouped) > 0 {
		res, err = s.resolver.Resolve(ctx, packages.Requests(grouped))
		if err != nil {
			s.logg.Error(ctx, "shipping options resolve failed", err)
			if pkgerrors.As(err) == nil {
				err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve shipping options")
			}
			return nil, err
		}
	}

	merged := shippingoptions.Merge(grouped, res)
	current, err := s.update(ctx, id, func(current *Session) error {
		if current.CartRevision != revision {
			return errSkipSave
		}
		store := current.store()
		store.Sync(merged)
		current.apply(store)
		current.OptionsRevision = revision
		current.Warnings = res.Warnings
		s.refreshShipping(current, store)
		return nil
	})
	if errors.Is(err, errSkipSave) {
		if s.metrics != nil {
			s.metrics.IncStale()
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"issued_revision":  revision,
			"current_revision": current.CartRevision,
		}), "discarding stale shipping options response")
		return current, nil
	}
	if err != nil {
		return nil, err
	}
	return current, nil
}

// update loads the session, applies fn and saves the result. When another
// request saved the session in between, fn is replayed on the newer copy.
// If fn fails the loaded session is returned along with its error.
func (s *Service) update(ctx context.Context, id string, fn func(sess *Session) error) (*Session, error) {
	for attempt := 1; ; attempt++ {
		sess, err := s.sessions.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(sess); err != nil {
			return sess, err
		}
		sess.UpdatedAt = s.now().UTC()
		err = s.sessions.Save(ctx, sess)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrSessionChanged) || attempt == maxSaveAttempts {
			return nil, err
		}
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"session_id": id, "attempt": attempt}), "checkout session changed concurrently, retrying")
	}
}

// SelectMethod chooses the shipping method of a package.
func (s *Service) SelectMethod(ctx context.Context, id, packageID, methodID string) (*View, error) {
	return s.mutate(ctx, id, packageID, func(store *selection.Store) error {
		return store.SelectMethod(packageID, strings.TrimSpace(methodID))
	})
}

// LockerInput is the locker picked for one slot.
type LockerInput struct {
	SlotIndex int
	Code      *string
	Address   *string
}

// SetLockerSlot assigns a locker to a slot and remembers it for the customer.
func (s *Service) SetLockerSlot(ctx context.Context, id, packageID string, input LockerInput) (*View, error) {
	var customerID *string
	view, err := s.mutateSession(ctx, id, packageID, func(sess *Session, store *selection.Store) error {
		if err := store.SetLockerSlot(packageID, input.SlotIndex, input.Code, input.Address); err != nil {
			return err
		}
		if method, ok := store.SelectedMethod(packageID); ok && method.IsLocker() {
			customerID = sess.CustomerID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.recent != nil && customerID != nil && input.Code != nil {
		if err := s.recent.Remember(ctx, *customerID, lockers.Locker{Code: *input.Code, Address: input.Address}); err != nil {
			s.logg.Warn(s.logg.WithSessionID(ctx, id), "failed to remember recent locker")
		}
	}
	return view, nil
}

// ToggleCustomAddress flips the per-package address override.
func (s *Service) ToggleCustomAddress(ctx context.Context, id, packageID string) (*View, error) {
	return s.mutate(ctx, id, packageID, func(store *selection.Store) error {
		return store.ToggleCustomAddress(packageID)
	})
}

// UpdateCustomAddressFields writes several override fields at once.
func (s *Service) UpdateCustomAddressFields(ctx context.Context, id, packageID string, fields map[enums.AddressField]string) (*View, error) {
	return s.mutate(ctx, id, packageID, func(store *selection.Store) error {
		for field := range fields {
			if !field.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "unknown address field").
					WithDetails(map[string]any{"field": string(field)})
			}
		}
		for _, field := range enums.AllAddressFields() {
			value, ok := fields[field]
			if !ok {
				continue
			}
			if err := store.UpdateCustomAddressField(packageID, field, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id, packageID string, fn func(store *selection.Store) error) (*View, error) {
	return s.mutateSession(ctx, id, packageID, func(_ *Session, store *selection.Store) error {
		return fn(store)
	})
}

// mutateSession applies fn to the session's selections. A reference to a
// package that no longer exists is answered with the current state unchanged.
func (s *Service) mutateSession(ctx context.Context, id, packageID string, fn func(sess *Session, store *selection.Store) error) (*View, error) {
	var store *selection.Store
	sess, err := s.update(ctx, id, func(sess *Session) error {
		store = sess.store()
		if err := fn(sess, store); err != nil {
			return err
		}
		sess.apply(store)
		s.refreshShipping(sess, store)
		return nil
	})
	if err != nil {
		if sess != nil && pkgerrors.IsCode(err, pkgerrors.CodeStalePackage) {
			ctx = s.logg.WithPackageID(s.logg.WithSessionID(ctx, id), packageID)
			s.logg.Warn(ctx, "ignoring selection change for stale package")
			return buildView(sess, sess.store()), nil
		}
		return nil, err
	}
	return buildView(sess, store), nil
}

func (s *Service) refreshShipping(sess *Session, store *selection.Store) {
	if len(store.Packages()) == 0 {
		sess.Wizard.Shipping = nil
		return
	}
	summary := shippingSummary(store)
	sess.Wizard.Shipping = &summary
}

// Readiness lists the open requirements of the session.
func (s *Service) Readiness(ctx context.Context, id string) (*Readiness, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &view.Readiness, nil
}

// SetAddress captures the buyer address.
func (s *Service) SetAddress(ctx context.Context, id string, address wizard.AddressData) (*View, error) {
	view, _, err := s.withWizard(ctx, id, func(m *wizard.Machine) (wizard.Transition, error) {
		return wizard.Transition{}, m.SetAddress(address)
	})
	return view, err
}

// SetPayment captures the payment method.
func (s *Service) SetPayment(ctx context.Context, id string, payment wizard.PaymentSelection) (*View, error) {
	view, _, err := s.withWizard(ctx, id, func(m *wizard.Machine) (wizard.Transition, error) {
		return wizard.Transition{}, m.SetPayment(payment)
	})
	return view, err
}

// SetAcceptTerms records the terms checkbox.
func (s *Service) SetAcceptTerms(ctx context.Context, id string, accepted bool) (*View, error) {
	view, _, err := s.withWizard(ctx, id, func(m *wizard.Machine) (wizard.Transition, error) {
		m.SetAcceptTerms(accepted)
		return wizard.Transition{}, nil
	})
	return view, err
}

// NextStep advances the wizard.
func (s *Service) NextStep(ctx context.Context, id string) (*StepView, error) {
	return s.step(ctx, id, func(m *wizard.Machine) (wizard.Transition, error) {
		return m.NextStep(), nil
	})
}

// PrevStep moves the wizard back.
func (s *Service) PrevStep(ctx context.Context, id string) (*StepView, error) {
	return s.step(ctx, id, func(m *wizard.Machine) (wizard.Transition, error) {
		return m.PrevStep(), nil
	})
}

// GoToStep jumps to step.
func (s *Service) GoToStep(ctx context.Context, id string, step wizard.Step) (*StepView, error) {
	return s.step(ctx, id, func(m *wizard.Machine) (wizard.Transition, error) {
		return m.GoToStep(step)
	})
}

func (s *Service) step(ctx context.Context, id string, fn func(m *wizard.Machine) (wizard.Transition, error)) (*StepView, error) {
	view, transition, err := s.withWizard(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	return &StepView{Transition: transition, Session: view}, nil
}

func (s *Service) withWizard(ctx context.Context, id string, fn func(m *wizard.Machine) (wizard.Transition, error)) (*View, wizard.Transition, error) {
	var (
		store      *selection.Store
		transition wizard.Transition
	)
	sess, err := s.update(ctx, id, func(sess *Session) error {
		store = sess.store()
		validator := selection.NewValidator(store)
		machine, err := wizard.Resume(sess.Wizard, func() bool {
			return !sess.OptionsPending() && validator.IsWizardReadyToSubmit()
		})
		if err != nil {
			return err
		}
		if transition, err = fn(machine); err != nil {
			return err
		}
		sess.Wizard = machine.State()
		return nil
	})
	if err != nil {
		return nil, wizard.Transition{}, err
	}
	return buildView(sess, store), transition, nil
}

// SubmitResult is returned after the order API accepted the checkout.
type SubmitResult struct {
	orders.SubmitResult
	Totals Totals `json:"totals"`
}

// Submit builds the order from the session and hands it to the order API. The
// session is discarded once the order is accepted.
func (s *Service) Submit(ctx context.Context, id string) (*SubmitResult, error) {
	ctx = s.logg.WithSessionID(ctx, id)
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.OptionsPending() {
		s.incSubmission(submissionIncomplete)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping options are out of date, refresh before submitting").
			WithDetails(map[string]any{"cart_revision": sess.CartRevision, "options_revision": sess.OptionsRevision})
	}

	store := sess.store()
	order, err := submission.Build(sess.Cart, sess.Wizard, store)
	if err != nil {
		s.incSubmission(submissionIncomplete)
		return nil, err
	}

	result, err := s.submitter.Submit(ctx, sess.ID, *order)
	if err != nil {
		s.incSubmission(submissionFailed)
		s.logg.Error(ctx, "order submission failed", err)
		return nil, err
	}
	s.incSubmission(submissionSubmitted)

	if err := s.sessions.Delete(ctx, id); err != nil {
		s.logg.Error(ctx, "failed to discard submitted checkout session", err)
	}
	s.logg.Info(s.logg.WithField(ctx, "order_id", result.OrderID), "checkout submitted")

	return &SubmitResult{
		SubmitResult: *result,
		Totals: Totals{
			ItemsTotal:    order.ItemsTotal,
			ShippingTotal: order.ShippingTotal,
			GrandTotal:    order.GrandTotal,
		},
	}, nil
}

func (s *Service) incSubmission(outcome string) {
	if s.metrics != nil {
		s.metrics.IncSubmission(outcome)
	}
}

func normalizeCustomer(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func withSessionID(err error, id string) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	details := map[string]any{"session_id": id}
	if existing, ok := typed.Details().(map[string]any); ok {
		for k, v := range existing {
			details[k] = v
		}
	}
	return pkgerrors.Wrap(typed.Code(), err, typed.Message()).WithDetails(details)
}
