package checkout

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/checkout-shipping/internal/lockers"
	"github.com/angelmondragon/checkout-shipping/internal/orders"
	"github.com/angelmondragon/checkout-shipping/internal/packages"
	"github.com/angelmondragon/checkout-shipping/internal/shippingoptions"
	"github.com/angelmondragon/checkout-shipping/internal/submission"
	"github.com/angelmondragon/checkout-shipping/internal/wizard"
	"github.com/angelmondragon/checkout-shipping/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-shipping/pkg/errors"
	"github.com/angelmondragon/checkout-shipping/pkg/logger"
	"github.com/angelmondragon/checkout-shipping/pkg/money"
)

type memorySessions struct {
	mu         sync.Mutex
	sessions   map[string]Session
	beforeSave func()
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]Session{}}
}

func (m *memorySessions) Load(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	return &sess, nil
}

func (m *memorySessions) Save(ctx context.Context, session *Session) error {
	if hook := m.beforeSave; hook != nil {
		m.beforeSave = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[session.ID].Version != session.Version {
		return ErrSessionChanged
	}
	session.Version++
	m.sessions[session.ID] = *session
	return nil
}

func (m *memorySessions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// write simulates another request saving the session.
func (m *memorySessions) write(id string, fn func(sess *Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.sessions[id]
	fn(&sess)
	sess.Version++
	m.sessions[id] = sess
}

func (m *memorySessions) bumpRevision(id string) {
	m.write(id, func(sess *Session) { sess.CartRevision++ })
}

type stubResolver struct {
	slots  map[string]int
	err    error
	calls  int
	before func()
}

func (r *stubResolver) Resolve(ctx context.Context, requests []packages.Request) (*shippingoptions.Resolution, error) {
	r.calls++
	if r.before != nil {
		r.before()
	}
	if r.err != nil {
		return nil, r.err
	}
	res := &shippingoptions.Resolution{Warnings: []string{}}
	for _, req := range requests {
		slots := r.slots[req.PackageID]
		res.Packages = append(res.Packages, shippingoptions.PackageOptions{
			Package: packages.Package{ID: req.PackageID, LockerSlotCount: slots, IsLockerEligible: slots > 0},
			Methods: []shippingoptions.MethodOption{
				{ID: "courier", Kind: enums.ShippingMethodKindCourier, Price: money.Round(14.99), IsAvailable: true},
				{ID: "locker", Kind: enums.ShippingMethodKindLocker, Price: money.Round(19.99), IsAvailable: slots > 0},
			},
		})
	}
	return res, nil
}

type stubSubmitter struct {
	key   string
	order submission.OrderSubmission
	err   error
}

func (s *stubSubmitter) Submit(ctx context.Context, key string, order submission.OrderSubmission) (*orders.SubmitResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.key = key
	s.order = order
	return &orders.SubmitResult{OrderID: "o-1", OrderNumber: "PF-1"}, nil
}

type stubMetrics struct {
	stale       int
	submissions map[string]int
}

func (m *stubMetrics) IncStale() { m.stale++ }

func (m *stubMetrics) IncSubmission(outcome string) {
	if m.submissions == nil {
		m.submissions = map[string]int{}
	}
	m.submissions[outcome]++
}

type stubRecent struct {
	remembered []lockers.Locker
}

func (r *stubRecent) Remember(ctx context.Context, customerID string, locker lockers.Locker) error {
	r.remembered = append(r.remembered, locker)
	return nil
}

type fixture struct {
	svc       *Service
	sessions  *memorySessions
	resolver  *stubResolver
	submitter *stubSubmitter
	metrics   *stubMetrics
	recent    *stubRecent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions:  newMemorySessions(),
		resolver:  &stubResolver{slots: map[string]int{"Rzeszów": 0, "Kraków": 2}},
		submitter: &stubSubmitter{},
		metrics:   &stubMetrics{},
		recent:    &stubRecent{},
	}
	svc, err := NewService(Params{
		Sessions:  f.sessions,
		Resolver:  f.resolver,
		Directory: StaticDirectory(packages.NewDirectory([]string{"Kraków"}, map[string]string{"Outlet": "Rzeszów"})),
		Submitter: f.submitter,
		Recent:    f.recent,
		Metrics:   f.metrics,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:       func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func strPtr(s string) *string { return &s }

// sampleCart has warehouse Rzeszów with 3 units and warehouse Kraków with 5 units.
func sampleCart() []packages.CartLineItem {
	return []packages.CartLineItem{
		{ProductID: "lamp", VariantID: "lamp-1", Quantity: 2, WarehouseID: strPtr("Rzeszów"), UnitPrice: money.Round(40)},
		{ProductID: "rug", VariantID: "rug-1", Quantity: 5, WarehouseID: strPtr("Kraków"), UnitPrice: money.Round(10)},
		{ProductID: "vase", VariantID: "vase-1", Quantity: 1, WarehouseID: strPtr("Outlet"), UnitPrice: money.Round(25)},
	}
}

func address() wizard.AddressData {
	return wizard.AddressData{
		FirstName: "Anna", LastName: "Nowak", Email: "anna@example.com", Phone: "600000000",
		Street: "Rejtana 1", PostalCode: "35-001", City: "Rzeszów",
	}
}

func TestCreateResolvesCartAndDefaultsSelections(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	view, err := f.svc.Create(context.Background(), CreateInput{CustomerID: strPtr(" c1 "), Cart: sampleCart()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.Step != wizard.StepAddress || view.OptionsPending {
		t.Fatalf("unexpected view state %+v", view)
	}
	if len(view.Packages) != 2 || view.Packages[0].Package.ID != "Rzeszów" || view.Packages[1].Package.ID != "Kraków" {
		t.Fatalf("unexpected packages %+v", view.Packages)
	}
	if view.Packages[0].Package.TotalQuantity() != 3 {
		t.Fatalf("outlet stock should ship with Rzeszów")
	}
	for _, pkg := range view.Packages {
		if pkg.Selection.MethodID == nil || *pkg.Selection.MethodID != "courier" || !pkg.Ready {
			t.Fatalf("expected courier default for %s: %+v", pkg.Package.ID, pkg.Selection)
		}
	}
	if view.Totals.ShippingTotal != money.Round(29.98) || view.Totals.ItemsTotal != money.Round(155) {
		t.Fatalf("unexpected totals %+v", view.Totals)
	}
	if *view.CustomerID != "c1" {
		t.Fatalf("customer id should be trimmed, got %q", *view.CustomerID)
	}
	if view.Wizard.Shipping == nil || view.Wizard.Shipping.PackageCount != 2 {
		t.Fatalf("shipping summary not captured: %+v", view.Wizard.Shipping)
	}
}

func TestFullCheckoutFlowSubmitsOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	view, err := f.svc.Create(ctx, CreateInput{CustomerID: strPtr("c1"), Cart: sampleCart()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := view.ID

	if _, err := f.svc.SetAddress(ctx, id, address()); err != nil {
		t.Fatalf("address: %v", err)
	}
	if _, err := f.svc.NextStep(ctx, id); err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, err := f.svc.SelectMethod(ctx, id, "Kraków", "locker"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := f.svc.SetLockerSlot(ctx, id, "Kraków", LockerInput{SlotIndex: 0, Code: strPtr("KRA01")}); err != nil {
		t.Fatalf("slot 0: %v", err)
	}

	step, err := f.svc.GoToStep(ctx, id, wizard.StepSummary)
	if err != nil {
		t.Fatalf("goto: %v", err)
	}
	if step.Transition.SubmitReady {
		t.Fatal("slot 1 is unresolved, summary must not be submit-ready")
	}

	if _, err := f.svc.SetLockerSlot(ctx, id, "Kraków", LockerInput{SlotIndex: 1, Code: strPtr("KRA02"), Address: strPtr("Kraków, Rynek 2")}); err != nil {
		t.Fatalf("slot 1: %v", err)
	}
	if _, err := f.svc.SetPayment(ctx, id, wizard.PaymentSelection{Method: "blik"}); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := f.svc.SetAcceptTerms(ctx, id, true); err != nil {
		t.Fatalf("terms: %v", err)
	}
	step, err = f.svc.NextStep(ctx, id)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !step.Transition.SubmitReady || !step.Session.Readiness.CanSubmit {
		t.Fatalf("expected ready summary, missing %+v", step.Session.Readiness.Missing)
	}

	res, err := f.svc.Submit(ctx, id)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.OrderID != "o-1" || f.submitter.key != id {
		t.Fatalf("unexpected submit result %+v key=%s", res, f.submitter.key)
	}
	if len(f.submitter.order.Shipments) != 3 {
		t.Fatalf("expected courier line plus two locker slots, got %d", len(f.submitter.order.Shipments))
	}
	if res.Totals.ShippingTotal != money.Round(14.99+20.00) {
		t.Fatalf("unexpected shipping total %s", res.Totals.ShippingTotal)
	}
	if len(f.recent.remembered) != 2 {
		t.Fatalf("expected both lockers remembered, got %+v", f.recent.remembered)
	}
	if f.metrics.submissions[submissionSubmitted] != 1 {
		t.Fatalf("expected submission metric, got %+v", f.metrics.submissions)
	}
	if _, err := f.svc.Get(ctx, id); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("session should be discarded after submit, got %v", err)
	}
}

func TestSubmitIncompleteReportsRequirements(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	view, _ := f.svc.Create(context.Background(), CreateInput{Cart: sampleCart()})

	_, err := f.svc.Submit(context.Background(), view.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeIncompleteSelection) {
		t.Fatalf("expected incomplete selection, got %v", err)
	}
	if f.metrics.submissions[submissionIncomplete] != 1 {
		t.Fatalf("expected incomplete metric, got %+v", f.metrics.submissions)
	}
	if f.submitter.key != "" {
		t.Fatal("order api must not be called")
	}
}

func TestStaleResolverResponseIsDiscarded(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	view, _ := f.svc.Create(ctx, CreateInput{Cart: sampleCart()})

	f.resolver.before = func() { f.sessions.bumpRevision(view.ID) }
	out, err := f.svc.ReplaceCart(ctx, view.ID, sampleCart()[:1])
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if f.metrics.stale != 1 {
		t.Fatalf("expected stale metric, got %d", f.metrics.stale)
	}
	if !out.OptionsPending || len(out.Packages) != 2 {
		t.Fatalf("stale response must not be applied: %+v", out)
	}

	f.resolver.before = nil
	refreshed, err := f.svc.Refresh(ctx, view.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.OptionsPending || len(refreshed.Packages) != 1 {
		t.Fatalf("refresh should apply the latest cart: %+v", refreshed)
	}
}

func TestNewerCartWinsWhenItLandsBeforeOptionsAreSaved(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	view, _ := f.svc.Create(ctx, CreateInput{Cart: sampleCart()})

	newer := []packages.CartLineItem{sampleCart()[1]}
	f.resolver.before = func() {
		f.sessions.beforeSave = func() {
			f.sessions.write(view.ID, func(sess *Session) {
				sess.Cart = newer
				sess.CartRevision++
			})
		}
	}
	out, err := f.svc.ReplaceCart(ctx, view.ID, sampleCart()[:1])
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if f.metrics.stale != 1 {
		t.Fatalf("expected the older response to be counted as stale, got %d", f.metrics.stale)
	}

	stored, _ := f.sessions.Load(ctx, view.ID)
	if stored.CartRevision != 3 || len(stored.Cart) != 1 || stored.Cart[0].ProductID != "rug" {
		t.Fatalf("newer cart was overwritten: rev=%d cart=%+v", stored.CartRevision, stored.Cart)
	}
	if !stored.OptionsPending() || !out.OptionsPending {
		t.Fatalf("options resolved for the older cart must not be attached to the newer one")
	}
}

func TestConcurrentSelectionChangesAreBothKept(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	view, _ := f.svc.Create(ctx, CreateInput{Cart: sampleCart()})

	f.sessions.beforeSave = func() {
		f.sessions.write(view.ID, func(sess *Session) { sess.Wizard.AcceptTerms = true })
	}
	out, err := f.svc.SelectMethod(ctx, view.ID, "Kraków", "locker")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !out.Wizard.AcceptTerms {
		t.Fatal("terms accepted by the concurrent request were lost")
	}
	stored, _ := f.sessions.Load(ctx, view.ID)
	if method, ok := stored.store().SelectedMethod("Kraków"); !ok || method.ID != "locker" {
		t.Fatalf("selected method was lost: %+v", method)
	}
}

func TestSaveGivesUpAfterRepeatedConflicts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	view, _ := f.svc.Create(ctx, CreateInput{Cart: sampleCart()})

	var writes int
	var arm func()
	arm = func() {
		f.sessions.beforeSave = func() {
			writes++
			f.sessions.write(view.ID, func(sess *Session) {})
			arm()
		}
	}
	arm()
	_, err := f.svc.SetAcceptTerms(ctx, view.ID, true)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict after %d attempts, got %v", maxSaveAttempts, err)
	}
	if writes != maxSaveAttempts {
		t.Fatalf("expected %d save attempts, got %d", maxSaveAttempts, writes)
	}
}

func TestLockerSlotsAreBoundedByPackageSlotCount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.slots["Kraków"] = 100
	ctx := context.Background()
	view, _ := f.svc.Create(ctx, CreateInput{Cart: sampleCart()})
	if _, err := f.svc.SelectMethod(ctx, view.ID, "Kraków", "locker"); err != nil {
		t.Fatalf("select: %v", err)
	}

	if _, err := f.svc.SetLockerSlot(ctx, view.ID, "Kraków", LockerInput{SlotIndex: 99, Code: strPtr("KRA99")}); err != nil {
		t.Fatalf("last slot of a large package should be accepted: %v", err)
	}
	_, err := f.svc.SetLockerSlot(ctx, view.ID, "Kraków", LockerInput{SlotIndex: 100, Code: strPtr("KRA100")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error past the slot count, got %v", err)
	}
}

func TestReplaceCartKeepsSurvivingSelections(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	view, _ := f.svc.Create(ctx, CreateInput{Cart: sampleCart()})
	_, _ = f.svc.SelectMethod(ctx, view.ID, "Kraków", "locker")
	_, _ = f.svc.SetLockerSlot(ctx, view.ID, "Kraków", LockerInput{SlotIndex: 1, Code: strPtr("KRA02")})

	f.resolver.slots["Kraków"] = 1
	cart := sampleCart()
	cart = append(cart, packages.CartLineItem{ProductID: "mat", VariantID: "mat-1", Quantity: 1, UnitPrice: money.Round(5)})
	out, err := f.svc.ReplaceCart(ctx, view.ID, cart)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(out.Packages) != 3 || out.Packages[2].Package.ID != packages.DefaultPackageKey {
		t.Fatalf("expected default bucket package, got %+v", out.Packages)
	}
	krakow := out.Packages[1]
	if krakow.Selection.MethodID == nil || *krakow.Selection.MethodID != "locker" {
		t.Fatalf("surviving selection lost: %+v", krakow.Selection)
	}
	if len(krakow.Selection.LockerSlots) != 0 {
		t.Fatalf("slot 1 must be pruned once slot count drops to 1: %+v", krakow.Selection.LockerSlots)
	}
}

func TestStalePackageOperationIsNoop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	view, _ := f.svc.Create(ctx, CreateInput{Cart: sampleCart()})

	out, err := f.svc.SelectMethod(ctx, view.ID, "Gdańsk", "courier")
	if err != nil {
		t.Fatalf("stale package must not fail: %v", err)
	}
	if len(out.Packages) != 2 {
		t.Fatalf("unexpected view %+v", out)
	}
	if _, err := f.svc.ToggleCustomAddress(ctx, view.ID, "Gdańsk"); err != nil {
		t.Fatalf("stale toggle must not fail: %v", err)
	}
}

func TestResolverFailureLeavesSelectionsUntouched(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	view, _ := f.svc.Create(ctx, CreateInput{Cart: sampleCart()})
	_, _ = f.svc.SelectMethod(ctx, view.ID, "Kraków", "locker")

	f.resolver.err = errors.New("connection refused")
	_, err := f.svc.ReplaceCart(ctx, view.ID, sampleCart()[:2])
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	current, err := f.svc.Get(ctx, view.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !current.OptionsPending || current.Readiness.CanSubmit {
		t.Fatalf("pending options must block submission: %+v", current.Readiness)
	}
	if *current.Packages[1].Selection.MethodID != "locker" {
		t.Fatal("selection must survive resolver failure")
	}
	if _, err := f.svc.Submit(ctx, view.ID); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict while options pending, got %v", err)
	}

	f.resolver.err = nil
	if _, err := f.svc.Refresh(ctx, view.ID); err != nil {
		t.Fatalf("refresh: %v", err)
	}
}

func TestCreateReportsSessionIDWhenResolverFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolver.err = pkgerrors.New(pkgerrors.CodeDependency, "shipping backend down")

	_, err := f.svc.Create(context.Background(), CreateInput{Cart: sampleCart()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	details, _ := typed.Details().(map[string]any)
	id, _ := details["session_id"].(string)
	if id == "" {
		t.Fatalf("expected session id in details, got %#v", typed.Details())
	}
	if _, err := f.svc.Get(context.Background(), id); err != nil {
		t.Fatalf("session should exist for retry: %v", err)
	}
}

func TestUpdateCustomAddressFields(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	view, _ := f.svc.Create(ctx, CreateInput{Cart: sampleCart()})

	if _, err := f.svc.UpdateCustomAddressFields(ctx, view.ID, "Rzeszów", map[enums.AddressField]string{"country": "PL"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, _ = f.svc.ToggleCustomAddress(ctx, view.ID, "Rzeszów")
	out, err := f.svc.UpdateCustomAddressFields(ctx, view.ID, "Rzeszów", map[enums.AddressField]string{
		enums.AddressFieldFirstName: "Jan",
		enums.AddressFieldCity:      "Rzeszów",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	pkg := out.Packages[0]
	if pkg.Ready || len(pkg.Requirements) != 1 || pkg.Requirements[0].Kind != enums.RequirementCustomAddressIncomplete {
		t.Fatalf("expected incomplete custom address, got %+v", pkg.Requirements)
	}
	if pkg.Selection.CustomAddress.FirstName != "Jan" {
		t.Fatalf("field not stored: %+v", pkg.Selection.CustomAddress)
	}
}

func TestGoToStepRejectsInvalidStep(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	view, _ := f.svc.Create(context.Background(), CreateInput{})
	if _, err := f.svc.GoToStep(context.Background(), view.ID, wizard.Step(8)); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.resolver.calls != 0 {
		t.Fatal("empty cart must not call the resolver")
	}
}

func TestAbandonDeletesSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	view, _ := f.svc.Create(context.Background(), CreateInput{})
	if err := f.svc.Abandon(context.Background(), view.ID); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if err := f.svc.Abandon(context.Background(), view.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	t.Parallel()
	if _, err := NewService(Params{}); err == nil {
		t.Fatal("expected error without collaborators")
	}
}
