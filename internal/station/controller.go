// Package station implements the print/record transaction: the state
// machine that derives a unique traceability code for one physical can,
// durably records the event, advances the shared counter, and attempts the
// physical print — under intermittently available printer, scale, and
// backend.
//
// The event write and the counter advance are two separate network
// operations with no shared transaction. The event is written first: a
// crash between the two leaves a recorded event with an under-counting
// counter, which at worst re-issues the same can identifier on retry and is
// detectable by the (canID, lot) pair. The reverse order would leave a
// silent counter gap with no recorded cause.
package station

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/canline/labelstation/internal/code"
	"github.com/canline/labelstation/internal/label"
	"github.com/canline/labelstation/internal/observability"
	"github.com/canline/labelstation/internal/printer"
	"github.com/canline/labelstation/internal/types"
)

var lotPattern = regexp.MustCompile(`^[0-9]{5}$`)

// CounterStore is the durable "next identifier" record.
type CounterStore interface {
	Read(ctx context.Context) (types.Counter, error)
	Advance(ctx context.Context, handle string, expected, next int) error
}

// EventStore is the append-only print-event log.
type EventStore interface {
	Create(ctx context.Context, ev types.PrintEvent) error
	ExistsByLot(ctx context.Context, lot string) (bool, error)
}

// Catalog loads the immutable reference data.
type Catalog interface {
	Brands(ctx context.Context) ([]types.Brand, error)
	Products(ctx context.Context) ([]types.Product, error)
}

// OutcomeKind classifies how a submitted transaction terminated.
type OutcomeKind int

const (
	// OutcomePrinted: event recorded, counter advanced, payload handed to
	// the printer. Physical completion is not observable.
	OutcomePrinted OutcomeKind = iota

	// OutcomeSavedOffline: event recorded and counter advanced in OFFLINE
	// mode; no printer contact was attempted. The label must be printed
	// later from the recorded data.
	OutcomeSavedOffline

	// OutcomePrinterMissing: no gateway or no bound device in NORMAL mode.
	// Nothing was written; the request is carried in the outcome so the
	// operator can retry after reconnecting or activate emergency mode and
	// resubmit the identical request.
	OutcomePrinterMissing

	// OutcomeDispatchFailed: event recorded and counter advanced, but the
	// hand-off to the printer failed. Never rolled back; the operator
	// re-prints from the recorded data rather than re-running the
	// transaction, which would mint a new identifier.
	OutcomeDispatchFailed
)

// String returns the metrics/operator label for the outcome.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomePrinted:
		return "printed"
	case OutcomeSavedOffline:
		return "saved_offline"
	case OutcomePrinterMissing:
		return "printer_missing"
	case OutcomeDispatchFailed:
		return "dispatch_failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one accepted SubmitPrint call.
type Outcome struct {
	Kind    OutcomeKind
	CanID   int
	Code    string
	Event   types.PrintEvent
	Device  string
	Request types.LabelRequest
	// Message is the operator-facing summary of what happened and, where
	// relevant, the single remediating action.
	Message string
}

// Config adjusts controller policy.
type Config struct {
	// EnforceUniqueLots rejects a request whose lot already appears in the
	// event log, before any durable write. Deployment policy; enabled by
	// default in the station config.
	EnforceUniqueLots bool
}

// Controller owns the session state and runs the print transaction.
// All mutation of the cached counter and the operating mode goes through
// methods holding c.mu; the busy flag guards the single-writer assumption
// for the cached counter across the suspension points of one transaction.
type Controller struct {
	counters CounterStore
	events   EventStore
	catalog  Catalog
	gateway  printer.Gateway
	cfg      Config
	log      *slog.Logger
	metrics  *observability.Metrics

	mu      sync.Mutex
	busy    bool
	mode    types.OperatingMode
	matcher *SecretMatcher

	counter  types.Counter
	brands   map[string]types.Brand
	products map[string]types.Product
}

// NewController wires the transaction controller. metrics may be nil.
func NewController(counters CounterStore, events EventStore, catalog Catalog,
	gateway printer.Gateway, matcher *SecretMatcher, cfg Config,
	log *slog.Logger, metrics *observability.Metrics) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		counters: counters,
		events:   events,
		catalog:  catalog,
		gateway:  gateway,
		matcher:  matcher,
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		mode:     types.ModeNormal,
	}
}

// Load fetches the counter and the reference catalog. Called once at
// session start and again on a full reset.
func (c *Controller) Load(ctx context.Context) error {
	counter, err := c.counters.Read(ctx)
	if err != nil {
		return fmt.Errorf("load counter: %w", err)
	}

	brands, err := c.catalog.Brands(ctx)
	if err != nil {
		return fmt.Errorf("load brands: %w", err)
	}
	products, err := c.catalog.Products(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.counter = counter
	c.brands = make(map[string]types.Brand, len(brands))
	for _, b := range brands {
		c.brands[b.ID] = b
	}
	c.products = make(map[string]types.Product, len(products))
	for _, p := range products {
		c.products[p.ID] = p
	}
	c.metrics.SetCounter(counter.NextID)

	c.log.Info("session loaded",
		"next_can_id", counter.NextID,
		"brands", len(brands),
		"products", len(products))
	return nil
}

// Reset is the full-reset continuation: the session returns to NORMAL
// mode and the counter and catalog are re-fetched. OFFLINE never survives
// a reset; emergency mode is re-entered deliberately, not inherited.
// Refused while a transaction is in flight.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return types.ErrBusy
	}
	if c.mode != types.ModeNormal {
		c.toggleLocked()
	}
	c.mu.Unlock()
	return c.Load(ctx)
}

// Mode returns the current operating mode.
func (c *Controller) Mode() types.OperatingMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// NextCanID returns the cached next identifier, for display.
func (c *Controller) NextCanID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter.NextID
}

// Brands returns the loaded brands keyed by id.
func (c *Controller) Brands() map[string]types.Brand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brands
}

// Products returns the loaded products keyed by id.
func (c *Controller) Products() map[string]types.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products
}

// FeedKey passes one session keystroke to the secret matcher and toggles
// the operating mode when the trailing keystrokes spell the secret.
// The toggle is refused while a transaction is in flight so the mode read
// at step one of a transaction holds through its suspension points.
func (c *Controller) FeedKey(r rune) (toggled bool, mode types.OperatingMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.matcher == nil || !c.matcher.Feed(r) {
		return false, c.mode
	}
	if c.busy {
		c.log.Warn("mode toggle ignored while transaction in flight")
		return false, c.mode
	}
	c.toggleLocked()
	return true, c.mode
}

// ActivateEmergency enters OFFLINE mode after the operator types the secret
// at the printer-missing prompt. Same secret as the keystroke path.
func (c *Controller) ActivateEmergency(typed string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.matcher == nil {
		return types.ErrBadSecret
	}
	if err := c.matcher.Verify(typed); err != nil {
		return err
	}
	if c.busy {
		return types.ErrBusy
	}
	if c.mode != types.ModeOffline {
		c.toggleLocked()
	}
	return nil
}

func (c *Controller) toggleLocked() {
	if c.mode == types.ModeNormal {
		c.mode = types.ModeOffline
	} else {
		c.mode = types.ModeNormal
	}
	c.log.Info("operating mode changed", "mode", c.mode.String())
}

// SubmitPrint runs one print transaction. Steps execute strictly in order;
// each is a commit point. A second call while one is in flight returns
// ErrBusy: nothing else in the data model prevents two concurrent
// transactions from reading the same cached can identifier.
func (c *Controller) SubmitPrint(ctx context.Context, req types.LabelRequest) (Outcome, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return Outcome{}, types.ErrBusy
	}
	c.busy = true
	mode := c.mode
	canID := c.counter.NextID
	handle := c.counter.Handle
	brand, haveBrand := c.brands[req.BrandID]
	product, haveProduct := c.products[req.ProductID]
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	// Step 1: validate. No side effect occurs on rejection.
	if req.BrandID == "" || !haveBrand {
		return Outcome{}, types.ErrNoBrand
	}
	if req.ProductID == "" || !haveProduct {
		return Outcome{}, types.ErrNoProduct
	}
	if !product.SoldUnder(brand.ID) {
		return Outcome{}, types.ErrBrandMismatch
	}
	if !lotPattern.MatchString(req.Lot) {
		return Outcome{}, types.ErrBadLot
	}
	if req.WeightGrams < 0 || req.WeightGrams >= types.MaxWeightGrams {
		return Outcome{}, fmt.Errorf("weight %d g: %w", req.WeightGrams, types.ErrFieldOverflow)
	}
	if c.cfg.EnforceUniqueLots {
		exists, err := c.events.ExistsByLot(ctx, req.Lot)
		if err != nil {
			return Outcome{}, fmt.Errorf("lot check: %w", err)
		}
		if exists {
			return Outcome{}, types.ErrDuplicateLot
		}
	}

	// Step 2: printer availability, NORMAL mode only. Absence routes to
	// the printer-missing branch before any durable write; the validated
	// request rides along so no input data is discarded.
	var device printer.Device
	if mode == types.ModeNormal {
		switch status := c.gateway.Probe(ctx); status {
		case printer.StatusReady:
			d, err := c.gateway.DefaultDevice(ctx)
			if err != nil {
				return c.printerMissing(req), nil
			}
			device = d
		default:
			c.log.Warn("printer not available", "status", status.String())
			return c.printerMissing(req), nil
		}
	}

	// Steps 3-4: the cached counter is the source of truth between
	// confirmed advances; the code is a pure function of the request.
	code21, err := code.Format(canID, req.Lot, brand.Indicator, product.Code, req.WeightGrams)
	if err != nil {
		return Outcome{}, fmt.Errorf("traceability code: %w", err)
	}

	payload := label.Render(label.Fields{
		ProductName: product.Name,
		BrandName:   brand.Name,
		Ingredients: product.Ingredients,
		RNE:         product.RNE,
		RNPA:        product.RNPA,
		ProducedOn:  req.ProducedOn,
		ExpiresOn:   req.ExpiresOn,
		Lot:         req.Lot,
		Code:        code21,
	})

	event := types.PrintEvent{
		EventID:     types.NewEventID(),
		CanID:       canID,
		Lot:         req.Lot,
		BrandName:   brand.Name,
		ProductName: product.Name,
		WeightGrams: req.WeightGrams,
		RNE:         product.RNE,
		RNPA:        product.RNPA,
		Code:        code21,
		ProducedOn:  req.ProducedOn,
		ExpiresOn:   req.ExpiresOn,
	}

	// Step 5: persist the event. On failure nothing was written and the
	// cached counter is untouched, so a retry reuses the same canID.
	if err := c.events.Create(ctx, event); err != nil {
		c.metrics.ObservePrint("store_failure")
		return Outcome{}, fmt.Errorf("record print event: %w", err)
	}

	// Step 6: advance the counter, conditionally on the value we used.
	// An unconfirmed advance leaves the cache unchanged: the event exists
	// but the counter under-counts, which the (canID, lot) pair makes
	// detectable.
	if err := c.counters.Advance(ctx, handle, canID, canID+1); err != nil {
		c.metrics.ObservePrint("counter_failure")
		return Outcome{}, fmt.Errorf("event %d recorded but counter not advanced: %w", canID, err)
	}
	c.mu.Lock()
	c.counter.NextID = canID + 1
	c.mu.Unlock()
	c.metrics.SetCounter(canID + 1)

	c.log.Info("print event recorded",
		"can_id", canID,
		"lot", req.Lot,
		"brand", brand.Name,
		"product", product.Name,
		"weight_g", req.WeightGrams,
		"mode", mode.String())

	out := Outcome{
		CanID:   canID,
		Code:    code21,
		Event:   event,
		Request: req,
	}

	if mode == types.ModeOffline {
		out.Kind = OutcomeSavedOffline
		out.Message = fmt.Sprintf("Saved can %d (lot %s) without printing. Print the label later from the recorded data.", canID, req.Lot)
		c.metrics.ObservePrint(out.Kind.String())
		return out, nil
	}

	// Step 7: dispatch. Failure here is reported but never rolls back the
	// durable record.
	out.Device = device.Name()
	if err := device.Send(ctx, []byte(payload)); err != nil {
		c.log.Error("label dispatch failed", "can_id", canID, "device", out.Device, "error", err)
		c.metrics.ObserveDispatchFailure()
		out.Kind = OutcomeDispatchFailed
		out.Message = fmt.Sprintf("Can %d recorded, but the label did not reach %s. Re-print it from the recorded data.", canID, out.Device)
		c.metrics.ObservePrint(out.Kind.String())
		return out, nil
	}

	out.Kind = OutcomePrinted
	out.Message = fmt.Sprintf("Saved can %d and sent the label to %s.", canID, out.Device)
	c.metrics.ObservePrint(out.Kind.String())
	return out, nil
}

// printerMissing builds the no-write branch outcome.
func (c *Controller) printerMissing(req types.LabelRequest) Outcome {
	c.metrics.ObservePrint(OutcomePrinterMissing.String())
	return Outcome{
		Kind:    OutcomePrinterMissing,
		Request: req,
		Message: "No printer found. Reconnect the printer and retry, or activate emergency mode to record without printing.",
	}
}
