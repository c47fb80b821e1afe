package station

import (
	"context"
	"fmt"

	"github.com/canline/labelstation/internal/label"
	"github.com/canline/labelstation/internal/printer"
	"github.com/canline/labelstation/internal/types"
)

// EventFinder looks up recorded print events for re-printing.
type EventFinder interface {
	ByCanID(ctx context.Context, canID int) (types.PrintEvent, error)
}

// Reprint renders the label for a recorded event and dispatches it again.
// No counter movement and no new event: the recorded data is the source of
// truth after a dispatch failure or an offline session, and re-running the
// transaction instead would mint a new can identifier.
//
// The recorded event carries everything on the label except the product
// ingredients, which are re-read from the catalog by product name; a
// product since removed from the catalog prints with an empty ingredients
// line rather than failing.
func Reprint(ctx context.Context, events EventFinder, catalog Catalog,
	gateway printer.Gateway, canID int) (Outcome, error) {
	ev, err := events.ByCanID(ctx, canID)
	if err != nil {
		return Outcome{}, fmt.Errorf("look up can %d: %w", canID, err)
	}

	var ingredients string
	products, err := catalog.Products(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load products: %w", err)
	}
	for _, p := range products {
		if p.Name == ev.ProductName {
			ingredients = p.Ingredients
			break
		}
	}

	if status := gateway.Probe(ctx); status != printer.StatusReady {
		return Outcome{}, fmt.Errorf("printer %s: %w", status, types.ErrNoDevice)
	}
	device, err := gateway.DefaultDevice(ctx)
	if err != nil {
		return Outcome{}, err
	}

	payload := label.Render(label.Fields{
		ProductName: ev.ProductName,
		BrandName:   ev.BrandName,
		Ingredients: ingredients,
		RNE:         ev.RNE,
		RNPA:        ev.RNPA,
		ProducedOn:  ev.ProducedOn,
		ExpiresOn:   ev.ExpiresOn,
		Lot:         ev.Lot,
		Code:        ev.Code,
	})
	if err := device.Send(ctx, []byte(payload)); err != nil {
		return Outcome{}, fmt.Errorf("dispatch to %s: %w", device.Name(), err)
	}

	return Outcome{
		Kind:    OutcomePrinted,
		CanID:   ev.CanID,
		Code:    ev.Code,
		Event:   ev,
		Device:  device.Name(),
		Message: fmt.Sprintf("Re-sent the label for can %d to %s.", ev.CanID, device.Name()),
	}, nil
}
