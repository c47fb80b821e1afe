package station

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canline/labelstation/internal/printer"
)

func TestReprint_DispatchesRecordedLabel(t *testing.T) {
	f := newFixture(t, Config{})

	// Record one event the normal way, then re-print it.
	_, err := f.ctrl.SubmitPrint(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, 1, f.gateway.sends)

	out, err := Reprint(context.Background(), f.events, fakeCatalog{}, f.gateway, 100)
	require.NoError(t, err)

	assert.Equal(t, OutcomePrinted, out.Kind)
	assert.Equal(t, 100, out.CanID)
	assert.Equal(t, "000100000075012001250", out.Code)
	assert.Equal(t, 2, f.gateway.sends)
	// The re-printed label carries the recorded code and the catalog's
	// ingredients for the recorded product.
	assert.Contains(t, string(f.gateway.lastBytes), out.Code)
	assert.Contains(t, string(f.gateway.lastBytes), "Leche entera")

	// Re-printing moves nothing durable: same counter, same single event.
	assert.Equal(t, 101, f.counters.counter.NextID)
	assert.Len(t, f.events.events, 1)
}

func TestReprint_UnknownCanID(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := Reprint(context.Background(), f.events, fakeCatalog{}, f.gateway, 999)
	require.Error(t, err)
	assert.Zero(t, f.gateway.sends)
}

func TestReprint_PrinterUnavailable(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.ctrl.SubmitPrint(context.Background(), validRequest())
	require.NoError(t, err)

	f.gateway.status = printer.StatusUnavailable
	_, err = Reprint(context.Background(), f.events, fakeCatalog{}, f.gateway, 100)
	require.Error(t, err)
	assert.Equal(t, 1, f.gateway.sends)
}
