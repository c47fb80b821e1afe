package station

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canline/labelstation/internal/printer"
	"github.com/canline/labelstation/internal/types"
)

func TestConsole_HappyPath(t *testing.T) {
	f := newFixture(t, Config{})

	// brand 1, product 1, lot, accept live weight, then new configuration
	// (which reloads), then EOF ends the session.
	input := "1\n1\n00007\n\nn\n"
	var out strings.Builder

	console := NewConsole(f.ctrl, strings.NewReader(input), &out, 2)
	console.SetWeight(1250)

	require.NoError(t, console.Run(context.Background()))

	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, 100, ev.CanID)
	assert.Equal(t, "00007", ev.Lot)
	assert.Equal(t, 1250, ev.WeightGrams)
	assert.Equal(t, "000100000075012001250", ev.Code)
	assert.Equal(t, 1, f.gateway.sends)
	assert.Contains(t, out.String(), "sent the label")
}

func TestConsole_KeepConfigurationClearsWeight(t *testing.T) {
	f := newFixture(t, Config{})

	// First unit with live weight, keep configuration, second unit typed
	// weight (the live value was cleared), then reset.
	input := "1\n1\n00007\n\nk\n00008\n500\nn\n"
	var out strings.Builder

	console := NewConsole(f.ctrl, strings.NewReader(input), &out, 2)
	console.SetWeight(1250)

	require.NoError(t, console.Run(context.Background()))

	require.Len(t, f.events.events, 2)
	assert.Equal(t, 1250, f.events.events[0].WeightGrams)
	assert.Equal(t, 500, f.events.events[1].WeightGrams)
	assert.Equal(t, 100, f.events.events[0].CanID)
	assert.Equal(t, 101, f.events.events[1].CanID)
	// Keep-configuration cleared the live weight before the second prompt.
	assert.Contains(t, out.String(), "Weight [0 g, enter to accept]")
}

func TestConsole_PrinterMissingEmergencyPath(t *testing.T) {
	f := newFixture(t, Config{})
	f.gateway.status = printer.StatusUnavailable

	input := "1\n1\n00007\n1250\ne\n" + testSecret + "\nn\n"
	var out strings.Builder

	console := NewConsole(f.ctrl, strings.NewReader(input), &out, 2)
	require.NoError(t, console.Run(context.Background()))

	// The emergency path recorded the identical event without printing.
	require.Len(t, f.events.events, 1)
	assert.Equal(t, 100, f.events.events[0].CanID)
	assert.Equal(t, "000100000075012001250", f.events.events[0].Code)
	assert.Zero(t, f.gateway.sends)
	assert.Contains(t, out.String(), "No printer found")
	assert.Contains(t, out.String(), "without printing")
}

func TestConsole_ResetLeavesEmergencyMode(t *testing.T) {
	f := newFixture(t, Config{})
	f.gateway.status = printer.StatusUnavailable

	// Emergency activation, then the "leave emergency mode and reset"
	// continuation: the next session must be back in NORMAL mode.
	input := "1\n1\n00007\n1250\ne\n" + testSecret + "\nn\n"
	var out strings.Builder

	console := NewConsole(f.ctrl, strings.NewReader(input), &out, 2)
	require.NoError(t, console.Run(context.Background()))

	assert.Equal(t, types.ModeNormal, f.ctrl.Mode())
	assert.Contains(t, out.String(), "leave emergency mode and reset")
}

func TestConsole_InvalidLotReprompts(t *testing.T) {
	f := newFixture(t, Config{})

	input := "1\n1\n123\n00007\n1250\nn\n"
	var out strings.Builder

	console := NewConsole(f.ctrl, strings.NewReader(input), &out, 2)
	require.NoError(t, console.Run(context.Background()))

	require.Len(t, f.events.events, 1)
	assert.Equal(t, "00007", f.events.events[0].Lot)
	assert.Contains(t, out.String(), "lot must be exactly 5 digits")
}
