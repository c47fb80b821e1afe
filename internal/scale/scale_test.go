package scale

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestParseReading(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		grams int
		ok    bool
	}{
		{name: "plain kilograms", chunk: "1.250", grams: 1250, ok: true},
		{name: "framed reading", chunk: "ST,GS,+  0.500 kg\r\n", grams: 500, ok: true},
		{name: "integer kilograms", chunk: "2", grams: 2000, ok: true},
		{name: "rounds to nearest gram", chunk: "0.0005", grams: 1, ok: true},
		{name: "zero", chunk: "0.000", grams: 0, ok: true},
		{name: "no numeral", chunk: "ERR\r\n", ok: false},
		{name: "empty chunk", chunk: "", ok: false},
		{name: "first numeral wins", chunk: "1.5 2.5", grams: 1500, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grams, ok := ParseReading(tt.chunk)
			if ok != tt.ok {
				t.Fatalf("ParseReading(%q) ok = %v, want %v", tt.chunk, ok, tt.ok)
			}
			if ok && grams != tt.grams {
				t.Errorf("ParseReading(%q) = %d, want %d", tt.chunk, grams, tt.grams)
			}
		})
	}
}

// chunkTransport serves fixed chunks then blocks until closed.
type chunkTransport struct {
	chunks []string
}

func (t *chunkTransport) Name() string { return "test" }

func (t *chunkTransport) Open(ctx context.Context) (io.ReadCloser, error) {
	pr, pw := io.Pipe()
	go func() {
		for _, c := range t.chunks {
			if _, err := io.Copy(pw, strings.NewReader(c)); err != nil {
				return
			}
			// Separate writes so each chunk arrives as its own Read.
			time.Sleep(time.Millisecond)
		}
	}()
	return pr, nil
}

func TestReader_LastValueWins(t *testing.T) {
	transport := &chunkTransport{chunks: []string{"0.100\r\n", "garbage\r\n", "1.250\r\n"}}

	var mu sync.Mutex
	var got []int
	reader := NewReader(transport, slog.New(slog.NewTextHandler(io.Discard, nil)),
		func(grams int) {
			mu.Lock()
			got = append(got, grams)
			mu.Unlock()
		}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reader.Run(ctx)
		close(done)
	}()

	// Wait for both parseable chunks to land.
	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for readings")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if got[0] != 100 {
		t.Errorf("first reading = %d, want 100", got[0])
	}
	if got[len(got)-1] != 1250 {
		t.Errorf("last reading = %d, want 1250", got[len(got)-1])
	}
}

// failingTransport never opens; the reader must report offline, not crash.
type failingTransport struct{}

func (failingTransport) Name() string { return "broken" }
func (failingTransport) Open(ctx context.Context) (io.ReadCloser, error) {
	return nil, io.ErrClosedPipe
}

func TestReader_TransportFailureIsNonFatal(t *testing.T) {
	statusCh := make(chan Status, 8)
	reader := NewReader(failingTransport{}, slog.New(slog.NewTextHandler(io.Discard, nil)),
		nil, func(s Status) { statusCh <- s })
	reader.retryInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reader.Run(ctx)
		close(done)
	}()

	select {
	case s := <-statusCh:
		if s != StatusOffline {
			t.Errorf("status = %v, want StatusOffline", s)
		}
	case <-time.After(time.Second):
		t.Fatal("no status transition reported")
	}
	cancel()
	<-done
}
