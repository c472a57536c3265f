package cmd

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestSpinnerStopsRenderLoop verifies stop waits for the goroutine to exit.
func TestSpinnerStopsRenderLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	var out syncBuffer
	sp := newSpinnerTo(&out)
	sp.tick = time.Millisecond
	sp.setLabel("[1/4] Fetching")
	sp.start()
	time.Sleep(10 * time.Millisecond)
	sp.stop(nil)

	if !strings.Contains(out.String(), "✓ [1/4] Fetching") {
		t.Errorf("output missing success line: %q", out.String())
	}
}

// TestSpinnerStopWithError verifies the failure mark.
func TestSpinnerStopWithError(t *testing.T) {
	defer goleak.VerifyNone(t)

	var out syncBuffer
	sp := newSpinnerTo(&out)
	sp.setLabel("[3/4] Copying")
	sp.start()
	sp.stop(errors.New("boom"))

	if !strings.Contains(out.String(), "✗ [3/4] Copying") {
		t.Errorf("output missing failure line: %q", out.String())
	}
}

// TestSpinnerTruncatesDetail verifies long progress lines are shortened.
func TestSpinnerTruncatesDetail(t *testing.T) {
	sp := newSpinnerTo(&syncBuffer{})
	sp.setDetail(strings.Repeat("x", 100))
	if got := len([]rune(sp.detail)); got != 72 {
		t.Errorf("detail length = %d, want 72", got)
	}
}
