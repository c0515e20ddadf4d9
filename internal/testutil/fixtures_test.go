package testutil

import (
	"context"
	"testing"

	"github.com/npratt/voidhunter/internal/bitmap"
	"github.com/npratt/voidhunter/internal/probe"
)

func TestDrawClockDecodes(t *testing.T) {
	frame := NewFrame()
	if err := DrawClock(frame, "00:18:42"); err != nil {
		t.Fatal(err)
	}

	c := probe.NewOCR(NewFakeRecognizer(), 0)
	r, err := c.Classify(context.Background(), bitmap.InMatchClock, frame)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !r.Present || r.Clock.String() != "00:18:42" {
		t.Errorf("Classify() = %+v, want present 00:18:42", r)
	}
}

func TestDrawClockRejectsBadText(t *testing.T) {
	for _, s := range []string{"00:18", "0a:18:42", "00:18:42:00"} {
		if err := DrawClock(NewFrame(), s); err == nil {
			t.Errorf("DrawClock(%q) error = nil", s)
		}
	}
}

func TestFakeClassifierScene(t *testing.T) {
	f := NewFakeClassifier()
	f.SetScene(Seen(bitmap.Hp), TierSeen(probe.TierSixth))

	hp, _ := f.Classify(context.Background(), bitmap.Hp, nil)
	tier, _ := f.Classify(context.Background(), bitmap.Tier, nil)
	load, _ := f.Classify(context.Background(), bitmap.Loading, nil)

	if !hp.Present || !tier.Present || tier.Tier != probe.TierSixth {
		t.Errorf("scene readings wrong: hp=%+v tier=%+v", hp, tier)
	}
	if load.Present {
		t.Error("unset signal read as present")
	}
	if got := len(f.Calls()); got != 3 {
		t.Errorf("Calls() = %d, want 3", got)
	}
	if got := len(f.Calls()); got != 0 {
		t.Errorf("Calls() after drain = %d, want 0", got)
	}
}
