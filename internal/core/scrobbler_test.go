package core

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestScrobbler_OnTrackStarted(t *testing.T) {
	qm, _, catalog := newTestQueue()
	scrobbler := NewScrobbler(qm, catalog, NopMetrics{}, zap.NewNop())
	ctx := context.Background()

	if err := qm.PlayNow(ctx, tracks("t1", "t2", "t3")); err != nil {
		t.Fatalf("PlayNow() error = %v", err)
	}

	scrobbler.OnTrackStarted(ctx, "title-t2")

	reported := catalog.reportedIDs()
	if len(reported) != 1 || reported[0] != "t2" {
		t.Errorf("reported = %v, want [t2]", reported)
	}
}

func TestScrobbler_UnknownTitleIsIgnored(t *testing.T) {
	qm, _, catalog := newTestQueue()
	scrobbler := NewScrobbler(qm, catalog, NopMetrics{}, zap.NewNop())
	ctx := context.Background()

	if err := qm.PlayNow(ctx, tracks("t1")); err != nil {
		t.Fatalf("PlayNow() error = %v", err)
	}

	scrobbler.OnTrackStarted(ctx, "Unknown Title")

	if reported := catalog.reportedIDs(); len(reported) != 0 {
		t.Errorf("reported = %v, want none", reported)
	}
}

func TestScrobbler_ReportFailureIsSwallowed(t *testing.T) {
	qm, _, catalog := newTestQueue()
	catalog.reportErr = errors.New("server down")
	scrobbler := NewScrobbler(qm, catalog, NopMetrics{}, zap.NewNop())
	ctx := context.Background()

	if err := qm.PlayNow(ctx, tracks("t1")); err != nil {
		t.Fatalf("PlayNow() error = %v", err)
	}

	// Must not panic or surface the error anywhere.
	scrobbler.OnTrackStarted(ctx, "title-t1")
}
