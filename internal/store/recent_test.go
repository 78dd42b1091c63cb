package store

import (
	"fmt"
	"testing"
)

func TestRecentTracks_AddAndHas(t *testing.T) {
	rt := NewRecentTracks(10, 0.001)

	if rt.Has("s1") {
		t.Error("empty store reports s1 as recent")
	}

	rt.Add("s1")
	rt.Add("s2")

	if !rt.Has("s1") || !rt.Has("s2") {
		t.Error("added tracks not reported as recent")
	}
	if rt.Has("s3") {
		t.Error("unknown track reported as recent")
	}
	if rt.Size() != 2 {
		t.Errorf("Size() = %d, want 2", rt.Size())
	}
}

func TestRecentTracks_DuplicateAddKeepsSize(t *testing.T) {
	rt := NewRecentTracks(10, 0.001)

	rt.Add("s1")
	rt.Add("s1")

	if rt.Size() != 1 {
		t.Errorf("Size() = %d, want 1", rt.Size())
	}
}

func TestRecentTracks_EvictsOldestOverCapacity(t *testing.T) {
	rt := NewRecentTracks(3, 0.001)

	for i := 1; i <= 4; i++ {
		rt.Add(fmt.Sprintf("s%d", i))
	}

	if rt.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", rt.Size())
	}
	if rt.Has("s1") {
		t.Error("oldest entry s1 survived eviction")
	}
	for i := 2; i <= 4; i++ {
		if !rt.Has(fmt.Sprintf("s%d", i)) {
			t.Errorf("s%d evicted, want it kept", i)
		}
	}
}

func TestRecentTracks_Clear(t *testing.T) {
	rt := NewRecentTracks(10, 0.001)

	rt.Add("s1")
	rt.Clear()

	if rt.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", rt.Size())
	}
	if rt.Has("s1") {
		t.Error("cleared store still reports s1 as recent")
	}
}
