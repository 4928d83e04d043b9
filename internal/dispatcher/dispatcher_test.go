package dispatcher

import (
	"container/heap"
	"testing"
)

func TestEventHeapOrdersByBeatThenSeq(t *testing.T) {
	h := &eventHeap{}
	heap.Init(h)
	heap.Push(h, &ScheduledEvent{ScheduledBeat: 4, seq: 0})
	heap.Push(h, &ScheduledEvent{ScheduledBeat: 1, seq: 1})
	heap.Push(h, &ScheduledEvent{ScheduledBeat: 1, seq: 0})
	heap.Push(h, &ScheduledEvent{ScheduledBeat: 2, seq: 0})

	var order []float64
	var seqs []int64
	for h.Len() > 0 {
		e := heap.Pop(h).(*ScheduledEvent)
		order = append(order, e.ScheduledBeat)
		seqs = append(seqs, e.seq)
	}
	wantBeats := []float64{1, 1, 2, 4}
	for i, b := range wantBeats {
		if order[i] != b {
			t.Fatalf("pop order = %v, want beats %v", order, wantBeats)
		}
	}
	if seqs[0] != 0 || seqs[1] != 1 {
		t.Fatalf("expected tied beat=1 events popped in enqueue order, got seqs %v", seqs)
	}
}

func TestClampMidiByte(t *testing.T) {
	cases := map[int]uint8{-5: 0, 0: 0, 64: 64, 127: 127, 200: 127}
	for in, want := range cases {
		if got := clampMidiByte(in); got != want {
			t.Fatalf("clampMidiByte(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestFilterEventsForTrackRemovesOnlyMatchingTrack(t *testing.T) {
	h := &eventHeap{}
	heap.Init(h)
	heap.Push(h, &ScheduledEvent{ScheduledBeat: 1, TrackID: 1})
	heap.Push(h, &ScheduledEvent{ScheduledBeat: 2, TrackID: 2})
	heap.Push(h, &ScheduledEvent{ScheduledBeat: 3, TrackID: 1})

	filterEventsForTrack(h, 1)

	if h.Len() != 1 {
		t.Fatalf("expected 1 event remaining, got %d", h.Len())
	}
	if (*h)[0].TrackID != 2 {
		t.Fatalf("expected the remaining event to belong to track 2, got %+v", (*h)[0])
	}
}

func TestFilterEventsForTrackPreservesHeapInvariant(t *testing.T) {
	h := &eventHeap{}
	heap.Init(h)
	for _, b := range []float64{5, 3, 8, 1, 9, 2} {
		heap.Push(h, &ScheduledEvent{ScheduledBeat: b, TrackID: 3})
	}
	heap.Push(h, &ScheduledEvent{ScheduledBeat: 0, TrackID: 7})

	filterEventsForTrack(h, 7)

	var last float64 = -1
	for h.Len() > 0 {
		e := heap.Pop(h).(*ScheduledEvent)
		if e.ScheduledBeat < last {
			t.Fatalf("heap invariant violated after filtering: got %v before a smaller beat", e.ScheduledBeat)
		}
		last = e.ScheduledBeat
	}
}
