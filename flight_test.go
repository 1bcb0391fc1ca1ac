package discocache

import (
	"errors"
	"testing"
)

func TestFlightGroupJoinSharesRun(t *testing.T) {
	var g flightGroup

	f1, started := g.join("k")
	if !started {
		t.Fatalf("expected first join to start the flight")
	}
	f2, started := g.join("k")
	if started || f2 != f1 {
		t.Fatalf("expected second join to attach to the same flight")
	}
	if f3, started := g.join("other"); !started || f3 == f1 {
		t.Fatalf("expected distinct key to start a distinct flight")
	}
}

func TestFlightGroupLeaveCancelsOnLastCaller(t *testing.T) {
	var g flightGroup

	f, _ := g.join("k")
	g.join("k")

	g.leave("k", f)
	if f.ctx.Err() != nil {
		t.Fatalf("expected flight to keep running while a caller remains")
	}
	g.leave("k", f)
	if f.ctx.Err() == nil {
		t.Fatalf("expected flight context canceled after last caller left")
	}

	// The key is free again.
	if _, started := g.join("k"); !started {
		t.Fatalf("expected a fresh flight after teardown")
	}
}

func TestFlightGroupDetachFreesKeyForNextMiss(t *testing.T) {
	var g flightGroup

	f, _ := g.join("k")
	g.detach("k", f)

	f2, started := g.join("k")
	if !started || f2 == f {
		t.Fatalf("expected detach to free the key for a new flight")
	}
	// Detaching a stale flight must not evict the live one.
	g.detach("k", f)
	if f3, started := g.join("k"); started || f3 != f2 {
		t.Fatalf("expected live flight untouched by stale detach")
	}
}

func TestFlightReplaysRecordedEmissions(t *testing.T) {
	var g flightGroup
	f, _ := g.join("k")

	f.publish(Snapshot{{Host: "a"}})
	f.publish(Snapshot{{Host: "b"}})

	snap, ok, done, err, _ := f.next(0)
	if !ok || done || err != nil || snap[0].Host != "a" {
		t.Fatalf("unexpected first emission: ok=%v done=%v err=%v", ok, done, err)
	}
	snap, ok, _, _, _ = f.next(1)
	if !ok || snap[0].Host != "b" {
		t.Fatalf("unexpected second emission")
	}

	// Nothing at index 2 yet; the caller gets a wake channel.
	_, ok, done, _, wake := f.next(2)
	if ok || done || wake == nil {
		t.Fatalf("expected pending state with wake channel")
	}

	boom := errors.New("boom")
	f.finish(boom)
	select {
	case <-wake:
	default:
		t.Fatalf("expected finish to close the wake channel")
	}
	_, ok, done, err, _ = f.next(2)
	if ok || !done || !errors.Is(err, boom) {
		t.Fatalf("expected done with error, got ok=%v done=%v err=%v", ok, done, err)
	}
}

func TestFlightPublishWakesWaiters(t *testing.T) {
	var g flightGroup
	f, _ := g.join("k")

	_, _, _, _, wake := f.next(0)
	f.publish(Snapshot{{Host: "a"}})
	select {
	case <-wake:
	default:
		t.Fatalf("expected publish to close the wake channel")
	}

	snap, ok, _, _, _ := f.next(0)
	if !ok || snap[0].Host != "a" {
		t.Fatalf("expected emission visible after wake")
	}
}

func TestFlightEmittedReturnsCopy(t *testing.T) {
	var g flightGroup
	f, _ := g.join("k")

	f.publish(Snapshot{{Host: "a"}})
	out := f.emitted()
	if len(out) != 1 {
		t.Fatalf("expected one recorded emission, got %d", len(out))
	}
	f.publish(Snapshot{{Host: "b"}})
	if len(out) != 1 {
		t.Fatalf("expected snapshot of emissions, not a live view")
	}
	if got := f.emitted(); len(got) != 2 {
		t.Fatalf("expected two recorded emissions, got %d", len(got))
	}
}
