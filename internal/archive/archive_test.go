package archive

import (
	"testing"

	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/wire"
)

func TestWriteReadRecord(t *testing.T) {
	dir := t.TempDir()

	snap := wire.StateSnapshot{
		Generation:       1234,
		AliveBitmap:      make([]uint64, wire.AliveWords),
		SecondsUntilWipe: 90,
	}
	snap.AliveBitmap[7] = 0xdeadbeef

	rec := Record{
		Header:   Header{Version: 1, Generation: snap.Generation},
		Snapshot: snap,
		Drift:    2,
	}
	if err := WriteRecord(dir, rec); err != nil {
		t.Fatalf("write: %v", err)
	}

	paths, err := List(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 archived file, got %d", len(paths))
	}

	got, err := ReadRecord(paths[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Header.Generation != 1234 || got.Drift != 2 {
		t.Fatalf("record = %+v", got.Header)
	}
	if got.Snapshot.AliveBitmap[7] != 0xdeadbeef {
		t.Fatal("bitmap did not survive the round trip")
	}
	if got.Snapshot.SecondsUntilWipe != 90 {
		t.Fatal("wipe metadata did not survive the round trip")
	}
}

func TestListOrder(t *testing.T) {
	dir := t.TempDir()
	for _, gen := range []uint64{30, 2, 100} {
		rec := Record{Header: Header{Version: 1, Generation: gen}}
		if err := WriteRecord(dir, rec); err != nil {
			t.Fatalf("write gen %d: %v", gen, err)
		}
	}
	paths, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 files, got %d", len(paths))
	}
	// Zero-padded names sort by generation.
	for i, want := range []uint64{2, 30, 100} {
		got, err := ReadRecord(paths[i])
		if err != nil {
			t.Fatal(err)
		}
		if got.Header.Generation != want {
			t.Fatalf("paths[%d] holds gen %d, want %d", i, got.Header.Generation, want)
		}
	}
}
