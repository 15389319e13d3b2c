package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/room-ledger/internal/persistence"
)

func TestStore_LoadMissingFile(t *testing.T) {
	t.Parallel()

	store := New(filepath.Join(t.TempDir(), "bookings.json"))
	if _, err := store.Load(context.Background()); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "bookings.json")
	store := New(path)

	snapshot := persistence.Snapshot{
		"HW.003": {
			"2024-01-03": {
				OpenSlots:   []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
				BookedSlots: []persistence.BookingRecord{{Slot: 12}},
			},
		},
	}
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	want := `{"HW.003":{"2024-01-03":{"open_slots":[0,1,2,3,4,5,6,7,8,9,10,11],"booked_slots":[{"slot":12,"class_name":null,"prof_name":null}]}}}`
	if string(raw) != want {
		t.Fatalf("unexpected document:\n got %s\nwant %s", raw, want)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := loaded["HW.003"]["2024-01-03"].BookedSlots; len(got) != 1 || got[0].Slot != 12 || got[0].ClassName != nil {
		t.Fatalf("unexpected booked slots %+v", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the document in the directory, got %d entries", len(entries))
	}
}

func TestStore_LoadRejectsMalformedDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bookings.json")
	if err := os.WriteFile(path, []byte(`{"HW.003": [`), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := New(path).Load(context.Background())
	if err == nil || errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestStore_SaveFailsWhenDirectoryIsAFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	store := New(filepath.Join(blocker, "bookings.json"))
	if err := store.Save(context.Background(), persistence.Snapshot{}); err == nil {
		t.Fatalf("expected Save to fail")
	}
}

func TestStore_RespectsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := New(filepath.Join(t.TempDir(), "bookings.json"))
	if err := store.Save(ctx, persistence.Snapshot{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStore_SaveReplacesDocumentAndSyncsDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "bookings.json")
	store := New(path)
	if store.Path() != path {
		t.Fatalf("expected Path %q, got %q", path, store.Path())
	}

	for _, room := range []string{"HW.003", "HW.101"} {
		if err := store.Save(ctx, persistence.Snapshot{room: {}}); err != nil {
			t.Fatalf("Save(%s) failed: %v", room, err)
		}
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := loaded["HW.101"]; !ok || len(loaded) != 1 {
		t.Fatalf("expected only the last document, got %v", loaded)
	}

	if err := syncDir(dir); err != nil {
		t.Fatalf("syncDir on existing directory: %v", err)
	}
	if err := syncDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected syncDir to fail for a missing directory")
	}
}
