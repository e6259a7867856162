package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/eliphany/siteadmin/internal/content"
)

// writeImage creates a small image file and returns its path.
func writeImage(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("image-bytes-"+name), 0644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	return path
}

// fakeStore uploads by returning "asset-<filename>". An optional gate makes
// the named upload wait until another one has completed, forcing a
// completion order.
type fakeStore struct {
	mu      sync.Mutex
	calls   []string
	waitFor string        // filename that must wait
	until   chan struct{} // closed when the upload it waits for finishes
	signal  string        // filename whose completion closes until
	failOn  string        // filename whose upload fails
}

func (f *fakeStore) Upload(ctx context.Context, kind, filename string, r io.Reader) (content.AssetRef, error) {
	if filename == f.waitFor {
		select {
		case <-f.until:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if filename == f.failOn {
		return "", errors.New("store rejected the image")
	}

	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}

	f.mu.Lock()
	f.calls = append(f.calls, filename)
	f.mu.Unlock()

	if filename == f.signal {
		close(f.until)
	}
	return content.AssetRef("asset-" + filename), nil
}

func TestResolveNothingPending(t *testing.T) {
	local := content.NewFormState(content.Home, "")
	coord := New(&fakeStore{}, nil)

	results, err := coord.Resolve(context.Background(), local)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %v", results)
	}
}

func TestResolveKeyedCorrelation(t *testing.T) {
	// Uploads for slots 0 and 2 complete in reverse order; each result
	// must still land in its originating slot.
	dir := t.TempDir()
	local := content.NewFormState(content.Home, "")
	local.AttachImage("instagramImages", 0, writeImage(t, dir, "slot0.jpg"))
	local.AttachImage("instagramImages", 2, writeImage(t, dir, "slot2.jpg"))

	store := &fakeStore{
		waitFor: "slot0.jpg",
		signal:  "slot2.jpg",
		until:   make(chan struct{}),
	}
	coord := New(store, nil)

	results, err := coord.Resolve(context.Background(), local)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(store.calls) != 2 || store.calls[0] != "slot2.jpg" {
		t.Fatalf("test did not force reverse completion order: %v", store.calls)
	}

	if got := results[content.NewSlotKey("instagramImages", 0)]; got != "asset-slot0.jpg" {
		t.Errorf("slot 0 got %q", got)
	}
	if got := results[content.NewSlotKey("instagramImages", 2)]; got != "asset-slot2.jpg" {
		t.Errorf("slot 2 got %q", got)
	}
}

func TestResolveFailureAbortsAll(t *testing.T) {
	dir := t.TempDir()
	local := content.NewFormState(content.Home, "")
	local.AttachImage("instagramImages", 0, writeImage(t, dir, "bad.jpg"))
	local.AttachImage("instagramImages", 1, writeImage(t, dir, "good.jpg"))

	store := &fakeStore{failOn: "bad.jpg"}
	coord := New(store, nil)

	results, err := coord.Resolve(context.Background(), local)
	if err == nil {
		t.Fatal("expected Resolve to fail")
	}
	if results != nil {
		t.Errorf("failed resolve must not return partial results: %v", results)
	}
}

func TestResolveRejectsOversizedImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "huge.jpg")
	if err := os.WriteFile(path, make([]byte, content.MaxImageBytes+1), 0644); err != nil {
		t.Fatalf("failed to write oversized image: %v", err)
	}

	local := content.NewFormState(content.Home, "")
	local.AttachImage("heroBackgroundImage", 0, path)

	store := &fakeStore{}
	coord := New(store, nil)

	if _, err := coord.Resolve(context.Background(), local); err == nil {
		t.Fatal("expected oversized image to be rejected")
	}
	if len(store.calls) != 0 {
		t.Errorf("oversized image reached the store: %v", store.calls)
	}
}

func TestResolveSkipsClearedSlots(t *testing.T) {
	dir := t.TempDir()
	local := content.NewFormState(content.Home, "")
	local.AttachImage("instagramImages", 1, writeImage(t, dir, "keep.jpg"))
	local.ClearImage("instagramImages", 0)

	store := &fakeStore{}
	coord := New(store, nil)

	results, err := coord.Resolve(context.Background(), local)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if _, ok := results[content.NewSlotKey("instagramImages", 1)]; !ok {
		t.Error("pending slot missing from results")
	}
}
