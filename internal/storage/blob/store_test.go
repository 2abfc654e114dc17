package blob

import (
	"bytes"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), logger.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestStorePutGetRemove(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	data := []byte("webm-bytes")

	if err := store.Put("user-1/123.webm", data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get("user-1/123.webm")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get = %q, want %q", got, data)
	}

	reader, err := store.Open("user-1/123.webm")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	streamed, err := io.ReadAll(reader)
	reader.Close()
	if err != nil || !bytes.Equal(streamed, data) {
		t.Errorf("Open read = %q, %v", streamed, err)
	}

	exists, err := store.Exists("user-1/123.webm")
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v, want true", exists, err)
	}

	if err := store.Remove("user-1/123.webm"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	exists, err = store.Exists("user-1/123.webm")
	if err != nil || exists {
		t.Errorf("Exists after Remove = %v, %v, want false", exists, err)
	}

	// Removing a missing object stays idempotent.
	if err := store.Remove("user-1/123.webm"); err != nil {
		t.Errorf("Remove(missing) = %v, want nil", err)
	}
}

func TestStoreList(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	for _, path := range []string{"user-1/a.webm", "user-1/b.webm", "user-2/c.webm"} {
		if err := store.Put(path, []byte("x")); err != nil {
			t.Fatalf("Put(%s): %v", path, err)
		}
	}

	paths, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	slices.Sort(paths)
	want := []string{"user-1/a.webm", "user-1/b.webm", "user-2/c.webm"}
	if !slices.Equal(paths, want) {
		t.Errorf("List = %v, want %v", paths, want)
	}

	// Nothing is older than a cutoff in the past.
	old, err := store.ListOlderThan(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListOlderThan: %v", err)
	}
	if len(old) != 0 {
		t.Errorf("ListOlderThan(past) = %v, want empty", old)
	}

	old, err = store.ListOlderThan(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("ListOlderThan: %v", err)
	}
	if len(old) != 3 {
		t.Errorf("ListOlderThan(future) = %v, want 3 entries", old)
	}
}

func TestStoreRejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	for _, path := range []string{"../outside", "/etc/passwd", ".", "a/../../b"} {
		if err := store.Put(path, []byte("x")); err == nil {
			t.Errorf("Put(%q) succeeded, want error", path)
		}
		if _, err := store.Get(path); err == nil {
			t.Errorf("Get(%q) succeeded, want error", path)
		}
	}
}

func TestSignerRoundTrip(t *testing.T) {
	t.Parallel()

	signer := NewSigner("secret", time.Hour)
	now := time.Now()

	exp, sig := signer.Sign("user-1/123.webm", now)
	if exp <= now.Unix() {
		t.Errorf("exp = %d, want after now", exp)
	}

	if err := signer.Verify("user-1/123.webm", exp, sig, now); err != nil {
		t.Errorf("Verify: %v", err)
	}

	// Signature is bound to the path.
	if err := signer.Verify("user-1/456.webm", exp, sig, now); err == nil {
		t.Error("Verify accepted a signature for a different path")
	}

	// Tampered expiry invalidates the signature.
	if err := signer.Verify("user-1/123.webm", exp+60, sig, now); err == nil {
		t.Error("Verify accepted a tampered expiry")
	}

	// Expired locators are rejected even with a valid signature.
	if err := signer.Verify("user-1/123.webm", exp, sig, now.Add(2*time.Hour)); err == nil {
		t.Error("Verify accepted an expired locator")
	}

	// A different secret never verifies.
	other := NewSigner("other-secret", time.Hour)
	if err := other.Verify("user-1/123.webm", exp, sig, now); err == nil {
		t.Error("Verify accepted a signature from another secret")
	}
}

func TestSignerDefaultTTL(t *testing.T) {
	t.Parallel()

	signer := NewSigner("secret", 0)
	now := time.Now()
	exp, _ := signer.Sign("p", now)
	if got := exp - now.Unix(); got != 3600 {
		t.Errorf("default TTL = %ds, want 3600", got)
	}
}
