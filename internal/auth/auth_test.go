package auth

import (
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	store := newSessionStore()

	token, err := store.create("alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars", len(token))
	}

	username, ok := store.lookup(token)
	if !ok || username != "alice" {
		t.Fatalf("lookup = %q, %v", username, ok)
	}

	store.revoke(token)
	if _, ok := store.lookup(token); ok {
		t.Fatal("revoked token still valid")
	}
}

func TestSessionExpiry(t *testing.T) {
	store := newSessionStore()
	token, err := store.create("alice")
	if err != nil {
		t.Fatal(err)
	}

	store.mu.Lock()
	sess := store.sessions[token]
	sess.expiresAt = time.Now().Add(-time.Second)
	store.sessions[token] = sess
	store.mu.Unlock()

	if _, ok := store.lookup(token); ok {
		t.Fatal("expired token still valid")
	}
	// Expired entries are dropped on lookup.
	store.mu.Lock()
	_, present := store.sessions[token]
	store.mu.Unlock()
	if present {
		t.Fatal("expired session not evicted")
	}
}

func TestSessionTokensAreUnique(t *testing.T) {
	store := newSessionStore()
	a, _ := store.create("alice")
	b, _ := store.create("alice")
	if a == b {
		t.Fatal("two sessions share a token")
	}
}
