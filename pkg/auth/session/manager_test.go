package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return "", redislib.Nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) SessionKey(id string) string { return "patitas:session:" + id }

func newTestManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	return &Manager{store: store, keyer: fakeKeyer{}, ttl: time.Hour}, store
}

func TestEstablishAndCheckSession(t *testing.T) {
	mgr, _ := newTestManager()
	id := NewSessionID()

	if err := mgr.Establish(context.Background(), id, uuid.New()); err != nil {
		t.Fatalf("establish: %v", err)
	}

	ok, err := mgr.HasSession(context.Background(), id)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if !ok {
		t.Fatalf("expected session to be live")
	}
}

func TestRevokeRemovesSession(t *testing.T) {
	mgr, _ := newTestManager()
	id := NewSessionID()

	if err := mgr.Establish(context.Background(), id, uuid.New()); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if err := mgr.Revoke(context.Background(), id); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	ok, err := mgr.HasSession(context.Background(), id)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatalf("expected revoked session to be gone")
	}
}

func TestHasSessionUnknownIDIsFalse(t *testing.T) {
	mgr, _ := newTestManager()
	ok, err := mgr.HasSession(context.Background(), "never-issued")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatalf("unknown session id must not be live")
	}
}

func TestBlankSessionIDRejected(t *testing.T) {
	mgr, _ := newTestManager()
	if err := mgr.Establish(context.Background(), " ", uuid.New()); err == nil {
		t.Fatalf("expected error for blank session id")
	}
	if _, err := mgr.HasSession(context.Background(), ""); err == nil {
		t.Fatalf("expected error for blank session id")
	}
}
