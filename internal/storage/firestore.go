package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/googleapis/gax-go/v2"

	pfirestore "github.com/hanko-field/pdp/internal/platform/firestore"
)

const defaultFirestoreAttempts = 3

// Firestore keeps one document per key in a single collection.
// Temporary failures are retried with exponential backoff.
type Firestore struct {
	provider   *pfirestore.Provider
	collection string
	attempts   int
	backoff    gax.Backoff
	now        func() time.Time
}

type firestoreItem struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func NewFirestore(provider *pfirestore.Provider, collection string) (*Firestore, error) {
	if provider == nil {
		return nil, errors.New("storage: firestore store requires provider")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return nil, errors.New("storage: firestore collection is required")
	}
	return &Firestore{
		provider:   provider,
		collection: collection,
		attempts:   defaultFirestoreAttempts,
		backoff:    gax.Backoff{Initial: 50 * time.Millisecond, Max: time.Second, Multiplier: 2},
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (f *Firestore) GetItem(ctx context.Context, key string) (string, error) {
	doc, err := f.doc(ctx, key)
	if err != nil {
		return "", err
	}
	var snap *firestore.DocumentSnapshot
	err = f.retry(ctx, func(ctx context.Context) error {
		var getErr error
		snap, getErr = doc.Get(ctx)
		return pfirestore.WrapError("storage.get", getErr)
	})
	if err != nil {
		if pfirestore.IsNotFound(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	var item firestoreItem
	if err := snap.DataTo(&item); err != nil {
		return "", pfirestore.WrapError("storage.decode", err)
	}
	return item.Value, nil
}

func (f *Firestore) SetItem(ctx context.Context, key, value string) error {
	doc, err := f.doc(ctx, key)
	if err != nil {
		return err
	}
	item := firestoreItem{Value: value, UpdatedAt: f.now()}
	return f.retry(ctx, func(ctx context.Context) error {
		_, setErr := doc.Set(ctx, item)
		return pfirestore.WrapError("storage.set", setErr)
	})
}

func (f *Firestore) RemoveItem(ctx context.Context, key string) error {
	doc, err := f.doc(ctx, key)
	if err != nil {
		return err
	}
	return f.retry(ctx, func(ctx context.Context) error {
		_, delErr := doc.Delete(ctx)
		return pfirestore.WrapError("storage.delete", delErr)
	})
}

// retry runs op until it succeeds, fails permanently, or runs out of attempts.
func (f *Firestore) retry(ctx context.Context, op func(context.Context) error) error {
	return retryTemporary(ctx, f.attempts, f.backoff, op)
}

func retryTemporary(ctx context.Context, attempts int, bo gax.Backoff, op func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil || attempt >= attempts || !pfirestore.IsTemporary(err) {
			return err
		}
		if sleepErr := gax.Sleep(ctx, bo.Pause()); sleepErr != nil {
			return err
		}
	}
}

func (f *Firestore) doc(ctx context.Context, key string) (*firestore.DocumentRef, error) {
	id := documentID(key)
	if id == "" {
		return nil, ErrInvalidKey
	}
	client, err := f.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(f.collection).Doc(id), nil
}

// documentID maps a key to a valid document id; slashes would otherwise address a subcollection.
func documentID(key string) string {
	key = strings.TrimSpace(key)
	if key == "." || key == ".." {
		return ""
	}
	return strings.ReplaceAll(key, "/", "_")
}
