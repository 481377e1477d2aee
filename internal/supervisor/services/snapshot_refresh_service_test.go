// Postrec - Post Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postrec

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/postrec/internal/features"
)

type fakeLoader struct {
	mu    sync.Mutex
	calls int
	posts int
	err   error
	done  chan struct{}
}

func (f *fakeLoader) Load(ctx context.Context) (*features.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	err, posts := f.err, f.posts+f.calls
	f.mu.Unlock()
	defer func() {
		if f.done != nil {
			f.done <- struct{}{}
		}
	}()

	if err != nil {
		return nil, err
	}
	return testSnapshot(posts)
}

func testSnapshot(posts int) (*features.Snapshot, error) {
	users := features.NewTable([]string{"age"})
	if err := users.Append(1, []features.Value{features.Number(30)}); err != nil {
		return nil, err
	}
	postTable := features.NewTable([]string{"topic"})
	for i := 0; i < posts; i++ {
		if err := postTable.Append(int64(100+i), []features.Value{features.Category("sport")}); err != nil {
			return nil, err
		}
	}
	return features.NewSnapshot(users, postTable, time.Now())
}

// notifyingStore signals after every swap.
type notifyingStore struct {
	*features.Store
	swapped chan struct{}
}

func (n *notifyingStore) Swap(snap *features.Snapshot) *features.Snapshot {
	old := n.Store.Swap(snap)
	n.swapped <- struct{}{}
	return old
}

// manualTicker lets tests fire ticks on demand.
func manualTicker(svc *SnapshotRefreshService) chan time.Time {
	ch := make(chan time.Time)
	svc.newTick = func(time.Duration) (<-chan time.Time, func()) {
		return ch, func() {}
	}
	return ch
}

func TestSnapshotRefreshService_Interface(t *testing.T) {
	var _ suture.Service = (*SnapshotRefreshService)(nil)
}

func TestSnapshotRefreshService_SwapsOnTick(t *testing.T) {
	initial, err := testSnapshot(1)
	if err != nil {
		t.Fatal(err)
	}
	store := &notifyingStore{Store: features.NewStore(initial), swapped: make(chan struct{}, 4)}
	svc := NewSnapshotRefreshService(&fakeLoader{}, store, SnapshotRefreshConfig{Interval: time.Hour})
	tick := manualTicker(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	tick <- time.Now()
	<-store.swapped

	if store.Current() == initial {
		t.Fatal("snapshot was not swapped")
	}
	if got := store.Current().Posts.Len(); got != 1 {
		t.Errorf("posts = %d, want 1 from first reload", got)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v", err)
	}
}

func TestSnapshotRefreshService_KeepsSnapshotOnFailure(t *testing.T) {
	initial, _ := testSnapshot(2)
	store := features.NewStore(initial)
	loader := &fakeLoader{err: errors.New("database down"), done: make(chan struct{}, 4)}
	svc := NewSnapshotRefreshService(loader, store, SnapshotRefreshConfig{Interval: time.Hour})
	tick := manualTicker(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	tick <- time.Now()
	<-loader.done
	tick <- time.Now()
	<-loader.done

	if store.Current() != initial {
		t.Error("failed reload must keep the previous snapshot")
	}
	cancel()
	<-errCh
}

func TestSnapshotRefreshService_Disabled(t *testing.T) {
	loader := &fakeLoader{}
	svc := NewSnapshotRefreshService(loader, features.NewStore(nil), SnapshotRefreshConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v", err)
	}
	if loader.calls != 0 {
		t.Errorf("disabled service loaded %d times", loader.calls)
	}
}

func TestSnapshotRefreshService_Refresh(t *testing.T) {
	store := features.NewStore(nil)
	svc := NewSnapshotRefreshService(&fakeLoader{posts: 2}, store, SnapshotRefreshConfig{Interval: time.Minute})

	if svc.config.LoadTimeout != 10*time.Minute {
		t.Errorf("default LoadTimeout = %v", svc.config.LoadTimeout)
	}
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !store.Ready() || store.Current().Posts.Len() != 3 {
		t.Error("Refresh should install the loaded snapshot")
	}
	if svc.String() != "snapshot-refresh" {
		t.Errorf("String() = %q", svc.String())
	}
}
