// internal/session/store_test.go
package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/api/schemas"
	"github.com/deskpilot/deskpilot/internal/session"
)

// fakeBrowser counts Quit calls.
type fakeBrowser struct {
	mu    sync.Mutex
	quits int
}

func (f *fakeBrowser) Open(ctx context.Context, url string) error { return nil }
func (f *fakeBrowser) SearchYouTube(ctx context.Context, query string, autoPlay bool) (string, error) {
	return "", nil
}
func (f *fakeBrowser) SearchGoogle(ctx context.Context, query string) error { return nil }
func (f *fakeBrowser) Quit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quits++
	return nil
}

func (f *fakeBrowser) quitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quits
}

func newStore() *session.Store {
	return session.NewStore(zap.NewNop())
}

func TestStoreCreateAndSnapshot(t *testing.T) {
	s := newStore()
	s.Create("s1")

	logs, status, err := s.Snapshot("s1")
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Equal(t, schemas.StatusPending, status)
}

func TestStoreAppendAndSnapshotCopy(t *testing.T) {
	s := newStore()
	s.Create("s1")
	s.Append("s1", schemas.NewLogEntry("first", schemas.LogInfo))

	logs, _, err := s.Snapshot("s1")
	require.NoError(t, err)
	require.Len(t, logs, 1)

	// Later appends must not leak into the earlier snapshot.
	s.Append("s1", schemas.NewLogEntry("second", schemas.LogInfo))
	assert.Len(t, logs, 1)

	logs2, _, err := s.Snapshot("s1")
	require.NoError(t, err)
	assert.Len(t, logs2, 2)
}

func TestStoreAppendUnknownSessionIsDropped(t *testing.T) {
	s := newStore()
	// Must not panic.
	s.Append("ghost", schemas.NewLogEntry("lost", schemas.LogInfo))
	assert.Equal(t, 0, s.Len())
}

func TestStoreSnapshotUnknownSession(t *testing.T) {
	s := newStore()
	_, _, err := s.Snapshot("ghost")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestStoreStatusTransitionsAreMonotonic(t *testing.T) {
	s := newStore()
	s.Create("s1")

	require.NoError(t, s.SetStatus("s1", schemas.StatusRunning))
	require.NoError(t, s.SetStatus("s1", schemas.StatusCompleted))

	// Terminal state refuses further transitions.
	err := s.SetStatus("s1", schemas.StatusRunning)
	require.Error(t, err)

	status, err := s.Status("s1")
	require.NoError(t, err)
	assert.Equal(t, schemas.StatusCompleted, status)
}

func TestStoreReleaseBrowserIdempotence(t *testing.T) {
	s := newStore()
	s.Create("s1")
	b := &fakeBrowser{}
	require.NoError(t, s.AttachBrowser("s1", b))
	require.True(t, s.HasBrowser("s1"))

	// First release quits the driver and succeeds.
	require.NoError(t, s.ReleaseBrowser("s1"))
	assert.Equal(t, 1, b.quitCount())
	assert.False(t, s.HasBrowser("s1"))

	// Second release reports not found and never quits again.
	err := s.ReleaseBrowser("s1")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.Equal(t, 1, b.quitCount())
}

func TestStoreReleaseBrowserWithoutHandle(t *testing.T) {
	s := newStore()
	s.Create("s1")
	require.ErrorIs(t, s.ReleaseBrowser("s1"), session.ErrSessionNotFound)
}

func TestStoreEvictQuitsAttachedBrowser(t *testing.T) {
	s := newStore()
	s.Create("s1")
	b := &fakeBrowser{}
	require.NoError(t, s.AttachBrowser("s1", b))

	s.Evict("s1")
	assert.Equal(t, 1, b.quitCount())
	assert.Equal(t, 0, s.Len())
}

func TestStoreConcurrentAppendsAndReads(t *testing.T) {
	s := newStore()
	s.Create("s1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Append("s1", schemas.NewLogEntry(fmt.Sprintf("w%d-%d", n, j), schemas.LogInfo))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _, _ = s.Snapshot("s1")
			}
		}()
	}
	wg.Wait()

	logs, _, err := s.Snapshot("s1")
	require.NoError(t, err)
	assert.Len(t, logs, 8*50)
}
