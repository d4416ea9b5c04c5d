package web

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frag-viewer/internal/config"
	"frag-viewer/internal/fragment"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Fragments.Dir = t.TempDir()
	lib, err := fragment.NewLibrary(cfg.Fragments.Dir)
	require.NoError(t, err)
	return NewServer(cfg, lib)
}

func TestPeerSlot_SingleClient(t *testing.T) {
	s := newServer(t)

	assert.True(t, s.claimPeerSlot())
	assert.False(t, s.claimPeerSlot(), "second client must be refused while the first holds the slot")

	s.releasePeerSlot()
	assert.True(t, s.claimPeerSlot(), "slot reopens after disconnect")
}

func TestPeerSlot_ConcurrentConnectsAdmitOne(t *testing.T) {
	s := newServer(t)

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.claimPeerSlot() {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted.Load())
}
