package xcomponent

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoroutineID(t *testing.T) {
	id := goroutineID()
	assert.NotZero(t, id)
	assert.Equal(t, id, goroutineID())

	var other uint64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		other = goroutineID()
	}()
	wg.Wait()
	assert.NotZero(t, other)
	assert.NotEqual(t, id, other)
}

func TestNewChain(t *testing.T) {
	a := NewChain(context.Background())
	b := NewChain(a)

	ca, ok := ChainFromContext(a)
	require.True(t, ok)
	cb, ok := ChainFromContext(b)
	require.True(t, ok)
	assert.True(t, ca.Explicit)
	assert.NotEqual(t, ca, cb)

	_, ok = ChainFromContext(context.Background())
	assert.False(t, ok)
	_, ok = ChainFromContext(nil) //nolint:staticcheck // nil ctx 容错
	assert.False(t, ok)

	//nolint:staticcheck // nil ctx 容错
	assert.NotNil(t, NewChain(nil))
}

func TestChainID_String(t *testing.T) {
	assert.Equal(t, "g7", ChainID{ID: 7}.String())
	assert.Equal(t, "c3", ChainID{ID: 3, Explicit: true}.String())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "active", StatusActive.String())
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}
