package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaleCommitIsDiscarded(t *testing.T) {
	c := New(0, 4)

	older := c.Begin()
	newer := c.Begin()
	assert.Greater(t, uint64(newer), uint64(older))

	require.True(t, c.Commit(newer, 2))
	assert.False(t, c.Commit(older, 1), "late response from an older load must not win")
	assert.Equal(t, 2, c.Get())
}

func TestOlderCommitBeforeNewerStillLands(t *testing.T) {
	c := New("", 1)
	older := c.Begin()
	newer := c.Begin()

	require.True(t, c.Commit(older, "a"))
	require.True(t, c.Commit(newer, "b"))
	assert.Equal(t, "b", c.Get())
}

func TestSubscribersReceiveAndCancel(t *testing.T) {
	c := New(0, 4)
	ch, cancel := c.Subscribe()

	c.Set(7)
	select {
	case v := <-ch:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	c.Set(8)
	assert.Equal(t, 8, c.Get())
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	c := New(0, 1)
	_, cancel := c.Subscribe()
	defer cancel()

	for i := 0; i < 10; i++ {
		c.Set(i)
	}
	assert.Equal(t, uint64(9), c.Dropped())
	assert.Equal(t, 9, c.Get())
}

func TestConcurrentCommitsKeepNewest(t *testing.T) {
	c := New(0, 1)
	tickets := make([]Ticket, 64)
	for i := range tickets {
		tickets[i] = c.Begin()
	}

	var wg sync.WaitGroup
	for i, tk := range tickets {
		wg.Add(1)
		go func(v int, tk Ticket) {
			defer wg.Done()
			c.Commit(tk, v)
		}(i, tk)
	}
	wg.Wait()
	assert.Equal(t, len(tickets)-1, c.Get())
}
