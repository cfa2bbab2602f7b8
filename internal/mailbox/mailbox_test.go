package mailbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestWins(t *testing.T) {
	m := New[int]()
	m.Put(1)
	m.Put(2)
	assert.True(t, m.HasJob())

	v, ok := m.Take()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.False(t, m.HasJob())
	assert.Nil(t, m.TryTake())
}

func TestTakeBlocksUntilPut(t *testing.T) {
	m := New[string]()
	got := make(chan string, 1)
	go func() {
		v, _ := m.Take()
		got <- v
	}()

	time.Sleep(10 * time.Millisecond)
	m.Put("sync")

	select {
	case v := <-got:
		assert.Equal(t, "sync", v)
	case <-time.After(time.Second):
		t.Fatal("Take did not return after Put")
	}
}

func TestClose(t *testing.T) {
	m := New[int]()
	m.Put(7)
	m.Close()
	m.Put(8)

	v, ok := m.Take()
	require.True(t, ok)
	assert.Equal(t, 7, v)

	done := make(chan bool, 1)
	go func() {
		_, ok := m.Take()
		done <- ok
	}()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Take blocked on a closed mailbox")
	}
}
