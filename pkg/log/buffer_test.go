package log_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strabs/doit/pkg/log"
)

func TestCircularBuffer_NewCircularBuffer(t *testing.T) {
	t.Parallel()

	cb := log.NewCircularBuffer(10)
	assert.Equal(t, 10, cb.Capacity())
	assert.Equal(t, 0, cb.Size())

	// Zero and negative capacities fall back to the default.
	assert.Equal(t, 100, log.NewCircularBuffer(0).Capacity())
	assert.Equal(t, 100, log.NewCircularBuffer(-5).Capacity())
}

func TestCircularBuffer_Write(t *testing.T) {
	t.Parallel()

	cb := log.NewCircularBuffer(3)

	n, err := cb.Write([]byte("entry1"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, 1, cb.Size())

	// Empty writes are dropped.
	n, err = cb.Write([]byte{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, cb.Size())

	_, err = cb.Write([]byte("entry2"))
	require.NoError(t, err)
	_, err = cb.Write([]byte("entry3"))
	require.NoError(t, err)
	assert.Equal(t, 3, cb.Size())

	// Writing past capacity overwrites the oldest entry.
	_, err = cb.Write([]byte("entry4"))
	require.NoError(t, err)
	assert.Equal(t, 3, cb.Size())
}

func TestCircularBuffer_Entries(t *testing.T) {
	t.Parallel()

	cb := log.NewCircularBuffer(3)
	assert.Nil(t, cb.Entries())

	for _, s := range []string{"first", "second", "third"} {
		_, err := cb.Write([]byte(s))
		require.NoError(t, err)
	}

	entries := cb.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "first", string(entries[0]))
	assert.Equal(t, "third", string(entries[2]))

	// Circular overwrite keeps the most recent entries, oldest first.
	_, err := cb.Write([]byte("fourth"))
	require.NoError(t, err)
	_, err = cb.Write([]byte("fifth"))
	require.NoError(t, err)

	entries = cb.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "third", string(entries[0]))
	assert.Equal(t, "fifth", string(entries[2]))

	// Returned entries are copies.
	entries[0][0] = 'X'
	assert.Equal(t, "third", string(cb.Entries()[0]))
}

func TestCircularBuffer_WriteTo(t *testing.T) {
	t.Parallel()

	cb := log.NewCircularBuffer(3)

	var buf bytes.Buffer

	n, err := cb.WriteTo(&buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len())

	for _, s := range []string{"line1\n", "line2\n", "line3\n"} {
		_, err = cb.Write([]byte(s))
		require.NoError(t, err)
	}

	n, err = cb.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(18), n)
	assert.Equal(t, "line1\nline2\nline3\n", buf.String())
}

func TestCircularBuffer_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	cb := log.NewCircularBuffer(100)

	done := make(chan bool, 15)

	for range 10 {
		go func() {
			for range 50 {
				_, err := cb.Write([]byte(strings.Repeat("x", 10)))
				assert.NoError(t, err)
			}
			done <- true
		}()
	}

	for range 5 {
		go func() {
			for range 20 {
				cb.Entries()
				cb.Size()
			}
			done <- true
		}()
	}

	for range 15 {
		<-done
	}

	assert.Equal(t, 100, cb.Size())
}
