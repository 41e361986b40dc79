package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvocationID(t *testing.T) {
	id := NewInvocationID()

	require.NotEmpty(t, id)
	assert.True(t, strings.HasPrefix(id, "inv-"), "expected inv- prefix, got %q", id)
	assert.Greater(t, len(id), len("inv-"))
}

func TestNewInvocationID_Uniqueness(t *testing.T) {
	const count = 1000

	seen := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		id := NewInvocationID()
		assert.False(t, seen[id], "duplicate invocation ID %q", id)
		seen[id] = true
	}
}

func TestNewInvocationSlug(t *testing.T) {
	slug := NewInvocationSlug()

	require.NotEmpty(t, slug)
	assert.NotContains(t, slug, " ")
	assert.Less(t, len(slug), len(NewInvocationID()), "slug should be the short form")
}

func TestNewInvocationID_Concurrent(t *testing.T) {
	const goroutines = 50
	const perGoroutine = 20

	ids := make(chan string, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		go func() {
			for j := 0; j < perGoroutine; j++ {
				ids <- NewInvocationID()
			}
		}()
	}

	seen := make(map[string]bool, goroutines*perGoroutine)
	for i := 0; i < goroutines*perGoroutine; i++ {
		id := <-ids
		assert.False(t, seen[id], "duplicate invocation ID %q under concurrency", id)
		seen[id] = true
	}
}
