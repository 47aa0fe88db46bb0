package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_SetGetExpire(t *testing.T) {
	c := NewTTLCache(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("rates:TRY", []byte("x"))
	v, ok := c.Get("rates:TRY")
	assert.True(t, ok)
	assert.Equal(t, []byte("x"), v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("rates:TRY")
	assert.False(t, ok)
}

func TestTTLCache_Delete(t *testing.T) {
	c := NewTTLCache(0)
	c.Set("k", []byte("v"))
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}
