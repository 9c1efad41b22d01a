package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistrationCache_SetGet(t *testing.T) {
	c := NewRegistrationCache()

	_, ok := c.Get("9V1234")
	assert.False(t, ok)

	c.Set("9V1234", "YV3032")
	tail, ok := c.Get("9V1234")
	assert.True(t, ok)
	assert.Equal(t, "YV3032", tail)

	// Keys are normalized.
	tail, ok = c.Get(" 9v1234 ")
	assert.True(t, ok)
	assert.Equal(t, "YV3032", tail)
}

func TestRegistrationCache_IgnoresEmptyValues(t *testing.T) {
	c := NewRegistrationCache()

	c.Set("", "YV3032")
	c.Set("9V1234", "")

	_, ok := c.Get("9V1234")
	assert.False(t, ok)
}

func TestRegistrationCache_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &registrationCache{
		entries: make(map[string]entry),
		ttl:     10 * time.Minute,
		now:     func() time.Time { return now },
	}

	c.Set("9V1234", "YV3032")

	_, ok := c.Get("9V1234")
	assert.True(t, ok)

	now = now.Add(11 * time.Minute)
	_, ok = c.Get("9V1234")
	assert.False(t, ok)
}
