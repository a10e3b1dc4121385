package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolDefaults(t *testing.T) {
	p := Pool{}.withDefaults()
	assert.Equal(t, 25, p.MaxOpen)
	assert.Equal(t, 25, p.MaxIdle)
	assert.Equal(t, 30*time.Minute, p.MaxLifetime)

	// Idle follows open when only open is set.
	p = Pool{MaxOpen: 10}.withDefaults()
	assert.Equal(t, 10, p.MaxIdle)

	p = Pool{MaxOpen: 5, MaxIdle: 2, MaxLifetime: time.Hour}.withDefaults()
	assert.Equal(t, Pool{MaxOpen: 5, MaxIdle: 2, MaxLifetime: time.Hour}, p)
}
