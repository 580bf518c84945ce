package gpio_test

import (
	"testing"

	"codeberg.org/wrenvik/dutymond/internal/gpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeWatcherDeliversEdges(t *testing.T) {
	w := gpio.NewFakeWatcher()

	var levels []bool
	var stamps []uint32
	err := w.Watch(func(level bool, micros uint32) {
		levels = append(levels, level)
		stamps = append(stamps, micros)
	})
	require.NoError(t, err)

	w.Fire(true, 100)
	w.Fire(false, 350)

	assert.Equal(t, []bool{true, false}, levels)
	assert.Equal(t, []uint32{100, 350}, stamps)
}

func TestFakeWatcherFireBeforeWatch(t *testing.T) {
	w := gpio.NewFakeWatcher()
	assert.NotPanics(t, func() { w.Fire(true, 1) })
}

func TestFakeOutputRecordsHistory(t *testing.T) {
	o := gpio.NewFakeOutput()

	require.NoError(t, o.Set(true))
	require.NoError(t, o.Set(false))
	require.NoError(t, o.Set(true))

	assert.True(t, o.Active)
	assert.Equal(t, []bool{true, false, true}, o.History)

	require.NoError(t, o.Close())
	assert.True(t, o.Closed)
	assert.False(t, o.Active)
}
