package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer_StopRecordsDuration(t *testing.T) {
	timer := Start("rasterize")
	assert.Equal(t, "rasterize", timer.Name())

	time.Sleep(5 * time.Millisecond)

	d := timer.Stop()
	assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	assert.Equal(t, d, timer.Stop(), "second Stop keeps the first duration")
	assert.Equal(t, d, timer.Elapsed())
}

func TestTimer_ElapsedBeforeStop(t *testing.T) {
	timer := Start("match")
	time.Sleep(2 * time.Millisecond)

	first := timer.Elapsed()
	assert.Greater(t, first, time.Duration(0))
	time.Sleep(2 * time.Millisecond)
	assert.Greater(t, timer.Elapsed(), first)
}

func TestTimer_String(t *testing.T) {
	timer := Start("count")
	timer.Stop()
	assert.Contains(t, timer.String(), "count: ")
}
