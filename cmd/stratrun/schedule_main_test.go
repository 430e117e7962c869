package main

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRunnerSkipsOverlappingFires(t *testing.T) {
	var runs int32
	block := make(chan struct{})

	c := newScheduleRunner()
	_, err := c.AddFunc("@every 1h", func() {
		atomic.AddInt32(&runs, 1)
		<-block
	})
	require.NoError(t, err)
	job := c.Entries()[0].WrappedJob

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, time.Second, time.Millisecond)

	// A fire landing while the first scan is in flight must not start a
	// second one.
	job.Run()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	close(block)
	<-done
}
