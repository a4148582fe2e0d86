// SPDX-License-Identifier: MIT

package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendAndOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	l := NewLog(50, WithClock(func() time.Time { return now }))

	l.Infof("recording started: %s", "Hala FM")
	l.Errorf("segment fetch failed")

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "recording started: Hala FM", entries[0].Message)
	assert.Equal(t, "error", entries[1].Level)
	assert.Equal(t, now, entries[0].Time)
}

func TestLog_CapKeepsMostRecent(t *testing.T) {
	l := NewLog(50)
	for i := 0; i < 75; i++ {
		l.Infof("event %d", i)
	}

	entries := l.Entries()
	require.Len(t, entries, 50)
	assert.Equal(t, "event 25", entries[0].Message)
	assert.Equal(t, "event 74", entries[49].Message)
}

func TestLog_EntriesReturnsCopy(t *testing.T) {
	l := NewLog(10)
	l.Infof("one")

	entries := l.Entries()
	entries[0].Message = "mutated"
	assert.Equal(t, "one", l.Entries()[0].Message)
}

func TestLog_ConcurrentAppend(t *testing.T) {
	l := NewLog(20)
	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			for i := 0; i < 100; i++ {
				l.Infof("g%d-%d", g, i)
			}
			done <- struct{}{}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}
	assert.Len(t, l.Entries(), 20)
}
