package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsTracksStage1AndStage2Transitions(t *testing.T) {
	st := newStats(3, 2, 2)

	st.enterStage1("doc1")
	snap := st.snapshot(true)
	assert.Equal(t, 1, snap.Stage1Active)
	assert.Equal(t, "doc1", snap.CurrentDocID)

	st.exitStage1()
	st.enqueued()
	snap = st.snapshot(true)
	assert.Equal(t, 0, snap.Stage1Active)
	assert.Equal(t, 1, snap.InBuffer)

	st.dequeued()
	st.enterStage2()
	snap = st.snapshot(true)
	assert.Equal(t, 0, snap.InBuffer)
	assert.Equal(t, 1, snap.Stage2Active)

	st.exitStage2(Result{Status: StatusOk})
	snap = st.snapshot(false)
	assert.Equal(t, 0, snap.Stage2Active)
	assert.Equal(t, 1, snap.Processed)
	assert.Equal(t, 1, snap.Successful)
	assert.False(t, snap.IsRunning)
}

func TestStatsRecordStage1TerminalCountsFailedAndStopped(t *testing.T) {
	st := newStats(2, 1, 1)

	st.recordStage1Terminal(Result{Status: StatusFailed})
	st.recordStage1Terminal(Result{Status: StatusStopped})

	snap := st.snapshot(false)
	assert.Equal(t, 2, snap.Processed)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 1, snap.Stopped)
	assert.Equal(t, 0, snap.Successful)
}
