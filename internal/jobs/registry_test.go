package jobs

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func statusPtr(s Status) *Status { return &s }
func intPtr(i int) *int          { return &i }
func strPtr(s string) *string    { return &s }

func TestCreateAndGet(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	r.Create("abc123")

	job, ok := r.Get("abc123")
	require.True(t, ok)
	assert.Equal(t, StatusProcessing, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.NotEmpty(t, job.Message)
	assert.False(t, job.LastUpdated.IsZero())
}

func TestCreateExistingIsNoop(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	r.Create("dup")
	r.Update("dup", Update{Progress: intPtr(40)})

	// A second create must not reset the record
	r.Create("dup")

	job, ok := r.Get("dup")
	require.True(t, ok)
	assert.Equal(t, 40, job.Progress)
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	_, ok := r.Get("nope")
	assert.False(t, ok)
}

func TestUpdateMergesPartialFields(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	r.Create("j1")
	r.Update("j1", Update{Progress: intPtr(25), Message: strPtr("generating content")})

	job, _ := r.Get("j1")
	assert.Equal(t, 25, job.Progress)
	assert.Equal(t, "generating content", job.Message)
	assert.Equal(t, StatusProcessing, job.Status, "status untouched by partial update")

	before := job.LastUpdated
	time.Sleep(5 * time.Millisecond)
	r.Update("j1", Update{Message: strPtr("rendering pdf")})

	job, _ = r.Get("j1")
	assert.Equal(t, 25, job.Progress, "progress untouched by message-only update")
	assert.True(t, job.LastUpdated.After(before))
}

func TestProgressNeverDecreases(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	r.Create("j1")
	r.Update("j1", Update{Progress: intPtr(60)})
	r.Update("j1", Update{Progress: intPtr(30)})

	job, _ := r.Get("j1")
	assert.Equal(t, 60, job.Progress)
}

func TestTerminalStatusFreezesJob(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	r.Create("j1")
	r.Update("j1", Update{
		Status:   statusPtr(StatusError),
		Error:    strPtr("generation failed"),
		Progress: intPtr(55),
	})

	r.Update("j1", Update{
		Status: statusPtr(StatusCompleted),
		Result: []byte("%PDF-1.7"),
	})

	job, _ := r.Get("j1")
	assert.Equal(t, StatusError, job.Status)
	assert.Nil(t, job.Result)
	assert.Equal(t, "generation failed", job.Error)
}

func TestUpdateUnknownIsNoop(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	// Must not panic
	r.Update("ghost", Update{Progress: intPtr(10)})
	assert.Equal(t, 0, r.Len())
}

func TestScheduleDelete(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	r.Create("gone")
	r.ScheduleDelete("gone", 20*time.Millisecond)

	_, ok := r.Get("gone")
	require.True(t, ok, "job still present before the delay")

	assert.Eventually(t, func() bool {
		_, ok := r.Get("gone")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestScheduleDeleteResetsTimer(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	r.Create("j1")
	r.ScheduleDelete("j1", 10*time.Millisecond)
	r.ScheduleDelete("j1", time.Minute)

	time.Sleep(50 * time.Millisecond)
	_, ok := r.Get("j1")
	assert.True(t, ok, "rescheduling must supersede the first timer")
}

func TestCloseStopsTimers(t *testing.T) {
	r := NewRegistry(testLogger())

	r.Create("j1")
	r.ScheduleDelete("j1", 20*time.Millisecond)
	r.Close()

	time.Sleep(60 * time.Millisecond)
	_, ok := r.Get("j1")
	assert.True(t, ok, "no deletion after Close")
}

func TestSnapshotIsolation(t *testing.T) {
	r := NewRegistry(testLogger())
	defer r.Close()

	r.Create("j1")
	snap, _ := r.Get("j1")
	snap.Progress = 99

	job, _ := r.Get("j1")
	assert.Equal(t, 0, job.Progress, "mutating a snapshot must not touch the registry")
}
