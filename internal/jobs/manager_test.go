package jobs

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-cropper/internal/crop"
	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/pdf"
	"github.com/spherical/pdf-cropper/internal/pdf/pdftest"
)

type fakeStarter struct {
	mu      sync.Mutex
	err     error
	streams []chan domain.StreamEvent
}

func (f *fakeStarter) Start(_ context.Context, _ crop.Request) (<-chan domain.StreamEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan domain.StreamEvent, 16)
	f.streams = append(f.streams, ch)
	return ch, nil
}

func (f *fakeStarter) stream(i int) chan domain.StreamEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[i]
}

func finish(ch chan domain.StreamEvent, result *domain.BatchResult) {
	ch <- domain.StreamEvent{Type: domain.EventComplete, Payload: result, Timestamp: time.Now()}
	close(ch)
}

func waitForStatus(t *testing.T, m *Manager, id string, want Status) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		job, _ = m.Get(id)
		return job.Status == want
	}, 5*time.Second, 5*time.Millisecond)
	return job
}

func TestManager_TracksProgress(t *testing.T) {
	starter := &fakeStarter{}
	m := NewManager(starter, 10, nil)

	job, err := m.Submit(crop.NewRequest("a.pdf", "b.pdf"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, 2, job.TotalFiles)

	ch := starter.stream(0)
	ch <- domain.StreamEvent{Type: domain.EventStart}
	ch <- domain.StreamEvent{Type: domain.EventFileProcessing, FileIndex: 2, FileName: "b.pdf"}
	ch <- domain.StreamEvent{Type: domain.EventPageComplete, FileIndex: 2, PageNumber: 1}

	require.Eventually(t, func() bool {
		got, _ := m.Get(job.ID)
		return got.PagesDone == 1
	}, 5*time.Second, 5*time.Millisecond)

	got, ok := m.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, 2, got.CurrentIndex)
	assert.Equal(t, "b.pdf", got.CurrentFile)

	ch <- domain.StreamEvent{Type: domain.EventError, FileIndex: 2, Payload: "file b.pdf: broken"}
	finish(ch, &domain.BatchResult{TotalFiles: 2, ProcessedFiles: 1, Errors: []string{"file b.pdf: broken"}})

	done := waitForStatus(t, m, job.ID, StatusFailed)
	assert.Equal(t, []string{"file b.pdf: broken"}, done.Errors)
	require.NotNil(t, done.Result)
	assert.Equal(t, 1, done.Result.ProcessedFiles)
	assert.NotNil(t, done.FinishedAt)

	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_FinalStatus(t *testing.T) {
	tests := []struct {
		name   string
		result *domain.BatchResult
		want   Status
	}{
		{"all files processed", &domain.BatchResult{TotalFiles: 1, ProcessedFiles: 1}, StatusSucceeded},
		{"some files failed", &domain.BatchResult{TotalFiles: 2, ProcessedFiles: 1, Errors: []string{"x"}}, StatusFailed},
		{"cancelled", &domain.BatchResult{TotalFiles: 2, Cancelled: true}, StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starter := &fakeStarter{}
			m := NewManager(starter, 10, nil)
			job, err := m.Submit(crop.NewRequest("a.pdf"))
			require.NoError(t, err)

			finish(starter.stream(0), tt.result)
			waitForStatus(t, m, job.ID, tt.want)
		})
	}
}

func TestManager_SubmitValidationError(t *testing.T) {
	m := NewManager(&fakeStarter{err: domain.ValidationError("no input files given", nil)}, 10, nil)

	_, err := m.Submit(crop.NewRequest())
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
	assert.Empty(t, m.List())
}

func TestManager_Capacity(t *testing.T) {
	starter := &fakeStarter{}
	m := NewManager(starter, 2, nil)

	first, err := m.Submit(crop.NewRequest("a.pdf"))
	require.NoError(t, err)
	second, err := m.Submit(crop.NewRequest("b.pdf"))
	require.NoError(t, err)

	_, err = m.Submit(crop.NewRequest("c.pdf"))
	assert.ErrorIs(t, err, ErrCapacity)

	finish(starter.stream(0), &domain.BatchResult{TotalFiles: 1, ProcessedFiles: 1})
	waitForStatus(t, m, first.ID, StatusSucceeded)

	third, err := m.Submit(crop.NewRequest("c.pdf"))
	require.NoError(t, err)

	_, ok := m.Get(first.ID)
	assert.False(t, ok, "oldest finished job is evicted")

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, third.ID, list[1].ID)
}

func TestManager_WithCropService(t *testing.T) {
	dir := t.TempDir()
	path := pdftest.WriteFileIn(t, dir, "letter.pdf", pdftest.Letter("100 100 200 150 re f 50 60 10 10 re f"))

	svc := crop.NewService(pdf.NewBackend(0, nil), nil)
	m := NewManager(svc, 10, nil)

	job, err := m.Submit(crop.NewRequest(path))
	require.NoError(t, err)

	done := waitForStatus(t, m, job.ID, StatusSucceeded)
	assert.Equal(t, 1, done.CurrentIndex)
	assert.Equal(t, "letter.pdf", done.CurrentFile)
	assert.Equal(t, 1, done.PagesDone)
	require.NotNil(t, done.Result)
	assert.Equal(t, 1, done.Result.Artifacts)
	assert.FileExists(t, filepath.Join(dir, "letter_cropped.pdf"))

	require.NoError(t, m.Shutdown(context.Background()))
}
