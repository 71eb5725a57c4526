package gateway

import (
	"sync"

	"github.com/fableforge/fable-engine/pkg/api"
)

// Job statuses.
const (
	JobProcessing = "processing"
	JobComplete   = "complete"
)

// jobTracker holds the progress of detached illustrate-all runs, keyed by
// story id. A new run for the same story replaces the previous record.
type jobTracker struct {
	mu   sync.RWMutex
	jobs map[string]*api.IllustrationJob
}

func newJobTracker() *jobTracker {
	return &jobTracker{jobs: make(map[string]*api.IllustrationJob)}
}

func (t *jobTracker) start(storyID string, chapters []api.Chapter) api.IllustrationJob {
	job := &api.IllustrationJob{
		StoryID:       storyID,
		Status:        JobProcessing,
		TotalChapters: len(chapters),
		Chapters:      append([]api.Chapter(nil), chapters...),
	}

	t.mu.Lock()
	t.jobs[storyID] = job
	t.mu.Unlock()

	return snapshotJob(job)
}

func (t *jobTracker) chapterDone(storyID string, index int, imageURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[storyID]
	if !ok || index < 0 || index >= len(job.Chapters) {
		return
	}
	job.Chapters[index].ImageURL = imageURL
	job.Completed++
	if job.Completed >= job.TotalChapters {
		job.Status = JobComplete
	}
}

func (t *jobTracker) get(storyID string) (api.IllustrationJob, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.jobs[storyID]
	if !ok {
		return api.IllustrationJob{}, false
	}
	return snapshotJob(job), true
}

func snapshotJob(job *api.IllustrationJob) api.IllustrationJob {
	out := *job
	out.Chapters = append([]api.Chapter(nil), job.Chapters...)
	return out
}
