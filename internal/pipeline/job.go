// Package pipeline orchestrates the upload-to-download lifecycle of a
// translation request: extract, translate, rebuild, serve, clean up.
package pipeline

import (
	"fmt"
	"sync"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/storage"
)

// Phase is the lifecycle state of a translation request
type Phase string

const (
	PhaseReceived    Phase = "received"
	PhaseExtracting  Phase = "extracting"
	PhaseTranslating Phase = "translating"
	PhaseRebuilding  Phase = "rebuilding"
	PhaseReady       Phase = "ready"
	PhaseServed      Phase = "served"
	PhaseFailed      Phase = "failed"
)

// next names the only legal forward transition out of each phase
var next = map[Phase]Phase{
	PhaseReceived:    PhaseExtracting,
	PhaseExtracting:  PhaseTranslating,
	PhaseTranslating: PhaseRebuilding,
	PhaseRebuilding:  PhaseReady,
	PhaseReady:       PhaseServed,
}

// Terminal reports whether a phase has no outgoing transitions
func (p Phase) Terminal() bool {
	return p == PhaseServed || p == PhaseFailed
}

// Job tracks one translation request and the files it owns on disk. Both
// terminal transitions delete every artifact the job created.
type Job struct {
	ID           string
	OriginalName string

	mu         sync.Mutex
	phase      Phase
	uploadPath string
	outputPath string
	store      *storage.Store
}

// NewJob creates a Job in the received phase, owning the stored upload
func NewJob(id, originalName, uploadPath string, store *storage.Store) *Job {
	return &Job{
		ID:           id,
		OriginalName: originalName,
		phase:        PhaseReceived,
		uploadPath:   uploadPath,
		store:        store,
	}
}

// Phase returns the current lifecycle phase
func (j *Job) Phase() Phase {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.phase
}

// OutputPath returns the rebuilt PDF's path, set once the job is ready
func (j *Job) OutputPath() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outputPath
}

// advance moves the job one step forward through the state machine
func (j *Job) advance() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	to, ok := next[j.phase]
	if !ok {
		return fmt.Errorf("no transition out of phase %s", j.phase)
	}

	logger.Debug("job phase change",
		logger.String("job", j.ID),
		logger.String("from", string(j.phase)),
		logger.String("to", string(to)))
	j.phase = to
	return nil
}

// setOutput records the rebuilt PDF path
func (j *Job) setOutput(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outputPath = path
}

// Served marks a successful handoff and deletes every artifact. Calling it
// on a job that is not ready is a no-op beyond cleanup.
func (j *Job) Served() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.phase.Terminal() {
		return
	}
	j.phase = PhaseServed
	j.cleanupLocked()
}

// Fail moves the job to the failed phase and deletes every artifact. Safe
// to call from any phase; terminal jobs are left alone.
func (j *Job) Fail() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.phase.Terminal() {
		return
	}
	j.phase = PhaseFailed
	j.cleanupLocked()
}

// cleanupLocked removes the upload and output files. Callers hold j.mu.
func (j *Job) cleanupLocked() {
	j.store.Remove(j.uploadPath)
	j.uploadPath = ""
	j.store.Remove(j.outputPath)
	j.outputPath = ""
}
