package workspace

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/logging"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/schema"
)

// SampleTask is a sample generation running in the background.
type SampleTask struct {
	revision uint64
	cancel   context.CancelFunc
	done     chan struct{}
	logger   *log.Logger

	result *models.Value
	err    error
}

// Cancel stops the task. Its result will be dropped.
func (t *SampleTask) Cancel() { t.cancel() }

// Done is closed when the task has finished.
func (t *SampleTask) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes and returns its outcome.
func (t *SampleTask) Wait() (*models.Value, error) {
	<-t.done
	return t.result, t.err
}

// StartSample generates a sample from the current document in the
// background. A task started earlier is cancelled. Progress goes to the
// workspace logger unless ctx carries its own.
func (w *Workspace) StartSample(ctx context.Context, opts schema.SampleOptions) *SampleTask {
	if w.latest != nil {
		w.latest.Cancel()
	}

	if !logging.HasLogger(ctx) {
		ctx = logging.WithLogger(ctx, w.logger)
	}
	ctx, cancel := context.WithCancel(ctx)
	task := &SampleTask{
		revision: w.revision,
		cancel:   cancel,
		done:     make(chan struct{}),
		logger:   logging.FromContext(ctx),
	}
	w.latest = task

	var tree *models.Value
	if w.current != nil {
		tree = w.current.Tree
	}
	synth := w.synth
	go func() {
		defer close(task.done)
		defer cancel()
		task.result, task.err = schema.GenerateFromTree(ctx, synth, tree, opts)
	}()
	return task
}

// ApplySample waits for task and makes its sample the current document,
// written in the current format. Results of cancelled tasks, of tasks
// replaced by a newer one, or of tasks started before the last load, edit
// or commit are dropped without error.
func (w *Workspace) ApplySample(task *SampleTask) (bool, error) {
	sample, err := task.Wait()

	if task != w.latest || task.revision != w.revision {
		task.logger.Debug("dropping stale sample", "started", task.revision, "revision", w.revision)
		return false, nil
	}
	w.latest = nil

	if err != nil {
		if stderrors.Is(err, errors.ErrCancelled) || stderrors.Is(err, context.Canceled) {
			task.logger.Debug("sample generation cancelled")
			return false, nil
		}
		return false, err
	}

	doc, err := w.current.WithTree(sample)
	if err != nil {
		return false, errors.NewGenerateError("sample cannot be written as "+w.current.Format.String(), err)
	}
	w.current = doc
	w.bump()
	task.logger.Debug("applied sample", "revision", w.revision)
	return true, nil
}
