// SPDX-License-Identifier: Apache-2.0

// Package wizard drives one operator session through upload, column
// mapping and import.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fleetops/laneimport/internal/automap"
	"github.com/fleetops/laneimport/internal/fields"
	"github.com/fleetops/laneimport/internal/importapi"
	"github.com/fleetops/laneimport/internal/mapping"
)

// Step is a wizard state.
type Step string

const (
	StepUpload    Step = "upload"
	StepMapping   Step = "mapping"
	StepImporting Step = "importing"
	StepDone      Step = "done"
)

var (
	ErrWrongStep        = errors.New("action not available in the current step")
	ErrImportInProgress = errors.New("an import is already in progress")
	ErrMissingClientID  = errors.New("client id is required")
	ErrEmptyUpload      = errors.New("uploaded file is empty")
)

// Executor runs a shaped import. *importapi.Executor satisfies it.
type Executor interface {
	Execute(ctx context.Context, req importapi.ImportRequest) (*importapi.ImportResult, error)
}

// Options configures a Wizard.
type Options struct {
	ClientID string
	// Defaults seeds the fallback values of every new mapping editor.
	Defaults map[string]string
	Mapper   *automap.Mapper
	Logger   *zap.Logger
}

// Wizard is the step machine for one session. Its methods are safe to call
// from multiple goroutines, but the *mapping.Editor it hands out is not.
type Wizard struct {
	mu        sync.Mutex
	previewer importapi.Previewer
	executor  Executor
	opts      Options
	logger    *zap.Logger

	step    Step
	file    *importapi.File
	preview *importapi.PreviewData
	editor  *mapping.Editor
	result  *importapi.ImportResult
	lastErr error
}

// New creates a Wizard on StepUpload.
func New(previewer importapi.Previewer, executor Executor, opts Options) (*Wizard, error) {
	if previewer == nil || executor == nil {
		return nil, fmt.Errorf("wizard needs a previewer and an executor")
	}
	if opts.Mapper == nil {
		opts.Mapper = automap.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	w := &Wizard{
		previewer: previewer,
		executor:  executor,
		opts:      opts,
		logger:    opts.Logger,
	}
	if err := w.resetLocked(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Wizard) newEditor() (*mapping.Editor, error) {
	ed := mapping.NewEditor(w.opts.Mapper)
	for key, value := range w.opts.Defaults {
		if err := ed.SetFallback(key, value); err != nil {
			return nil, fmt.Errorf("invalid default for %q: %w", key, err)
		}
	}
	return ed, nil
}

func (w *Wizard) resetLocked() error {
	ed, err := w.newEditor()
	if err != nil {
		return err
	}
	w.step = StepUpload
	w.file = nil
	w.preview = nil
	w.editor = ed
	w.result = nil
	w.lastErr = nil
	return nil
}

// Reset discards the file, preview, mapping and result and returns to
// StepUpload.
func (w *Wizard) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepImporting {
		return ErrImportInProgress
	}
	return w.resetLocked()
}

// Upload previews file and moves to StepMapping with a freshly auto-mapped
// editor. On failure the previous file, preview, mapping and step are kept.
func (w *Wizard) Upload(ctx context.Context, file importapi.File) error {
	w.mu.Lock()
	switch w.step {
	case StepImporting:
		w.mu.Unlock()
		return ErrImportInProgress
	case StepUpload, StepMapping, StepDone:
	default:
		w.mu.Unlock()
		return ErrWrongStep
	}
	w.mu.Unlock()

	if len(file.Data) == 0 {
		return w.fail(fmt.Errorf("%w: %q", ErrEmptyUpload, file.Name))
	}

	preview, err := w.previewer.Preview(ctx, file)
	if err != nil {
		w.logger.Warn("preview failed", zap.String("file", file.Name), zap.Error(err))
		return w.fail(err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepImporting {
		return ErrImportInProgress
	}
	w.file = &importapi.File{Name: file.Name, Data: file.Data}
	w.preview = preview
	w.editor.Reset(preview.Columns)
	w.result = nil
	w.lastErr = nil
	w.step = StepMapping

	w.logger.Info("file uploaded",
		zap.String("file", file.Name),
		zap.Int("columns", len(preview.Columns)),
		zap.Int("total_rows", preview.TotalRows),
		zap.Int("auto_mapped", len(w.editor.Mapping())))
	return nil
}

func (w *Wizard) fail(err error) error {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
	return err
}

// Editor returns the mapping editor. It is only available in StepMapping.
func (w *Wizard) Editor() (*mapping.Editor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepMapping {
		return nil, fmt.Errorf("%w: editor requires step %s, wizard is on %s", ErrWrongStep, StepMapping, w.step)
	}
	return w.editor, nil
}

// CanImport reports whether Import would be attempted.
func (w *Wizard) CanImport() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step == StepMapping && w.editor.IsComplete() && w.opts.ClientID != ""
}

// Import submits the uploaded file with the current mapping. Row failures
// still end on StepDone; a whole-request failure returns to StepMapping
// with the file and mapping kept.
func (w *Wizard) Import(ctx context.Context) (*importapi.ImportResult, error) {
	w.mu.Lock()
	switch {
	case w.step == StepImporting:
		w.mu.Unlock()
		return nil, ErrImportInProgress
	case w.step != StepMapping:
		step := w.step
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: import requires step %s, wizard is on %s", ErrWrongStep, StepMapping, step)
	}
	if missing := w.editor.Missing(); len(missing) > 0 {
		err := &importapi.IncompleteMappingError{Missing: fields.Keys(missing)}
		w.lastErr = err
		w.mu.Unlock()
		return nil, err
	}
	if w.opts.ClientID == "" {
		w.lastErr = ErrMissingClientID
		w.mu.Unlock()
		return nil, ErrMissingClientID
	}

	req := importapi.ImportRequest{
		File:      *w.file,
		ClientID:  w.opts.ClientID,
		Mapping:   w.editor.Mapping(),
		Fallbacks: w.editor.Fallbacks(),
	}
	w.step = StepImporting
	w.lastErr = nil
	w.mu.Unlock()

	result, err := w.executor.Execute(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.step = StepMapping
		w.lastErr = err
		return nil, err
	}
	w.result = result
	w.step = StepDone
	return result, nil
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Preview returns the preview of the current file, or nil.
func (w *Wizard) Preview() *importapi.PreviewData {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.preview
}

// File returns the current upload.
func (w *Wizard) File() (importapi.File, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return importapi.File{}, false
	}
	return *w.file, true
}

// Result returns the outcome of the last import, set only on StepDone.
func (w *Wizard) Result() *importapi.ImportResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// LastError returns the error of the last failed action, or nil.
func (w *Wizard) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}
