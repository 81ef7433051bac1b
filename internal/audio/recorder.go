// Package audio manages voice memo recording. Recordings are ephemeral: they
// live only in memory and are lost when the app closes.
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

// PermissionMessage is the advisory shown when microphone access is denied.
const PermissionMessage = "Please grant permission to app to access microphone"

var (
	errMissingEngine = errors.New("audio: engine is required")
	// ErrPermissionDenied aborts a recording attempt without microphone access.
	ErrPermissionDenied = errors.New("audio: microphone permission denied")
	// ErrRecordingActive enforces the single-slot recording resource: at most
	// one recording may be in flight.
	ErrRecordingActive = errors.New("audio: a recording is already active")
	// ErrNoActiveRecording reports a stop without a matching start.
	ErrNoActiveRecording = errors.New("audio: no recording is active")
)

// Clip is the raw result the engine produces when a recording stops.
type Clip struct {
	Sound          any
	DurationMillis int64
	FileURI        string
}

// Recording is one finished memo as presented to the user.
type Recording struct {
	Sound    any
	Duration string
	File     string
}

// Engine is the platform audio subsystem.
type Engine interface {
	RequestPermission(ctx context.Context) (bool, error)
	Start(ctx context.Context) (handle any, err error)
	Stop(ctx context.Context, handle any) (Clip, error)
}

// Config bundles the recorder dependencies.
type Config struct {
	Engine Engine
	Logger *zap.Logger
}

// Recorder owns the single active recording slot and the in-memory memo list.
type Recorder struct {
	engine Engine
	logger *zap.Logger

	mu         sync.Mutex
	active     any
	recordings []Recording
}

// NewRecorder constructs the recorder.
func NewRecorder(cfg Config) (*Recorder, error) {
	if cfg.Engine == nil {
		return nil, errMissingEngine
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{engine: cfg.Engine, logger: logger}, nil
}

// StartRecording requests microphone permission and begins recording. A
// denied permission aborts with ErrPermissionDenied; a recording already in
// flight aborts with ErrRecordingActive and leaves the active one untouched.
func (r *Recorder) StartRecording(ctx context.Context) error {
	r.mu.Lock()
	if r.active != nil {
		r.mu.Unlock()
		return ErrRecordingActive
	}
	r.mu.Unlock()

	granted, err := r.engine.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("audio: request permission: %w", err)
	}
	if !granted {
		return ErrPermissionDenied
	}

	handle, err := r.engine.Start(ctx)
	if err != nil {
		return fmt.Errorf("audio: start recording: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		// Lost the race to another start; discard this handle's slot claim.
		return ErrRecordingActive
	}
	r.active = handle
	return nil
}

// StopRecording finishes the active recording and appends it to the memo
// list.
func (r *Recorder) StopRecording(ctx context.Context) (Recording, error) {
	r.mu.Lock()
	handle := r.active
	r.active = nil
	r.mu.Unlock()
	if handle == nil {
		return Recording{}, ErrNoActiveRecording
	}

	clip, err := r.engine.Stop(ctx, handle)
	if err != nil {
		return Recording{}, fmt.Errorf("audio: stop recording: %w", err)
	}

	recording := Recording{
		Sound:    clip.Sound,
		Duration: FormatDuration(clip.DurationMillis),
		File:     clip.FileURI,
	}

	r.mu.Lock()
	r.recordings = append(r.recordings, recording)
	r.mu.Unlock()

	r.logger.Info("recording captured", zap.String("duration", recording.Duration))
	return recording, nil
}

// Recordings returns a snapshot of the captured memos, oldest first.
func (r *Recorder) Recordings() []Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recording(nil), r.recordings...)
}

// Active reports whether a recording is in flight.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// FormatDuration renders a duration in m:ss form with seconds rounded to the
// nearest whole second, matching the mobile client's display.
func FormatDuration(millis int64) string {
	minutes := float64(millis) / 1000 / 60
	wholeMinutes := int64(math.Floor(minutes))
	seconds := int64(math.Round((minutes - float64(wholeMinutes)) * 60))
	return fmt.Sprintf("%d:%02d", wholeMinutes, seconds)
}
