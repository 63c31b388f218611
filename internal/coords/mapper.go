package coords

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL is how long a measured System stays valid.
const DefaultTTL = 5 * time.Minute

// ScreenSource measures the target device.
type ScreenSource interface {
	// ScreenSize returns the device's reported screen dimensions in input space.
	ScreenSize(ctx context.Context) (width, height int, err error)
	// CaptureSnapshot returns one freshly captured, encoded screenshot.
	CaptureSnapshot(ctx context.Context) ([]byte, error)
}

// Mapper provides a TTL-cached System for a ScreenSource.
type Mapper struct {
	src    ScreenSource
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	current   atomic.Pointer[System]
	refreshMu sync.Mutex
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithTTL sets the cache lifetime. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(m *Mapper) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Mapper) { m.now = now }
}

// WithLogger sets the logger used for degraded-mapping warnings.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mapper) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMapper creates a Mapper over src.
func NewMapper(src ScreenSource, opts ...Option) *Mapper {
	m := &Mapper{
		src:    src,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Cached returns the current record without refreshing it, or nil.
func (m *Mapper) Cached() *System {
	return m.current.Load()
}

// Invalidate drops the cached record; the next call re-measures.
func (m *Mapper) Invalidate() {
	m.current.Store(nil)
}

// System returns a valid System, measuring the device when the cached
// record is absent or older than the TTL. A failed snapshot degrades to
// a 1:1 mapping; a failed screen-size query, or a capture cut short by
// ctx, is returned as an error.
func (m *Mapper) System(ctx context.Context) (*System, error) {
	if s := m.current.Load(); s != nil && !s.Expired(m.now(), m.ttl) {
		return s, nil
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if s := m.current.Load(); s != nil && !s.Expired(m.now(), m.ttl) {
		return s, nil
	}

	s, err := m.measure(ctx)
	if err != nil {
		return nil, err
	}
	m.current.Store(s)
	return s, nil
}

// Normalize maps a snapshot-space point into device space.
func (m *Mapper) Normalize(ctx context.Context, x, y float64) (Point, error) {
	s, err := m.System(ctx)
	if err != nil {
		return Point{}, err
	}
	return s.Normalize(x, y), nil
}

func (m *Mapper) measure(ctx context.Context) (*System, error) {
	devW, devH, err := m.src.ScreenSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("query screen size: %w", err)
	}
	if devW <= 0 || devH <= 0 {
		return nil, fmt.Errorf("device reported invalid screen size %dx%d", devW, devH)
	}

	at := m.now()
	data, err := m.src.CaptureSnapshot(ctx)
	if err != nil && ctx.Err() != nil {
		// An expired caller deadline says nothing about the display; do
		// not cache a 1:1 record for it.
		return nil, fmt.Errorf("capture snapshot: %w", err)
	}
	if err != nil {
		m.logger.Warn("snapshot capture failed, using 1:1 coordinate mapping",
			"device_width", devW, "device_height", devH, "error", err)
		return Identity(devW, devH, at)
	}
	snapW, snapH, format, err := SnapshotSize(data)
	if err != nil {
		m.logger.Warn("snapshot unreadable, using 1:1 coordinate mapping",
			"device_width", devW, "device_height", devH, "error", err)
		return Identity(devW, devH, at)
	}

	s, err := NewSystem(devW, devH, snapW, snapH, at)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("coordinate system measured",
		"device", fmt.Sprintf("%dx%d", devW, devH),
		"snapshot", fmt.Sprintf("%dx%d", snapW, snapH),
		"format", format,
		"scale_x", s.ScaleX, "scale_y", s.ScaleY)
	return s, nil
}
