package coords

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"
	"time"
)

// fakeSource is a ScreenSource whose dimensions can be changed between calls.
type fakeSource struct {
	mu         sync.Mutex
	devW, devH int
	snapW      int
	snapH      int
	sizeErr    error
	captureErr error
	raw        []byte
	sizeCalls  int
	capCalls   int
}

func (f *fakeSource) ScreenSize(ctx context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizeCalls++
	return f.devW, f.devH, f.sizeErr
}

func (f *fakeSource) CaptureSnapshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capCalls++
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	if f.raw != nil {
		return f.raw, nil
	}
	return encodePNG(f.snapW, f.snapH), nil
}

func encodePNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestNormalize_RetinaScale(t *testing.T) {
	src := &fakeSource{devW: 1280, devH: 800, snapW: 2560, snapH: 1600}
	m := NewMapper(src)

	p, err := m.Normalize(context.Background(), 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if p != (Point{X: 50, Y: 50}) {
		t.Errorf("Normalize(100,100) = %+v, want {50 50}", p)
	}
	s := m.Cached()
	if s.ScaleX != 2.0 || s.ScaleY != 2.0 {
		t.Errorf("scale = %v,%v, want 2,2", s.ScaleX, s.ScaleY)
	}
}

func TestNormalize_DownscaledSnapshot(t *testing.T) {
	src := &fakeSource{devW: 1440, devH: 900, snapW: 720, snapH: 450}
	m := NewMapper(src)

	p, err := m.Normalize(context.Background(), 360, 225)
	if err != nil {
		t.Fatal(err)
	}
	if p != (Point{X: 720, Y: 450}) {
		t.Errorf("got %+v, want {720 450}", p)
	}
}

func TestNormalize_AlwaysClamped(t *testing.T) {
	s, err := NewSystem(1280, 800, 2560, 1600, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	inputs := [][2]float64{
		{-1, -1},
		{-100000, 5},
		{9999, 9999},
		{1e12, -1e12},
		{2559.9, 1599.9},
		{math.Inf(1), math.Inf(-1)},
		{math.NaN(), math.NaN()},
	}
	for _, in := range inputs {
		p := s.Normalize(in[0], in[1])
		if p.X < 0 || p.X > 1279 || p.Y < 0 || p.Y > 799 {
			t.Errorf("Normalize(%v,%v) = %+v, outside device bounds", in[0], in[1], p)
		}
	}
	if p := s.Normalize(9999, 9999); p != (Point{X: 1279, Y: 799}) {
		t.Errorf("oversized input should clamp to max corner, got %+v", p)
	}
}

func TestMapper_CachesWithinTTL(t *testing.T) {
	clock := newClock()
	src := &fakeSource{devW: 1280, devH: 800, snapW: 2560, snapH: 1600}
	m := NewMapper(src, WithClock(clock.Now), WithTTL(5*time.Minute))
	ctx := context.Background()

	first, err := m.System(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// Reconfigure the device; the cached record must still be used.
	src.mu.Lock()
	src.devW, src.devH = 1920, 1080
	src.snapW, src.snapH = 1920, 1080
	src.mu.Unlock()
	clock.Advance(4 * time.Minute)

	second, err := m.System(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.ScaleX != first.ScaleX || second.ScaleY != first.ScaleY {
		t.Errorf("scale changed within TTL: %v,%v -> %v,%v", first.ScaleX, first.ScaleY, second.ScaleX, second.ScaleY)
	}
	if src.sizeCalls != 1 || src.capCalls != 1 {
		t.Errorf("expected one measurement, got size=%d capture=%d", src.sizeCalls, src.capCalls)
	}
}

func TestMapper_RefreshesAfterTTL(t *testing.T) {
	clock := newClock()
	src := &fakeSource{devW: 1280, devH: 800, snapW: 2560, snapH: 1600}
	m := NewMapper(src, WithClock(clock.Now), WithTTL(5*time.Minute))
	ctx := context.Background()

	if _, err := m.System(ctx); err != nil {
		t.Fatal(err)
	}
	src.mu.Lock()
	src.snapW, src.snapH = 1280, 800
	src.mu.Unlock()
	clock.Advance(5 * time.Minute)

	s, err := m.System(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.ScaleX != 1 || s.ScaleY != 1 {
		t.Errorf("expected refreshed scale 1,1, got %v,%v", s.ScaleX, s.ScaleY)
	}
	if !s.CapturedAt.Equal(clock.Now()) {
		t.Errorf("CapturedAt = %v, want %v", s.CapturedAt, clock.Now())
	}
}

func TestMapper_Invalidate(t *testing.T) {
	src := &fakeSource{devW: 100, devH: 100, snapW: 200, snapH: 200}
	m := NewMapper(src)
	ctx := context.Background()
	if _, err := m.System(ctx); err != nil {
		t.Fatal(err)
	}
	m.Invalidate()
	if m.Cached() != nil {
		t.Fatal("cache should be empty after Invalidate")
	}
	if _, err := m.System(ctx); err != nil {
		t.Fatal(err)
	}
	if src.sizeCalls != 2 {
		t.Errorf("expected re-measurement after Invalidate, got %d size calls", src.sizeCalls)
	}
}

func TestMapper_CaptureFailureFallsBackToIdentity(t *testing.T) {
	src := &fakeSource{devW: 1280, devH: 800, captureErr: errors.New("screen recording denied")}
	m := NewMapper(src)

	p, err := m.Normalize(context.Background(), 640, 400)
	if err != nil {
		t.Fatalf("capture failure must not surface: %v", err)
	}
	if p != (Point{X: 640, Y: 400}) {
		t.Errorf("identity mapping expected, got %+v", p)
	}
	s := m.Cached()
	if !s.Fallback || s.SnapshotWidth != 1280 || s.SnapshotHeight != 800 {
		t.Errorf("unexpected fallback record: %+v", s)
	}
}

func TestMapper_UndecodableSnapshotFallsBack(t *testing.T) {
	src := &fakeSource{devW: 800, devH: 600, raw: []byte("not an image")}
	m := NewMapper(src)

	s, err := m.System(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !s.Fallback || s.ScaleX != 1 || s.ScaleY != 1 {
		t.Errorf("expected 1:1 fallback, got %+v", s)
	}
}

func TestMapper_ScreenSizeFailureIsReturned(t *testing.T) {
	src := &fakeSource{sizeErr: errors.New("not connected")}
	m := NewMapper(src)

	if _, err := m.Normalize(context.Background(), 1, 1); err == nil {
		t.Fatal("expected error when device size is unknown")
	}
	if m.Cached() != nil {
		t.Error("failed measurement must not populate the cache")
	}
}

func TestMapper_ConcurrentReadersSeeWholeRecords(t *testing.T) {
	clock := newClock()
	src := &fakeSource{devW: 1000, devH: 500, snapW: 2000, snapH: 1000}
	m := NewMapper(src, WithClock(clock.Now), WithTTL(time.Millisecond))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s, err := m.System(ctx)
				if err != nil {
					t.Error(err)
					return
				}
				if s.ScaleX != float64(s.SnapshotWidth)/float64(s.DeviceWidth) {
					t.Errorf("torn record: %+v", s)
					return
				}
				clock.Advance(time.Millisecond)
			}
		}()
	}
	wg.Wait()
}

func TestSnapshotSize(t *testing.T) {
	w, h, format, err := SnapshotSize(encodePNG(37, 21))
	if err != nil {
		t.Fatal(err)
	}
	if w != 37 || h != 21 || format != "png" {
		t.Errorf("got %dx%d %s, want 37x21 png", w, h, format)
	}
	if _, _, _, err := SnapshotSize(nil); err == nil {
		t.Error("empty data should fail")
	}
}

func TestNewSystem_RejectsNonPositive(t *testing.T) {
	if _, err := NewSystem(0, 800, 100, 100, time.Now()); err == nil {
		t.Error("zero device width should fail")
	}
	if _, err := NewSystem(100, 100, 100, -1, time.Now()); err == nil {
		t.Error("negative snapshot height should fail")
	}
}

func TestAnnotate_DrawsMarker(t *testing.T) {
	s, _ := NewSystem(100, 100, 200, 200, time.Now())
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	out := Annotate(img, s, 100, 100)
	if got := out.RGBAAt(100, 100); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("marker center = %+v, want red", got)
	}
	if out.Bounds() != img.Bounds() {
		t.Errorf("bounds changed: %v", out.Bounds())
	}
}

func TestMapper_ExpiredContextIsNotCachedAsFallback(t *testing.T) {
	src := &fakeSource{devW: 1280, devH: 800, captureErr: context.DeadlineExceeded}
	m := NewMapper(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.System(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the capture error, got %v", err)
	}
	if m.Cached() != nil {
		t.Errorf("nothing should be cached, got %+v", m.Cached())
	}
}
