// Package coords maps points from snapshot pixel space into the native
// coordinate space of the input device.
//
// A snapshot taken for planning is frequently larger or smaller than the
// space the input backend accepts: Retina displays capture at twice the
// point resolution, and screenshots are often downscaled before they are
// sent to a model. The Mapper measures both spaces and keeps the resulting
// scale factors in a short-lived cache.
package coords

import (
	"fmt"
	"math"
	"time"
)

// Point is a position in device space.
type Point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// System describes the relation between snapshot space and device space.
// A System is never modified after construction.
type System struct {
	DeviceWidth    int       `yaml:"device_width"    json:"device_width"`
	DeviceHeight   int       `yaml:"device_height"   json:"device_height"`
	SnapshotWidth  int       `yaml:"snapshot_width"  json:"snapshot_width"`
	SnapshotHeight int       `yaml:"snapshot_height" json:"snapshot_height"`
	ScaleX         float64   `yaml:"scale_x"         json:"scale_x"`
	ScaleY         float64   `yaml:"scale_y"         json:"scale_y"`
	CapturedAt     time.Time `yaml:"captured_at"     json:"captured_at"`
	// Fallback is set when no snapshot could be measured and a 1:1
	// mapping was assumed.
	Fallback bool `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// NewSystem computes a System from the device and snapshot dimensions.
func NewSystem(deviceW, deviceH, snapW, snapH int, at time.Time) (*System, error) {
	if deviceW <= 0 || deviceH <= 0 {
		return nil, fmt.Errorf("invalid device dimensions %dx%d", deviceW, deviceH)
	}
	if snapW <= 0 || snapH <= 0 {
		return nil, fmt.Errorf("invalid snapshot dimensions %dx%d", snapW, snapH)
	}
	return &System{
		DeviceWidth:    deviceW,
		DeviceHeight:   deviceH,
		SnapshotWidth:  snapW,
		SnapshotHeight: snapH,
		ScaleX:         float64(snapW) / float64(deviceW),
		ScaleY:         float64(snapH) / float64(deviceH),
		CapturedAt:     at,
	}, nil
}

// Identity returns a 1:1 System for the given device dimensions.
func Identity(deviceW, deviceH int, at time.Time) (*System, error) {
	s, err := NewSystem(deviceW, deviceH, deviceW, deviceH, at)
	if err != nil {
		return nil, err
	}
	s.Fallback = true
	return s, nil
}

// Normalize converts a snapshot-space point into device space. The result
// is always inside [0, DeviceWidth-1] x [0, DeviceHeight-1].
func (s *System) Normalize(x, y float64) Point {
	return Point{
		X: scaleAxis(x, s.ScaleX, s.DeviceWidth),
		Y: scaleAxis(y, s.ScaleY, s.DeviceHeight),
	}
}

// Denormalize converts a device-space point back into snapshot space.
func (s *System) Denormalize(p Point) (float64, float64) {
	return float64(p.X) * s.ScaleX, float64(p.Y) * s.ScaleY
}

// Expired reports whether the record is older than ttl at time now.
func (s *System) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CapturedAt) >= ttl
}

// scaleAxis divides first and clamps second; rounding happens last so the
// clamped range is preserved.
func scaleAxis(v, scale float64, size int) int {
	if math.IsNaN(v) {
		return 0
	}
	d := v / scale
	upper := float64(size - 1)
	if d < 0 {
		d = 0
	} else if d > upper {
		d = upper
	}
	return int(math.Round(d))
}
