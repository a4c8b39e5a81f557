//go:build !opencl

package raycast

import "errors"

// OpenCLCaster is unavailable in builds without the opencl tag.
type OpenCLCaster struct{}

// NewOpenCLCaster always fails without the opencl build tag.
func NewOpenCLCaster() (*OpenCLCaster, error) {
	return nil, errors.New("OpenCL support is not enabled; rebuild with -tags opencl")
}

func (c *OpenCLCaster) CastFan(*Grid, Vec2, []Vec2, []FanResult) error {
	return errors.New("OpenCL caster unavailable")
}

func (c *OpenCLCaster) Close() {}

func (c *OpenCLCaster) DeviceName() string { return "" }
