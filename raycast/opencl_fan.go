//go:build opencl

package raycast

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
)

// OpenCLCaster resolves ray fans on an OpenCL device. The kernel mirrors
// Grid.FindHit in single precision, so hit positions may differ from the CPU
// casters in the last few bits.
type OpenCLCaster struct {
	context    *cl.Context
	queue      *cl.CommandQueue
	program    *cl.Program
	kernel     *cl.Kernel
	cellBuf    *cl.MemObject
	dirBuf     *cl.MemObject
	outBuf     *cl.MemObject
	width      int
	height     int
	capacity   int
	revision   uint64
	synced     bool
	cells      []uint8
	dirScratch []float32
	outScratch []float32
	deviceName string
}

const fanKernelSource = `inline int occupied(__global const uchar* cells, int width, int height, int x, int y)
{
    if (x < 0 || x >= width || y < 0 || y >= height) {
        return 0;
    }
    return cells[y * width + x] != 0;
}

__kernel void cast_fan(
    const int width,
    const int height,
    const float ox,
    const float oy,
    __global const float* dirs,
    __global const uchar* cells,
    const int count,
    const float epsilon,
    __global float* out)
{
    int gid = get_global_id(0);
    if (gid >= count) {
        return;
    }
    float dx = dirs[2 * gid];
    float dy = dirs[2 * gid + 1];
    int base = 4 * gid;
    out[base] = 0.0f;

    float nv = INFINITY, sv = INFINITY, nh = INFINITY, sh = INFINITY;
    int lv = 0, iv = 0, lh = 0, ih = 0;
    if (dx != 0.0f) {
        float target = dx > 0.0f ? ceil(ox) : floor(ox);
        nv = (target - ox) / dx;
        sv = fabs(1.0f / dx);
        lv = (int)target;
        iv = dx > 0.0f ? 1 : -1;
    }
    if (dy != 0.0f) {
        float target = dy > 0.0f ? ceil(oy) : floor(oy);
        nh = (target - oy) / dy;
        sh = fabs(1.0f / dy);
        lh = (int)target;
        ih = dy > 0.0f ? 1 : -1;
    }
    int remaining = width + height + 4 + (int)ceil(fabs(ox)) + (int)ceil(fabs(oy));

    for (;;) {
        float t;
        int vertical;
        int line;
        if (nv < nh) {
            t = nv; vertical = 1; line = lv;
            nv += sv; lv += iv;
        } else {
            if (isinf(nh)) {
                return;
            }
            t = nh; vertical = 0; line = lh;
            nh += sh; lh += ih;
        }
        if (remaining <= 0) {
            out[base] = -1.0f;
            return;
        }
        remaining--;

        float px = ox + t * dx;
        float py = oy + t * dy;
        int fx, fy, tx, ty;
        if (vertical) {
            if ((line == 0 && dx < 0.0f) || (line == width && dx > 0.0f)) {
                return;
            }
            int row = (int)floor(py);
            fx = line - 1; fy = row; tx = line; ty = row;
            if (dx < 0.0f) {
                fx = line; tx = line - 1;
            }
        } else {
            if ((line == 0 && dy < 0.0f) || (line == height && dy > 0.0f)) {
                return;
            }
            int col = (int)floor(px);
            fx = col; fy = line - 1; tx = col; ty = line;
            if (dy < 0.0f) {
                fy = line; ty = line - 1;
            }
        }
        int exited = occupied(cells, width, height, fx, fy);
        int entered = occupied(cells, width, height, tx, ty);
        if (exited == entered || t <= epsilon) {
            continue;
        }
        if (!exited && entered) {
            out[base] = 1.0f;
            out[base + 1] = px;
            out[base + 2] = py;
            out[base + 3] = t;
        }
        return;
    }
}`

// NewOpenCLCaster compiles the fan kernel on the first GPU, falling back to a CPU device.
func NewOpenCLCaster() (*OpenCLCaster, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available; ensure a vendor driver is installed and detected by `clinfo`")
	}
	device := pickDevice(platforms, cl.DeviceTypeGPU)
	if device == nil {
		device = pickDevice(platforms, cl.DeviceTypeCPU)
	}
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	c := &OpenCLCaster{deviceName: device.Name()}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	if c.context, err = cl.CreateContext([]*cl.Device{device}); err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	if c.queue, err = c.context.CreateCommandQueue(device, 0); err != nil {
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	if c.program, err = c.context.CreateProgramWithSource([]string{fanKernelSource}); err != nil {
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := c.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		if buildErr, isBuild := err.(cl.BuildError); isBuild {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	if c.kernel, err = c.program.CreateKernel("cast_fan"); err != nil {
		return nil, fmt.Errorf("creating OpenCL kernel: %w", err)
	}
	ok = true
	return c, nil
}

func pickDevice(platforms []*cl.Platform, kind cl.DeviceType) *cl.Device {
	for _, p := range platforms {
		devices, err := p.GetDevices(kind)
		if err != nil && err != cl.ErrDeviceNotFound {
			continue
		}
		if len(devices) > 0 {
			return devices[0]
		}
	}
	return nil
}

// DeviceName reports the device the kernel runs on.
func (c *OpenCLCaster) DeviceName() string { return c.deviceName }

// syncGrid uploads the occupancy when the grid size or revision changed.
func (c *OpenCLCaster) syncGrid(g *Grid) error {
	if c.synced && c.width == g.Width() && c.height == g.Height() && c.revision == g.Revision() {
		return nil
	}
	size := g.Width() * g.Height()
	if c.cellBuf == nil || c.width*c.height != size {
		if c.cellBuf != nil {
			c.cellBuf.Release()
			c.cellBuf = nil
		}
		buf, err := c.context.CreateEmptyBuffer(cl.MemReadOnly, size)
		if err != nil {
			return fmt.Errorf("allocating cell buffer: %w", err)
		}
		c.cellBuf = buf
		c.cells = make([]uint8, size)
	}
	for i, occupied := range g.Cells() {
		if occupied {
			c.cells[i] = 1
		} else {
			c.cells[i] = 0
		}
	}
	if _, err := c.queue.EnqueueWriteBuffer(c.cellBuf, true, 0, size, unsafe.Pointer(&c.cells[0]), nil); err != nil {
		return fmt.Errorf("writing cell buffer: %w", err)
	}
	c.width, c.height, c.revision, c.synced = g.Width(), g.Height(), g.Revision(), true
	return nil
}

// ensureCapacity grows the per-ray buffers to hold n rays.
func (c *OpenCLCaster) ensureCapacity(n int) error {
	if n <= c.capacity {
		return nil
	}
	if c.dirBuf != nil {
		c.dirBuf.Release()
		c.dirBuf = nil
	}
	if c.outBuf != nil {
		c.outBuf.Release()
		c.outBuf = nil
	}
	f32 := int(unsafe.Sizeof(float32(0)))
	dirBuf, err := c.context.CreateEmptyBuffer(cl.MemReadOnly, 2*n*f32)
	if err != nil {
		return fmt.Errorf("allocating direction buffer: %w", err)
	}
	outBuf, err := c.context.CreateEmptyBuffer(cl.MemWriteOnly, 4*n*f32)
	if err != nil {
		dirBuf.Release()
		return fmt.Errorf("allocating result buffer: %w", err)
	}
	c.dirBuf, c.outBuf, c.capacity = dirBuf, outBuf, n
	c.dirScratch = make([]float32, 2*n)
	c.outScratch = make([]float32, 4*n)
	return nil
}

// CastFan implements FanCaster.
func (c *OpenCLCaster) CastFan(g *Grid, origin Vec2, dirs []Vec2, out []FanResult) error {
	n := len(dirs)
	if len(out) < n {
		return fmt.Errorf("fan result buffer holds %d of %d rays", len(out), n)
	}
	if n == 0 {
		return nil
	}
	if err := c.syncGrid(g); err != nil {
		return err
	}
	if err := c.ensureCapacity(n); err != nil {
		return err
	}
	for i, d := range dirs {
		c.dirScratch[2*i] = float32(d.X)
		c.dirScratch[2*i+1] = float32(d.Y)
	}
	if _, err := c.queue.EnqueueWriteBufferFloat32(c.dirBuf, false, 0, c.dirScratch[:2*n], nil); err != nil {
		return fmt.Errorf("writing direction buffer: %w", err)
	}
	if err := c.kernel.SetArgs(
		int32(g.Width()),
		int32(g.Height()),
		float32(origin.X),
		float32(origin.Y),
		c.dirBuf,
		c.cellBuf,
		int32(n),
		float32(SelfHitEpsilon),
		c.outBuf,
	); err != nil {
		return fmt.Errorf("setting kernel arguments: %w", err)
	}
	if _, err := c.queue.EnqueueNDRangeKernel(c.kernel, nil, []int{n}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}
	results := c.outScratch[:4*n]
	if _, err := c.queue.EnqueueReadBufferFloat32(c.outBuf, true, 0, results, nil); err != nil {
		return fmt.Errorf("reading result buffer: %w", err)
	}
	for i := 0; i < n; i++ {
		r := results[4*i : 4*i+4]
		switch {
		case r[0] < 0:
			return fmt.Errorf("%w: origin %v direction %v", ErrUnterminatedRay, origin, dirs[i])
		case r[0] > 0:
			out[i] = FanResult{OK: true, Hit: Hit{
				Position:   Vec2{float64(r[1]), float64(r[2])},
				Reflection: 1,
				Distance:   float64(r[3]),
			}}
		default:
			out[i] = FanResult{}
		}
	}
	return nil
}

// Close releases every OpenCL object held by the caster.
func (c *OpenCLCaster) Close() {
	if c.outBuf != nil {
		c.outBuf.Release()
		c.outBuf = nil
	}
	if c.dirBuf != nil {
		c.dirBuf.Release()
		c.dirBuf = nil
	}
	if c.cellBuf != nil {
		c.cellBuf.Release()
		c.cellBuf = nil
	}
	if c.kernel != nil {
		c.kernel.Release()
		c.kernel = nil
	}
	if c.program != nil {
		c.program.Release()
		c.program = nil
	}
	if c.queue != nil {
		c.queue.Release()
		c.queue = nil
	}
	if c.context != nil {
		c.context.Release()
		c.context = nil
	}
}
