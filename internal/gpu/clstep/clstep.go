//go:build opencl

// Package clstep runs the simulation step kernel on an OpenCL device.
package clstep

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"mad-sand/internal/core"
	"mad-sand/internal/gpu"
	"mad-sand/internal/registry"
	"mad-sand/internal/sim"
	"mad-sand/internal/world"
)

// KernelName is the name the OpenCL step kernel registers under.
const KernelName = "opencl"

func init() {
	sim.RegisterKernel(KernelName, func(reg *registry.Registry) (sim.Kernel, error) {
		return New(reg)
	})
}

// stepSource follows the generated element header. The element struct
// matches the 64-byte attribute record.
const stepSource = `
typedef struct {
    float4 color;
    int type;
    float density;
    float viscosity;
    float burn_chance;
    int flammable;
    int glow;
    int max_life;
    int gemstone;
    float light_radius;
    float light_intensity;
    float ior;
    int pad;
} Element;

#define CAT_STATIC 0
#define CAT_GRANULAR 1
#define CAT_LIQUID 2
#define CAT_GAS 3

inline uint hash3(uint a, uint b, uint c) {
    uint h = a * 0x9e3779b1u ^ b * 0x85ebca77u ^ c * 0xc2b2ae3du;
    h ^= h >> 15; h *= 0x2c1b3c6du;
    h ^= h >> 12; h *= 0x297a2d39u;
    h ^= h >> 15;
    return h;
}

inline float chance(uint seed, uint frame, int x, int y) {
    return (float)(hash3(seed ^ frame, (uint)x, (uint)y) >> 8) / 16777216.0f;
}

inline bool is_empty(__global const uchar4* cells, int w, int h, int x, int y) {
    return x >= 0 && y >= 0 && x < w && y < h && cells[y * w + x].x == 0;
}

inline Element element_of(__global const Element* elems, uint id) {
    if (id < MAX_ELEMENTS) {
        return elems[id];
    }
    Element e = elems[0];
    e.type = CAT_STATIC;
    e.glow = 0;
    e.flammable = 0;
    e.max_life = 0;
    return e;
}

inline float viscosity_of(Element e, float4 overrides) {
    float o = e.type == CAT_STATIC ? overrides.x : e.type == CAT_GRANULAR ? overrides.y :
              e.type == CAT_LIQUID ? overrides.z : overrides.w;
    return o >= 0.0f ? o : e.viscosity;
}

inline int2 intent(__global const uchar4* cells, __global const Element* elems,
                   int w, int h, int x, int y, uint seed, uint frame, float4 overrides) {
    uchar id = cells[y * w + x].x;
    if (id == 0) {
        return (int2)(-1, -1);
    }
    Element e = element_of(elems, id);
    int dir = (hash3(seed + 1u ^ frame, (uint)x, (uint)y) & 1u) ? -1 : 1;
    int vy = e.type == CAT_GAS ? 1 : -1;
    if (e.type == CAT_GRANULAR || e.type == CAT_LIQUID || e.type == CAT_GAS) {
        if (is_empty(cells, w, h, x, y + vy)) return (int2)(x, y + vy);
        if (is_empty(cells, w, h, x + dir, y + vy)) return (int2)(x + dir, y + vy);
        if (is_empty(cells, w, h, x - dir, y + vy)) return (int2)(x - dir, y + vy);
    }
    if (e.type == CAT_LIQUID || e.type == CAT_GAS) {
        if (chance(seed + 2u, frame, x, y) < viscosity_of(e, overrides)) return (int2)(-1, -1);
        if (is_empty(cells, w, h, x + dir, y)) return (int2)(x + dir, y);
        if (is_empty(cells, w, h, x - dir, y)) return (int2)(x - dir, y);
    }
    return (int2)(-1, -1);
}

__constant int2 candidates[8] = {
    (int2)(0, 1), (int2)(-1, 1), (int2)(1, 1),
    (int2)(0, -1), (int2)(-1, -1), (int2)(1, -1),
    (int2)(-1, 0), (int2)(1, 0)
};

inline int2 winner(__global const uchar4* cells, __global const Element* elems,
                   int w, int h, int x, int y, uint seed, uint frame, float4 overrides) {
    for (int i = 0; i < 8; i++) {
        int sx = x + candidates[i].x;
        int sy = y + candidates[i].y;
        if (sx < 0 || sy < 0 || sx >= w || sy >= h) continue;
        int2 t = intent(cells, elems, w, h, sx, sy, seed, frame, overrides);
        if (t.x == x && t.y == y) return (int2)(sx, sy);
    }
    return (int2)(-1, -1);
}

inline uchar4 age(__global const Element* elems, uchar4 c) {
    Element e = element_of(elems, c.x);
    if (e.max_life <= 0) return c;
    if ((int)c.y + 1 >= e.max_life) return (uchar4)(0, 0, 0, 0);
    if (c.y < 255) c.y += 1;
    return c;
}

__kernel void sand_step(
    const int width,
    const int height,
    const int frame_lo,
    const int seed_lo,
    const int fire,
    const float visc_static,
    const float visc_granular,
    const float visc_liquid,
    const float visc_gas,
    __global const uchar4* read,
    __global uchar4* write,
    __global const Element* elems)
{
    int idx = get_global_id(0);
    if (idx >= width * height) {
        return;
    }
    int x = idx % width;
    int y = idx / width;
    uint frame = (uint)frame_lo;
    uint seed = (uint)seed_lo;
    float4 overrides = (float4)(visc_static, visc_granular, visc_liquid, visc_gas);
    uchar4 c = read[idx];

    if (c.x == 0) {
        int2 src = winner(read, elems, width, height, x, y, seed, frame, overrides);
        if (src.x < 0) {
            write[idx] = (uchar4)(0, 0, 0, 0);
            return;
        }
        uchar4 moved = read[src.y * width + src.x];
        if (src.y > y && moved.z < 255) moved.z += 1;
        write[idx] = age(elems, moved);
        return;
    }

    int2 t = intent(read, elems, width, height, x, y, seed, frame, overrides);
    if (t.x >= 0) {
        int2 w = winner(read, elems, width, height, t.x, t.y, seed, frame, overrides);
        if (w.x == x && w.y == y) {
            write[idx] = (uchar4)(0, 0, 0, 0);
            return;
        }
    }
    c.z = 128;
    Element e = element_of(elems, c.x);
    if (fire > 0 && (int)c.x != fire && e.flammable && e.burn_chance > 0.0f) {
        bool hot = false;
        for (int dy = -1; dy <= 1; dy++) {
            for (int dx = -1; dx <= 1; dx++) {
                int nx = x + dx, ny = y + dy;
                if ((dx != 0 || dy != 0) && nx >= 0 && ny >= 0 && nx < width && ny < height) {
                    uchar n = read[ny * width + nx].x;
                    if (n != 0 && element_of(elems, n).glow) hot = true;
                }
            }
        }
        if (hot && chance(seed + 3u, frame, x, y) < e.burn_chance) {
            write[idx] = (uchar4)((uchar)fire, 0, 128, 0);
            return;
        }
    }
    write[idx] = age(elems, c);
}
`

// Kernel dispatches sand_step on the first GPU (or CPU) device found.
type Kernel struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel

	readBuf  *cl.MemObject
	writeBuf *cl.MemObject
	elemBuf  *cl.MemObject
	size     core.Size
	gen      uint64

	deviceName string
}

func pickDevice() (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0], nil
			}
		}
	}
	return nil, errors.New("no suitable OpenCL devices found")
}

// New builds the step program with the registry header prepended and
// uploads the element table.
func New(reg *registry.Registry) (*Kernel, error) {
	device, err := pickDevice()
	if err != nil {
		return nil, err
	}
	k := &Kernel{deviceName: device.Name()}
	k.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	k.queue, err = k.context.CreateCommandQueue(device, 0)
	if err != nil {
		k.Close()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	k.program, err = k.context.CreateProgramWithSource([]string{reg.Header() + stepSource})
	if err != nil {
		k.Close()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := k.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		k.Close()
		var buildErr cl.BuildError
		if errors.As(err, &buildErr) {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	k.kernel, err = k.program.CreateKernel("sand_step")
	if err != nil {
		k.Close()
		return nil, fmt.Errorf("creating OpenCL kernel: %w", err)
	}
	if _, err := reg.Publish(k); err != nil {
		k.Close()
		return nil, err
	}
	core.Logger().Info("opencl step kernel built", "device", k.deviceName)
	return k, nil
}

func (k *Kernel) Name() string { return KernelName }

// DeviceName reports the device the kernel runs on.
func (k *Kernel) DeviceName() string { return k.deviceName }

// BindStorage uploads the element attribute table. Only the element table
// slot exists on this device.
func (k *Kernel) BindStorage(slot int, data []byte) (gpu.Handle, error) {
	if slot != gpu.ElementTableSlot {
		return gpu.Handle{}, fmt.Errorf("opencl: no binding %d", slot)
	}
	if len(data) == 0 {
		return gpu.Handle{}, errors.New("opencl: empty element table")
	}
	buf, err := k.context.CreateEmptyBuffer(cl.MemReadOnly, len(data))
	if err != nil {
		return gpu.Handle{}, fmt.Errorf("allocating element buffer: %w", err)
	}
	if _, err := k.queue.EnqueueWriteBuffer(buf, true, 0, len(data), unsafe.Pointer(&data[0]), nil); err != nil {
		buf.Release()
		return gpu.Handle{}, fmt.Errorf("writing element buffer: %w", err)
	}
	if k.elemBuf != nil {
		k.elemBuf.Release()
	}
	k.elemBuf = buf
	k.gen++
	return gpu.Handle{Slot: slot, Generation: k.gen}, nil
}

func (k *Kernel) ensureBuffers(size core.Size) error {
	if k.readBuf != nil && k.size == size {
		return nil
	}
	k.releaseCells()
	n := size.Area() * core.CellChannels
	var err error
	if k.readBuf, err = k.context.CreateEmptyBuffer(cl.MemReadOnly, n); err != nil {
		return fmt.Errorf("allocating read buffer: %w", err)
	}
	if k.writeBuf, err = k.context.CreateEmptyBuffer(cl.MemWriteOnly, n); err != nil {
		return fmt.Errorf("allocating write buffer: %w", err)
	}
	k.size = size
	return nil
}

// Step uploads the read buffer, runs one dispatch over every cell and reads
// the result back into st.Write. It blocks until the read completes.
func (k *Kernel) Step(st world.Step, p sim.Params) error {
	if k.elemBuf == nil {
		return errors.New("opencl: element table not bound")
	}
	if err := k.ensureBuffers(p.Size); err != nil {
		return err
	}
	src, dst := st.Read.Bytes(), st.Write.Bytes()
	if _, err := k.queue.EnqueueWriteBuffer(k.readBuf, false, 0, len(src), unsafe.Pointer(&src[0]), nil); err != nil {
		return fmt.Errorf("writing read buffer: %w", err)
	}
	v := p.Settings.Viscosity
	if err := k.kernel.SetArgs(
		int32(p.Size.W),
		int32(p.Size.H),
		int32(uint32(p.Frame)),
		int32(uint32(p.Seed)),
		int32(p.Fire),
		v[registry.Static],
		v[registry.Granular],
		v[registry.Liquid],
		v[registry.Gas],
		k.readBuf,
		k.writeBuf,
		k.elemBuf,
	); err != nil {
		return fmt.Errorf("setting kernel arguments: %w", err)
	}
	if _, err := k.queue.EnqueueNDRangeKernel(k.kernel, nil, []int{p.Size.Area()}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}
	if _, err := k.queue.EnqueueReadBuffer(k.writeBuf, true, 0, len(dst), unsafe.Pointer(&dst[0]), nil); err != nil {
		return fmt.Errorf("reading write buffer: %w", err)
	}
	return nil
}

func (k *Kernel) releaseCells() {
	if k.writeBuf != nil {
		k.writeBuf.Release()
		k.writeBuf = nil
	}
	if k.readBuf != nil {
		k.readBuf.Release()
		k.readBuf = nil
	}
}

// Close releases device objects in reverse creation order.
func (k *Kernel) Close() error {
	k.releaseCells()
	if k.elemBuf != nil {
		k.elemBuf.Release()
		k.elemBuf = nil
	}
	if k.kernel != nil {
		k.kernel.Release()
		k.kernel = nil
	}
	if k.program != nil {
		k.program.Release()
		k.program = nil
	}
	if k.queue != nil {
		k.queue.Release()
		k.queue = nil
	}
	if k.context != nil {
		k.context.Release()
		k.context = nil
	}
	return nil
}
