package resizer

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/nvr-ai/go-resize/images"
	"github.com/nvr-ai/go-resize/images/kernels"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestBuffer(t testing.TB, w, h int) *images.PixelBuffer {
	buf, err := images.NewBlank(w, h)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(int64(w*31 + h)))
	for i := 0; i < len(buf.Data); i += 4 {
		buf.Data[i+0] = uint8(rng.Intn(256))
		buf.Data[i+1] = uint8(rng.Intn(256))
		buf.Data[i+2] = uint8(rng.Intn(256))
		buf.Data[i+3] = 255
	}
	return buf
}

func getUniformBuffer(t testing.TB, w, h int, v uint8) *images.PixelBuffer {
	buf, err := images.NewBlank(w, h)
	require.NoError(t, err)
	for i := 0; i < len(buf.Data); i += 4 {
		buf.Data[i+0], buf.Data[i+1], buf.Data[i+2], buf.Data[i+3] = v, v, v, 255
	}
	return buf
}

// probe wraps the default Gaussian pre-filter and counts invocations.
type probe struct {
	mu    sync.Mutex
	calls int
}

func (p *probe) resizer() *Resizer {
	r := Default()
	r.Prefilter = func(src *images.PixelBuffer) (*images.PixelBuffer, error) {
		p.mu.Lock()
		p.calls++
		p.mu.Unlock()
		k, err := kernels.BuildGaussian(DefaultKernelSize, DefaultSigma)
		if err != nil {
			return nil, err
		}
		return kernels.Convolve(src, k, kernels.Options{})
	}
	return r
}

func TestResizeIdentity(t *testing.T) {
	src := getTestBuffer(t, 64, 48)
	before := src.Clone()

	p := &probe{}
	out, err := p.resizer().Resize(src, 64, 48)
	require.NoError(t, err)

	assert.Same(t, src, out)
	assert.True(t, before.Equal(out))
	assert.Equal(t, 0, p.calls)
}

func TestEffectiveSize(t *testing.T) {
	tests := []struct {
		name      string
		orig, req images.Dimensions
		want      images.Dimensions
	}{
		{
			name: "landscape into portrait box",
			orig: images.Dimensions{Width: 1000, Height: 800},
			req:  images.Dimensions{Width: 200, Height: 250},
			want: images.Dimensions{Width: 200, Height: 160},
		},
		{
			// 100/100 == 800/480 == 1 under integer division, so the tie keeps
			// the requested height and shrinks the width.
			name: "tie keeps requested height",
			orig: images.Dimensions{Width: 100, Height: 100},
			req:  images.Dimensions{Width: 800, Height: 480},
			want: images.Dimensions{Width: 480, Height: 480},
		},
		{
			name: "portrait source",
			orig: images.Dimensions{Width: 600, Height: 1200},
			req:  images.Dimensions{Width: 400, Height: 450},
			want: images.Dimensions{Width: 225, Height: 450},
		},
		{
			// 4:3 and 800:480 both truncate to 1; the integer comparison picks
			// the height-preserving branch even though 4/3 < 5/3.
			name: "near equal ratios truncate alike",
			orig: images.Dimensions{Width: 400, Height: 300},
			req:  images.Dimensions{Width: 800, Height: 480},
			want: images.Dimensions{Width: 640, Height: 480},
		},
		{
			name: "very wide source keeps one row",
			orig: images.Dimensions{Width: 1000, Height: 10},
			req:  images.Dimensions{Width: 10, Height: 10},
			want: images.Dimensions{Width: 10, Height: 1},
		},
		{
			name: "request wider than source aspect",
			orig: images.Dimensions{Width: 300, Height: 200},
			req:  images.Dimensions{Width: 900, Height: 300},
			want: images.Dimensions{Width: 450, Height: 300},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveSize(tt.orig, tt.req))
		})
	}
}

func TestEffectiveSizeNeverExceedsRequest(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		orig := images.Dimensions{Width: 1 + rng.Intn(4000), Height: 1 + rng.Intn(4000)}
		req := images.Dimensions{Width: 1 + rng.Intn(4000), Height: 1 + rng.Intn(4000)}
		eff := EffectiveSize(orig, req)

		require.LessOrEqual(t, eff.Width, req.Width, "orig=%v req=%v", orig, req)
		require.LessOrEqual(t, eff.Height, req.Height, "orig=%v req=%v", orig, req)
		require.True(t, eff.Width == req.Width || eff.Height == req.Height, "orig=%v req=%v eff=%v", orig, req, eff)
		require.Positive(t, eff.Width)
		require.Positive(t, eff.Height)
	}
}

func TestResizeDownscaleScenario(t *testing.T) {
	src := getTestBuffer(t, 1000, 800)
	src.Resolution = images.Resolution{X: 300, Y: 300}
	before := src.Clone()

	p := &probe{}
	out, err := p.resizer().Resize(src, 200, 250)
	require.NoError(t, err)

	assert.Equal(t, 200, out.Width)
	assert.Equal(t, 160, out.Height)
	assert.Equal(t, 1, p.calls, "downscale must pre-filter")
	assert.Equal(t, images.Resolution{X: 300, Y: 300}, out.Resolution)
	assert.Equal(t, before.Data, src.Data, "source must not be modified")
	require.NoError(t, out.Validate())
}

func TestResizeUpscaleScenario(t *testing.T) {
	src := getTestBuffer(t, 100, 100)

	p := &probe{}
	out, err := p.resizer().Resize(src, 800, 480)
	require.NoError(t, err)

	assert.Equal(t, 480, out.Width)
	assert.Equal(t, 480, out.Height)
	assert.Equal(t, 0, p.calls, "upscale must not pre-filter")
}

func TestResizePrefilterDecision(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		reqW, reqH int
		want       int
	}{
		{"upscale both axes", 40, 30, 80, 60, 0},
		{"one axis smaller", 40, 30, 30, 60, 1},
		{"same effective size", 40, 40, 40, 80, 0},
		{"downscale both axes", 40, 30, 20, 15, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &probe{}
			out, err := p.resizer().Resize(getTestBuffer(t, tt.w, tt.h), tt.reqW, tt.reqH)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.calls)
			assert.LessOrEqual(t, out.Width, tt.reqW)
			assert.LessOrEqual(t, out.Height, tt.reqH)
		})
	}
}

func TestResizeSameEffectiveSizeIsCopy(t *testing.T) {
	src := getTestBuffer(t, 40, 40)
	out, err := Resize(src, 40, 80)
	require.NoError(t, err)

	assert.NotSame(t, src, out)
	assert.True(t, src.Equal(out))
	out.Data[0] ^= 0xFF
	assert.False(t, src.Equal(out), "result must not alias the source")
}

func TestResizeFilters(t *testing.T) {
	src := getUniformBuffer(t, 120, 90, 180)

	for _, f := range []Filter{FilterBicubic, FilterCatmullRom, FilterMitchellNetravali, FilterLanczos} {
		t.Run(f.String(), func(t *testing.T) {
			r := Default()
			r.Filter = f
			out, err := r.Resize(src, 60, 90)
			require.NoError(t, err)

			assert.Equal(t, images.Dimensions{Width: 60, Height: 45}, out.Size())
			center := out.At(30, 22)
			assert.InDelta(t, 180, int(center[0]), 2)
			assert.InDelta(t, 180, int(center[1]), 2)
			assert.InDelta(t, 180, int(center[2]), 2)
			assert.Equal(t, uint8(255), center[3])
		})
	}
}

func TestResizeErrors(t *testing.T) {
	t.Run("mismatched data length", func(t *testing.T) {
		bad := &images.PixelBuffer{Width: 10, Height: 10, Stride: 40, Data: make([]byte, 399)}
		_, err := Resize(bad, 5, 5)
		assert.ErrorIs(t, err, images.ErrInvalidBuffer)
	})

	t.Run("stride smaller than row", func(t *testing.T) {
		bad := &images.PixelBuffer{Width: 10, Height: 2, Stride: 20, Data: make([]byte, 40)}
		_, err := Resize(bad, 5, 5)
		assert.ErrorIs(t, err, images.ErrInvalidBuffer)
	})

	t.Run("nil buffer", func(t *testing.T) {
		_, err := Resize(nil, 5, 5)
		assert.ErrorIs(t, err, images.ErrInvalidBuffer)
	})

	t.Run("empty source", func(t *testing.T) {
		empty, err := images.NewBlank(0, 0)
		require.NoError(t, err)
		_, err = Resize(empty, 5, 5)
		assert.ErrorIs(t, err, images.ErrInvalidBuffer)
	})

	t.Run("non-positive target", func(t *testing.T) {
		src := getTestBuffer(t, 8, 8)
		_, err := Resize(src, 0, 5)
		assert.ErrorIs(t, err, images.ErrInvalidDimensions)
		_, err = Resize(src, 5, -1)
		assert.ErrorIs(t, err, images.ErrInvalidDimensions)
	})

	t.Run("invalid kernel configuration", func(t *testing.T) {
		r := Default()
		r.KernelSize = 4
		_, err := r.Resize(getTestBuffer(t, 8, 8), 4, 4)
		assert.ErrorIs(t, err, kernels.ErrInvalidKernelSize)
	})

	t.Run("pre-filter failure", func(t *testing.T) {
		boom := errors.New("boom")
		r := Default()
		r.Prefilter = func(*images.PixelBuffer) (*images.PixelBuffer, error) { return nil, boom }
		src := getTestBuffer(t, 8, 8)
		before := src.Clone()
		_, err := r.Resize(src, 4, 4)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, before.Data, src.Data)
	})
}

func TestResizeConcurrent(t *testing.T) {
	r := Default()
	srcs := make([]*images.PixelBuffer, 8)
	for i := range srcs {
		srcs[i] = getUniformBuffer(t, 200+i*10, 150, uint8(i*20))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(srcs))
	for i := range srcs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := r.Resize(srcs[i], 100, 100)
			if err == nil && (out.Width > 100 || out.Height > 100) {
				err = errors.Errorf("output %dx%d exceeds request", out.Width, out.Height)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}
}

func TestParseFilter(t *testing.T) {
	for f := range filterNames {
		got, err := ParseFilter(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterBicubic, got)

	_, err = ParseFilter("sinc")
	assert.Error(t, err)
}

func BenchmarkResize(b *testing.B) {
	src := getTestBuffer(b, 1920, 1080)
	sizes := []struct {
		name string
		w, h int
	}{
		{"Down_224", 224, 224},
		{"Down_640", 640, 640},
		{"Up_2560", 2560, 2560},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Resize(src, size.w, size.h); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
