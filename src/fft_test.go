package malamute

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Straightforward O(N^2) DFT in float64, the reference every kernel
// must match.
func reference_dft(re []float32, im []float32) ([]float64, []float64) {
	var n = len(re)
	var out_re = make([]float64, n)
	var out_im = make([]float64, n)

	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			var angle = -2 * math.Pi * float64(j) * float64(k) / float64(n)
			var c, s = math.Cos(angle), math.Sin(angle)
			out_re[k] += float64(re[j])*c - float64(im[j])*s
			out_im[k] += float64(re[j])*s + float64(im[j])*c
		}
	}

	return out_re, out_im
}

func TestFFTPlanInitRejectsOddSizes(t *testing.T) {
	var p fft_plan_t

	for _, n := range []int{0, 1, 3, 6, 32, 64} {
		assert.ErrorIs(t, fft_plan_init(&p, n), ErrInvalidArgument, "size %d", n)
	}

	for _, n := range []int{2, 4, 8, 16} {
		require.NoError(t, fft_plan_init(&p, n))
		assert.Equal(t, n, p.size)
	}
}

func TestFFTKernelsMatchReferenceDFT(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16} {
		t.Run(map[int]string{2: "N2", 4: "N4", 8: "N8", 16: "N16"}[n], func(t *testing.T) {
			var p fft_plan_t
			require.NoError(t, fft_plan_init(&p, n))

			rapid.Check(t, func(t *rapid.T) {
				var re = make([]float32, n)
				var im = make([]float32, n)
				for j := 0; j < n; j++ {
					re[j] = float32(rapid.Float64Range(-1, 1).Draw(t, "re"))
					im[j] = float32(rapid.Float64Range(-1, 1).Draw(t, "im"))
				}

				var want_re, want_im = reference_dft(re, im)

				p.execute(re, im)

				for k := 0; k < n; k++ {
					if math.Abs(want_re[k]-float64(re[k])) > 1e-5 || math.Abs(want_im[k]-float64(im[k])) > 1e-5 {
						t.Fatalf("bin %d: got (%v,%v) want (%v,%v)", k, re[k], im[k], want_re[k], want_im[k])
					}
				}
			})
		})
	}
}

func TestFFTImpulse(t *testing.T) {
	// An impulse spreads flat across every bin.
	for _, n := range []int{2, 4, 8, 16} {
		var p fft_plan_t
		require.NoError(t, fft_plan_init(&p, n))

		var re = make([]float32, n)
		var im = make([]float32, n)
		re[0] = 1

		p.execute(re, im)

		for k := 0; k < n; k++ {
			assert.InDelta(t, 1.0, re[k], 1e-6, "N=%d bin %d", n, k)
			assert.InDelta(t, 0.0, im[k], 1e-6, "N=%d bin %d", n, k)
		}
	}
}

func TestFFTDC(t *testing.T) {
	// A constant collapses into bin 0 with gain N.
	for _, n := range []int{2, 4, 8, 16} {
		var p fft_plan_t
		require.NoError(t, fft_plan_init(&p, n))

		var re = make([]float32, n)
		var im = make([]float32, n)
		for j := range re {
			re[j] = 0.5
			im[j] = -0.25
		}

		p.execute(re, im)

		assert.InDelta(t, 0.5*float64(n), re[0], 1e-5)
		assert.InDelta(t, -0.25*float64(n), im[0], 1e-5)

		for k := 1; k < n; k++ {
			assert.InDelta(t, 0.0, re[k], 1e-5, "N=%d bin %d", n, k)
			assert.InDelta(t, 0.0, im[k], 1e-5, "N=%d bin %d", n, k)
		}
	}
}

func TestFFTSingleBinTone(t *testing.T) {
	// exp(+j*2*pi*k0*n/N) lands entirely in bin k0 of a forward DFT.
	const n = 16
	const k0 = 3

	var p fft_plan_t
	require.NoError(t, fft_plan_init(&p, n))

	var re = make([]float32, n)
	var im = make([]float32, n)
	for j := 0; j < n; j++ {
		var angle = 2 * math.Pi * float64(k0) * float64(j) / float64(n)
		re[j] = float32(math.Cos(angle))
		im[j] = float32(math.Sin(angle))
	}

	p.execute(re, im)

	for k := 0; k < n; k++ {
		var want = IfThenElse(k == k0, float64(n), 0.0)
		assert.InDelta(t, want, re[k], 1e-4, "bin %d", k)
		assert.InDelta(t, 0.0, im[k], 1e-4, "bin %d", k)
	}
}
