package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Generate IQ test signals.
 *
 * Description:	Complex exponentials and noise for exercising the
 *		receive path under controlled conditions, both from
 *		the tests and from cmd/malamute-gen-iq.  A tone at
 *		baseband offset f is
 *
 *			I = a*cos(2*pi*f*t)    Q = a*sin(2*pi*f*t)
 *
 *		so positive offsets land in the positive channels of
 *		the channelizer.
 *
 *----------------------------------------------------------------*/

import (
	"math"
	"math/rand"
)

type tone_gen_t struct {
	freq_hz   float64
	sample_hz float64
	amplitude float64

	phase float64 /* radians, persists across blocks */
}

func tone_gen_init(g *tone_gen_t, freq_hz float64, sample_hz float64, amplitude float64) {
	g.freq_hz = freq_hz
	g.sample_hz = sample_hz
	g.amplitude = amplitude
	g.phase = 0
}

/* Fill out with interleaved IQ; len(out)/2 samples. */

func (g *tone_gen_t) generate(out []float32) {

	var step = 2 * math.Pi * g.freq_hz / g.sample_hz

	for s := 0; s*2 < len(out); s++ {
		out[2*s] = float32(g.amplitude * math.Cos(g.phase))
		out[2*s+1] = float32(g.amplitude * math.Sin(g.phase))

		g.phase += step
		if g.phase > math.Pi {
			g.phase -= 2 * math.Pi
		} else if g.phase < -math.Pi {
			g.phase += 2 * math.Pi
		}
	}
}

/* Mix another tone into an existing buffer. */

func (g *tone_gen_t) mix(out []float32) {

	var step = 2 * math.Pi * g.freq_hz / g.sample_hz

	for s := 0; s*2 < len(out); s++ {
		out[2*s] += float32(g.amplitude * math.Cos(g.phase))
		out[2*s+1] += float32(g.amplitude * math.Sin(g.phase))

		g.phase += step
		if g.phase > math.Pi {
			g.phase -= 2 * math.Pi
		} else if g.phase < -math.Pi {
			g.phase += 2 * math.Pi
		}
	}
}

/* Gaussian noise at the given RMS per component. */

func add_noise(out []float32, rms float64, rng *rand.Rand) {

	for i := range out {
		out[i] += float32(rng.NormFloat64() * rms)
	}
}

/* Convenience for tests: one tone, one allocation. */

func gen_tone_iq(freq_hz float64, sample_hz float64, amplitude float64, n int) []float32 {

	var g tone_gen_t
	tone_gen_init(&g, freq_hz, sample_hz, amplitude)

	var out = make([]float32, 2*n)
	g.generate(out)

	return out
}
