package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Rational L/M polyphase resampler.
 *
 * Description:	Converts a per-channel IQ stream between the rate the
 *		channelizer produces and the rate a decoder wants.
 *		Conceptually upsample by L, lowpass, decimate by M;
 *		actually a bank of L filter branches and a phase
 *		accumulator, so nothing is ever computed at the
 *		intermediate rate.
 *
 *		The prototype cutoff is 1/max(L,M) with no guard band,
 *		which makes this a near-Nyquist passthrough.  That is
 *		deliberate: the channelizer's prototype filter has
 *		already done the anti-alias work, and a tighter cutoff
 *		here would eat usable bandwidth twice.
 *
 *		Phase and history persist across calls, so feeding a
 *		stream in chunks of any size produces the same output
 *		as one big call.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"math"
)

type resamp_t struct {
	initialized bool
	passthrough bool

	input_rate  int
	output_rate int

	up   int /* L */
	down int /* M */

	/* L branches of RESAMP_TAPS_PER_BRANCH taps each, reversed for
	   the oldest-first dot product. */
	coef [][]float32

	/* Split I/Q history rings, one shared write position. */
	hist_i    []float32
	hist_q    []float32
	hist_mask int
	write_pos int

	phase int /* in [0, up); advances by down per output */

	out       []float32
	out_max   int
	max_input int
}

/*------------------------------------------------------------------
 *
 * Name:        resamp_init
 *
 * Purpose:     Set up a rate converter.
 *
 * Inputs:   	input_rate	- Samples per second in.
 *		output_rate	- Samples per second out.
 *		max_input	- Most complex samples per process call.
 *
 * Returns:	nil on success.  Equal rates succeed in passthrough
 *		mode: no filter is designed and process hands back
 *		its input untouched.
 *
 * Errors:	Zero or negative rates, rates above 2^31-1, a tap
 *		count that would overflow, or an output buffer that
 *		would overflow.
 *
 *----------------------------------------------------------------*/

func resamp_init(r *resamp_t, input_rate int, output_rate int, max_input int) error {

	if input_rate <= 0 || output_rate <= 0 {
		return invalid_argf("rates must be positive, got %d -> %d", input_rate, output_rate)
	}
	if input_rate > math.MaxInt32 || output_rate > math.MaxInt32 {
		return invalid_argf("rates must fit in 32 bits, got %d -> %d", input_rate, output_rate)
	}
	if max_input <= 0 {
		return invalid_argf("max_input %d must be positive", max_input)
	}

	var fresh resamp_t

	fresh.input_rate = input_rate
	fresh.output_rate = output_rate
	fresh.max_input = max_input

	if input_rate == output_rate {
		fresh.passthrough = true
		fresh.initialized = true
		*r = fresh

		return nil
	}

	var g = gcd_int(input_rate, output_rate)
	var up = output_rate / g
	var down = input_rate / g

	if int64(up)*RESAMP_TAPS_PER_BRANCH > math.MaxInt32 {
		return invalid_argf("interpolation factor %d needs too many taps", up)
	}

	var out_max = int64(max_input)*int64(up)/int64(down) + 1
	if out_max > math.MaxInt32/8 {
		return invalid_argf("output buffer for %d samples at %d/%d would overflow", max_input, up, down)
	}

	fresh.up = up
	fresh.down = down

	/*
	 * Kaiser lowpass across all branches, scaled by L to make up
	 * for the interpolation gain loss.
	 */

	var num_taps = up * RESAMP_TAPS_PER_BRANCH
	var proto = make([]float64, num_taps)
	gen_kaiser_lowpass(1/float64(max(up, down)), RESAMP_STOPBAND_DB, proto)

	fresh.coef = make([][]float32, up)
	for m := 0; m < up; m++ {
		fresh.coef[m] = make([]float32, RESAMP_TAPS_PER_BRANCH)
		for j := 0; j < RESAMP_TAPS_PER_BRANCH; j++ {
			/* Branch m takes proto[m + k*up]; reversed so index 0
			   meets the oldest history sample. */
			var k = RESAMP_TAPS_PER_BRANCH - 1 - j
			fresh.coef[m][j] = float32(float64(up) * proto[m+k*up])
		}
	}

	var hist_alloc = next_power_of_two(2 * RESAMP_TAPS_PER_BRANCH)
	fresh.hist_i = make([]float32, hist_alloc)
	fresh.hist_q = make([]float32, hist_alloc)
	fresh.hist_mask = hist_alloc - 1

	fresh.out = make([]float32, 2*out_max)
	fresh.out_max = int(out_max)

	fresh.initialized = true

	*r = fresh

	return nil
} /* end resamp_init */

/*------------------------------------------------------------------
 *
 * Name:        resamp_process
 *
 * Purpose:     Rate-convert one block of IQ samples.
 *
 * Inputs:   	input	- Interleaved IQ.
 *
 * Returns:	Output samples (interleaved IQ, a view into internal
 *		storage valid until the next call), their count, and
 *		an error.  In passthrough mode the input itself comes
 *		back.
 *
 *----------------------------------------------------------------*/

func (r *resamp_t) process(input []float32) ([]float32, int, error) {

	if !r.initialized {
		return nil, 0, fmt.Errorf("%w: resampler", ErrNotInitialized)
	}
	if len(input)%2 != 0 {
		return nil, 0, invalid_argf("input length %d is not a whole number of IQ pairs", len(input))
	}

	var n = len(input) / 2
	if n == 0 {
		return input[:0], 0, nil
	}

	if r.passthrough {
		return input, n, nil
	}

	if n > r.max_input {
		return nil, 0, invalid_argf("input %d exceeds configured maximum %d", n, r.max_input)
	}

	var n_out = 0

	for s := 0; s < n; s++ {

		var wp = r.write_pos & r.hist_mask
		r.hist_i[wp] = input[2*s]
		r.hist_q[wp] = input[2*s+1]
		r.write_pos++

		for r.phase < r.up {
			var coef = r.coef[r.phase]

			r.out[2*n_out] = fir_real_ring(r.hist_i, r.write_pos, r.hist_mask, coef)
			r.out[2*n_out+1] = fir_real_ring(r.hist_q, r.write_pos, r.hist_mask, coef)
			n_out++

			r.phase += r.down
		}

		r.phase -= r.up
	}

	return r.out[:2*n_out], n_out, nil
} /* end resamp_process */

func (r *resamp_t) is_passthrough() bool {
	return r.passthrough
}

/* Idempotent; the zero resamp_t is already free. */

func (r *resamp_t) free() {
	*r = resamp_t{}
}
