package malamute

/*------------------------------------------------------------------
 *
 * Purpose:     Inner-loop FIR kernels, in several flavors selected
 *		at run time.
 *
 * Description:	The entire CPU budget of the channelizer is spent in
 *		two dot products:
 *
 *		  fir_iq:   real coefficients against interleaved IQ
 *			    (the channelizer branch filters)
 *		  fir_real: real coefficients against a plain float32
 *			    span (the resampler, once per I and Q ring)
 *
 *		Both take contiguous spans; the circular-buffer callers
 *		split a wrapped window into at most two spans.
 *
 *		The baseline variant is a straight loop.  The wide
 *		variants process 4 or 8 taps per iteration, which is
 *		what the compiler needs to keep the FMA pipes of a
 *		wider machine busy.  Selection happens once, in
 *		isa_dispatch_init (cpu.go), and every variant must
 *		produce the same result to within float rounding.
 *
 *----------------------------------------------------------------*/

type fir_iq_func_t func(iq []float32, coef []float32) (float32, float32)
type fir_real_func_t func(x []float32, coef []float32) float32

/* Active kernels.  Set once by isa_dispatch_init before any caller
   can reach them; read-only afterwards. */

var fir_iq fir_iq_func_t = fir_iq_baseline
var fir_real fir_real_func_t = fir_real_baseline

/*
 * Baseline.  Works everywhere; on x86-64 the compiler's SSE2 codegen
 * of this loop is the reference floor.
 */

func fir_iq_baseline(iq []float32, coef []float32) (float32, float32) {

	var sum_i, sum_q float32

	for k := 0; k < len(coef); k++ {
		var c = coef[k]
		sum_i += c * iq[2*k]
		sum_q += c * iq[2*k+1]
	}

	return sum_i, sum_q
}

func fir_real_baseline(x []float32, coef []float32) float32 {

	var sum float32

	for k := 0; k < len(coef); k++ {
		sum += coef[k] * x[k]
	}

	return sum
}

/*
 * 4 taps per iteration, four independent accumulator pairs.
 */

func fir_iq_x4(iq []float32, coef []float32) (float32, float32) {

	var n = len(coef)
	var n4 = n &^ 3

	var i0, q0, i1, q1, i2, q2, i3, q3 float32

	for k := 0; k < n4; k += 4 {
		var c = coef[k : k+4 : k+4]
		var s = iq[2*k : 2*k+8 : 2*k+8]

		i0 += c[0] * s[0]
		q0 += c[0] * s[1]
		i1 += c[1] * s[2]
		q1 += c[1] * s[3]
		i2 += c[2] * s[4]
		q2 += c[2] * s[5]
		i3 += c[3] * s[6]
		q3 += c[3] * s[7]
	}

	var sum_i = (i0 + i1) + (i2 + i3)
	var sum_q = (q0 + q1) + (q2 + q3)

	for k := n4; k < n; k++ {
		sum_i += coef[k] * iq[2*k]
		sum_q += coef[k] * iq[2*k+1]
	}

	return sum_i, sum_q
}

func fir_real_x4(x []float32, coef []float32) float32 {

	var n = len(coef)
	var n4 = n &^ 3

	var s0, s1, s2, s3 float32

	for k := 0; k < n4; k += 4 {
		var c = coef[k : k+4 : k+4]
		var v = x[k : k+4 : k+4]

		s0 += c[0] * v[0]
		s1 += c[1] * v[1]
		s2 += c[2] * v[2]
		s3 += c[3] * v[3]
	}

	var sum = (s0 + s1) + (s2 + s3)

	for k := n4; k < n; k++ {
		sum += coef[k] * x[k]
	}

	return sum
}

/*
 * 8 taps per iteration for machines with deep FMA pipes.
 */

func fir_iq_x8(iq []float32, coef []float32) (float32, float32) {

	var n = len(coef)
	var n8 = n &^ 7

	var i0, q0, i1, q1, i2, q2, i3, q3 float32
	var i4, q4, i5, q5, i6, q6, i7, q7 float32

	for k := 0; k < n8; k += 8 {
		var c = coef[k : k+8 : k+8]
		var s = iq[2*k : 2*k+16 : 2*k+16]

		i0 += c[0] * s[0]
		q0 += c[0] * s[1]
		i1 += c[1] * s[2]
		q1 += c[1] * s[3]
		i2 += c[2] * s[4]
		q2 += c[2] * s[5]
		i3 += c[3] * s[6]
		q3 += c[3] * s[7]
		i4 += c[4] * s[8]
		q4 += c[4] * s[9]
		i5 += c[5] * s[10]
		q5 += c[5] * s[11]
		i6 += c[6] * s[12]
		q6 += c[6] * s[13]
		i7 += c[7] * s[14]
		q7 += c[7] * s[15]
	}

	var sum_i = ((i0 + i1) + (i2 + i3)) + ((i4 + i5) + (i6 + i7))
	var sum_q = ((q0 + q1) + (q2 + q3)) + ((q4 + q5) + (q6 + q7))

	for k := n8; k < n; k++ {
		sum_i += coef[k] * iq[2*k]
		sum_q += coef[k] * iq[2*k+1]
	}

	return sum_i, sum_q
}

func fir_real_x8(x []float32, coef []float32) float32 {

	var n = len(coef)
	var n8 = n &^ 7

	var s0, s1, s2, s3, s4, s5, s6, s7 float32

	for k := 0; k < n8; k += 8 {
		var c = coef[k : k+8 : k+8]
		var v = x[k : k+8 : k+8]

		s0 += c[0] * v[0]
		s1 += c[1] * v[1]
		s2 += c[2] * v[2]
		s3 += c[3] * v[3]
		s4 += c[4] * v[4]
		s5 += c[5] * v[5]
		s6 += c[6] * v[6]
		s7 += c[7] * v[7]
	}

	var sum = ((s0 + s1) + (s2 + s3)) + ((s4 + s5) + (s6 + s7))

	for k := n8; k < n; k++ {
		sum += coef[k] * x[k]
	}

	return sum
}

/*------------------------------------------------------------------
 *
 * Name:        fir_iq_ring
 *
 * Purpose:     Complex-by-real dot product over the most recent
 *		len(coef) samples of an interleaved circular window.
 *
 * Inputs:   	win		- Interleaved IQ ring, 2*alloc floats.
 *		write_pos	- Next write slot (complex index).
 *		mask		- alloc-1, alloc a power of two.
 *		coef		- Coefficients, oldest sample first.
 *
 *----------------------------------------------------------------*/

func fir_iq_ring(win []float32, write_pos int, mask int, coef []float32) (float32, float32) {

	var p = len(coef)
	var alloc = mask + 1
	var start = (write_pos + alloc - p) & mask

	if start+p <= alloc {
		return fir_iq(win[2*start:2*(start+p)], coef)
	}

	/* Wrapped: oldest run at the top of the ring, newest at the bottom. */

	var n1 = alloc - start
	var i1, q1 = fir_iq(win[2*start:], coef[:n1])
	var i2, q2 = fir_iq(win[:2*(p-n1)], coef[n1:])

	return i1 + i2, q1 + q2
}

func fir_real_ring(x []float32, write_pos int, mask int, coef []float32) float32 {

	var p = len(coef)
	var alloc = mask + 1
	var start = (write_pos + alloc - p) & mask

	if start+p <= alloc {
		return fir_real(x[start:start+p], coef)
	}

	var n1 = alloc - start

	return fir_real(x[start:], coef[:n1]) + fir_real(x[:p-n1], coef[n1:])
}
