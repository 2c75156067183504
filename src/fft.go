package malamute

/*------------------------------------------------------------------
 *
 * Purpose:     Fixed-size forward FFT kernels for the channelizer.
 *
 * Description:	The channelizer only ever needs N = 2, 4, 8 or 16, so
 *		instead of a general FFT library we carry four fully
 *		unrolled kernels working on split real/imaginary slices.
 *		Twiddle factors are compile-time constants.
 *
 *		N = 2, 4, 8 are radix-2.  N = 16 is radix-4; a radix-2
 *		version wants more live values than the register file
 *		is happy with.
 *
 *		Forward transform convention:
 *
 *			X[k] = sum x[n] * exp(-j*2*pi*n*k/N)
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
)

const fft_sqrt1_2 = 0.7071067811865476   // cos(pi/4)
const fft_cos_pi_8 = 0.9238795325112867  // cos(pi/8)
const fft_sin_pi_8 = 0.38268343236508984 // sin(pi/8)

type fft_plan_t struct {
	size   int
	kernel func(re []float32, im []float32)
}

/*------------------------------------------------------------------
 *
 * Name:        fft_plan_init
 *
 * Purpose:     Pick the kernel for a supported transform size.
 *
 * Inputs:   	n	- Transform size, one of 2, 4, 8, 16.
 *
 * Returns:	Error for any other size.
 *
 *----------------------------------------------------------------*/

func fft_plan_init(p *fft_plan_t, n int) error {

	switch n {
	case 2:
		p.kernel = fft2
	case 4:
		p.kernel = fft4
	case 8:
		p.kernel = fft8
	case 16:
		p.kernel = fft16
	default:
		return fmt.Errorf("%w: no FFT kernel for size %d", ErrInvalidArgument, n)
	}

	p.size = n

	return nil
}

func (p *fft_plan_t) execute(re []float32, im []float32) {
	Assert(p.kernel != nil)
	Assert(len(re) >= p.size && len(im) >= p.size)

	p.kernel(re, im)
}

func fft2(re []float32, im []float32) {

	var a0r, a0i = re[0], im[0]
	var a1r, a1i = re[1], im[1]

	re[0], im[0] = a0r+a1r, a0i+a1i
	re[1], im[1] = a0r-a1r, a0i-a1i
}

func fft4(re []float32, im []float32) {

	var a0r, a0i = re[0], im[0]
	var a1r, a1i = re[1], im[1]
	var a2r, a2i = re[2], im[2]
	var a3r, a3i = re[3], im[3]

	var t0r, t0i = a0r + a2r, a0i + a2i
	var t1r, t1i = a0r - a2r, a0i - a2i
	var t2r, t2i = a1r + a3r, a1i + a3i
	var t3r, t3i = a1r - a3r, a1i - a3i

	re[0], im[0] = t0r+t2r, t0i+t2i
	re[2], im[2] = t0r-t2r, t0i-t2i

	/* X1 = t1 - j*t3,  X3 = t1 + j*t3 */

	re[1], im[1] = t1r+t3i, t1i-t3r
	re[3], im[3] = t1r-t3i, t1i+t3r
}

func fft8(re []float32, im []float32) {

	const r = float32(fft_sqrt1_2)

	/* 4-point DFT of the even samples. */

	var t0r, t0i = re[0] + re[4], im[0] + im[4]
	var t1r, t1i = re[0] - re[4], im[0] - im[4]
	var t2r, t2i = re[2] + re[6], im[2] + im[6]
	var t3r, t3i = re[2] - re[6], im[2] - im[6]

	var e0r, e0i = t0r + t2r, t0i + t2i
	var e2r, e2i = t0r - t2r, t0i - t2i
	var e1r, e1i = t1r + t3i, t1i - t3r
	var e3r, e3i = t1r - t3i, t1i + t3r

	/* 4-point DFT of the odd samples. */

	t0r, t0i = re[1]+re[5], im[1]+im[5]
	t1r, t1i = re[1]-re[5], im[1]-im[5]
	t2r, t2i = re[3]+re[7], im[3]+im[7]
	t3r, t3i = re[3]-re[7], im[3]-im[7]

	var o0r, o0i = t0r + t2r, t0i + t2i
	var o2r, o2i = t0r - t2r, t0i - t2i
	var o1r, o1i = t1r + t3i, t1i - t3r
	var o3r, o3i = t1r - t3i, t1i + t3r

	/* Twiddle the odd half:  W8^0=1, W8^1=(r,-r), W8^2=-j, W8^3=(-r,-r). */

	var w1r, w1i = r * (o1r + o1i), r * (o1i - o1r)
	var w2r, w2i = o2i, -o2r
	var w3r, w3i = r * (o3i - o3r), -r * (o3r + o3i)

	re[0], im[0] = e0r+o0r, e0i+o0i
	re[4], im[4] = e0r-o0r, e0i-o0i
	re[1], im[1] = e1r+w1r, e1i+w1i
	re[5], im[5] = e1r-w1r, e1i-w1i
	re[2], im[2] = e2r+w2r, e2i+w2i
	re[6], im[6] = e2r-w2r, e2i-w2i
	re[3], im[3] = e3r+w3r, e3i+w3i
	re[7], im[7] = e3r-w3r, e3i-w3i
}

/*------------------------------------------------------------------
 *
 * Name:        fft16
 *
 * Purpose:     16-point forward FFT, radix-4 decimation in frequency.
 *
 * Description:	Output indices split as k = 4k' + q.  For each input
 *		column s (0..3) form the four radix-4 combinations of
 *		x[s], x[s+4], x[s+8], x[s+12], twiddle by W16^(s*q),
 *		then a 4-point DFT down each group q gives X[4k'+q].
 *
 *----------------------------------------------------------------*/

func fft16(re []float32, im []float32) {

	const r = float32(fft_sqrt1_2)
	const c1 = float32(fft_cos_pi_8)
	const s1 = float32(fft_sin_pi_8)

	var ar, ai, br, bi, cr, ci, dr, di [4]float32

	/* Column s = 0.  All twiddles are 1. */

	var t0r, t0i = re[0] + re[8], im[0] + im[8]
	var t1r, t1i = re[0] - re[8], im[0] - im[8]
	var t2r, t2i = re[4] + re[12], im[4] + im[12]
	var t3r, t3i = re[4] - re[12], im[4] - im[12]

	ar[0], ai[0] = t0r+t2r, t0i+t2i
	cr[0], ci[0] = t0r-t2r, t0i-t2i
	br[0], bi[0] = t1r+t3i, t1i-t3r
	dr[0], di[0] = t1r-t3i, t1i+t3r

	/* Column s = 1.  Twiddles W16^1=(c1,-s1), W16^2=(r,-r), W16^3=(s1,-c1). */

	t0r, t0i = re[1]+re[9], im[1]+im[9]
	t1r, t1i = re[1]-re[9], im[1]-im[9]
	t2r, t2i = re[5]+re[13], im[5]+im[13]
	t3r, t3i = re[5]-re[13], im[5]-im[13]

	ar[1], ai[1] = t0r+t2r, t0i+t2i

	var ur, ui = t1r + t3i, t1i - t3r /* t1 - j*t3 */
	br[1], bi[1] = c1*ur+s1*ui, c1*ui-s1*ur

	ur, ui = t0r-t2r, t0i-t2i
	cr[1], ci[1] = r*(ur+ui), r*(ui-ur)

	ur, ui = t1r-t3i, t1i+t3r /* t1 + j*t3 */
	dr[1], di[1] = s1*ur+c1*ui, s1*ui-c1*ur

	/* Column s = 2.  Twiddles W16^2=(r,-r), W16^4=-j, W16^6=(-r,-r). */

	t0r, t0i = re[2]+re[10], im[2]+im[10]
	t1r, t1i = re[2]-re[10], im[2]-im[10]
	t2r, t2i = re[6]+re[14], im[6]+im[14]
	t3r, t3i = re[6]-re[14], im[6]-im[14]

	ar[2], ai[2] = t0r+t2r, t0i+t2i

	ur, ui = t1r+t3i, t1i-t3r
	br[2], bi[2] = r*(ur+ui), r*(ui-ur)

	ur, ui = t0r-t2r, t0i-t2i
	cr[2], ci[2] = ui, -ur

	ur, ui = t1r-t3i, t1i+t3r
	dr[2], di[2] = r*(ui-ur), -r*(ur+ui)

	/* Column s = 3.  Twiddles W16^3=(s1,-c1), W16^6=(-r,-r), W16^9=(-c1,s1). */

	t0r, t0i = re[3]+re[11], im[3]+im[11]
	t1r, t1i = re[3]-re[11], im[3]-im[11]
	t2r, t2i = re[7]+re[15], im[7]+im[15]
	t3r, t3i = re[7]-re[15], im[7]-im[15]

	ar[3], ai[3] = t0r+t2r, t0i+t2i

	ur, ui = t1r+t3i, t1i-t3r
	br[3], bi[3] = s1*ur+c1*ui, s1*ui-c1*ur

	ur, ui = t0r-t2r, t0i-t2i
	cr[3], ci[3] = r*(ui-ur), -r*(ur+ui)

	ur, ui = t1r-t3i, t1i+t3r
	dr[3], di[3] = -c1*ur-s1*ui, s1*ur-c1*ui

	/* Second stage: a 4-point DFT down each group. */

	fft16_col(&ar, &ai)
	fft16_col(&br, &bi)
	fft16_col(&cr, &ci)
	fft16_col(&dr, &di)

	for k := 0; k < 4; k++ {
		re[4*k], im[4*k] = ar[k], ai[k]
		re[4*k+1], im[4*k+1] = br[k], bi[k]
		re[4*k+2], im[4*k+2] = cr[k], ci[k]
		re[4*k+3], im[4*k+3] = dr[k], di[k]
	}
}

func fft16_col(re *[4]float32, im *[4]float32) {

	var t0r, t0i = re[0] + re[2], im[0] + im[2]
	var t1r, t1i = re[0] - re[2], im[0] - im[2]
	var t2r, t2i = re[1] + re[3], im[1] + im[3]
	var t3r, t3i = re[1] - re[3], im[1] - im[3]

	re[0], im[0] = t0r+t2r, t0i+t2i
	re[2], im[2] = t0r-t2r, t0i-t2i
	re[1], im[1] = t1r+t3i, t1i-t3r
	re[3], im[3] = t1r-t3i, t1i+t3r
}
