package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Polyphase filter bank analysis channelizer.
 *
 * Description:	Splits one wideband complex stream into M narrowband
 *		channels spaced fs/M apart.  The commutator advances by
 *		M/2 samples per transform (2x oversampled), so adjacent
 *		channels overlap and a signal sitting on a channel
 *		boundary is decodable in both neighbors.  The price is
 *		a per-channel output rate of fs/(M/2) instead of fs/M,
 *		and the cross-channel duplicates that dedupe.go exists
 *		to suppress.
 *
 *		Per output sample and channel set:
 *
 *		  1. Push M/2 input samples through the commutator into
 *		     the per-branch circular windows.
 *		  2. Dot each branch window against the reversed
 *		     coefficient slice for its position in the current
 *		     commutator cycle.
 *		  3. M-point FFT across the branch outputs (stored in
 *		     reverse order; that is part of the algorithm, not
 *		     a convention).
 *		  4. Undo the exp(-j*pi*k*n) rotation the oversampled
 *		     commutator puts on odd channels at odd output
 *		     indices: negate I and Q when (k&1) && (n&1).
 *
 *		Channel M/2 sits on the Nyquist boundary and carries
 *		energy from both +fs/2 and -fs/2.  Decoders that care
 *		about frequency sign should not subscribe to it.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
)

type pfb_t struct {
	initialized bool

	num_channels int /* M */
	decimation   int /* D = M/2 */
	fs_hz        int
	center_hz    float64
	bandwidth_hz float64

	taps_per_branch int /* p = 2 * FILTER_SEMI_LENGTH */

	/* Branch coefficients, reversed so the dot product walks the
	   window oldest to newest. */
	coef [][]float32

	/* Per-branch circular windows, interleaved IQ, power-of-two
	   allocation so the index wraps with a bitwise AND. */
	window      [][]float32
	window_pos  []int
	window_mask int

	filter_index   int /* commutator cursor, counts down mod M */
	push_countdown int /* inputs remaining until the next transform */

	fft    fft_plan_t
	fft_re []float32
	fft_im []float32

	chan_out  [][]float32 /* interleaved IQ, one buffer per channel */
	out_max   int         /* capacity of each, in complex samples */
	max_input int
	out_count uint64 /* total outputs ever, for the phase parity */

	freq_map []float32 /* channel center frequencies, natural FFT order */
}

/*------------------------------------------------------------------
 *
 * Name:        pfb_init
 *
 * Purpose:     Design the prototype filter and allocate all state for
 *		one channelizer.
 *
 * Inputs:   	num_channels	- M; power of two, 2 to 16.
 *		center_hz	- RF center of the wideband stream; only
 *				  used to label the channel map.
 *		bandwidth_hz	- Informational; the usable width is
 *				  derived from fs, not from this.
 *		fs_hz		- Wideband sample rate, > 0.
 *		max_input	- Most complex samples a single process
 *				  call will deliver; sizes the output
 *				  buffers.
 *
 * Returns:	nil, or an error with the state untouched.
 *
 *----------------------------------------------------------------*/

func pfb_init(p *pfb_t, num_channels int, center_hz float64, bandwidth_hz float64, fs_hz int, max_input int) error {

	if !is_power_of_two(num_channels) || num_channels < MIN_CHANNELS || num_channels > MAX_CHANNELS {
		return invalid_argf("num_channels %d must be a power of two in [%d,%d]", num_channels, MIN_CHANNELS, MAX_CHANNELS)
	}
	if fs_hz <= 0 {
		return invalid_argf("sample rate %d must be positive", fs_hz)
	}
	if max_input <= 0 {
		return invalid_argf("max_input %d must be positive", max_input)
	}
	if bandwidth_hz < 0 {
		return invalid_argf("bandwidth %f must not be negative", bandwidth_hz)
	}

	if err := isa_dispatch_init(); err != nil {
		return err
	}

	var M = num_channels
	var taps_per_branch = 2 * FILTER_SEMI_LENGTH

	/*
	 * Prototype lowpass: length 2*M*m+1, cutoff at cutoff_ratio of
	 * the channel spacing.  The odd tap count centers the peak; the
	 * final tap falls off the end when slicing into M branches of
	 * 2m taps each.
	 */

	var h_len = 2*M*FILTER_SEMI_LENGTH + 1
	var proto = make([]float64, h_len)
	gen_kaiser_lowpass(PFB_CUTOFF_RATIO/float64(M), PFB_STOPBAND_DB, proto)

	var fresh pfb_t

	fresh.num_channels = M
	fresh.decimation = M / 2
	fresh.fs_hz = fs_hz
	fresh.center_hz = center_hz
	fresh.bandwidth_hz = bandwidth_hz
	fresh.taps_per_branch = taps_per_branch

	fresh.coef = make([][]float32, M)
	for branch := 0; branch < M; branch++ {
		fresh.coef[branch] = make([]float32, taps_per_branch)
		for j := 0; j < taps_per_branch; j++ {
			/* Reversed: index 0 pairs with the oldest window sample. */
			fresh.coef[branch][j] = float32(proto[branch+(taps_per_branch-1-j)*M])
		}
	}

	var window_alloc = next_power_of_two(taps_per_branch)
	fresh.window_mask = window_alloc - 1
	fresh.window = make([][]float32, M)
	fresh.window_pos = make([]int, M)
	for branch := 0; branch < M; branch++ {
		fresh.window[branch] = make([]float32, 2*window_alloc)
	}

	if err := fft_plan_init(&fresh.fft, M); err != nil {
		return err
	}
	fresh.fft_re = make([]float32, M)
	fresh.fft_im = make([]float32, M)

	fresh.out_max = max_input/fresh.decimation + 1
	if fresh.out_max < 2 {
		fresh.out_max = 2
	}
	fresh.max_input = max_input
	fresh.chan_out = make([][]float32, M)
	for k := 0; k < M; k++ {
		fresh.chan_out[k] = make([]float32, 2*fresh.out_max)
	}

	/*
	 * Channel frequency map in natural FFT order: bin 0 at the
	 * center, bins 1..M/2 above it, M/2+1..M-1 below.
	 */

	var spacing = float64(fs_hz) / float64(M)
	fresh.freq_map = make([]float32, M)
	for k := 0; k < M; k++ {
		if k <= M/2 {
			fresh.freq_map[k] = float32(center_hz + float64(k)*spacing)
		} else {
			fresh.freq_map[k] = float32(center_hz + float64(k-M)*spacing)
		}
	}

	fresh.filter_index = M - 1
	fresh.push_countdown = fresh.decimation
	fresh.initialized = true

	*p = fresh

	return nil
} /* end pfb_init */

/*------------------------------------------------------------------
 *
 * Name:        pfb_process
 *
 * Purpose:     Channelize one block of wideband samples.
 *
 * Inputs:   	input	- Interleaved IQ, at most max_input complex
 *			  samples.  May be empty.
 *
 * Returns:	Number of complex samples now available per channel
 *		(fetch with channel_out), or an error.
 *
 *		The count is floor(n/D) from a fresh state; inputs
 *		that don't complete a transform stay in the windows
 *		and count toward the next call, so chunking an input
 *		stream never changes the combined output.
 *
 *----------------------------------------------------------------*/

func (p *pfb_t) process(input []float32) (int, error) {

	if !p.initialized {
		return 0, fmt.Errorf("%w: pfb", ErrNotInitialized)
	}
	if len(input)%2 != 0 {
		return 0, invalid_argf("input length %d is not a whole number of IQ pairs", len(input))
	}

	var n = len(input) / 2
	if n == 0 {
		return 0, nil
	}
	if n > p.max_input {
		return 0, invalid_argf("input %d exceeds configured maximum %d", n, p.max_input)
	}

	var n_out = 0

	for s := 0; s < n; s++ {

		/* Commutator push. */

		var branch = p.filter_index
		var pos = p.window_pos[branch]
		var win = p.window[branch]

		win[2*pos] = input[2*s]
		win[2*pos+1] = input[2*s+1]

		p.window_pos[branch] = (pos + 1) & p.window_mask

		p.filter_index--
		if p.filter_index < 0 {
			p.filter_index = p.num_channels - 1
		}

		p.push_countdown--
		if p.push_countdown == 0 {
			p.push_countdown = p.decimation
			p.transform(n_out)
			n_out++
		}
	}

	return n_out, nil
} /* end pfb_process */

/* One analysis transform: M branch dot products, FFT, phase fixup. */

func (p *pfb_t) transform(slot int) {

	var M = p.num_channels

	for i := 0; i < M; i++ {
		var index = (i + p.filter_index + 1) % M

		var re, im = fir_iq_ring(p.window[index], p.window_pos[index], p.window_mask, p.coef[i])

		p.fft_re[M-i-1] = re
		p.fft_im[M-i-1] = im
	}

	p.fft.execute(p.fft_re, p.fft_im)

	/*
	 * The 2x oversampled commutator rotates channel k by
	 * exp(-j*pi*k*n) at output n.  For integer k and n that is
	 * just a sign: flip odd channels on odd outputs.
	 */

	var odd = p.out_count&1 == 1

	for k := 0; k < M; k++ {
		var re, im = p.fft_re[k], p.fft_im[k]

		if odd && k&1 == 1 {
			re, im = -re, -im
		}

		p.chan_out[k][2*slot] = re
		p.chan_out[k][2*slot+1] = im
	}

	p.out_count++
}

/*------------------------------------------------------------------
 *
 * Name:        channel_out
 *
 * Purpose:     Output buffer for one channel, valid until the next
 *		process call.
 *
 * Inputs:   	k	- Channel number.
 *		n	- Sample count returned by the last process.
 *
 *----------------------------------------------------------------*/

func (p *pfb_t) channel_out(k int, n int) []float32 {
	Assert(p.initialized)
	Assert(k >= 0 && k < p.num_channels)
	Assert(n >= 0 && n <= p.out_max)

	return p.chan_out[k][:2*n]
}

/* Center frequency of channel k in Hz; 0 for anything out of range. */

func (p *pfb_t) channel_center_hz(k int) float32 {

	if !p.initialized || k < 0 || k >= p.num_channels {
		return 0
	}

	return p.freq_map[k]
}

/* Per-channel output sample rate. */

func (p *pfb_t) channel_rate() int {
	Assert(p.initialized)

	return p.fs_hz / p.decimation
}

/* Idempotent; the zero pfb_t is already free. */

func (p *pfb_t) free() {
	*p = pfb_t{}
}
