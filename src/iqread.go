package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Read recorded IQ captures in the common SDR formats.
 *
 * Description:	The core consumes only interleaved float32 IQ (CF32).
 *		Recordings come in whatever the capture tool wrote:
 *
 *			CU8	unsigned 8 bit, rtl_sdr
 *			CS16	signed 16 bit little endian, airspy etc.
 *			CF32	float32 little endian, native
 *
 *		Conversion happens here, in the driver layer, block by
 *		block; the DSP core never sees anything but float32.
 *
 *		CU8 maps [0,255] to [-1,+1] around the 127.5
 *		midpoint.  CS16 divides by 32768.
 *
 *----------------------------------------------------------------*/

import (
	"io"
	"math"
	"strings"
)

type sample_format_t int

const (
	FORMAT_CU8 sample_format_t = iota
	FORMAT_CS16
	FORMAT_CF32
)

func (f sample_format_t) String() string {
	switch f {
	case FORMAT_CU8:
		return "cu8"
	case FORMAT_CS16:
		return "cs16"
	default:
		return "cf32"
	}
}

func (f sample_format_t) bytes_per_sample() int {
	switch f {
	case FORMAT_CU8:
		return 2
	case FORMAT_CS16:
		return 4
	default:
		return 8
	}
}

/* By extension first, then by explicit name. */

func format_from_name(name string) (sample_format_t, error) {

	switch strings.ToLower(name) {
	case "cu8", "u8", "data", "complex16u":
		return FORMAT_CU8, nil
	case "cs16", "s16", "complex16s":
		return FORMAT_CS16, nil
	case "cf32", "f32", "cfile", "complex":
		return FORMAT_CF32, nil
	}

	return FORMAT_CF32, invalid_argf("unknown sample format %q", name)
}

func format_from_path(path string) (sample_format_t, error) {

	var dot = strings.LastIndexByte(path, '.')
	if dot < 0 {
		return FORMAT_CF32, invalid_argf("no extension on %q to infer a sample format from", path)
	}

	return format_from_name(path[dot+1:])
}

type iq_reader_t struct {
	r      io.Reader
	format sample_format_t
	buf    []byte
}

func iq_reader_init(q *iq_reader_t, r io.Reader, format sample_format_t, max_block int) {
	q.r = r
	q.format = format
	q.buf = make([]byte, max_block*format.bytes_per_sample())
}

/*------------------------------------------------------------------
 *
 * Name:        read_block
 *
 * Purpose:     Fill out with converted samples.
 *
 * Inputs:   	out	- Interleaved float32 IQ, capacity in floats
 *			  (two per complex sample).
 *
 * Returns:	Complex samples delivered; 0 with io.EOF at the end.
 *		A trailing partial sample in the file is discarded.
 *
 *----------------------------------------------------------------*/

func (q *iq_reader_t) read_block(out []float32) (int, error) {

	var want = len(out) / 2
	var bps = q.format.bytes_per_sample()

	if want*bps > len(q.buf) {
		want = len(q.buf) / bps
	}

	var nbytes, err = io.ReadFull(q.r, q.buf[:want*bps])
	if err == io.ErrUnexpectedEOF {
		err = nil /* deliver what we got; next call reports EOF */
	} else if err != nil {
		return 0, err
	}

	var n = nbytes / bps
	if n == 0 {
		return 0, io.EOF
	}

	switch q.format {
	case FORMAT_CU8:
		cu8_to_cf32(out, q.buf[:n*2])
	case FORMAT_CS16:
		cs16_to_cf32(out, q.buf[:n*4])
	default:
		cf32_from_bytes(out, q.buf[:n*8])
	}

	return n, nil
}

func cu8_to_cf32(dst []float32, src []byte) {

	const scale = 1.0 / 127.5

	for i := 0; i < len(src); i++ {
		dst[i] = (float32(src[i]) - 127.5) * scale
	}
}

func cs16_to_cf32(dst []float32, src []byte) {

	const scale = 1.0 / 32768.0

	for i := 0; i*2 < len(src); i++ {
		var v = int16(uint16(src[2*i]) | uint16(src[2*i+1])<<8)
		dst[i] = float32(v) * scale
	}
}

func cf32_from_bytes(dst []float32, src []byte) {

	for i := 0; i*4 < len(src); i++ {
		var bits = uint32(src[4*i]) | uint32(src[4*i+1])<<8 | uint32(src[4*i+2])<<16 | uint32(src[4*i+3])<<24
		dst[i] = math.Float32frombits(bits)
	}
}

/* The generator writes CF32 the same way. */

func cf32_to_bytes(dst []byte, src []float32) {

	for i, v := range src {
		var bits = math.Float32bits(v)
		dst[4*i] = byte(bits)
		dst[4*i+1] = byte(bits >> 8)
		dst[4*i+2] = byte(bits >> 16)
		dst[4*i+3] = byte(bits >> 24)
	}
}
