package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Soundcard IQ source.
 *
 * Description:	Direct-conversion front ends (softrock style) deliver
 *		I on the left channel and Q on the right of an
 *		ordinary stereo input.  This wraps portaudio so such
 *		hardware can feed the channelizer live, at soundcard
 *		rates.  Real SDR USB frontends are outside this module
 *		and reach us through recorded captures or a pipe.
 *
 *		Blocks are delivered on the caller's goroutine, which
 *		becomes the acquisition thread for the whole receive
 *		path.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

type audio_source_t struct {
	stream *portaudio.Stream
	buf    []float32 /* interleaved stereo frames = interleaved IQ */
}

/*------------------------------------------------------------------
 *
 * Name:        audio_source_init
 *
 * Purpose:     Open the default stereo input.
 *
 * Inputs:   	sample_hz	- Capture rate; the wideband fs.
 *		block_size	- Complex samples per read.
 *
 *----------------------------------------------------------------*/

func audio_source_init(a *audio_source_t, sample_hz int, block_size int) error {

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}

	var buf = make([]float32, 2*block_size)

	var stream, openErr = portaudio.OpenDefaultStream(2, 0, float64(sample_hz), block_size, buf)
	if openErr != nil {
		portaudio.Terminate() //nolint:errcheck,gosec

		return fmt.Errorf("portaudio open: %w", openErr)
	}

	if err := stream.Start(); err != nil {
		stream.Close()        //nolint:errcheck,gosec
		portaudio.Terminate() //nolint:errcheck,gosec

		return fmt.Errorf("portaudio start: %w", err)
	}

	a.stream = stream
	a.buf = buf

	return nil
}

/* Blocks until a full buffer is captured.  The returned slice is
   reused by the next call. */

func (a *audio_source_t) read_block() ([]float32, error) {

	if err := a.stream.Read(); err != nil {
		return nil, fmt.Errorf("portaudio read: %w", err)
	}

	return a.buf, nil
}

func (a *audio_source_t) close() {

	if a.stream != nil {
		a.stream.Stop()  //nolint:errcheck,gosec
		a.stream.Close() //nolint:errcheck,gosec
		a.stream = nil
	}

	portaudio.Terminate() //nolint:errcheck,gosec
}
