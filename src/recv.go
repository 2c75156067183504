package malamute

/*------------------------------------------------------------------
 *
 * Module:      recv.go
 *
 * Purpose:   	Wideband driver loop: fan the channelizer output out
 *		to the per-channel pipelines and funnel their events
 *		back through the duplicate check.
 *
 * Description:	For every incoming sample block:
 *
 *			1. pfb_process once.
 *			2. Per channel: resample if the decoder asked
 *			   for a different rate, update the level
 *			   estimates, hand the samples to the decoder.
 *			3. Tag every event with its channel's center
 *			   frequency, drop cross-channel duplicates,
 *			   forward the rest to the sinks.
 *
 *		The whole path runs on the acquisition goroutine.  The
 *		channelizer and the per-channel pipelines are fast
 *		relative to any realistic sample rate, so there is no
 *		need for worker fan-out; if that ever changes, each
 *		channel's state moves to exactly one worker and the
 *		dedupe call site gets serialized.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

type event_sink_i interface {
	deliver(ev *decode_event_t)
	close()
}

type channel_state_t struct {
	num     int
	freq_hz float32

	resample bool
	resamp   resamp_t

	decoder decoder_i

	rssi rssi_t
}

type wideband_t struct {
	initialized bool

	pfb      pfb_t
	channels []channel_state_t
	dedupe   dedupe_t

	sinks []event_sink_i

	logger *log.Logger
	now    func() time.Time

	blocks_in        uint64
	events_forwarded uint64
	events_dropped   uint64
}

/*------------------------------------------------------------------
 *
 * Name:        wideband_init
 *
 * Purpose:     Build the whole receive path for one stream.
 *
 * Inputs:   	cfg		- Validated receiver configuration.
 *		new_decoder	- Factory invoked once per channel.
 *				  nil gets the carrier decoder.
 *
 *----------------------------------------------------------------*/

func wideband_init(w *wideband_t, cfg *ReceiverConfig, new_decoder decoder_factory_t) error {

	if err := cfg.Validate(); err != nil {
		return err
	}

	if new_decoder == nil {
		new_decoder = carrier_decoder_factory
	}

	var fresh wideband_t

	if err := pfb_init(&fresh.pfb, cfg.NumChannels, cfg.CenterHz, float64(cfg.InputRate), cfg.InputRate, cfg.BlockSize); err != nil {
		return fmt.Errorf("channelizer: %w", err)
	}

	var channel_rate = fresh.pfb.channel_rate()
	var decoder_rate = channel_rate
	if cfg.TargetRate != 0 {
		decoder_rate = cfg.TargetRate
	}

	/* Worst case per-channel samples out of the pfb per block. */
	var per_channel_max = cfg.BlockSize/fresh.pfb.decimation + 1

	fresh.channels = make([]channel_state_t, cfg.NumChannels)
	for k := range fresh.channels {
		var ch = &fresh.channels[k]

		ch.num = k
		ch.freq_hz = fresh.pfb.channel_center_hz(k)

		/* Passthrough still goes through resamp_t so the per-channel
		   plumbing is the same either way. */
		if err := resamp_init(&ch.resamp, channel_rate, decoder_rate, per_channel_max); err != nil {
			fresh.free_partial()

			return fmt.Errorf("channel %d resampler: %w", k, err)
		}
		ch.resample = !ch.resamp.is_passthrough()

		ch.decoder = new_decoder(k, ch.freq_hz, decoder_rate)
	}

	dedupe_init(&fresh.dedupe, DEDUPE_WINDOW)

	fresh.logger = log.WithPrefix("wideband")
	fresh.now = time.Now
	fresh.initialized = true

	*w = fresh

	w.logger.Info("receive path ready",
		"channels", cfg.NumChannels,
		"spacing_hz", cfg.InputRate/cfg.NumChannels,
		"channel_rate", channel_rate,
		"decoder_rate", decoder_rate,
		"isa", isa_selected().String())

	return nil
} /* end wideband_init */

func (w *wideband_t) add_sink(s event_sink_i) {
	w.sinks = append(w.sinks, s)
}

/*------------------------------------------------------------------
 *
 * Name:        wideband_process
 *
 * Purpose:     Run one block of wideband IQ through the whole path.
 *
 * Inputs:   	iq	- Interleaved float32, at most the configured
 *			  block size.
 *
 * Description:	Called from the acquisition goroutine.  Must not
 *		block; everything here is compute plus non-blocking
 *		sink handoff.
 *
 *----------------------------------------------------------------*/

func (w *wideband_t) wideband_process(iq []float32) error {

	if !w.initialized {
		return fmt.Errorf("%w: wideband driver", ErrNotInitialized)
	}

	var n_chan, err = w.pfb.process(iq)
	if err != nil {
		return err
	}

	w.blocks_in++

	if n_chan == 0 {
		return nil
	}

	for k := range w.channels {
		var ch = &w.channels[k]

		var samples = w.pfb.channel_out(k, n_chan)

		if ch.resample {
			var resampled, _, resErr = ch.resamp.process(samples)
			if resErr != nil {
				return fmt.Errorf("channel %d: %w", k, resErr)
			}
			samples = resampled
		}

		ch.rssi.update(samples)

		for _, ev := range ch.decoder.process(samples) {
			w.forward(&ev, ch)
		}
	}

	return nil
} /* end wideband_process */

func (w *wideband_t) forward(ev *decode_event_t, ch *channel_state_t) {

	ev.channel = ch.num
	ev.channel_freq_hz = ch.freq_hz
	ev.received_at = w.now()

	if w.dedupe.dedupe_check(ev, ev.received_at) {
		w.events_dropped++
		w.logger.Debug("duplicate suppressed", "channel", ch.num, "freq_hz", ch.freq_hz)

		return
	}

	w.events_forwarded++

	for _, s := range w.sinks {
		s.deliver(ev)
	}
}

/* Smoothed level estimates for the status display. */

func (w *wideband_t) channel_levels(k int) (rssi_db float64, noise_db float64) {
	Assert(w.initialized)
	Assert(k >= 0 && k < len(w.channels))

	var ch = &w.channels[k]

	return ch.rssi.level_db(), ch.rssi.noise_db()
}

func (w *wideband_t) stats() (blocks uint64, forwarded uint64, dropped uint64) {
	return w.blocks_in, w.events_forwarded, w.events_dropped
}

func (w *wideband_t) free_partial() {
	w.pfb.free()
	for k := range w.channels {
		w.channels[k].resamp.free()
	}
}

/* Tear down the stream.  Channelizer and resamplers go as a unit. */

func (w *wideband_t) free() {
	for _, s := range w.sinks {
		s.close()
	}
	w.free_partial()

	*w = wideband_t{}
}
