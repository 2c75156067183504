package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Decoder facade between the channelizer and the
 *		protocol decoders.
 *
 * Description:	Bit-level demodulation lives outside this module.  A
 *		decoder receives its channel's IQ stream, already
 *		rate-matched, and hands back zero or more decoded
 *		events per block.  The driver tags events with channel
 *		and frequency; decoders should not.
 *
 *		carrier_decoder_t is the one decoder we ship: a squelch
 *		that reports bursts of energy with their level and
 *		duration.  It exists so the whole receive path can be
 *		exercised, and monitored, without any protocol decoder
 *		attached.
 *
 *----------------------------------------------------------------*/

type decoder_i interface {

	/* One block of interleaved IQ at the rate given to the factory.
	   Returns completed decodes, which the caller owns. */
	process(iq []float32) []decode_event_t
}

/* How the driver builds a decoder per channel. */

type decoder_factory_t func(channel int, center_hz float32, sample_rate int) decoder_i

type carrier_decoder_t struct {
	sample_rate int

	open_db  float64 /* squelch opens above noise + open_db */
	close_db float64 /* and closes below noise + close_db */

	rssi rssi_t

	in_burst      bool
	burst_samples int
	burst_peak    float64
}

func new_carrier_decoder(sample_rate int) *carrier_decoder_t {
	return &carrier_decoder_t{
		sample_rate: sample_rate,
		open_db:     12,
		close_db:    6,
	}
}

func carrier_decoder_factory(_ int, _ float32, sample_rate int) decoder_i {
	return new_carrier_decoder(sample_rate)
}

func (c *carrier_decoder_t) process(iq []float32) []decode_event_t {

	var n = len(iq) / 2
	if n == 0 {
		return nil
	}

	c.rssi.update(iq)

	var snr = c.rssi.snr_db()
	var events []decode_event_t

	if !c.in_burst {
		if snr >= c.open_db {
			c.in_burst = true
			c.burst_samples = n
			c.burst_peak = c.rssi.level_db()
		}

		return nil
	}

	if snr > c.close_db {
		c.burst_samples += n
		if c.rssi.level_db() > c.burst_peak {
			c.burst_peak = c.rssi.level_db()
		}

		return nil
	}

	/* Burst ended. */

	var duration_ms = 1000 * float64(c.burst_samples) / float64(c.sample_rate)

	events = append(events, decode_event_t{
		fields: []event_field_t{
			string_field("model", "Carrier"),
			double_field("rssi_db", c.burst_peak),
			double_field("duration_ms", duration_ms),
			int_field("samples", int64(c.burst_samples)),
		},
	})

	c.in_burst = false
	c.burst_samples = 0
	c.burst_peak = 0

	return events
}
