package malamute

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture_sink_t struct {
	events []decode_event_t
}

func (s *capture_sink_t) deliver(ev *decode_event_t) {
	s.events = append(s.events, *ev)
}

func (s *capture_sink_t) close() {}

// Emits one fixed event on its first block, nothing afterwards.
type one_shot_decoder_t struct {
	fields []event_field_t
	fired  bool
}

func (d *one_shot_decoder_t) process(_ []float32) []decode_event_t {
	if d.fired {
		return nil
	}
	d.fired = true

	return []decode_event_t{{fields: d.fields}}
}

func test_config() ReceiverConfig {
	var cfg = DefaultConfig()
	cfg.NumChannels = 4
	cfg.InputRate = 2_000_000
	cfg.CenterHz = 868.3e6
	cfg.BlockSize = 4096

	return cfg
}

func TestWidebandInitRejectsBadConfig(t *testing.T) {
	var cfg = test_config()
	cfg.NumChannels = 5

	var w wideband_t
	assert.ErrorIs(t, wideband_init(&w, &cfg, nil), ErrInvalidArgument)
}

func TestWidebandProcessBeforeInit(t *testing.T) {
	var w wideband_t

	assert.ErrorIs(t, w.wideband_process(make([]float32, 64)), ErrNotInitialized)
}

func TestWidebandSuppressesCrossChannelDuplicates(t *testing.T) {
	// Two channels decode the same payload from one boundary signal;
	// exactly one copy reaches the sink.
	var cfg = test_config()

	var payload = []event_field_t{string_field("model", "X"), int_field("id", 42)}

	var w wideband_t
	require.NoError(t, wideband_init(&w, &cfg, func(channel int, _ float32, _ int) decoder_i {
		if channel == 0 || channel == 1 {
			return &one_shot_decoder_t{fields: payload}
		}

		return &one_shot_decoder_t{fields: []event_field_t{int_field("channel_private", int64(channel))}}
	}))
	defer w.free()

	var fake_now = time.Unix(5000, 0)
	w.now = func() time.Time { return fake_now }

	var sink capture_sink_t
	w.add_sink(&sink)

	require.NoError(t, w.wideband_process(make([]float32, 2*cfg.BlockSize)))

	var with_id = 0
	for _, ev := range sink.events {
		if _, ok := ev.field("id"); ok {
			with_id++
			assert.Equal(t, 0, ev.channel, "the first decode wins")
			assert.Equal(t, w.pfb.channel_center_hz(0), ev.channel_freq_hz)
			assert.Equal(t, fake_now, ev.received_at)
		}
	}

	assert.Equal(t, 1, with_id, "one copy of the duplicate pair")

	var _, forwarded, dropped = w.stats()
	assert.Equal(t, uint64(3), forwarded) // ch0 payload + two channel_private events
	assert.Equal(t, uint64(1), dropped)
}

func TestWidebandTagsEventsWithChannelFrequency(t *testing.T) {
	var cfg = test_config()

	var w wideband_t
	require.NoError(t, wideband_init(&w, &cfg, func(channel int, _ float32, _ int) decoder_i {
		return &one_shot_decoder_t{fields: []event_field_t{int_field("ch", int64(channel))}}
	}))
	defer w.free()

	var sink capture_sink_t
	w.add_sink(&sink)

	require.NoError(t, w.wideband_process(make([]float32, 2*cfg.BlockSize)))

	require.Len(t, sink.events, cfg.NumChannels)

	for _, ev := range sink.events {
		var v, ok = ev.field("ch")
		require.True(t, ok)
		assert.Equal(t, w.pfb.channel_center_hz(int(v.int_val)), ev.channel_freq_hz)
	}
}

func TestWidebandResamplesWhenTargetRateDiffers(t *testing.T) {
	// Channel rate is 1 MHz here; ask for 800 kHz and count what the
	// decoder actually receives.
	var cfg = test_config()
	cfg.TargetRate = 800_000

	var got_samples = make([]int, cfg.NumChannels)

	var w wideband_t
	require.NoError(t, wideband_init(&w, &cfg, func(channel int, _ float32, rate int) decoder_i {
		assert.Equal(t, 800_000, rate)

		return counting_decoder_t{count: &got_samples[channel]}
	}))
	defer w.free()

	require.NoError(t, w.wideband_process(make([]float32, 2*cfg.BlockSize)))

	// 4096 wideband samples -> 2048 per channel -> 4/5 of that.
	for k, n := range got_samples {
		assert.InDelta(t, 2048*4/5, n, 1, "channel %d", k)
	}
}

type counting_decoder_t struct {
	count *int
}

func (d counting_decoder_t) process(iq []float32) []decode_event_t {
	*d.count += len(iq) / 2

	return nil
}

func TestWidebandChannelLevelsFollowSignal(t *testing.T) {
	var cfg = test_config()

	var w wideband_t
	require.NoError(t, wideband_init(&w, &cfg, nil))
	defer w.free()

	// Tone on channel 1's center (+500 kHz at fs=2 MHz, M=4).
	var input = gen_tone_iq(500_000, float64(cfg.InputRate), 1.0, cfg.BlockSize)

	for i := 0; i < 8; i++ {
		require.NoError(t, w.wideband_process(input))
	}

	var hot, _ = w.channel_levels(1)
	var cold, _ = w.channel_levels(3)

	assert.Greater(t, hot, cold+20, "tone channel should sit well above an idle one")
}

func TestCarrierDecoderReportsBurst(t *testing.T) {
	var dec = new_carrier_decoder(500_000)

	var quiet = gen_tone_iq(1000, 500_000, 0.001, 256)
	var loud = gen_tone_iq(1000, 500_000, 1.0, 256)

	// Prime the noise floor.
	for i := 0; i < 4; i++ {
		assert.Empty(t, dec.process(quiet))
	}

	// Carrier up.
	for i := 0; i < 10; i++ {
		assert.Empty(t, dec.process(loud))
	}

	// Carrier down; the squelch level decays until the burst closes.
	var events []decode_event_t
	for i := 0; i < 5000 && len(events) == 0; i++ {
		events = dec.process(quiet)
	}

	require.Len(t, events, 1)

	var model, ok = events[0].field("model")
	require.True(t, ok)
	assert.Equal(t, "Carrier", model.string_val)

	var rssi, ok2 = events[0].field("rssi_db")
	require.True(t, ok2)
	assert.Greater(t, rssi.double_val, -10.0)
}
