package malamute

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sensor_event(freq_hz float32) decode_event_t {
	return decode_event_t{
		fields: []event_field_t{
			string_field("model", "X"),
			int_field("id", 42),
		},
		channel_freq_hz: freq_hz,
	}
}

func TestDedupeCrossChannelDuplicate(t *testing.T) {
	// E2E: same payload 100 ms later from a channel 200 kHz away is
	// the boundary-overlap duplicate and gets dropped; after the
	// window expires the same pairing is a new event.
	var d dedupe_t
	dedupe_init(&d, DEDUPE_WINDOW)

	var t0 = time.Unix(1000, 0)

	var first = sensor_event(868.30e6)
	assert.False(t, d.dedupe_check(&first, t0), "first decode forwarded")

	var second = sensor_event(868.50e6)
	assert.True(t, d.dedupe_check(&second, t0.Add(100*time.Millisecond)), "cross-channel duplicate dropped")

	var third = sensor_event(868.50e6)
	assert.False(t, d.dedupe_check(&third, t0.Add(600*time.Millisecond)), "window expired, forwarded")
}

func TestDedupeSameChannelRepeatAllowed(t *testing.T) {
	// ISM sensors repeat; two decodes from the same channel are both
	// real receptions.
	var d dedupe_t
	dedupe_init(&d, DEDUPE_WINDOW)

	var t0 = time.Unix(1000, 0)

	var first = sensor_event(868.30e6)
	var second = sensor_event(868.30e6)

	assert.False(t, d.dedupe_check(&first, t0))
	assert.False(t, d.dedupe_check(&second, t0.Add(200*time.Millisecond)))
}

func TestDedupeSameChannelToleranceIsOneKilohertz(t *testing.T) {
	var d dedupe_t
	dedupe_init(&d, DEDUPE_WINDOW)

	var t0 = time.Unix(1000, 0)

	var first = sensor_event(868_300_000)
	assert.False(t, d.dedupe_check(&first, t0))

	// 999 Hz away: same channel as far as dedupe is concerned.
	var near = sensor_event(868_300_999)
	assert.False(t, d.dedupe_check(&near, t0.Add(50*time.Millisecond)))

	// A couple of kHz away: different channel, duplicate.
	var far = sensor_event(868_302_000)
	assert.True(t, d.dedupe_check(&far, t0.Add(100*time.Millisecond)))
}

func TestDedupeDifferentPayloadsNeverCollide(t *testing.T) {
	var d dedupe_t
	dedupe_init(&d, DEDUPE_WINDOW)

	var t0 = time.Unix(1000, 0)

	var a = sensor_event(868.30e6)
	assert.False(t, d.dedupe_check(&a, t0))

	var b = decode_event_t{
		fields:          []event_field_t{string_field("model", "X"), int_field("id", 43)},
		channel_freq_hz: 868.50e6,
	}
	assert.False(t, d.dedupe_check(&b, t0.Add(10*time.Millisecond)))
}

func TestDedupeRingOverwritesOldest(t *testing.T) {
	// Fill the ring past capacity; the very first entry is gone and
	// its cross-channel twin sails through.
	var d dedupe_t
	dedupe_init(&d, time.Hour) // window never expires in this test

	var t0 = time.Unix(1000, 0)

	var first = sensor_event(868.30e6)
	assert.False(t, d.dedupe_check(&first, t0))

	for i := 0; i < DEDUPE_HISTORY_MAX; i++ {
		var filler = decode_event_t{
			fields:          []event_field_t{int_field("id", int64(100+i))},
			channel_freq_hz: 868.30e6,
		}
		assert.False(t, d.dedupe_check(&filler, t0.Add(time.Duration(i)*time.Millisecond)))
	}

	var twin = sensor_event(868.50e6)
	assert.False(t, d.dedupe_check(&twin, t0.Add(time.Second)), "evicted entry can't suppress")
}

func TestDedupeSameChannelRecordRefreshesSuppression(t *testing.T) {
	// A same-channel repeat is forwarded and re-recorded, so a
	// cross-channel copy shortly after the repeat is still caught.
	var d dedupe_t
	dedupe_init(&d, DEDUPE_WINDOW)

	var t0 = time.Unix(1000, 0)

	var first = sensor_event(868.30e6)
	assert.False(t, d.dedupe_check(&first, t0))

	var repeat = sensor_event(868.30e6)
	assert.False(t, d.dedupe_check(&repeat, t0.Add(400*time.Millisecond)))

	// 700 ms after the original, but only 300 ms after the repeat.
	var cross = sensor_event(868.50e6)
	assert.True(t, d.dedupe_check(&cross, t0.Add(700*time.Millisecond)))
}

func TestDedupeDefaultWindow(t *testing.T) {
	var d dedupe_t
	dedupe_init(&d, 0)

	assert.Equal(t, DEDUPE_WINDOW, d.window)
}
