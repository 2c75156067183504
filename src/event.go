package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Decode events and their dedupe fingerprints.
 *
 * Description:	A decoder hands back an ordered list of key/value
 *		pairs.  The core never interprets them; it only tags
 *		the event with its channel, fingerprints it for the
 *		duplicate check, and renders it for the sinks.
 *
 *		The fingerprint is FNV-1a over the pairs in order.
 *		Numeric values are hashed as little-endian byte images
 *		regardless of host byte order, so the same event gives
 *		the same fingerprint on every machine.  Arrays are
 *		summarized as (count, element type); their contents
 *		are almost always derived from fields that are already
 *		in the hash.
 *
 *----------------------------------------------------------------*/

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"time"
)

type field_kind_t byte

const (
	FIELD_INT field_kind_t = iota + 1
	FIELD_DOUBLE
	FIELD_STRING
	FIELD_ARRAY
)

type field_value_t struct {
	kind field_kind_t

	int_val    int64
	double_val float64
	string_val string

	/* For FIELD_ARRAY. */
	elem_kind  field_kind_t
	elem_count int
}

type event_field_t struct {
	key   string
	value field_value_t
}

type decode_event_t struct {
	fields []event_field_t

	channel         int
	channel_freq_hz float32
	received_at     time.Time
}

func int_field(key string, v int64) event_field_t {
	return event_field_t{key: key, value: field_value_t{kind: FIELD_INT, int_val: v}}
}

func double_field(key string, v float64) event_field_t {
	return event_field_t{key: key, value: field_value_t{kind: FIELD_DOUBLE, double_val: v}}
}

func string_field(key string, v string) event_field_t {
	return event_field_t{key: key, value: field_value_t{kind: FIELD_STRING, string_val: v}}
}

func array_field(key string, elem field_kind_t, count int) event_field_t {
	return event_field_t{key: key, value: field_value_t{kind: FIELD_ARRAY, elem_kind: elem, elem_count: count}}
}

/*------------------------------------------------------------------
 *
 * Name:        fingerprint
 *
 * Purpose:     32-bit FNV-1a hash of the ordered key/value pairs.
 *
 * Description:	Two decodes of the same transmission, possibly from
 *		two overlapping channels, must fingerprint the same;
 *		two different transmissions almost never should.
 *		Channel tag and receive time stay out of the hash for
 *		exactly that reason.
 *
 *----------------------------------------------------------------*/

func (e *decode_event_t) fingerprint() uint32 {

	var h = fnv.New32a()
	var scratch [8]byte

	for _, f := range e.fields {
		h.Write([]byte(f.key)) //nolint:errcheck // hash.Hash never fails

		switch f.value.kind {
		case FIELD_INT:
			binary.LittleEndian.PutUint64(scratch[:], uint64(f.value.int_val))
			h.Write(scratch[:]) //nolint:errcheck
		case FIELD_DOUBLE:
			binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(f.value.double_val))
			h.Write(scratch[:]) //nolint:errcheck
		case FIELD_STRING:
			h.Write([]byte(f.value.string_val)) //nolint:errcheck
		case FIELD_ARRAY:
			binary.LittleEndian.PutUint64(scratch[:], uint64(f.value.elem_count))
			h.Write(scratch[:])                   //nolint:errcheck
			h.Write([]byte{byte(f.value.elem_kind)}) //nolint:errcheck
		default:
			h.Write([]byte{byte(f.value.kind)}) //nolint:errcheck
		}
	}

	return h.Sum32()
}

/*------------------------------------------------------------------
 *
 * Name:        to_json
 *
 * Purpose:     Render the event as one line of JSON for the sinks.
 *
 * Description:	Hand-rolled rather than encoding/json because field
 *		order matters to downstream consumers and a map would
 *		shuffle it.
 *
 *----------------------------------------------------------------*/

func (e *decode_event_t) to_json() string {

	var b strings.Builder

	b.WriteByte('{')
	fmt.Fprintf(&b, `"time":%q,"channel":%d,"freq_hz":%s`,
		e.received_at.UTC().Format(time.RFC3339Nano), e.channel,
		strconv.FormatFloat(float64(e.channel_freq_hz), 'f', -1, 32))

	for _, f := range e.fields {
		b.WriteByte(',')
		b.WriteString(strconv.Quote(f.key))
		b.WriteByte(':')

		switch f.value.kind {
		case FIELD_INT:
			b.WriteString(strconv.FormatInt(f.value.int_val, 10))
		case FIELD_DOUBLE:
			b.WriteString(strconv.FormatFloat(f.value.double_val, 'g', -1, 64))
		case FIELD_STRING:
			b.WriteString(strconv.Quote(f.value.string_val))
		case FIELD_ARRAY:
			fmt.Fprintf(&b, `{"count":%d}`, f.value.elem_count)
		default:
			b.WriteString("null")
		}
	}

	b.WriteByte('}')

	return b.String()
}

/* First value for a key, for sinks and tests that pick fields out. */

func (e *decode_event_t) field(key string) (field_value_t, bool) {

	for _, f := range e.fields {
		if f.key == key {
			return f.value, true
		}
	}

	return field_value_t{}, false
}
