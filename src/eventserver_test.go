package malamute

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventServerStreamsJSONLines(t *testing.T) {
	var server event_server_t
	require.NoError(t, event_server_init(&server, 0, "test"))
	defer server.close()

	var conn, dialErr = net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(server.port()))
	require.NoError(t, dialErr)
	defer conn.Close() //nolint:errcheck

	// Give the accept loop a moment to register the client.
	require.Eventually(t, func() bool {
		server.mu.Lock()
		defer server.mu.Unlock()

		return len(server.clients) == 1
	}, time.Second, 5*time.Millisecond)

	var ev = decode_event_t{
		fields:          []event_field_t{string_field("model", "X"), int_field("id", 42)},
		channel:         1,
		channel_freq_hz: 868.6125e6,
		received_at:     time.Now(),
	}
	server.deliver(&ev)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var line, readErr = bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, readErr)

	assert.True(t, strings.HasPrefix(line, "{"), "JSON object per line")
	assert.Contains(t, line, `"model":"X"`)
	assert.Contains(t, line, `"id":42`)
	assert.Contains(t, line, `"channel":1`)
}

func TestEventServerSurvivesClientDisconnect(t *testing.T) {
	var server event_server_t
	require.NoError(t, event_server_init(&server, 0, "test"))
	defer server.close()

	var conn, dialErr = net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(server.port()))
	require.NoError(t, dialErr)
	conn.Close() //nolint:errcheck,gosec

	// Delivering after the client went away must not explode or block.
	var ev = decode_event_t{fields: []event_field_t{int_field("id", 1)}, received_at: time.Now()}
	for i := 0; i < 200; i++ {
		server.deliver(&ev)
	}
}

func TestEventServerCloseIsIdempotent(t *testing.T) {
	var server event_server_t
	require.NoError(t, event_server_init(&server, 0, "test"))

	server.close()
	server.close()
}

func TestEventServerDropsSlowClient(t *testing.T) {
	var server event_server_t
	require.NoError(t, event_server_init(&server, 0, "test"))
	defer server.close()

	var conn, dialErr = net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(server.port()))
	require.NoError(t, dialErr)
	defer conn.Close() //nolint:errcheck

	require.Eventually(t, func() bool {
		server.mu.Lock()
		defer server.mu.Unlock()

		return len(server.clients) == 1
	}, time.Second, 5*time.Millisecond)

	// A client that never reads eventually overflows its queue and
	// the kernel buffers; the server must shed it rather than stall.
	var ev = decode_event_t{
		fields:      []event_field_t{string_field("padding", strings.Repeat("x", 4096))},
		received_at: time.Now(),
	}

	var deadline = time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		server.deliver(&ev)

		server.mu.Lock()
		var remaining = len(server.clients)
		server.mu.Unlock()

		if remaining == 0 {
			return // shed as expected
		}
	}

	t.Fatal("slow client was never dropped")
}
