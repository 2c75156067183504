package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Serve forwarded decode events to network clients.
 *
 * Description:	One JSON object per line over plain TCP, the same
 *		surface most home-automation consumers already speak.
 *		Any number of clients may connect; each gets every
 *		event from the moment it connects.
 *
 *		The acquisition path must never block on a socket, so
 *		delivery goes through a modest per-client buffer and a
 *		writer goroutine.  A client that can't keep up loses
 *		its connection, not our samples.
 *
 *		The service is announced over DNS-SD with the pure-Go
 *		github.com/brutella/dnssd package, so monitoring tools
 *		on the local network can find the receiver without
 *		anyone typing an IP address.
 *
 *----------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

const DNS_SD_SERVICE = "_malamute-events._tcp"

const client_queue_depth = 64

type event_server_t struct {
	listener net.Listener
	logger   *log.Logger

	mu      sync.Mutex
	clients map[net.Conn]chan string
	closed  bool

	cancel_announce context.CancelFunc
}

/*------------------------------------------------------------------
 *
 * Name:        event_server_init
 *
 * Purpose:     Listen for event stream clients and announce the
 *		service.
 *
 * Inputs:   	port		- TCP port to listen on.
 *		service_name	- DNS-SD instance name; empty for the
 *				  host name.
 *
 *----------------------------------------------------------------*/

func event_server_init(e *event_server_t, port int, service_name string) error {

	var listener, listenErr = net.Listen("tcp", fmt.Sprintf(":%d", port))
	if listenErr != nil {
		return fmt.Errorf("event server: %w", listenErr)
	}

	*e = event_server_t{
		listener: listener,
		logger:   log.WithPrefix("events"),
		clients:  make(map[net.Conn]chan string),
	}

	go e.accept_loop()

	e.announce(port, service_name)

	e.logger.Info("serving decode events", "port", port)

	return nil
}

func (e *event_server_t) announce(port int, name string) {

	if name == "" {
		name = "malamute"
	}

	var cfg = dnssd.Config{ //nolint:exhaustruct
		Name: name,
		Type: DNS_SD_SERVICE,
		Port: port,
	}

	var sv, svErr = dnssd.NewService(cfg)
	if svErr != nil {
		e.logger.Error("DNS-SD: failed to create service", "err", svErr)

		return
	}

	var rp, rpErr = dnssd.NewResponder()
	if rpErr != nil {
		e.logger.Error("DNS-SD: failed to create responder", "err", rpErr)

		return
	}

	var _, addErr = rp.Add(sv)
	if addErr != nil {
		e.logger.Error("DNS-SD: failed to add service", "err", addErr)

		return
	}

	var ctx, cancel = context.WithCancel(context.Background())
	e.cancel_announce = cancel

	e.logger.Info("DNS-SD: announcing", "name", name, "type", DNS_SD_SERVICE, "port", port)

	go func() {
		var respondErr = rp.Respond(ctx)
		if respondErr != nil && ctx.Err() == nil {
			e.logger.Error("DNS-SD: responder error", "err", respondErr)
		}
	}()
}

func (e *event_server_t) accept_loop() {

	for {
		var conn, err = e.listener.Accept()
		if err != nil {
			return /* listener closed */
		}

		var queue = make(chan string, client_queue_depth)

		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			conn.Close() //nolint:errcheck,gosec

			return
		}
		e.clients[conn] = queue
		e.mu.Unlock()

		e.logger.Info("client connected", "remote", conn.RemoteAddr())

		go e.writer(conn, queue)
	}
}

func (e *event_server_t) writer(conn net.Conn, queue chan string) {

	for line := range queue {
		if _, err := fmt.Fprintln(conn, line); err != nil {
			break
		}
	}

	e.drop(conn)
}

func (e *event_server_t) drop(conn net.Conn) {

	e.mu.Lock()
	if q, ok := e.clients[conn]; ok {
		delete(e.clients, conn)
		close(q)
	}
	e.mu.Unlock()

	conn.Close() //nolint:errcheck,gosec
}

/* Sink interface.  Never blocks: a full queue costs that client its
   connection instead of stalling acquisition. */

func (e *event_server_t) deliver(ev *decode_event_t) {

	var line = ev.to_json()

	e.mu.Lock()
	var slow []net.Conn
	for conn, queue := range e.clients {
		select {
		case queue <- line:
		default:
			slow = append(slow, conn)
		}
	}
	e.mu.Unlock()

	for _, conn := range slow {
		e.logger.Warn("dropping slow client", "remote", conn.RemoteAddr())
		e.drop(conn)
	}
}

func (e *event_server_t) close() {

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()

		return
	}
	e.closed = true
	var conns []net.Conn
	for conn := range e.clients {
		conns = append(conns, conn)
	}
	e.mu.Unlock()

	if e.cancel_announce != nil {
		e.cancel_announce()
	}

	e.listener.Close() //nolint:errcheck,gosec

	for _, conn := range conns {
		e.drop(conn)
	}
}

func (e *event_server_t) port() int {
	return e.listener.Addr().(*net.TCPAddr).Port //nolint:forcetypeassert
}
