package protocol

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/corporategoth/petdoor-core/internal/door"
)

// outboundQueueSize bounds the per-connection write queue. Responses
// and notifications share it, which is what preserves their relative
// order on the wire.
const outboundQueueSize = 64

// readBufferSize is the per-read chunk size.
const readBufferSize = 4096

// Logger is the minimal logging interface the server needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Server is the single-client TCP control server. Exactly one
// connection may be active; a second concurrent attempt is closed
// immediately with no response. That exclusivity is a hard invariant
// of the wire protocol, not a usage convention.
type Server struct {
	dev    Device
	logger Logger

	ln net.Listener

	mu     sync.Mutex
	active *conn

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewServer creates a server driving the given device. Call Listen
// then Serve.
func NewServer(dev Device, logger Logger) *Server {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Server{
		dev:    dev,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Listen binds the listening socket.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}
	s.ln = ln
	s.logger.Info("protocol server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until Close. It returns ErrServerClosed on
// clean shutdown.
func (s *Server) Serve() error {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return ErrServerClosed
			default:
				return fmt.Errorf("accepting connection: %w", err)
			}
		}

		s.mu.Lock()
		if s.active != nil {
			s.mu.Unlock()
			// Single-client exclusivity: reject with no response
			s.logger.Warn("rejecting second client", "remote", nc.RemoteAddr().String())
			nc.Close() //nolint:errcheck // rejection path
			continue
		}
		c := newConn(nc, s.dev, s.logger)
		s.active = c
		s.mu.Unlock()

		s.logger.Info("client connected",
			"remote", nc.RemoteAddr().String(), "conn_id", c.id)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.serve()
			s.mu.Lock()
			if s.active == c {
				s.active = nil
			}
			s.mu.Unlock()
			s.logger.Info("client disconnected", "conn_id", c.id)
		}()
	}
}

// Close stops accepting, drops the active connection, and waits for
// the connection goroutines to exit. Device timers are unaffected; the
// door keeps working with nobody connected.
func (s *Server) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	s.mu.Lock()
	if s.active != nil {
		s.active.close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

// conn is one client connection: a read loop that frames and handles
// requests, and a single writer goroutine draining the outbound queue.
// It is also the door.Listener that turns engine events into
// unsolicited notifications.
type conn struct {
	id     string
	nc     net.Conn
	dev    Device
	logger Logger

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// gates caches the notification settings so listener callbacks,
	// which run on the engine loop, never call back into the engine.
	gatesMu sync.RWMutex
	gates   door.NotificationSettings
}

func newConn(nc net.Conn, dev Device, logger Logger) *conn {
	return &conn{
		id:     uuid.NewString(),
		nc:     nc,
		dev:    dev,
		logger: logger,
		out:    make(chan []byte, outboundQueueSize),
		done:   make(chan struct{}),
	}
}

func (c *conn) serve() {
	defer c.close()

	c.refreshGates()
	c.dev.Subscribe(c)
	defer c.dev.Unsubscribe(c)

	go c.writeLoop()
	c.readLoop()
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.nc.Close() //nolint:errcheck // teardown path
	})
}

func (c *conn) readLoop() {
	buf := make([]byte, 0, readBufferSize)
	chunk := make([]byte, readBufferSize)
	for {
		n, err := c.nc.Read(chunk)
		if err != nil {
			// Connection gone; in-flight responses are discarded
			return
		}
		buf = append(buf, chunk[:n]...)

		for {
			frame, rest, ok := nextFrame(buf)
			if !ok {
				buf = rest
				break
			}
			buf = rest
			c.handleFrame(frame)
		}
	}
}

// writeLoop is the only goroutine that writes to the socket. Responses
// are enqueued before their side effects are posted to the engine, so
// a status notification for a transition can never be sent before the
// response to the command that caused it.
func (c *conn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.out:
			if _, err := c.nc.Write(append(payload, '\n')); err != nil {
				c.logger.Debug("write failed, dropping connection",
					"conn_id", c.id, "error", err)
				c.close()
				return
			}
		}
	}
}

// enqueue queues an outbound message. A full queue drops the message
// rather than blocking the caller, which may be the engine loop.
func (c *conn) enqueue(m message) {
	payload, err := json.Marshal(m)
	if err != nil {
		c.logger.Error("encoding outbound message failed", "error", err)
		return
	}
	select {
	case c.out <- payload:
	case <-c.done:
	default:
		c.logger.Warn("outbound queue full, dropping message", "conn_id", c.id)
	}
}

func (c *conn) handleFrame(frame []byte) {
	var req message
	if err := json.Unmarshal(frame, &req); err != nil {
		// Framing found a balanced object that still fails to parse;
		// not addressable, recover by skipping it
		c.logger.Warn("malformed message skipped", "conn_id", c.id, "error", err)
		return
	}

	// Keepalive: a PING is answered with a PONG echoing its token
	if token, ok := req[CmdPing]; ok {
		c.enqueue(message{
			fieldRespCmd: CmdPong,
			CmdPong:      token,
			fieldSuccess: successTrue,
			fieldDir:     dirDoorToPhone,
		})
		return
	}

	name, msgID := envelope(req)
	if name == "" {
		c.logger.Warn("message without cmd or config field skipped", "conn_id", c.id)
		return
	}

	h, ok := handlerTable[name]
	if !ok {
		c.logger.Info("unknown command", "conn_id", c.id, "command", name)
		c.enqueue(failureResponse(name, msgID, "Unknown command: "+name))
		return
	}

	data, after, err := h(c.dev, req)
	if err != nil {
		c.enqueue(failureResponse(name, msgID, err.Error()))
		return
	}

	c.enqueue(successResponse(name, msgID, data))

	// Door-motion side effects run after the response is queued
	if after != nil {
		after()
	}
	if name == CmdSetNotifications {
		c.refreshGates()
	}
}

// envelope extracts the command name (from either the cmd or config
// key) and the message id.
func envelope(req message) (name string, msgID int) {
	if v, ok := req[fieldCmd].(string); ok {
		name = v
	} else if v, ok := req[fieldConfig].(string); ok {
		name = v
	}
	if f, ok := req[fieldMsgID].(float64); ok {
		msgID = int(f)
	}
	return name, msgID
}

func successResponse(name string, msgID int, data message) message {
	resp := message{
		fieldRespCmd:   name,
		fieldRespMsgID: msgID,
		fieldDir:       dirDoorToPhone,
		fieldSuccess:   successTrue,
	}
	for k, v := range data {
		resp[k] = v
	}
	return resp
}

func failureResponse(name string, msgID int, reason string) message {
	return message{
		fieldRespCmd:   name,
		fieldRespMsgID: msgID,
		fieldDir:       dirDoorToPhone,
		fieldSuccess:   successFalse,
		fieldReason:    reason,
	}
}

func (c *conn) refreshGates() {
	gates, err := c.dev.Notifications()
	if err != nil {
		return
	}
	c.gatesMu.Lock()
	c.gates = gates
	c.gatesMu.Unlock()
}

func (c *conn) notificationGates() door.NotificationSettings {
	c.gatesMu.RLock()
	defer c.gatesMu.RUnlock()
	return c.gates
}

// =========================================================================
// door.Listener — unsolicited notifications
// =========================================================================

// DoorStatusChanged pushes a status notification on every transition.
func (c *conn) DoorStatusChanged(status door.Status) {
	c.enqueue(message{
		fieldRespCmd:    NotifyDoorStatus,
		fieldDoorStatus: status.State.String(),
		fieldSuccess:    successTrue,
		fieldDir:        dirDoorToPhone,
	})
}

// SensorEvent pushes a detection on/off notification, gated by the
// corresponding notification setting for that side and edge.
func (c *conn) SensorEvent(side door.Sensor, active bool) {
	gates := c.notificationGates()
	enabled := false
	switch {
	case side == door.SensorInside && active:
		enabled = gates.SensorOnIndoor
	case side == door.SensorInside && !active:
		enabled = gates.SensorOffIndoor
	case side == door.SensorOutside && active:
		enabled = gates.SensorOnOutdoor
	case side == door.SensorOutside && !active:
		enabled = gates.SensorOffOutdoor
	}
	if !enabled {
		return
	}
	c.enqueue(message{
		fieldRespCmd: NotifySensorEvent,
		fieldSensor:  side.String(),
		fieldActive:  boolStr(active),
		fieldSuccess: successTrue,
		fieldDir:     dirDoorToPhone,
	})
}

// BatteryChanged pushes the full battery status.
func (c *conn) BatteryChanged(b door.BatteryState) {
	m := batteryPayload(b)
	m[fieldRespCmd] = CmdGetBattery
	m[fieldSuccess] = successTrue
	m[fieldDir] = dirDoorToPhone
	c.enqueue(m)
}

// LowBattery pushes the threshold-crossing notification, gated by the
// low-battery notification setting.
func (c *conn) LowBattery(percent int) {
	if !c.notificationGates().LowBattery {
		return
	}
	c.enqueue(message{
		fieldRespCmd:        NotifyLowBattery,
		fieldBatteryPercent: percent,
		fieldSuccess:        successTrue,
		fieldDir:            dirDoorToPhone,
	})
}
