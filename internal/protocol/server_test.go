package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/corporategoth/petdoor-core/internal/door"
)

func testTiming() door.Timing {
	return door.Timing{
		Rise:                  40 * time.Millisecond,
		Slow:                  20 * time.Millisecond,
		CloseTop:              30 * time.Millisecond,
		CloseMid:              30 * time.Millisecond,
		Tick:                  5 * time.Millisecond,
		SensorRetriggerWindow: 50 * time.Millisecond,
	}
}

// testServer starts an engine plus server on a loopback port and
// returns a connected client.
func testServer(t *testing.T, modify func(*door.Options)) (*door.Engine, *testClient) {
	t.Helper()

	settings := door.DefaultSettings()
	settings.HoldTimeCS = 10
	opts := door.Options{Timing: testTiming(), Settings: settings}
	if modify != nil {
		modify(&opts)
	}
	engine := door.New(opts)
	engine.Start()
	t.Cleanup(engine.Stop)

	srv := NewServer(engine, nil)
	if err := srv.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	go srv.Serve() //nolint:errcheck // returns ErrServerClosed at teardown
	t.Cleanup(func() { srv.Close() })

	return engine, dialTestClient(t, srv.Addr().String())
}

type testClient struct {
	t  *testing.T
	nc net.Conn
	r  *bufio.Reader
}

func dialTestClient(t *testing.T, addr string) *testClient {
	t.Helper()
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dialing server: %v", err)
	}
	t.Cleanup(func() { nc.Close() })
	return &testClient{t: t, nc: nc, r: bufio.NewReader(nc)}
}

func (c *testClient) send(m map[string]any) {
	c.t.Helper()
	payload, err := json.Marshal(m)
	if err != nil {
		c.t.Fatalf("encoding request: %v", err)
	}
	if _, err := c.nc.Write(append(payload, '\n')); err != nil {
		c.t.Fatalf("writing request: %v", err)
	}
}

// readMessage reads the next newline-delimited JSON object.
func (c *testClient) readMessage() map[string]any {
	c.t.Helper()
	c.nc.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // test deadline
	line, err := c.r.ReadString('\n')
	if err != nil {
		c.t.Fatalf("reading message: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		c.t.Fatalf("decoding message %q: %v", line, err)
	}
	return m
}

// response reads messages until it finds the response for the named
// command, skipping unsolicited notifications.
func (c *testClient) response(cmd string) map[string]any {
	c.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m := c.readMessage()
		if m["CMD"] == cmd {
			if _, hasID := m["msgID"]; hasID || cmd == CmdPong {
				return m
			}
		}
	}
	c.t.Fatalf("no response for %s", cmd)
	return nil
}

// waitNotification reads messages until an unsolicited message with
// the given CMD arrives.
func (c *testClient) waitNotification(cmd string) map[string]any {
	c.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m := c.readMessage()
		if m["CMD"] == cmd {
			return m
		}
	}
	c.t.Fatalf("no %s notification", cmd)
	return nil
}

func TestPingPong(t *testing.T) {
	_, client := testServer(t, nil)

	client.send(map[string]any{"PING": "token123"})
	resp := client.response(CmdPong)

	if resp["PONG"] != "token123" {
		t.Errorf("PONG = %v, want token123", resp["PONG"])
	}
	if resp["success"] != "true" {
		t.Errorf("success = %v, want the string \"true\"", resp["success"])
	}
}

func TestGetDoorStatus(t *testing.T) {
	_, client := testServer(t, nil)

	client.send(map[string]any{"config": CmdGetDoorStatus, "msgId": 5, "dir": "p2d"})
	resp := client.response(CmdGetDoorStatus)

	if resp["door_status"] != "DOOR_CLOSED" {
		t.Errorf("door_status = %v, want DOOR_CLOSED", resp["door_status"])
	}
	if resp["msgID"] != float64(5) {
		t.Errorf("msgID = %v, want 5", resp["msgID"])
	}
	if resp["dir"] != "d2p" {
		t.Errorf("dir = %v, want d2p", resp["dir"])
	}
}

func TestUnknownCommandKeepsConnection(t *testing.T) {
	_, client := testServer(t, nil)

	client.send(map[string]any{"cmd": "FROBNICATE", "msgId": 1})
	resp := client.response("FROBNICATE")
	if resp["success"] != "false" {
		t.Errorf("success = %v, want \"false\"", resp["success"])
	}
	if resp["reason"] == nil {
		t.Error("failure response missing reason")
	}

	// Connection must stay usable
	client.send(map[string]any{"PING": "still-alive"})
	client.response(CmdPong)
}

func TestOpenResponsePrecedesStatusNotification(t *testing.T) {
	_, client := testServer(t, nil)

	client.send(map[string]any{"cmd": CmdOpen, "msgId": 1})

	first := client.readMessage()
	if first["CMD"] != CmdOpen || first["success"] != "true" {
		t.Fatalf("first message = %v, want the OPEN response", first)
	}

	notif := client.waitNotification(NotifyDoorStatus)
	if notif["door_status"] != "DOOR_RISING" {
		t.Errorf("first status notification = %v, want DOOR_RISING", notif["door_status"])
	}
}

func TestSecondConnectionRejected(t *testing.T) {
	_, client := testServer(t, nil)

	second, err := net.Dial("tcp", client.nc.RemoteAddr().String())
	if err != nil {
		t.Fatalf("dialing second connection: %v", err)
	}
	defer second.Close()

	second.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // test deadline
	buf := make([]byte, 1)
	if _, err := second.Read(buf); err == nil {
		t.Error("second connection received data, want immediate close")
	}

	// First connection unaffected
	client.send(map[string]any{"PING": "x"})
	client.response(CmdPong)
}

func TestOpenWithPowerOffSucceedsButInert(t *testing.T) {
	engine, client := testServer(t, func(o *door.Options) {
		o.Settings.PowerOn = false
	})

	client.send(map[string]any{"cmd": CmdOpen, "msgId": 1})
	resp := client.response(CmdOpen)
	if resp["success"] != "true" {
		t.Errorf("success = %v, want \"true\" (accepted but inert)", resp["success"])
	}

	time.Sleep(100 * time.Millisecond)
	st, err := engine.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.State != door.StateClosed {
		t.Errorf("door state = %s, want DOOR_CLOSED", st.State)
	}
}

func TestCmdLockoutRejectsExplicitOpen(t *testing.T) {
	_, client := testServer(t, func(o *door.Options) {
		o.Settings.CmdLockout = true
	})

	client.send(map[string]any{"cmd": CmdOpen, "msgId": 1})
	resp := client.response(CmdOpen)
	if resp["success"] != "false" {
		t.Fatalf("success = %v, want \"false\"", resp["success"])
	}
	if reason, _ := resp["reason"].(string); reason == "" {
		t.Error("failure response missing reason")
	}
}

func TestSettingCommandsMutateEngine(t *testing.T) {
	engine, client := testServer(t, nil)

	client.send(map[string]any{"config": CmdDisableInside, "msgId": 1})
	resp := client.response(CmdDisableInside)
	if resp["inside"] != "0" {
		t.Errorf("inside = %v, want \"0\"", resp["inside"])
	}

	enabled, err := engine.Flag(door.SettingInside)
	if err != nil {
		t.Fatalf("Flag() error = %v", err)
	}
	if enabled {
		t.Error("inside sensor still enabled after DISABLE_INSIDE")
	}
}

func TestHoldTimeRoundTripCentiseconds(t *testing.T) {
	_, client := testServer(t, nil)

	client.send(map[string]any{"config": CmdSetHoldTime, "holdTime": 2500, "msgId": 1})
	resp := client.response(CmdSetHoldTime)
	if resp["holdTime"] != float64(2500) {
		t.Errorf("SET_HOLD_TIME echo = %v, want 2500", resp["holdTime"])
	}

	client.send(map[string]any{"config": CmdGetSettings, "msgId": 2})
	resp = client.response(CmdGetSettings)
	settings := resp["settings"].(map[string]any)
	if settings["holdOpenTime"] != float64(2500) {
		t.Errorf("holdOpenTime = %v, want 2500", settings["holdOpenTime"])
	}
}

func TestTimezonePosixStringOverWire(t *testing.T) {
	_, client := testServer(t, nil)

	const posix = "EST5EDT,M3.2.0,M11.1.0"
	client.send(map[string]any{"config": CmdSetTimezone, "tz": posix, "msgId": 1})
	resp := client.response(CmdSetTimezone)
	if resp["success"] != "true" {
		t.Fatalf("SET_TIMEZONE with POSIX string failed: %v", resp["reason"])
	}

	client.send(map[string]any{"config": CmdGetTimezone, "msgId": 2})
	resp = client.response(CmdGetTimezone)
	if resp["tz"] != posix {
		t.Errorf("tz = %v, want it reported as-is", resp["tz"])
	}

	client.send(map[string]any{"config": CmdSetTimezone, "tz": "not-a-zone", "msgId": 3})
	resp = client.response(CmdSetTimezone)
	if resp["success"] != "false" {
		t.Error("SET_TIMEZONE with garbage should fail")
	}
}

func TestScheduleCrudOverWire(t *testing.T) {
	_, client := testServer(t, nil)

	client.send(map[string]any{
		"config": CmdSetSchedule,
		"schedule": map[string]any{
			"index":         0,
			"enabled":       "1",
			"daysOfWeek":    0x7F, // legacy bitmask accepted on input
			"inside":        true,
			"in_start_time": map[string]any{"hour": 6, "min": 0},
			"in_end_time":   map[string]any{"hour": 22, "min": 0},
		},
		"msgId": 1,
	})
	resp := client.response(CmdSetSchedule)
	if resp["success"] != "true" {
		t.Fatalf("SET_SCHEDULE failed: %v", resp["reason"])
	}

	client.send(map[string]any{"config": CmdGetSchedule, "index": 0, "msgId": 2})
	resp = client.response(CmdGetSchedule)
	sched := resp["schedule"].(map[string]any)
	if sched["enabled"] != "1" {
		t.Errorf("schedule enabled = %v, want \"1\"", sched["enabled"])
	}
	days := sched["daysOfWeek"].([]any)
	if len(days) != 7 {
		t.Errorf("daysOfWeek length = %d, want 7 (bitmask expanded)", len(days))
	}
	start := sched["in_start_time"].(map[string]any)
	if start["hour"] != float64(6) {
		t.Errorf("in_start_time.hour = %v, want 6", start["hour"])
	}

	client.send(map[string]any{"config": CmdDeleteSchedule, "index": 0, "msgId": 3})
	client.response(CmdDeleteSchedule)

	client.send(map[string]any{"config": CmdGetSchedule, "index": 0, "msgId": 4})
	resp = client.response(CmdGetSchedule)
	if resp["success"] != "false" {
		t.Error("GET_SCHEDULE after delete should fail")
	}
}

func TestSplitAndCoalescedMessages(t *testing.T) {
	_, client := testServer(t, nil)

	// Split across writes
	half := `{"PING":"spl`
	if _, err := client.nc.Write([]byte(half)); err != nil {
		t.Fatalf("writing first half: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := client.nc.Write([]byte(`it"}` + "\n")); err != nil {
		t.Fatalf("writing second half: %v", err)
	}
	resp := client.response(CmdPong)
	if resp["PONG"] != "split" {
		t.Errorf("PONG = %v, want split", resp["PONG"])
	}

	// Two messages in one write
	batch := `{"PING":"one"}` + "\n" + `{"PING":"two"}` + "\n"
	if _, err := client.nc.Write([]byte(batch)); err != nil {
		t.Fatalf("writing batch: %v", err)
	}
	first := client.response(CmdPong)
	second := client.response(CmdPong)
	if first["PONG"] != "one" || second["PONG"] != "two" {
		t.Errorf("batched PONGs = %v, %v", first["PONG"], second["PONG"])
	}
}

func TestMalformedLineRecovered(t *testing.T) {
	_, client := testServer(t, nil)

	if _, err := fmt.Fprintf(client.nc, "this is not json\n"); err != nil {
		t.Fatalf("writing garbage: %v", err)
	}
	client.send(map[string]any{"PING": "after-garbage"})
	resp := client.response(CmdPong)
	if resp["PONG"] != "after-garbage" {
		t.Errorf("PONG = %v, want after-garbage", resp["PONG"])
	}
}

func TestSafetyLockSensorNotificationStillEmitted(t *testing.T) {
	engine, client := testServer(t, func(o *door.Options) {
		o.Settings.OutsideSafetyLock = true
	})

	engine.TriggerSensor(door.SensorOutside)

	notif := client.waitNotification(NotifySensorEvent)
	if notif["sensor"] != "outside" || notif["active"] != "1" {
		t.Errorf("sensor notification = %v", notif)
	}

	st, err := engine.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.State != door.StateClosed {
		t.Errorf("door state = %s, want DOOR_CLOSED under safety lock", st.State)
	}
}
