package telemetry

// MQTT payload shapes. Unlike the phone protocol these are plain JSON
// booleans and numbers; the string-bool quirk stays on the TCP wire.

type statusPayload struct {
	Door      string `json:"door"`
	Status    string `json:"status"`
	Position  int    `json:"position"`
	Timestamp string `json:"timestamp"`
}

type sensorPayload struct {
	Door      string `json:"door"`
	Sensor    string `json:"sensor"`
	Active    bool   `json:"active"`
	Timestamp string `json:"timestamp"`
}

type batteryPayload struct {
	Door      string `json:"door"`
	Percent   int    `json:"percent"`
	Present   bool   `json:"present"`
	ACPresent bool   `json:"ac_present"`
	Timestamp string `json:"timestamp"`
}

type lowBatteryPayload struct {
	Door      string `json:"door"`
	Percent   int    `json:"percent"`
	Timestamp string `json:"timestamp"`
}

// commandPayload is the inbound remote command shape on
// petdoor/{door}/command.
type commandPayload struct {
	Action string `json:"action"`
	Sensor string `json:"sensor,omitempty"`
	Hold   bool   `json:"hold,omitempty"`
}
