package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/corporategoth/petdoor-core/internal/door"
)

// handleCommand feeds a remote MQTT command into the engine. Commands
// mirror the sensor/motion scenario actions: open, close, obstruct,
// trigger. The engine applies its usual policy, so a remote open obeys
// power state exactly like a phone client's OPEN.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	var cmd commandPayload
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("parsing remote command: %w", err)
	}

	switch cmd.Action {
	case "open":
		b.dev.RequestOpen(cmd.Hold)
	case "close":
		b.dev.RequestClose()
	case "obstruct":
		b.dev.Obstruct()
	case "trigger":
		side, err := door.ParseSensor(cmd.Sensor)
		if err != nil {
			return err
		}
		b.dev.TriggerSensor(side)
	default:
		return fmt.Errorf("unknown remote command %q", cmd.Action)
	}

	b.logger.Info("remote command applied", "door", b.door, "topic", topic, "action", cmd.Action)
	return nil
}
