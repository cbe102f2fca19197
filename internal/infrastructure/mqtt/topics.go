package mqtt

import "fmt"

// Topic prefixes for the pet door's MQTT surface.
//
// Per-door topics use the scheme petdoor/{door}/{category}; the door
// segment is the device name from config, so several simulated doors
// can share one broker.
const (
	// TopicPrefix is the base for all pet door topics.
	TopicPrefix = "petdoor"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "petdoor/system"
)

// Topics provides builders for pet door MQTT topics. Using these
// helpers keeps topic naming consistent between the publisher and any
// external subscribers.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.DoorStatus("front-door")
//	// Returns: "petdoor/front-door/status"
type Topics struct{}

// DoorStatus returns the retained door state topic.
//
// Example: petdoor/front-door/status
func (Topics) DoorStatus(door string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefix, door)
}

// SensorEvent returns the sensor detection event topic.
//
// Example: petdoor/front-door/sensor
func (Topics) SensorEvent(door string) string {
	return fmt.Sprintf("%s/%s/sensor", TopicPrefix, door)
}

// Battery returns the retained battery state topic.
//
// Example: petdoor/front-door/battery
func (Topics) Battery(door string) string {
	return fmt.Sprintf("%s/%s/battery", TopicPrefix, door)
}

// LowBattery returns the low battery alert topic.
//
// Example: petdoor/front-door/alert/low_battery
func (Topics) LowBattery(door string) string {
	return fmt.Sprintf("%s/%s/alert/low_battery", TopicPrefix, door)
}

// Command returns the inbound remote command topic.
//
// Example: petdoor/front-door/command
func (Topics) Command(door string) string {
	return fmt.Sprintf("%s/%s/command", TopicPrefix, door)
}

// SystemStatus returns the online/offline status topic, also used as
// the connection's Last Will target.
//
// Example: petdoor/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDoorStatuses returns a pattern matching every door's state topic.
//
// Pattern: petdoor/+/status
func (Topics) AllDoorStatuses() string {
	return fmt.Sprintf("%s/+/status", TopicPrefix)
}

// AllCommands returns a pattern matching every door's command topic.
//
// Pattern: petdoor/+/command
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/+/command", TopicPrefix)
}
