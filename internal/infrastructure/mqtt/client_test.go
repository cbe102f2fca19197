package mqtt

import (
	"errors"
	"testing"
)

// Connection-level behaviour needs a live broker; these tests cover
// the validation and bookkeeping paths that do not.

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestPublishValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	tests := []struct {
		name    string
		topic   string
		qos     byte
		wantErr error
	}{
		{name: "empty topic", topic: "", qos: 1, wantErr: ErrInvalidTopic},
		{name: "invalid qos", topic: "petdoor/front-door/status", qos: 3, wantErr: ErrInvalidQoS},
		{name: "not connected", topic: "petdoor/front-door/status", qos: 1, wantErr: ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, []byte("{}"), tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishRejectsOversizePayload(t *testing.T) {
	client := &Client{}
	payload := make([]byte, maxPayloadSize+1)
	err := client.Publish("petdoor/front-door/status", payload, 1, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	if err := client.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Subscribe("petdoor/#", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("qos 3 error = %v, want ErrInvalidQoS", err)
	}
	if err := client.Subscribe("petdoor/#", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v, want ErrSubscribeFailed", err)
	}
	if err := client.Subscribe("petdoor/#", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected error = %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionTracking(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
	if client.HasSubscription("petdoor/front-door/command") {
		t.Error("HasSubscription() = true for untracked topic")
	}
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		got  string
		want string
	}{
		{topics.DoorStatus("front-door"), "petdoor/front-door/status"},
		{topics.SensorEvent("front-door"), "petdoor/front-door/sensor"},
		{topics.Battery("front-door"), "petdoor/front-door/battery"},
		{topics.LowBattery("front-door"), "petdoor/front-door/alert/low_battery"},
		{topics.Command("front-door"), "petdoor/front-door/command"},
		{topics.SystemStatus(), "petdoor/system/status"},
		{topics.AllDoorStatuses(), "petdoor/+/status"},
		{topics.AllCommands(), "petdoor/+/command"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %q, want %q", tt.got, tt.want)
		}
	}
}
