package command

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNewSubscribeValidation(t *testing.T) {
	tests := []struct {
		name        string
		topic       string
		expectError bool
	}{
		{name: "valid topic", topic: "avi/home/sensors", expectError: false},
		{name: "max length topic", topic: strings.Repeat("t", MaxTopicSize), expectError: false},
		{name: "oversized topic", topic: strings.Repeat("t", MaxTopicSize+1), expectError: true},
		{name: "empty topic", topic: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := NewSubscribe(tt.topic)

			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error for topic %q but got none", tt.topic)
				}
				if !errors.Is(err, ErrInvalidParameter) {
					t.Errorf("Expected ErrInvalidParameter, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if cmd.Kind != KindSubscribe {
				t.Errorf("Expected kind %v, got %v", KindSubscribe, cmd.Kind)
			}
			if string(cmd.Topic()) != tt.topic {
				t.Errorf("Expected topic %q, got %q", tt.topic, cmd.Topic())
			}
		})
	}
}

func TestNewPublishValidation(t *testing.T) {
	tests := []struct {
		name        string
		topic       string
		data        []byte
		expectError bool
	}{
		{name: "valid publish", topic: "sensors", data: []byte("42"), expectError: false},
		{name: "empty data allowed", topic: "sensors", data: nil, expectError: false},
		{name: "max data", topic: "sensors", data: bytes.Repeat([]byte{0xAB}, MaxPublishSize), expectError: false},
		{name: "oversized data", topic: "sensors", data: bytes.Repeat([]byte{0xAB}, MaxPublishSize+1), expectError: true},
		{name: "oversized topic", topic: strings.Repeat("t", MaxTopicSize+1), data: []byte("42"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := NewPublish(tt.topic, tt.data)

			if tt.expectError {
				if !errors.Is(err, ErrInvalidParameter) {
					t.Errorf("Expected ErrInvalidParameter, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if !bytes.Equal(cmd.Data(), tt.data) {
				t.Errorf("Expected data %v, got %v", tt.data, cmd.Data())
			}
		})
	}
}

func TestNewStreamStartValidation(t *testing.T) {
	tests := []struct {
		name        string
		peer        string
		reason      string
		expectError bool
	}{
		{name: "valid", peer: "gateway-1", reason: "voice", expectError: false},
		{name: "empty reason allowed", peer: "gateway-1", reason: "", expectError: false},
		{name: "empty peer", peer: "", reason: "voice", expectError: true},
		{name: "oversized peer", peer: strings.Repeat("p", MaxPeerSize+1), reason: "voice", expectError: true},
		{name: "oversized reason", peer: "gateway-1", reason: strings.Repeat("r", MaxReasonSize+1), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := NewStreamStart(7, tt.peer, tt.reason)

			if tt.expectError {
				if !errors.Is(err, ErrInvalidParameter) {
					t.Errorf("Expected ErrInvalidParameter, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if cmd.StreamID != 7 {
				t.Errorf("Expected stream id 7, got %d", cmd.StreamID)
			}
			if string(cmd.TargetPeer()) != tt.peer {
				t.Errorf("Expected peer %q, got %q", tt.peer, cmd.TargetPeer())
			}
		})
	}
}

func TestNewStreamDataValidation(t *testing.T) {
	if _, err := NewStreamData(1, nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for empty pcm, got %v", err)
	}

	if _, err := NewStreamData(1, bytes.Repeat([]byte{1}, MaxPCMSize+1)); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for oversized pcm, got %v", err)
	}

	pcm := bytes.Repeat([]byte{0x7F}, MaxPCMSize)
	cmd, err := NewStreamData(3, pcm)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if !bytes.Equal(cmd.Data(), pcm) {
		t.Error("PCM payload was not copied intact")
	}
}

func TestSensorNameValidation(t *testing.T) {
	tests := []struct {
		name        string
		sensor      string
		expectError bool
	}{
		{name: "valid name", sensor: "kitchen_temp", expectError: false},
		{name: "31 byte name", sensor: strings.Repeat("n", 31), expectError: false},
		{name: "32 byte name", sensor: strings.Repeat("n", MaxSensorNameSize), expectError: false},
		{name: "33 byte name", sensor: strings.Repeat("n", MaxSensorNameSize+1), expectError: true},
		{name: "empty name", sensor: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, floatErr := NewSensorFloat(tt.sensor, 21.5)
			_, intErr := NewSensorInt(tt.sensor, 42)

			if tt.expectError {
				if !errors.Is(floatErr, ErrInvalidParameter) {
					t.Errorf("Expected ErrInvalidParameter from NewSensorFloat, got %v", floatErr)
				}
				if !errors.Is(intErr, ErrInvalidParameter) {
					t.Errorf("Expected ErrInvalidParameter from NewSensorInt, got %v", intErr)
				}
				return
			}

			if floatErr != nil {
				t.Errorf("Expected no error from NewSensorFloat but got: %v", floatErr)
			}
			if intErr != nil {
				t.Errorf("Expected no error from NewSensorInt but got: %v", intErr)
			}
		})
	}
}

func TestPayloadsAreCopied(t *testing.T) {
	data := []byte("original")
	cmd, err := NewPublish("topic", data)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	data[0] = 'X'
	if string(cmd.Data()) != "original" {
		t.Errorf("Command payload aliases the caller's buffer: got %q", cmd.Data())
	}
}
