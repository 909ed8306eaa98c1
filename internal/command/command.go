package command

import (
	"errors"
	"fmt"
)

// Size ceilings for command payloads. These are enforced when a command is
// built, never at encode time, so an oversized field can never reach the queue.
const (
	MaxTopicSize      = 64
	MaxPublishSize    = 256
	MaxPeerSize       = 64
	MaxReasonSize     = 64
	MaxPCMSize        = 512
	MaxSensorNameSize = 32
)

// ErrInvalidParameter is the root of all command validation failures.
var ErrInvalidParameter = errors.New("invalid parameter")

// Kind identifies the command variant.
type Kind uint8

const (
	KindNone Kind = iota
	KindConnect
	KindSubscribe
	KindUnsubscribe
	KindPublish
	KindStreamStart
	KindStreamData
	KindStreamClose
	KindButtonPress
	KindSensorFloat
	KindSensorInt
)

// Command is a queued, not-yet-executed request to perform a network-visible
// action. It is a plain value with fixed-size payload storage so that building
// and queueing one never allocates; the queue copies commands by value.
type Command struct {
	Kind Kind

	DeviceID  uint64
	StreamID  uint8
	Sequence  uint32 // assigned by the poll loop just before encoding
	ButtonID  uint8
	PressType uint8
	FloatVal  float32
	IntVal    int32

	topicLen  uint8
	nameLen   uint8
	peerLen   uint8
	reasonLen uint8
	dataLen   uint16

	topic  [MaxTopicSize]byte
	name   [MaxSensorNameSize]byte
	peer   [MaxPeerSize]byte
	reason [MaxReasonSize]byte
	data   [MaxPCMSize]byte
}

// Topic returns the topic bytes for subscribe/unsubscribe/publish commands.
func (c *Command) Topic() []byte { return c.topic[:c.topicLen] }

// SensorName returns the sensor name bytes for sensor update commands.
func (c *Command) SensorName() []byte { return c.name[:c.nameLen] }

// TargetPeer returns the target peer bytes for stream start commands.
func (c *Command) TargetPeer() []byte { return c.peer[:c.peerLen] }

// Reason returns the reason bytes for stream start commands.
func (c *Command) Reason() []byte { return c.reason[:c.reasonLen] }

// Data returns the payload bytes (publish data or PCM audio).
func (c *Command) Data() []byte { return c.data[:c.dataLen] }

// NewConnect builds a Connect command carrying the device identity.
func NewConnect(deviceID uint64) Command {
	return Command{Kind: KindConnect, DeviceID: deviceID}
}

// NewSubscribe builds a Subscribe command.
func NewSubscribe(topic string) (Command, error) {
	c := Command{Kind: KindSubscribe}
	if err := c.setTopic(topic); err != nil {
		return Command{}, err
	}
	return c, nil
}

// NewUnsubscribe builds an Unsubscribe command.
func NewUnsubscribe(topic string) (Command, error) {
	c := Command{Kind: KindUnsubscribe}
	if err := c.setTopic(topic); err != nil {
		return Command{}, err
	}
	return c, nil
}

// NewPublish builds a Publish command.
func NewPublish(topic string, data []byte) (Command, error) {
	c := Command{Kind: KindPublish}
	if err := c.setTopic(topic); err != nil {
		return Command{}, err
	}
	if len(data) > MaxPublishSize {
		return Command{}, fmt.Errorf("%w: publish data %d bytes exceeds %d",
			ErrInvalidParameter, len(data), MaxPublishSize)
	}
	c.dataLen = uint16(copy(c.data[:], data))
	return c, nil
}

// NewStreamStart builds a StreamStart command.
func NewStreamStart(streamID uint8, targetPeer, reason string) (Command, error) {
	c := Command{Kind: KindStreamStart, StreamID: streamID}
	if targetPeer == "" {
		return Command{}, fmt.Errorf("%w: target peer cannot be empty", ErrInvalidParameter)
	}
	if len(targetPeer) > MaxPeerSize {
		return Command{}, fmt.Errorf("%w: target peer %d bytes exceeds %d",
			ErrInvalidParameter, len(targetPeer), MaxPeerSize)
	}
	if len(reason) > MaxReasonSize {
		return Command{}, fmt.Errorf("%w: reason %d bytes exceeds %d",
			ErrInvalidParameter, len(reason), MaxReasonSize)
	}
	c.peerLen = uint8(copy(c.peer[:], targetPeer))
	c.reasonLen = uint8(copy(c.reason[:], reason))
	return c, nil
}

// NewStreamData builds a StreamData command carrying one PCM frame. The
// sequence number is left zero; the poll loop assigns it from the stream table.
func NewStreamData(streamID uint8, pcm []byte) (Command, error) {
	if len(pcm) == 0 {
		return Command{}, fmt.Errorf("%w: pcm payload cannot be empty", ErrInvalidParameter)
	}
	if len(pcm) > MaxPCMSize {
		return Command{}, fmt.Errorf("%w: pcm payload %d bytes exceeds %d",
			ErrInvalidParameter, len(pcm), MaxPCMSize)
	}
	c := Command{Kind: KindStreamData, StreamID: streamID}
	c.dataLen = uint16(copy(c.data[:], pcm))
	return c, nil
}

// NewStreamClose builds a StreamClose command.
func NewStreamClose(streamID uint8) Command {
	return Command{Kind: KindStreamClose, StreamID: streamID}
}

// NewButtonPress builds a ButtonPress command.
func NewButtonPress(buttonID, pressType uint8) Command {
	return Command{Kind: KindButtonPress, ButtonID: buttonID, PressType: pressType}
}

// NewSensorFloat builds a float sensor update command.
func NewSensorFloat(name string, value float32) (Command, error) {
	c := Command{Kind: KindSensorFloat, FloatVal: value}
	if err := c.setSensorName(name); err != nil {
		return Command{}, err
	}
	return c, nil
}

// NewSensorInt builds an integer sensor update command.
func NewSensorInt(name string, value int32) (Command, error) {
	c := Command{Kind: KindSensorInt, IntVal: value}
	if err := c.setSensorName(name); err != nil {
		return Command{}, err
	}
	return c, nil
}

func (c *Command) setTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic cannot be empty", ErrInvalidParameter)
	}
	if len(topic) > MaxTopicSize {
		return fmt.Errorf("%w: topic %d bytes exceeds %d",
			ErrInvalidParameter, len(topic), MaxTopicSize)
	}
	c.topicLen = uint8(copy(c.topic[:], topic))
	return nil
}

func (c *Command) setSensorName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: sensor name cannot be empty", ErrInvalidParameter)
	}
	if len(name) > MaxSensorNameSize {
		return fmt.Errorf("%w: sensor name %d bytes exceeds %d",
			ErrInvalidParameter, len(name), MaxSensorNameSize)
	}
	c.nameLen = uint8(copy(c.name[:], name))
	return nil
}

// String returns a short human-readable label for the command kind.
func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindSubscribe:
		return "subscribe"
	case KindUnsubscribe:
		return "unsubscribe"
	case KindPublish:
		return "publish"
	case KindStreamStart:
		return "stream_start"
	case KindStreamData:
		return "stream_data"
	case KindStreamClose:
		return "stream_close"
	case KindButtonPress:
		return "button_press"
	case KindSensorFloat:
		return "sensor_float"
	case KindSensorInt:
		return "sensor_int"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}
