package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Apoll011/avi-device/internal/command"
)

// Frame type constants. Uplink types are client to server, downlink types
// carry the high bit.
const (
	// Uplink
	FrameHello       = 0x01
	FrameSubscribe   = 0x02
	FrameUnsubscribe = 0x03
	FramePublish     = 0x04
	FrameStreamStart = 0x05
	FrameStreamData  = 0x06
	FrameStreamClose = 0x07
	FrameButtonPress = 0x08
	FrameSensorFloat = 0x09
	FrameSensorInt   = 0x0A

	// Downlink
	FrameWelcome        = 0x81
	FrameDeliver        = 0x82
	FrameStreamAccepted = 0x83
	FrameStreamRejected = 0x84
	FrameStreamClosed   = 0x85
	FrameError          = 0x86

	// Sentinel for downlink frames the decoder does not recognize. Routed
	// nowhere, counted, never fatal.
	FrameUnknown = 0x00
)

// Error frame reason codes.
const (
	ReasonDisconnect = 0x01
)

// Frame layout: [Type:1][PayloadLen:2 BE][Payload:PayloadLen]
const (
	HeaderSize = 3

	// Largest uplink frame is StreamData: header + stream id + sequence + PCM.
	MaxFrameSize = HeaderSize + 1 + 4 + command.MaxPCMSize
)

var (
	// ErrBufferTooSmall is returned when the scratch buffer cannot hold the
	// encoded frame.
	ErrBufferTooSmall = errors.New("encode buffer too small")

	// ErrMalformedFrame is returned for truncated or inconsistent downlink
	// frames. Callers treat it as "no frame this cycle", not as fatal.
	ErrMalformedFrame = errors.New("malformed frame")
)

// EncodeCommand serializes a command into buf and returns the used slice.
// Deterministic, no allocation; fails if buf is smaller than the frame.
func EncodeCommand(cmd *command.Command, buf []byte) ([]byte, error) {
	var frameType byte
	var payloadLen int

	switch cmd.Kind {
	case command.KindConnect:
		frameType, payloadLen = FrameHello, 8
	case command.KindSubscribe:
		frameType, payloadLen = FrameSubscribe, 1+len(cmd.Topic())
	case command.KindUnsubscribe:
		frameType, payloadLen = FrameUnsubscribe, 1+len(cmd.Topic())
	case command.KindPublish:
		frameType, payloadLen = FramePublish, 1+len(cmd.Topic())+2+len(cmd.Data())
	case command.KindStreamStart:
		frameType, payloadLen = FrameStreamStart, 1+1+len(cmd.TargetPeer())+1+len(cmd.Reason())
	case command.KindStreamData:
		frameType, payloadLen = FrameStreamData, 1+4+len(cmd.Data())
	case command.KindStreamClose:
		frameType, payloadLen = FrameStreamClose, 1
	case command.KindButtonPress:
		frameType, payloadLen = FrameButtonPress, 2
	case command.KindSensorFloat:
		frameType, payloadLen = FrameSensorFloat, 1+len(cmd.SensorName())+4
	case command.KindSensorInt:
		frameType, payloadLen = FrameSensorInt, 1+len(cmd.SensorName())+4
	default:
		return nil, fmt.Errorf("cannot encode command kind %s", cmd.Kind)
	}

	total := HeaderSize + payloadLen
	if len(buf) < total {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, total, len(buf))
	}

	buf[0] = frameType
	binary.BigEndian.PutUint16(buf[1:3], uint16(payloadLen))
	p := buf[HeaderSize:]

	switch cmd.Kind {
	case command.KindConnect:
		binary.BigEndian.PutUint64(p, cmd.DeviceID)

	case command.KindSubscribe, command.KindUnsubscribe:
		p[0] = uint8(len(cmd.Topic()))
		copy(p[1:], cmd.Topic())

	case command.KindPublish:
		topic := cmd.Topic()
		data := cmd.Data()
		p[0] = uint8(len(topic))
		n := 1 + copy(p[1:], topic)
		binary.BigEndian.PutUint16(p[n:n+2], uint16(len(data)))
		copy(p[n+2:], data)

	case command.KindStreamStart:
		peer := cmd.TargetPeer()
		reason := cmd.Reason()
		p[0] = cmd.StreamID
		p[1] = uint8(len(peer))
		n := 2 + copy(p[2:], peer)
		p[n] = uint8(len(reason))
		copy(p[n+1:], reason)

	case command.KindStreamData:
		p[0] = cmd.StreamID
		binary.BigEndian.PutUint32(p[1:5], cmd.Sequence)
		copy(p[5:], cmd.Data())

	case command.KindStreamClose:
		p[0] = cmd.StreamID

	case command.KindButtonPress:
		p[0] = cmd.ButtonID
		p[1] = cmd.PressType

	case command.KindSensorFloat:
		name := cmd.SensorName()
		p[0] = uint8(len(name))
		n := 1 + copy(p[1:], name)
		binary.BigEndian.PutUint32(p[n:n+4], math.Float32bits(cmd.FloatVal))

	case command.KindSensorInt:
		name := cmd.SensorName()
		p[0] = uint8(len(name))
		n := 1 + copy(p[1:], name)
		binary.BigEndian.PutUint32(p[n:n+4], uint32(cmd.IntVal))
	}

	return buf[:total], nil
}

// Frame is a decoded downlink frame. Topic and Data alias the receive buffer
// and are only valid until the buffer is reused.
type Frame struct {
	Type     byte
	StreamID uint8
	Reason   uint8
	Topic    []byte
	Data     []byte
}

// DecodeFrame parses a received datagram into a Frame. Unrecognized frame
// types yield a Frame with Type FrameUnknown and a nil error; truncated or
// inconsistent input yields ErrMalformedFrame.
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) < HeaderSize {
		return Frame{}, fmt.Errorf("%w: %d bytes is shorter than the %d byte header",
			ErrMalformedFrame, len(data), HeaderSize)
	}

	frameType := data[0]
	payloadLen := int(binary.BigEndian.Uint16(data[1:3]))
	if HeaderSize+payloadLen != len(data) {
		return Frame{}, fmt.Errorf("%w: header declares %d payload bytes, datagram carries %d",
			ErrMalformedFrame, payloadLen, len(data)-HeaderSize)
	}
	p := data[HeaderSize:]

	switch frameType {
	case FrameWelcome:
		return Frame{Type: FrameWelcome}, nil

	case FrameDeliver:
		if len(p) < 1 {
			return Frame{}, fmt.Errorf("%w: deliver frame missing topic length", ErrMalformedFrame)
		}
		topicLen := int(p[0])
		if len(p) < 1+topicLen+2 {
			return Frame{}, fmt.Errorf("%w: deliver frame truncated before data length", ErrMalformedFrame)
		}
		topic := p[1 : 1+topicLen]
		dataLen := int(binary.BigEndian.Uint16(p[1+topicLen : 3+topicLen]))
		if len(p) != 3+topicLen+dataLen {
			return Frame{}, fmt.Errorf("%w: deliver frame declares %d data bytes, carries %d",
				ErrMalformedFrame, dataLen, len(p)-3-topicLen)
		}
		return Frame{Type: FrameDeliver, Topic: topic, Data: p[3+topicLen:]}, nil

	case FrameStreamAccepted, FrameStreamClosed:
		if len(p) != 1 {
			return Frame{}, fmt.Errorf("%w: stream event payload must be 1 byte, got %d",
				ErrMalformedFrame, len(p))
		}
		return Frame{Type: frameType, StreamID: p[0]}, nil

	case FrameStreamRejected:
		if len(p) != 2 {
			return Frame{}, fmt.Errorf("%w: stream reject payload must be 2 bytes, got %d",
				ErrMalformedFrame, len(p))
		}
		return Frame{Type: FrameStreamRejected, StreamID: p[0], Reason: p[1]}, nil

	case FrameError:
		if len(p) != 1 {
			return Frame{}, fmt.Errorf("%w: error payload must be 1 byte, got %d",
				ErrMalformedFrame, len(p))
		}
		return Frame{Type: FrameError, Reason: p[0]}, nil

	default:
		return Frame{Type: FrameUnknown}, nil
	}
}

// TypeString returns a human-readable name for a frame type.
func TypeString(frameType byte) string {
	switch frameType {
	case FrameHello:
		return "Hello"
	case FrameSubscribe:
		return "Subscribe"
	case FrameUnsubscribe:
		return "Unsubscribe"
	case FramePublish:
		return "Publish"
	case FrameStreamStart:
		return "StreamStart"
	case FrameStreamData:
		return "StreamData"
	case FrameStreamClose:
		return "StreamClose"
	case FrameButtonPress:
		return "ButtonPress"
	case FrameSensorFloat:
		return "SensorFloat"
	case FrameSensorInt:
		return "SensorInt"
	case FrameWelcome:
		return "Welcome"
	case FrameDeliver:
		return "Deliver"
	case FrameStreamAccepted:
		return "StreamAccepted"
	case FrameStreamRejected:
		return "StreamRejected"
	case FrameStreamClosed:
		return "StreamClosed"
	case FrameError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", frameType)
	}
}
