package avi

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Apoll011/avi-device/internal/command"
	"github.com/Apoll011/avi-device/internal/protocol"
	"github.com/Apoll011/avi-device/internal/session"
)

// Connect queues a Hello toward the server. Non-blocking; the frame goes out
// on the next Poll.
func (in *Instance) Connect() error {
	if err := in.valid(); err != nil {
		return err
	}
	cmd := command.NewConnect(in.cfg.DeviceID)
	return in.enqueue(&cmd)
}

// IsConnected reports whether the server has acknowledged the session. False
// until a Welcome arrives, false again after any transport failure.
func (in *Instance) IsConnected() bool {
	if in == nil || in.closed.Load() {
		return false
	}
	return in.session.Connected()
}

// Subscribe queues a subscription to the topic. The subscription set is
// updated when the command is drained and replayed whenever the session
// enters Connected.
func (in *Instance) Subscribe(topic string) error {
	if err := in.valid(); err != nil {
		return err
	}
	cmd, err := command.NewSubscribe(topic)
	if err != nil {
		return err
	}
	return in.enqueue(&cmd)
}

// Unsubscribe queues removal of a subscription.
func (in *Instance) Unsubscribe(topic string) error {
	if err := in.valid(); err != nil {
		return err
	}
	cmd, err := command.NewUnsubscribe(topic)
	if err != nil {
		return err
	}
	return in.enqueue(&cmd)
}

// Publish queues data toward a topic. The data is copied; the caller's buffer
// is free immediately.
func (in *Instance) Publish(topic string, data []byte) error {
	if err := in.valid(); err != nil {
		return err
	}
	cmd, err := command.NewPublish(topic, data)
	if err != nil {
		return err
	}
	return in.enqueue(&cmd)
}

// StartStream reserves the stream id and queues a stream request toward the
// target peer. Fails with ErrStateConflict when the id is already live and
// ErrStreamLimit when the concurrent stream bound is reached; on ErrQueueFull
// the reservation is rolled back.
func (in *Instance) StartStream(streamID uint8, targetPeer, reason string) error {
	if err := in.valid(); err != nil {
		return err
	}
	cmd, err := command.NewStreamStart(streamID, targetPeer, reason)
	if err != nil {
		return err
	}
	if err := in.streams.Start(streamID, targetPeer, reason); err != nil {
		return err
	}
	if err := in.enqueue(&cmd); err != nil {
		in.streams.Release(streamID)
		return err
	}
	return nil
}

// SendAudio queues one PCM frame on the stream. The stream must be Requested
// or Active. The PCM bytes are copied.
func (in *Instance) SendAudio(streamID uint8, pcm []byte) error {
	if err := in.valid(); err != nil {
		return err
	}
	cmd, err := command.NewStreamData(streamID, pcm)
	if err != nil {
		return err
	}
	if err := in.streams.CheckSendable(streamID); err != nil {
		return err
	}
	return in.enqueue(&cmd)
}

// CloseStream queues a close for the stream and moves it to Closing. The id
// becomes reusable once the close has been drained. On ErrQueueFull the
// stream returns to its previous live state.
func (in *Instance) CloseStream(streamID uint8) error {
	if err := in.valid(); err != nil {
		return err
	}
	if err := in.streams.RequestClose(streamID); err != nil {
		return err
	}
	cmd := command.NewStreamClose(streamID)
	if err := in.enqueue(&cmd); err != nil {
		in.streams.CancelClose(streamID)
		return err
	}
	return nil
}

// ButtonPressed queues a button event.
func (in *Instance) ButtonPressed(buttonID uint8, press PressType) error {
	if err := in.valid(); err != nil {
		return err
	}
	if press > PressDouble {
		return fmt.Errorf("%w: unknown press type %d", ErrInvalidParameter, press)
	}
	cmd := command.NewButtonPress(buttonID, uint8(press))
	return in.enqueue(&cmd)
}

// UpdateSensorFloat queues a float sensor reading. The reading is not stored;
// it exists only as the queued command.
func (in *Instance) UpdateSensorFloat(name string, value float32) error {
	if err := in.valid(); err != nil {
		return err
	}
	cmd, err := command.NewSensorFloat(name, value)
	if err != nil {
		return err
	}
	return in.enqueue(&cmd)
}

// UpdateSensorInt queues an integer sensor reading.
func (in *Instance) UpdateSensorInt(name string, value int32) error {
	if err := in.valid(); err != nil {
		return err
	}
	cmd, err := command.NewSensorInt(name, value)
	if err != nil {
		return err
	}
	return in.enqueue(&cmd)
}

// Poll drains queued commands in FIFO order (up to CommandsPerPoll), encodes
// and transmits each, then makes exactly one inbound receive attempt and
// routes whatever frame arrived. All work happens synchronously on the
// caller's goroutine; Poll must not be called concurrently on one instance.
// Transport failures are collected and returned but never abort the
// remaining commands of the cycle.
func (in *Instance) Poll() error {
	if err := in.valid(); err != nil {
		return err
	}

	var errs []error
	var cmd command.Command
	for drained := 0; drained < in.cfg.CommandsPerPoll; drained++ {
		if !in.queue.Dequeue(&cmd) {
			break
		}
		if err := in.execute(&cmd); err != nil {
			errs = append(errs, err)
		}
	}
	in.metrics.SetQueueDepth(in.queue.Len())

	if err := in.receiveOne(); err != nil {
		errs = append(errs, err)
	}
	in.metrics.SetActiveStreams(in.streams.LiveCount())

	return errors.Join(errs...)
}

// execute carries out one drained command: state bookkeeping plus a single
// transmit attempt. Commands are transmitted regardless of session state; the
// server ignores frames from devices it has not welcomed, and the
// subscription replay on Welcome makes subscriptions effective either way.
func (in *Instance) execute(cmd *command.Command) error {
	switch cmd.Kind {
	case command.KindConnect:
		if err := in.transmit(cmd); err != nil {
			return err
		}
		in.session.MarkConnecting()
		return nil

	case command.KindSubscribe:
		in.session.AddTopic(string(cmd.Topic()))
		return in.transmit(cmd)

	case command.KindUnsubscribe:
		in.session.RemoveTopic(string(cmd.Topic()))
		return in.transmit(cmd)

	case command.KindStreamData:
		seq, ok := in.streams.NextSequence(cmd.StreamID)
		if !ok {
			// The stream was closed between enqueue and drain.
			in.metrics.RecordDropped(cmd.Kind.String(), "stream_state")
			in.logger.Debug("dropping audio for dead stream",
				slog.Int("stream_id", int(cmd.StreamID)),
			)
			return nil
		}
		cmd.Sequence = seq
		return in.transmit(cmd)

	case command.KindStreamClose:
		err := in.transmit(cmd)
		in.streams.MarkClosed(cmd.StreamID)
		return err

	default:
		return in.transmit(cmd)
	}
}

// transmit encodes the command into the scratch buffer and makes one send
// attempt. A transport failure resets the session to Disconnected.
func (in *Instance) transmit(cmd *command.Command) error {
	frame, err := protocol.EncodeCommand(cmd, in.scratch)
	if err != nil {
		in.metrics.RecordDropped(cmd.Kind.String(), "encode")
		return fmt.Errorf("encode %s: %w", cmd.Kind, err)
	}
	if err := in.adapter.Send(frame); err != nil {
		in.metrics.RecordSendError()
		in.resetSession("transport send failure")
		return fmt.Errorf("%s: %w", cmd.Kind, err)
	}
	in.metrics.RecordSent()
	return nil
}

// receiveOne makes the cycle's single receive attempt and routes the frame.
func (in *Instance) receiveOne() error {
	n, err := in.adapter.TryReceive(in.scratch)
	if err != nil {
		in.resetSession("transport receive failure")
		return err
	}
	if n == 0 {
		return nil
	}
	in.metrics.RecordReceived()

	frame, err := protocol.DecodeFrame(in.scratch[:n])
	if err != nil {
		// Malformed input is a protocol violation by the peer, not a fault
		// of this instance: count it and move on.
		in.metrics.RecordDecodeError()
		in.logger.Debug("ignoring malformed frame",
			slog.Int("length", n),
			slog.String("error", err.Error()),
		)
		return nil
	}

	switch frame.Type {
	case protocol.FrameWelcome:
		replay, connected := in.session.MarkConnected()
		if !connected {
			return nil
		}
		in.metrics.RecordConnect()
		return in.replaySubscriptions(replay)

	case protocol.FrameDeliver:
		in.metrics.RecordDelivery()
		// Data aliases the scratch buffer; valid only inside the callback.
		in.handler.HandleMessage(string(frame.Topic), frame.Data)
		return nil

	case protocol.FrameStreamAccepted:
		in.streams.MarkActive(frame.StreamID)
		return nil

	case protocol.FrameStreamRejected:
		in.logger.Warn("stream rejected by peer",
			slog.Int("stream_id", int(frame.StreamID)),
			slog.Int("reason", int(frame.Reason)),
		)
		in.streams.MarkClosed(frame.StreamID)
		return nil

	case protocol.FrameStreamClosed:
		in.streams.MarkClosed(frame.StreamID)
		return nil

	case protocol.FrameError:
		if frame.Reason == protocol.ReasonDisconnect {
			in.resetSession("server disconnect")
		} else {
			in.logger.Warn("server error", slog.Int("reason", int(frame.Reason)))
		}
		return nil

	default:
		in.metrics.RecordUnknownFrame()
		in.logger.Debug("ignoring unknown frame", slog.String("type", protocol.TypeString(frame.Type)))
		return nil
	}
}

// replaySubscriptions re-sends Subscribe for every topic in subscription
// order after the session enters Connected.
func (in *Instance) replaySubscriptions(topics []string) error {
	for _, topic := range topics {
		cmd, err := command.NewSubscribe(topic)
		if err != nil {
			// Topics in the set already passed validation.
			continue
		}
		if err := in.transmit(&cmd); err != nil {
			return fmt.Errorf("replay subscribe %q: %w", topic, err)
		}
	}
	return nil
}

func (in *Instance) resetSession(reason string) {
	if in.session.State() != session.Disconnected {
		in.metrics.RecordReset()
	}
	in.session.Reset(reason)
}
