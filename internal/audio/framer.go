package audio

import (
	"fmt"

	"github.com/Apoll011/avi-device/internal/command"
)

// Framer splits arbitrary-length host PCM buffers into frames that fit the
// per-command PCM ceiling, so a capture buffer larger than one command can be
// fed to SendAudio frame by frame.
type Framer struct {
	frameSize int
}

// NewFramer creates a framer producing frames of at most frameSize bytes.
// frameSize must be even (16-bit samples) and within the PCM ceiling.
func NewFramer(frameSize int) (*Framer, error) {
	if frameSize < 2 || frameSize > command.MaxPCMSize {
		return nil, fmt.Errorf("frame size must be between 2 and %d bytes, got %d",
			command.MaxPCMSize, frameSize)
	}
	if frameSize%2 != 0 {
		return nil, fmt.Errorf("frame size must be even for 16-bit samples, got %d", frameSize)
	}
	return &Framer{frameSize: frameSize}, nil
}

// FrameSize returns the configured frame size in bytes.
func (f *Framer) FrameSize() int {
	return f.frameSize
}

// FrameCount returns the number of frames Split would produce for n bytes.
func (f *Framer) FrameCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + f.frameSize - 1) / f.frameSize
}

// Split cuts pcm into consecutive frames of at most the configured size. The
// returned slices alias pcm; the final frame may be short.
func (f *Framer) Split(pcm []byte) [][]byte {
	if len(pcm) == 0 {
		return nil
	}
	frames := make([][]byte, 0, f.FrameCount(len(pcm)))
	for off := 0; off < len(pcm); off += f.frameSize {
		end := off + f.frameSize
		if end > len(pcm) {
			end = len(pcm)
		}
		frames = append(frames, pcm[off:end])
	}
	return frames
}
