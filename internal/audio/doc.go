// Package audio provides outbound PCM framing: host capture buffers are cut
// into frames small enough for one audio command each.
package audio
