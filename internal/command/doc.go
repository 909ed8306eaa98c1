// Package command defines the tagged command variant queued by the client API.
// Commands carry only bounded-size payloads in fixed-size storage; every size
// ceiling is enforced at construction so nothing oversized is ever enqueued.
package command
