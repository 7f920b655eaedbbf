// Package sse decodes the relay's event-stream framing into content deltas.
//
// The wire format is a sequence of UTF-8 lines. Payload lines look like
//
//	data: {"choices":[{"delta":{"content":"Hel"}}]}
//
// and the literal payload [DONE] marks the end of the stream. Chunks arrive
// at arbitrary byte boundaries, so a partial trailing line is buffered until
// the next feed completes it.
package sse

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/evanmoss/chatstream/internal/logging"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// ErrClosed is returned by Feed after Finish has been called.
var ErrClosed = errors.New("sse: decoder closed")

// Decoder incrementally extracts content deltas from stream chunks. It is
// not safe for concurrent use; a stream has one reader.
type Decoder struct {
	buf    strings.Builder
	log    logging.Logger
	done   bool
	closed bool
}

// NewDecoder returns a decoder that logs dropped frames to log. A nil log
// disables logging.
func NewDecoder(log logging.Logger) *Decoder {
	if log == nil {
		log = logging.Nop()
	}
	return &Decoder{log: log}
}

// Feed consumes the next chunk and returns the content deltas completed by
// it, in arrival order. Malformed payload lines are dropped. Any bytes after
// a [DONE] sentinel are ignored.
func (d *Decoder) Feed(chunk []byte) ([]string, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if d.done {
		return nil, nil
	}

	d.buf.Write(chunk)
	pending := d.buf.String()

	idx := strings.LastIndexByte(pending, '\n')
	if idx < 0 {
		// No complete line yet.
		return nil, nil
	}
	complete, rest := pending[:idx], pending[idx+1:]
	d.buf.Reset()
	d.buf.WriteString(rest)

	var deltas []string
	for _, line := range strings.Split(complete, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		data := strings.TrimPrefix(line, dataPrefix)
		if data == doneSentinel {
			d.done = true
			break
		}
		delta, ok := extractContent(data)
		if !ok {
			d.log.Warnf("dropping malformed stream frame: %.120s", data)
			continue
		}
		if delta != "" {
			deltas = append(deltas, delta)
		}
	}
	return deltas, nil
}

// Done reports whether the [DONE] sentinel has been seen.
func (d *Decoder) Done() bool {
	return d.done
}

// Finish closes the decoder. An unterminated partial line is discarded, as a
// truncated frame cannot be safely parsed.
func (d *Decoder) Finish() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if leftover := d.buf.String(); leftover != "" && !d.done {
		d.log.Debugf("discarding %d trailing bytes at stream end", len(leftover))
	}
	d.buf.Reset()
	return nil
}

// extractContent pulls the delta text out of one payload. Streaming frames
// carry choices[0].delta.content; a whole completion framed over the stream
// carries choices[0].message.content instead.
func extractContent(data string) (string, bool) {
	if !gjson.Valid(data) {
		return "", false
	}
	if v := gjson.Get(data, "choices.0.delta.content"); v.Exists() {
		return v.String(), true
	}
	if v := gjson.Get(data, "choices.0.message.content"); v.Exists() {
		return v.String(), true
	}
	// Valid JSON with no content field, e.g. a role-only or finish_reason
	// frame. Not a delta, not an error.
	return "", true
}
