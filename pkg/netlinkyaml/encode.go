package netlinkyaml

import "strings"

// EncodedAttr is one node of the Netlink attribute tree the encoder
// assembles from YAML text, mirroring the line's nesting depth.
type EncodedAttr struct {
	Key      string
	Value    string
	IsSeq    bool
	Children []*EncodedAttr
}

// SendFunc performs the generic netlink send of a fully assembled
// attribute tree to the resolved multicast group. A nil tree (no
// attributes accumulated) is the empty-command fallback (spec section
// 4.F encoder step 4).
type SendFunc func(group string, attrs []*EncodedAttr) error

type frame struct {
	indent int
	attr   *EncodedAttr
}

// Encoder implements io.Writer as the YAML parser library's write
// handler: it receives emitted YAML text in arbitrary-sized chunks,
// substitutes quote characters, classifies each completed line, and
// assembles a nested Netlink attribute tree. The first non-indented,
// non-flow, non-sequence line's key is taken as the multicast group
// name (spec section 4.F encoder step 2: "first-column-key multicast
// group resolution"). Close flushes the assembled tree via send.
type Encoder struct {
	send SendFunc

	buf strings.Builder // partial last line carried across Write calls

	group    string
	resolved bool

	root  EncodedAttr
	stack []frame
}

// NewEncoder builds an Encoder that flushes through send on Close.
func NewEncoder(send SendFunc) *Encoder {
	e := &Encoder{send: send}
	e.stack = []frame{{indent: -1, attr: &e.root}}
	return e
}

// Write implements io.Writer, consuming a chunk of emitted YAML text.
func (e *Encoder) Write(p []byte) (int, error) {
	e.buf.WriteString(string(p))
	text := e.buf.String()

	lines := strings.Split(text, "\n")
	// Hold back a trailing partial line (no terminating newline yet)
	// for the next Write call; Close consumes whatever is still held
	// back when the stream ends.
	complete := lines[:len(lines)-1]
	e.buf.Reset()
	e.buf.WriteString(lines[len(lines)-1])

	for _, raw := range complete {
		if err := e.consumeLine(raw); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (e *Encoder) consumeLine(raw string) error {
	line := substituteQuotes(raw)
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || isDocumentMarker(trimmed) {
		return nil
	}

	indent, kind, key, value := classifyLine(line)

	if indent == 0 && !e.resolved && kind != lineSequence && kind != lineFlow {
		e.group = key
		if e.group == "" {
			e.group = value
		}
		e.resolved = true
		return nil
	}
	if !e.resolved {
		return ErrNoGroup
	}

	for len(e.stack) > 0 && e.stack[len(e.stack)-1].indent >= indent {
		e.stack = e.stack[:len(e.stack)-1]
	}
	parent := e.stack[len(e.stack)-1].attr

	switch kind {
	case lineContinuation:
		// parent here is the most recently opened item whose indent is
		// still less than this line's — i.e. the item this line
		// continues, not a sibling of its children.
		if parent.Value != "" {
			parent.Value += " "
		}
		parent.Value += trimmed
		return nil
	case lineSequence:
		item := &EncodedAttr{Key: key, Value: value, IsSeq: true}
		parent.Children = append(parent.Children, item)
		e.stack = append(e.stack, frame{indent: indent, attr: item})
	case lineFlow:
		item := &EncodedAttr{Key: key, Value: value}
		parent.Children = append(parent.Children, item)
		// Flow containers are emitted on one line; they do not open a
		// block-nesting frame.
	default: // lineMapping
		item := &EncodedAttr{Key: key, Value: value}
		parent.Children = append(parent.Children, item)
		e.stack = append(e.stack, frame{indent: indent, attr: item})
	}
	return nil
}

// Close flushes any held-back partial line, then sends the assembled
// attribute tree through the configured SendFunc. Calling Close
// without ever resolving a group sends the empty-command fallback.
func (e *Encoder) Close() error {
	if e.buf.Len() > 0 {
		last := e.buf.String()
		e.buf.Reset()
		if err := e.consumeLine(last); err != nil {
			return err
		}
	}
	if e.send == nil {
		return nil
	}
	if err := e.send(e.group, e.root.Children); err != nil {
		return &CodecError{Op: "encode", Message: "send failed", Cause: err}
	}
	return nil
}
