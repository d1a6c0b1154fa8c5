package netlinkyaml

import (
	"io"

	"gopkg.in/yaml.v3"
)

// Round is one multiplexed message pulled off the Netlink socket: either
// a key-table message (building or extending the dictionary tree) or a
// value-stream message (rendered into YAML text against the tree built
// so far).
type Round struct {
	IsKeyTable bool
	KeyTable   []KeyTableAttr
	Value      []ValueAttr
}

// RoundSource supplies successive Rounds. NextRound returns more=false
// once the socket has nothing further queued for this read (spec
// section 4.F: "the read handler drives a YAML parser library with a
// complete short-circuit flag").
type RoundSource interface {
	NextRound() (round Round, more bool)
}

// StreamDecoder implements io.Reader, pulling Rounds from a RoundSource
// and handing a YAML parser library (gopkg.in/yaml.v3, via yaml.Decoder)
// the rendered text one buffer-fill at a time. A key-table Round
// extends the dictionary tree; a value Round is rendered and queued for
// delivery. Decode drives a yaml.Decoder directly off this reader.
type StreamDecoder struct {
	src  RoundSource
	root *Node

	pending []byte
	err     error
	done    bool
}

// NewStreamDecoder builds a StreamDecoder. root may be nil if the
// first Round(s) the source produces are key-table messages that
// establish it; value Rounds arriving before any key-table message
// fail with ErrNoChildNode at render time.
func NewStreamDecoder(src RoundSource, root *Node) *StreamDecoder {
	return &StreamDecoder{src: src, root: root}
}

// Root returns the tree built so far.
func (d *StreamDecoder) Root() *Node { return d.root }

// Read implements io.Reader, pulling rounds until it has bytes to
// return or the source reports completion.
func (d *StreamDecoder) Read(p []byte) (int, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return 0, d.err
		}
		if d.done {
			return 0, io.EOF
		}
		round, more := d.src.NextRound()
		if round.IsKeyTable {
			node, err := BuildNode(round.KeyTable)
			if err != nil {
				d.err = err
				continue
			}
			d.root = node
		} else if len(round.Value) > 0 {
			if d.root == nil {
				d.err = ErrNoChildNode
				continue
			}
			text, err := DecodeValueMessage(d.root, round.Value)
			if err != nil {
				d.err = err
				continue
			}
			d.pending = append(d.pending, []byte(text)...)
		}
		if !more {
			d.done = true
		}
	}

	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

// Decode drains src entirely into a single YAML document and unmarshals
// it into v via gopkg.in/yaml.v3.
func Decode(src RoundSource, root *Node, v any) error {
	dec := NewStreamDecoder(src, root)
	return yaml.NewDecoder(dec).Decode(v)
}
