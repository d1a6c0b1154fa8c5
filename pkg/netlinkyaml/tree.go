package netlinkyaml

// NLAType classifies a slot's payload kind, mirroring the NLA_TYPE
// attribute of a key-table message (spec section 4.F).
type NLAType uint8

const (
	NLAInt NLAType = iota
	NLAString
	NLANested
)

// KeyFormat classifies how a slot's value is rendered, mirroring the
// KEY_FORMAT attribute (spec section 4.F).
type KeyFormat uint8

const (
	KeyFormatScalar KeyFormat = iota
	KeyFormatFlowMap
	KeyFormatFlowSeq
	KeyFormatBlockMap
	KeyFormatBlockSeq
)

// Slot is one dictionary entry of a Node: a name, its payload kind and
// rendering format, and — for NLANested slots — the child Node the
// key-table message spliced in under it.
type Slot struct {
	Name      string
	NLAType   NLAType
	KeyFormat KeyFormat
	Child     *Node
}

// Node is one level of the key-table tree. Slots is sized size+1;
// Slots[0] is reserved and never populated (spec section 4.F: "slot
// index of 0 is reserved").
type Node struct {
	Slots []Slot
}

// KeyTableAttr is one attribute of a key-table message, in wire order.
// A message is a flat sequence: a ListSize attribute, then for each
// slot an Index attribute followed by that slot's NLAType/KeyFormat/
// Value/nested-List attributes in any order, until the next Index or
// end of message.
type KeyTableAttr struct {
	Kind KeyTableAttrKind

	ListSize int

	Index int

	NLAType   NLAType
	KeyFormat KeyFormat
	Value     string

	// Nested describes, for an AttrList attribute, the child node
	// spliced in under the slot most recently opened by an Index
	// attribute at this level.
	Nested []KeyTableAttr
}

// KeyTableAttrKind enumerates the attribute kinds that can appear in a
// key-table message.
type KeyTableAttrKind uint8

const (
	AttrListSize KeyTableAttrKind = iota
	AttrIndex
	AttrNLAType
	AttrKeyFormat
	AttrValue
	AttrList
)

// BuildNode constructs one Node (and, recursively, every child Node
// spliced in under a nested slot) from a flat key-table attribute
// sequence. The sequence must begin with an AttrListSize; any slot
// attribute arriving first is a protocol error (spec section 4.F).
func BuildNode(attrs []KeyTableAttr) (*Node, error) {
	if len(attrs) == 0 || attrs[0].Kind != AttrListSize {
		return nil, ErrNoListSize
	}
	node := &Node{Slots: make([]Slot, attrs[0].ListSize+1)}

	cur := 0 // 0 means "no slot open"
	for _, a := range attrs[1:] {
		switch a.Kind {
		case AttrIndex:
			if a.Index == 0 {
				return nil, ErrReservedIndex
			}
			if a.Index >= len(node.Slots) {
				return nil, ErrSlotOutOfRange
			}
			cur = a.Index
		case AttrNLAType:
			if cur == 0 {
				return nil, ErrNoListSize
			}
			node.Slots[cur].NLAType = a.NLAType
		case AttrKeyFormat:
			if cur == 0 {
				return nil, ErrNoListSize
			}
			node.Slots[cur].KeyFormat = a.KeyFormat
		case AttrValue:
			if cur == 0 {
				return nil, ErrNoListSize
			}
			node.Slots[cur].Name = a.Value
		case AttrList:
			if cur == 0 {
				return nil, ErrNoListSize
			}
			child, err := BuildNode(a.Nested)
			if err != nil {
				return nil, err
			}
			node.Slots[cur].Child = child
			node.Slots[cur].NLAType = NLANested
		case AttrListSize:
			// A bare AttrListSize mid-stream (not the leading one)
			// starts a fresh nested node inline; treated the same as
			// an AttrList wrapping the remainder is not supported by
			// this flattened representation, so callers nest via
			// AttrList explicitly.
			return nil, ErrNoListSize
		}
	}
	return node, nil
}
