package netlinkyaml

import (
	"strconv"
	"strings"
)

// ValueAttr is one attribute of a value-stream message: a slot index
// into the Node it is being decoded against, a scalar payload, or —
// for a slot whose key-table NLAType is NLANested — a further
// sequence of ValueAttr decoded against that slot's child Node (spec
// section 4.F: "nested descent building inner policies recursively").
type ValueAttr struct {
	SlotIndex int
	IsString  bool
	Str       string
	Int       int64
	Nested    []ValueAttr
}

// DecodeValueMessage renders a top-level value-stream message against
// root into YAML text. The document root is always a block mapping:
// every attribute writes "name: " followed by its rendered value and
// a newline (spec section 4.F "scalar/sequence/mapping textual forms
// following best_indent").
func DecodeValueMessage(root *Node, attrs []ValueAttr) (string, error) {
	var b strings.Builder
	for _, a := range attrs {
		if a.SlotIndex <= 0 || a.SlotIndex >= len(root.Slots) {
			return "", ErrUnknownSlot
		}
		slot := root.Slots[a.SlotIndex]
		if slot.Name == "" {
			b.WriteString("?: ")
		} else {
			b.WriteString(slot.Name)
			b.WriteString(": ")
		}
		if err := emitSlot(&b, slot, a, 1); err != nil {
			return "", err
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// emitSlot writes the value half of one slot's "name: <value>" entry.
func emitSlot(b *strings.Builder, slot Slot, a ValueAttr, indent int) error {
	if slot.NLAType != NLANested {
		emitScalar(b, a)
		return nil
	}
	if slot.Child == nil {
		return ErrNoChildNode
	}
	return emitContainer(b, slot.Child, a.Nested, slot.KeyFormat, indent)
}

func emitScalar(b *strings.Builder, a ValueAttr) {
	if a.IsString {
		b.WriteString(a.Str)
		return
	}
	b.WriteString(strconv.FormatInt(a.Int, 10))
}

// emitContainer writes a nested node's children in flow or block
// form, per the parent slot's KeyFormat, rewinding to a trailing
// " }"/" ]" in flow form only once at the close (spec section 4.F:
// "rewinding two bytes for trailing close brackets" — expressed here
// as not writing a leading separator before the first child instead
// of writing-then-erasing one).
func emitContainer(b *strings.Builder, node *Node, attrs []ValueAttr, format KeyFormat, indent int) error {
	switch format {
	case KeyFormatFlowMap:
		b.WriteString("{ ")
		for i, a := range attrs {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := emitChildWithKey(b, node, a, indent+1); err != nil {
				return err
			}
		}
		b.WriteString(" }")
	case KeyFormatFlowSeq:
		b.WriteString("[ ")
		for i, a := range attrs {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := emitChildValueOnly(b, node, a, indent+1); err != nil {
				return err
			}
		}
		b.WriteString(" ]")
	case KeyFormatBlockMap:
		for _, a := range attrs {
			b.WriteString("\n")
			b.WriteString(strings.Repeat("  ", indent))
			if err := emitChildWithKey(b, node, a, indent+1); err != nil {
				return err
			}
		}
	case KeyFormatBlockSeq:
		for _, a := range attrs {
			b.WriteString("\n")
			b.WriteString(strings.Repeat("  ", indent))
			b.WriteString("- ")
			if err := emitChildValueOnly(b, node, a, indent+1); err != nil {
				return err
			}
		}
	default: // KeyFormatScalar: exactly one child, rendered bare
		if len(attrs) != 1 {
			return ErrUnknownSlot
		}
		return emitChildValueOnly(b, node, attrs[0], indent)
	}
	return nil
}

func emitChildWithKey(b *strings.Builder, node *Node, a ValueAttr, indent int) error {
	if a.SlotIndex <= 0 || a.SlotIndex >= len(node.Slots) {
		return ErrUnknownSlot
	}
	slot := node.Slots[a.SlotIndex]
	if slot.Name != "" {
		b.WriteString(slot.Name)
		b.WriteString(": ")
	}
	return emitSlot(b, slot, a, indent)
}

func emitChildValueOnly(b *strings.Builder, node *Node, a ValueAttr, indent int) error {
	if a.SlotIndex <= 0 || a.SlotIndex >= len(node.Slots) {
		return ErrUnknownSlot
	}
	slot := node.Slots[a.SlotIndex]
	return emitSlot(b, slot, a, indent)
}
