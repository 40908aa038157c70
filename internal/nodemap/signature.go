package nodemap

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// signatureLength is the number of hex characters kept from the full
// sha256 digest — short enough to stay readable in a compound key,
// long enough that two distinct input shapes never collide in practice.
const signatureLength = 16

// WorkflowInputSignature hashes a node's input descriptors, in the
// order they appear on the node, into a short hex digest. Two nodes of
// the same type with the same ordered (name, type, linked) triples
// always produce the same signature, which is what lets the exact-match
// priority in ResolveNode distinguish, e.g., a node whose first input is
// a widget from the same node type where it's a link.
func WorkflowInputSignature(inputs []NodeInput) string {
	if len(inputs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, in := range inputs {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(in.Name)
		b.WriteByte('|')
		b.WriteString(in.Type)
		b.WriteByte('|')
		if in.IsLinked {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:signatureLength]
}

// CreateNodeKey builds the compound mapping-table key for a node type
// and an input signature. An empty signature (or the literal "_")
// produces the type-only key.
func CreateNodeKey(nodeType, signature string) string {
	if signature == "" {
		signature = "_"
	}
	return nodeType + "::" + signature
}
