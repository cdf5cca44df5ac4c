// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"time"

	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
	"github.com/cathedral-fabric/cathedral/xhash"
)

// decisionProofKindTag domain-separates a DecisionProof's signature
// input from any other BLAKE3-keyed signature scheme in this module,
// the same role id.FromName's domain byte plays for identifiers.
const decisionProofKindTag = "cathedral.policy.decision_proof.v1"

// Field is one named, typed entry in a DecisionProof's ordered field
// list — e.g. the requested capability, a matched rule's name, or an
// evaluator variable that fed the decision. Value is the field's
// canonically-encoded byte representation, so the signature input
// never depends on how a caller formats it.
type Field struct {
	Name  string `cbor:"name"`
	Value []byte `cbor:"value"`
}

// StringField builds a Field whose Value is the raw UTF-8 bytes of v.
func StringField(name, v string) Field { return Field{Name: name, Value: []byte(v)} }

// DecisionProof is a tamper-evident record of one policy evaluation:
// which event/node/policy it was evaluated against, under which rule,
// the boolean outcome, and the ordered context fields that produced
// it. Signature is Chain(key, h), where h is the BLAKE3 hash of the
// canonical concatenation of ID, the kind tag, Timestamp, Allowed, and
// each Field's (name bytes, value bytes) in order, and key is the one
// used to seed ProofLog — a keyed MAC scheme, so both verifying and
// forging an entry take that key.
type DecisionProof struct {
	ID         id.ID      `cbor:"id"`
	EventID    *id.ID     `cbor:"event_id,omitempty"`
	NodeID     id.ID      `cbor:"node_id"`
	PolicyRef  string     `cbor:"policy_ref"`
	RuleName   string     `cbor:"rule_name"`
	Allowed    bool       `cbor:"allowed"`
	Timestamp  time.Time  `cbor:"timestamp"`
	Fields     []Field    `cbor:"fields"`
	Sequence   uint64     `cbor:"sequence"`
	Signature  xhash.Hash `cbor:"signature"`
}

// signatureInput builds the exact byte sequence bodyHash hashes: ID
// bytes, the kind tag, the timestamp (RFC3339Nano, UTC), a single
// allowed byte, then each field's name length-prefixed name bytes and
// length-prefixed value bytes, in Fields order. Length-prefixing each
// name/value pair prevents the classic ambiguity where ("ab","c") and
// ("a","bc") would otherwise hash identically.
func signatureInput(p DecisionProof) []byte {
	idBytes, _ := p.ID.MarshalBinary()
	var buf []byte
	buf = append(buf, idBytes...)
	buf = append(buf, decisionProofKindTag...)
	buf = append(buf, p.Timestamp.UTC().Format(time.RFC3339Nano)...)
	if p.Allowed {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	for _, f := range p.Fields {
		buf = appendLenPrefixed(buf, []byte(f.Name))
		buf = appendLenPrefixed(buf, f.Value)
	}
	return buf
}

func appendLenPrefixed(buf, b []byte) []byte {
	n := uint32(len(b))
	buf = append(buf, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	return append(buf, b...)
}

func bodyHash(key xhash.Hash, p DecisionProof) xhash.Hash {
	return xhash.Chain(key, xhash.Compute(signatureInput(p)))
}

// ProofLog accumulates DecisionProofs under a BLAKE3-keyed signature,
// in strict increasing sequence order, indexed by event and by node
// for lookup.
type ProofLog struct {
	key     xhash.Hash
	entries []DecisionProof
	next    uint64

	byEvent map[id.ID][]int
	byNode  map[id.ID][]int
}

// NewProofLog creates a log keyed by key (typically derived from the
// run's seed via xhash.Compute, so the same run always signs
// identically).
func NewProofLog(key xhash.Hash) *ProofLog {
	return &ProofLog{
		key:     key,
		byEvent: make(map[id.ID][]int),
		byNode:  make(map[id.ID][]int),
	}
}

// Record signs and appends a new decision proof referencing eventID
// (nil if the decision predates any event, e.g. a dry-run evaluation),
// nodeID, policyRef (the policy's name or content hash), the matched
// rule's name, the boolean outcome, and its ordered context fields.
func (l *ProofLog) Record(eventID *id.ID, nodeID id.ID, policyRef, ruleName string, allowed bool, fields []Field) DecisionProof {
	p := DecisionProof{
		ID: id.New(id.Decision), EventID: eventID, NodeID: nodeID,
		PolicyRef: policyRef, RuleName: ruleName, Allowed: allowed,
		Timestamp: time.Now().UTC(), Fields: fields, Sequence: l.next,
	}
	p.Signature = bodyHash(l.key, p)

	idx := len(l.entries)
	l.entries = append(l.entries, p)
	l.next++
	if eventID != nil {
		l.byEvent[*eventID] = append(l.byEvent[*eventID], idx)
	}
	l.byNode[nodeID] = append(l.byNode[nodeID], idx)
	return p
}

// Verify checks that p's signature matches what Record would have
// produced for its body under key.
func Verify(key xhash.Hash, p DecisionProof) error {
	if bodyHash(key, p) != p.Signature {
		return xerrors.Validationf("signature", "decision proof signature mismatch")
	}
	return nil
}

// Entries returns all recorded proofs in sequence order.
func (l *ProofLog) Entries() []DecisionProof {
	out := make([]DecisionProof, len(l.entries))
	copy(out, l.entries)
	return out
}

// ByEvent returns every proof recorded against eventID, in the order
// they were recorded.
func (l *ProofLog) ByEvent(eventID id.ID) []DecisionProof {
	idxs := l.byEvent[eventID]
	out := make([]DecisionProof, len(idxs))
	for i, idx := range idxs {
		out[i] = l.entries[idx]
	}
	return out
}

// ByNode returns every proof recorded against nodeID, in the order
// they were recorded.
func (l *ProofLog) ByNode(nodeID id.ID) []DecisionProof {
	idxs := l.byNode[nodeID]
	out := make([]DecisionProof, len(idxs))
	for i, idx := range idxs {
		out[i] = l.entries[idx]
	}
	return out
}
