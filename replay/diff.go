// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package replay

import (
	"bytes"
	"sort"

	"github.com/cathedral-fabric/cathedral/id"
)

// NodeDiff describes how one node's reconstructed state differs
// between two runs.
type NodeDiff struct {
	NodeID      id.ID
	OnlyInA     bool
	OnlyInB     bool
	StatusDiffers bool
	OutputDiffers bool
}

// StateDiff is the full set of per-node differences between two
// reconstructions.
type StateDiff struct {
	Nodes []NodeDiff
}

// Empty reports whether the two reconstructions were identical.
func (d *StateDiff) Empty() bool { return len(d.Nodes) == 0 }

// Diff compares two ReconstructedState values node by node, in
// deterministic NodeID order.
func Diff(a, b *ReconstructedState) *StateDiff {
	ids := make(map[id.ID]struct{})
	for nid := range a.Nodes {
		ids[nid] = struct{}{}
	}
	for nid := range b.Nodes {
		ids[nid] = struct{}{}
	}
	ordered := make([]id.ID, 0, len(ids))
	for nid := range ids {
		ordered = append(ordered, nid)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	out := &StateDiff{}
	for _, nid := range ordered {
		an, inA := a.Nodes[nid]
		bn, inB := b.Nodes[nid]
		switch {
		case inA && !inB:
			out.Nodes = append(out.Nodes, NodeDiff{NodeID: nid, OnlyInA: true})
			continue
		case !inA && inB:
			out.Nodes = append(out.Nodes, NodeDiff{NodeID: nid, OnlyInB: true})
			continue
		}

		nd := NodeDiff{NodeID: nid}
		if an.Completed != bn.Completed || an.Failed != bn.Failed || an.Skipped != bn.Skipped {
			nd.StatusDiffers = true
		}
		if !sameOutput(an.OutputHash, bn.OutputHash) {
			nd.OutputDiffers = true
		}
		if nd.StatusDiffers || nd.OutputDiffers {
			out.Nodes = append(out.Nodes, nd)
		}
	}
	return out
}

func sameOutput(a, b *[32]byte) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return bytes.Equal(a[:], b[:])
}

// Render produces a human-readable report of a StateDiff, one line per
// differing node, for CLI/log output.
func Render(d *StateDiff) string {
	if d.Empty() {
		return "no differences"
	}
	var buf bytes.Buffer
	for _, nd := range d.Nodes {
		buf.WriteString(nd.NodeID.String())
		switch {
		case nd.OnlyInA:
			buf.WriteString(": only in first run\n")
		case nd.OnlyInB:
			buf.WriteString(": only in second run\n")
		default:
			if nd.StatusDiffers {
				buf.WriteString(": terminal status differs")
			}
			if nd.OutputDiffers {
				buf.WriteString(": output hash differs")
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}
