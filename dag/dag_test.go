// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package dag_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cathedral-fabric/cathedral/dag"
	"github.com/cathedral-fabric/cathedral/id"
)

func node(name string) *dag.Node {
	return &dag.Node{ID: id.NodeIDFromName(name), Kind: dag.KindTool, Name: name, Deps: dag.NewOrderedSet()}
}

func TestAddNodeDuplicate(t *testing.T) {
	g := dag.New()
	a := node("a")
	require.NoError(t, g.AddNode(a))
	require.Error(t, g.AddNode(a))
}

func TestAddEdgeMissingEndpoint(t *testing.T) {
	g := dag.New()
	a := node("a")
	require.NoError(t, g.AddNode(a))
	err := g.AddEdge(dag.Edge{From: a.ID, To: id.NodeIDFromName("ghost")})
	require.Error(t, err)
}

// TestCycleRejection is scenario S3: build A and B, add edge A->B
// successfully, then reject B->A, leaving DAG state unchanged.
func TestCycleRejection(t *testing.T) {
	g := dag.New()
	a, b := node("a"), node("b")
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddEdge(dag.Edge{From: a.ID, To: b.ID}))

	before := g.Len()
	err := g.AddEdge(dag.Edge{From: b.ID, To: a.ID})
	require.Error(t, err)
	require.Equal(t, before, g.Len())
	require.Contains(t, g.Dependents(a.ID), b.ID)
	require.NotContains(t, g.Dependents(b.ID), a.ID)
}

// TestDiamondEntryExit is the diamond shape of scenario S2.
func TestDiamondEntryExit(t *testing.T) {
	g := dag.New()
	a, b, c, d := node("a"), node("b"), node("c"), node("d")
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddNode(c))
	require.NoError(t, g.AddNode(d))
	require.NoError(t, g.AddEdge(dag.Edge{From: a.ID, To: b.ID}))
	require.NoError(t, g.AddEdge(dag.Edge{From: a.ID, To: c.ID}))
	require.NoError(t, g.AddEdge(dag.Edge{From: b.ID, To: d.ID}))
	require.NoError(t, g.AddEdge(dag.Edge{From: c.ID, To: d.ID}))

	require.Equal(t, []id.ID{a.ID}, g.EntryNodes())
	require.Equal(t, []id.ID{d.ID}, g.ExitNodes())
	require.ElementsMatch(t, []id.ID{b.ID, c.ID}, g.Dependencies(d.ID))
	require.NoError(t, g.Validate())
}

func TestAddNodeWithDepsRollsBackOnCycle(t *testing.T) {
	g := dag.New()
	a, b := node("a"), node("b")
	require.NoError(t, g.AddNode(a))
	b.Deps.Add(a.ID)
	require.NoError(t, g.AddNode(b))

	c := node("c")
	c.Deps.Add(b.ID)
	c.Deps.Add(a.ID)
	require.NoError(t, g.AddNode(c))

	// Now attempt to add a node whose declared dep set names itself: the
	// direct self-loop is rejected and the insertion is rolled back.
	before := g.Len()
	selfLoop := node("self")
	selfLoop.Deps.Add(selfLoop.ID)
	err := g.AddNode(selfLoop)
	require.Error(t, err)
	require.Equal(t, before, g.Len())
	_, exists := g.Node(selfLoop.ID)
	require.False(t, exists)
}
