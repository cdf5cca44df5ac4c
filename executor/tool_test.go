// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package executor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cathedral-fabric/cathedral/dag"
	"github.com/cathedral-fabric/cathedral/executor"
)

func structuralAction(t *testing.T, kind dag.NodeKind) executor.Action {
	t.Helper()
	r := executor.NewDefaultResolver(executor.NewToolRegistry())
	action, err := r.Resolve(&dag.Node{Kind: kind})
	require.NoError(t, err)
	return action
}

func TestPassthroughDeterministicAcrossCalls(t *testing.T) {
	for _, kind := range []dag.NodeKind{dag.KindParallel, dag.KindSequence, dag.KindCondition, dag.KindLoop, dag.KindInput, dag.KindOutput} {
		action := structuralAction(t, kind)
		ctx := &executor.ExecutionContext{Inputs: map[string][]byte{
			"z": []byte("3"), "a": []byte("1"), "m": []byte("2"),
		}}

		var first []byte
		for i := 0; i < 20; i++ {
			out, err := action(ctx)
			require.NoError(t, err)
			if i == 0 {
				first = out
			} else {
				require.Equal(t, first, out, "action for kind %v must be deterministic across calls with identical Inputs", kind)
			}
		}
		require.Equal(t, []byte("123"), first, "inputs must be concatenated in sorted-key order: a, m, z")
	}
}

func TestPassthroughEmptyInputs(t *testing.T) {
	action := structuralAction(t, dag.KindParallel)
	out, err := action(&executor.ExecutionContext{})
	require.NoError(t, err)
	require.Nil(t, out)
}
