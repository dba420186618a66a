package topology

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHasNoViolations(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)

	violations, err := Violations(g)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestStackOrder(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)

	order, err := StackOrder(g)
	require.NoError(t, err)
	assert.Equal(t, []Stack{Foundation, Application}, order)
}

func TestOrderRespectsDependencies(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)

	order, err := Order(g)
	require.NoError(t, err)

	pos := map[string]int{}
	for i, name := range order {
		pos[name] = i
	}
	for dependent, deps := range dependencies {
		for _, dep := range deps {
			assert.Less(t, pos[dep], pos[dependent], "%s must come before %s", dep, dependent)
		}
	}
}

func TestFoundationDependingOnApplicationIsReported(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)
	require.NoError(t, g.AddEdge("Queues", "DataStores"))

	violations, err := Violations(g)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "Queues", violations[0].Source)
	assert.Equal(t, "DataStores", violations[0].Target)

	_, err = StackOrder(g)
	assert.ErrorIs(t, err, ErrStackCycle)
}

func TestConstructCycleIsRejected(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)

	err = g.AddEdge("Backend", "Cluster")
	assert.ErrorIs(t, err, graph.ErrEdgeCreatesCycle)
}

func TestWriteDOT(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(g, &buf))
	out := buf.String()

	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "cluster")
	for _, name := range append(append([]string{}, foundationConstructs...), applicationConstructs...) {
		assert.Contains(t, out, `label="`+name+`"`)
	}

	edges := 0
	for _, deps := range dependencies {
		edges += len(deps)
	}
	assert.Equal(t, edges, strings.Count(out, "->"))
}
