package graph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuild_EmptyNodeList(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	g, err := b.Build(nil, nil)
	require.ErrorIs(t, err, ErrEmptyGraph)
	assert.Nil(t, g)
}

func TestBuild_SimpleChain(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	g, err := b.Build([]string{"x", "y", "z"}, [][2]string{{"x", "y"}, {"y", "z"}})
	require.NoError(t, err)

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []string{"x"}, g.Roots())
	assert.Equal(t, []string{"y"}, g.Parents("z"))
	assert.Equal(t, []string{"y"}, g.Children("x"))
	assert.True(t, g.HasNode("y"))
	assert.False(t, g.HasNode("w"))
}

func TestBuild_CycleDetected(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	_, err := b.Build(
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
	)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	require.NotEmpty(t, cycleErr.Cycle)

	// The witness is a closed path.
	assert.Equal(t, cycleErr.Cycle[0], cycleErr.Cycle[len(cycleErr.Cycle)-1])
	assert.GreaterOrEqual(t, len(cycleErr.Cycle), 2)
}

func TestBuild_SelfLoop(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	_, err := b.Build([]string{"a"}, [][2]string{{"a", "a"}})
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "a"}, cycleErr.Cycle)
}

func TestBuild_TooLarge(t *testing.T) {
	b := NewBuilder(2, zap.NewNop())

	_, err := b.Build([]string{"a", "b", "c"}, nil)
	var tooLarge *TooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, 3, tooLarge.NodeCount)
	assert.Equal(t, 2, tooLarge.Limit)
}

func TestBuild_DuplicateNode(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	_, err := b.Build([]string{"a", "b", "a"}, nil)
	var dup *DuplicateNodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Node)
}

func TestBuild_UnknownEndpoint(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	_, err := b.Build([]string{"a"}, [][2]string{{"a", "ghost"}})
	var endpoint *EndpointError
	require.ErrorAs(t, err, &endpoint)
	assert.Equal(t, "ghost", endpoint.Node)
}

func TestBuild_DuplicateEdgesCollapse(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	g, err := b.Build([]string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, 1, g.EdgeCount())
}

func TestDescendants(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	// Diamond with a tail: a -> b, a -> c, b -> d, c -> d, d -> e.
	g, err := b.Build(
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}, {"d", "e"}},
	)
	require.NoError(t, err)

	downstream, ok := g.Descendants("a")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c", "d", "e"}, downstream)

	downstream, ok = g.Descendants("d")
	require.True(t, ok)
	assert.Equal(t, []string{"e"}, downstream)

	downstream, ok = g.Descendants("e")
	require.True(t, ok)
	assert.Empty(t, downstream)

	_, ok = g.Descendants("ghost")
	assert.False(t, ok)
}

func TestPayload_RoundTripsStructure(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	nodes := []string{"x", "y", "z"}
	edges := [][2]string{{"x", "y"}, {"x", "z"}}
	g, err := b.Build(nodes, edges)
	require.NoError(t, err)

	p := g.Payload()
	if diff := cmp.Diff(nodes, p.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(edges, p.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_ErrorsAreNotEmptyGraph(t *testing.T) {
	b := NewBuilder(0, zap.NewNop())

	_, err := b.Build([]string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyGraph))
}
