// Package topology describes which constructs make up each stack and what each construct
// depends on. The deployer uses it to order stacks; tests use it to keep the foundation from
// ever depending on the application.
package topology

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/emicklei/dot"
)

// Stack is one independently deployed Pulumi project.
type Stack string

const (
	Foundation  Stack = "foundation"
	Application Stack = "application"
)

// Construct is a vertex: a component resource and the stack it lives in.
type Construct struct {
	Name  string
	Stack Stack
}

func (c Construct) key() string { return c.Name }

// Graph edges point from a dependency to the construct that needs it.
type Graph graph.Graph[string, Construct]

var ErrStackCycle = errors.New("stacks depend on each other")

func New() Graph {
	return graph.New(Construct.key, graph.Directed(), graph.PreventCycles())
}

var foundationConstructs = []string{"DNS", "Network", "SecurityGroups", "VpcLink", "DataStores", "Registry", "Bastion"}

var applicationConstructs = []string{"Storage", "Queues", "Cluster", "Events", "Backend", "Frontend"}

var dependencies = map[string][]string{
	"SecurityGroups": {"Network"},
	"VpcLink":        {"Network", "SecurityGroups"},
	"DataStores":     {"Network", "SecurityGroups"},
	"Bastion":        {"Network", "SecurityGroups"},

	"Storage":  {"DNS"},
	"Events":   {"Queues"},
	"Backend":  {"Cluster", "Network", "SecurityGroups", "DNS", "VpcLink", "Registry"},
	"Frontend": {"Cluster", "Network", "SecurityGroups", "DNS", "Registry"},
}

// Default is the construct graph this repository deploys.
func Default() (Graph, error) {
	g := New()
	for stack, names := range map[Stack][]string{Foundation: foundationConstructs, Application: applicationConstructs} {
		for _, name := range names {
			if err := g.AddVertex(Construct{Name: name, Stack: stack}); err != nil {
				return nil, err
			}
		}
	}
	for dependent, deps := range dependencies {
		for _, dep := range deps {
			if err := g.AddEdge(dep, dependent); err != nil {
				return nil, fmt.Errorf("%s -> %s: %w", dep, dependent, err)
			}
		}
	}
	return g, nil
}

// Order returns the constructs in creation order, ties broken by name.
func Order(g Graph) ([]string, error) {
	return graph.StableTopologicalSort[string, Construct](g, func(a, b string) bool { return a < b })
}

// Violations lists every edge where a foundation construct depends on an application
// construct.
func Violations(g Graph) ([]graph.Edge[string], error) {
	edges, err := g.Edges()
	if err != nil {
		return nil, err
	}
	var out []graph.Edge[string]
	for _, e := range edges {
		src, err := g.Vertex(e.Source)
		if err != nil {
			return nil, err
		}
		tgt, err := g.Vertex(e.Target)
		if err != nil {
			return nil, err
		}
		if src.Stack == Application && tgt.Stack == Foundation {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out, nil
}

// StackOrder collapses the construct graph to stacks and returns them in deploy order.
func StackOrder(g Graph) ([]Stack, error) {
	stacks := graph.New(func(s Stack) Stack { return s }, graph.Directed(), graph.PreventCycles())

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	for name := range adjacency {
		c, err := g.Vertex(name)
		if err != nil {
			return nil, err
		}
		if err := stacks.AddVertex(c.Stack); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, err
		}
	}
	for source, targets := range adjacency {
		src, _ := g.Vertex(source)
		for target := range targets {
			tgt, _ := g.Vertex(target)
			if src.Stack == tgt.Stack {
				continue
			}
			err := stacks.AddEdge(src.Stack, tgt.Stack)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, fmt.Errorf("%w: %s -> %s", ErrStackCycle, source, target)
			default:
				return nil, err
			}
		}
	}
	return graph.StableTopologicalSort(stacks, func(a, b Stack) bool { return a < b })
}

// WriteDOT renders the graph with one cluster per stack.
func WriteDOT(g Graph, w io.Writer) error {
	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return err
	}
	order, err := Order(g)
	if err != nil {
		return err
	}

	out := dot.NewGraph(dot.Directed)
	out.Attr("rankdir", "LR")
	out.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	clusters := map[Stack]*dot.Graph{}
	nodes := map[string]dot.Node{}
	for _, name := range order {
		c, err := g.Vertex(name)
		if err != nil {
			return err
		}
		cluster, ok := clusters[c.Stack]
		if !ok {
			cluster = out.Subgraph(string(c.Stack), dot.ClusterOption{})
			cluster.Attr("label", string(c.Stack))
			cluster.Attr("style", "rounded")
			clusters[c.Stack] = cluster
		}
		nodes[name] = cluster.Node(name)
	}

	for _, source := range order {
		targets := make([]string, 0, len(adjacency[source]))
		for target := range adjacency[source] {
			targets = append(targets, target)
		}
		sort.Strings(targets)
		for _, target := range targets {
			out.Edge(nodes[source], nodes[target])
		}
	}

	_, err = io.WriteString(w, out.String())
	return err
}
