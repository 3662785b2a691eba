package graph

import (
	"errors"
	"testing"

	"github.com/maxatome/go-testdeep/td"
)

func collect(t *testing.T, g *Graph[string, int], visited map[string]bool, roots ...string) []string {
	t.Helper()
	var order []string
	for _, r := range roots {
		err := g.Visit(r, visited, func(n *Node[string, int]) error {
			order = append(order, n.Key)
			return nil
		})
		td.CmpNoError(t, err)
	}
	return order
}

func TestFindOrCreateIdempotent(t *testing.T) {
	g := New[string, int]()
	a := g.FindOrCreate("A")
	a.Value = 7

	td.Cmp(t, g.FindOrCreate("A"), td.Shallow(a))
	td.Cmp(t, g.Len(), 1)

	n, ok := g.Lookup("A")
	td.CmpTrue(t, ok)
	td.Cmp(t, n.Value, 7)

	_, ok = g.Lookup("B")
	td.CmpFalse(t, ok)
}

func TestAddChildDuplicateEdges(t *testing.T) {
	g := New[string, int]()
	g.AddChild("A", "B")
	g.AddChild("A", "B")
	g.AddChild("A", "C")

	a, _ := g.Lookup("A")
	var keys []string
	for _, c := range a.Children() {
		keys = append(keys, c.Key)
	}
	td.Cmp(t, keys, []string{"B", "C"})
	td.Cmp(t, g.Keys(), []string{"A", "B", "C"})
}

func TestVisitCycle(t *testing.T) {
	g := New[string, int]()
	g.AddChild("A", "B")
	g.AddChild("B", "C")
	g.AddChild("C", "A")

	visited := map[string]bool{}
	td.Cmp(t, collect(t, g, visited, "A"), []string{"A", "B", "C"})
	td.Cmp(t, visited, map[string]bool{"A": true, "B": true, "C": true})
}

func TestVisitDiamond(t *testing.T) {
	g := New[string, int]()
	g.AddChild("TOP", "L")
	g.AddChild("TOP", "R")
	g.AddChild("L", "LEAF")
	g.AddChild("R", "LEAF")

	td.Cmp(t, collect(t, g, map[string]bool{}, "TOP"), []string{"TOP", "L", "LEAF", "R"})
}

func TestVisitSharedVisitedSet(t *testing.T) {
	g := New[string, int]()
	g.AddChild("A", "X")
	g.AddChild("B", "X")
	g.AddChild("B", "Y")

	visited := map[string]bool{}
	td.Cmp(t, collect(t, g, visited, "A", "B"), []string{"A", "X", "B", "Y"})

	// A fresh set revisits everything, so traversal is re-entrant.
	td.Cmp(t, collect(t, g, map[string]bool{}, "B"), []string{"B", "X", "Y"})
}

func TestVisitMissingRoot(t *testing.T) {
	g := New[string, int]()
	td.Cmp(t, collect(t, g, map[string]bool{}, "GHOST"), []string{"GHOST"})
}

func TestVisitStopsOnError(t *testing.T) {
	g := New[string, int]()
	g.AddChild("A", "B")
	g.AddChild("B", "C")

	stop := errors.New("stop")
	var seen []string
	err := g.Visit("A", map[string]bool{}, func(n *Node[string, int]) error {
		seen = append(seen, n.Key)
		if n.Key == "B" {
			return stop
		}
		return nil
	})
	td.Cmp(t, err, stop)
	td.Cmp(t, seen, []string{"A", "B"})
}
