package render

import (
	"fmt"
	"strings"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/treepath"
)

// Builtins returns a registry with an implementation for every catalog
// component.
func Builtins() *Registry {
	leaf := ComponentFunc(func(*Scope, *domain.Node, map[string]any) error { return nil })
	return NewRegistry(map[domain.ComponentType]Component{
		domain.ComponentContainer:      ComponentFunc(withChildren),
		domain.ComponentHero:           ComponentFunc(withChildren),
		domain.ComponentCard:           ComponentFunc(withChildren),
		domain.ComponentBentoContainer: ComponentFunc(withChildren),
		domain.ComponentBentoCard:      ComponentFunc(bentoCard),
		domain.ComponentText:           leaf,
		domain.ComponentButton:         leaf,
		domain.ComponentStat:           leaf,
		domain.ComponentAlert:          leaf,
		domain.ComponentAvatar:         leaf,
		domain.ComponentImage:          leaf,
		domain.ComponentInput:          leaf,
		domain.ComponentBadge:          leaf,
		domain.ComponentSeparator:      leaf,
		domain.ComponentKanban:         leaf,
		domain.ComponentTable:          ComponentFunc(table),
		domain.ComponentProgress:       ComponentFunc(progress),
		domain.ComponentChart:          ComponentFunc(chart),
		domain.ComponentAccordion:      ComponentFunc(accordion),
		domain.ComponentMap:            ComponentFunc(mapView),
	})
}

func withChildren(s *Scope, _ *domain.Node, bag map[string]any) error {
	s.Children(bag["children"])
	return nil
}

func bentoCard(s *Scope, n *domain.Node, bag map[string]any) error {
	p := n.Props.(*domain.BentoCardProps)
	if p.ColSpan < 1 || p.ColSpan > 4 {
		return fmt.Errorf("colSpan %d out of range 1-4", p.ColSpan)
	}
	if p.RowSpan < 1 || p.RowSpan > 3 {
		return fmt.Errorf("rowSpan %d out of range 1-3", p.RowSpan)
	}
	s.Children(bag["children"])
	return nil
}

func progress(_ *Scope, n *domain.Node, _ map[string]any) error {
	p := n.Props.(*domain.ProgressProps)
	if p.Value < 0 || p.Value > 100 {
		return fmt.Errorf("progress value %g out of range 0-100", p.Value)
	}
	return nil
}

func chart(_ *Scope, n *domain.Node, _ map[string]any) error {
	p := n.Props.(*domain.ChartProps)
	switch strings.ToUpper(p.Type) {
	case "", "BAR", "LINE", "AREA":
		return nil
	}
	return fmt.Errorf("unsupported chart type %q", p.Type)
}

func mapView(_ *Scope, n *domain.Node, _ map[string]any) error {
	p := n.Props.(*domain.MapProps)
	for i, m := range p.Markers {
		if m.Lat < -90 || m.Lat > 90 || m.Lng < -180 || m.Lng > 180 {
			return fmt.Errorf("marker %d has invalid coordinates %g,%g", i, m.Lat, m.Lng)
		}
	}
	return nil
}

func accordion(s *Scope, _ *domain.Node, bag map[string]any) error {
	items, _ := bag["items"].([]any)
	for i, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		s.List(treepath.Path{treepath.Field("items"), treepath.Index(i), treepath.Field("content")}, item["content"])
	}
	return nil
}

// table renders node cells in place. A row wider than the declared headers
// cannot be laid out.
func table(s *Scope, n *domain.Node, bag map[string]any) error {
	p := n.Props.(*domain.TableProps)
	cols := 0
	for _, h := range p.Headers {
		if strings.TrimSpace(h) != "" {
			cols++
		}
	}
	for i, row := range p.Rows {
		if cols > 0 && len(row) > cols {
			return fmt.Errorf("row %d has %d cells for %d headers", i, len(row), cols)
		}
	}

	rows, _ := bag["rows"].([]any)
	for i, r := range rows {
		cells, _ := r.([]any)
		for j, c := range cells {
			if _, ok := c.(map[string]any); !ok {
				continue
			}
			s.Node(treepath.Path{treepath.Field("rows"), treepath.Index(i), treepath.Index(j)}, c)
		}
	}
	return nil
}
