package domain

import (
	"encoding/json"
	"fmt"
)

// ComponentType is the single key naming a node's variant.
type ComponentType string

const (
	ComponentContainer      ComponentType = "container"
	ComponentHero           ComponentType = "hero"
	ComponentText           ComponentType = "text"
	ComponentButton         ComponentType = "button"
	ComponentCard           ComponentType = "card"
	ComponentTable          ComponentType = "table"
	ComponentStat           ComponentType = "stat"
	ComponentProgress       ComponentType = "progress"
	ComponentAlert          ComponentType = "alert"
	ComponentAvatar         ComponentType = "avatar"
	ComponentChart          ComponentType = "chart"
	ComponentAccordion      ComponentType = "accordion"
	ComponentImage          ComponentType = "image"
	ComponentMap            ComponentType = "map"
	ComponentInput          ComponentType = "input"
	ComponentBadge          ComponentType = "badge"
	ComponentSeparator      ComponentType = "separator"
	ComponentBentoContainer ComponentType = "bento_container"
	ComponentBentoCard      ComponentType = "bento_card"
	ComponentKanban         ComponentType = "kanban"
)

// Catalog lists every component type in prompt order.
var Catalog = []ComponentType{
	ComponentContainer, ComponentHero, ComponentText, ComponentButton, ComponentCard,
	ComponentTable, ComponentStat, ComponentProgress, ComponentAlert, ComponentAvatar,
	ComponentChart, ComponentAccordion, ComponentImage, ComponentMap, ComponentInput,
	ComponentBadge, ComponentSeparator, ComponentBentoContainer, ComponentBentoCard, ComponentKanban,
}

var known = func() map[ComponentType]bool {
	m := make(map[ComponentType]bool, len(Catalog))
	for _, c := range Catalog {
		m[c] = true
	}
	return m
}()

// IsComponent reports whether key names a catalog component.
func IsComponent(key string) bool { return known[ComponentType(key)] }

// Props is implemented by every typed property bag.
type Props interface {
	Component() ComponentType
}

// Node is a validated component instance.
type Node struct {
	Type  ComponentType
	Props Props
}

// MarshalJSON writes the wire form {"<type>": props}.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.Props == nil {
		return json.Marshal(map[string]any{string(n.Type): map[string]any{}})
	}
	return json.Marshal(map[string]Props{string(n.Type): n.Props})
}

func (n Node) String() string { return fmt.Sprintf("%s node", n.Type) }

// Children returns the nodes held under the "children" field, if the
// component has one.
func (n Node) Children() []Node {
	switch p := n.Props.(type) {
	case *ContainerProps:
		return p.Children
	case *HeroProps:
		return p.Children
	case *CardProps:
		return p.Children
	case *BentoContainerProps:
		return p.Children
	case *BentoCardProps:
		return p.Children
	}
	return nil
}

type ContainerProps struct {
	Layout     string `json:"layout,omitempty" mapstructure:"layout"`
	Gap        string `json:"gap,omitempty" mapstructure:"gap"`
	Padding    *bool  `json:"padding,omitempty" mapstructure:"padding"`
	Background string `json:"background,omitempty" mapstructure:"background"`
	BgImage    string `json:"bgImage,omitempty" mapstructure:"bgImage"`
	ClassName  string `json:"className,omitempty" mapstructure:"className"`
	Children   []Node `json:"children" mapstructure:"children"`
}

type HeroProps struct {
	Title    string `json:"title,omitempty" mapstructure:"title"`
	Subtitle string `json:"subtitle,omitempty" mapstructure:"subtitle"`
	Gradient string `json:"gradient,omitempty" mapstructure:"gradient"`
	Align    string `json:"align,omitempty" mapstructure:"align"`
	Children []Node `json:"children" mapstructure:"children"`
}

type TextProps struct {
	Content string `json:"content" mapstructure:"content"`
	Variant string `json:"variant,omitempty" mapstructure:"variant"`
	Color   string `json:"color,omitempty" mapstructure:"color"`
	Font    string `json:"font,omitempty" mapstructure:"font"`
}

type ButtonProps struct {
	Label   string  `json:"label,omitempty" mapstructure:"label"`
	Variant string  `json:"variant,omitempty" mapstructure:"variant"`
	Icon    string  `json:"icon,omitempty" mapstructure:"icon"`
	Action  *Action `json:"action,omitempty" mapstructure:"action"`
}

type CardProps struct {
	Title    string `json:"title,omitempty" mapstructure:"title"`
	Variant  string `json:"variant,omitempty" mapstructure:"variant"`
	Children []Node `json:"children" mapstructure:"children"`
}

type TableProps struct {
	Headers []string `json:"headers,omitempty" mapstructure:"headers"`
	Rows    [][]Cell `json:"rows,omitempty" mapstructure:"rows"`
}

type StatProps struct {
	Label          string `json:"label,omitempty" mapstructure:"label"`
	Value          string `json:"value,omitempty" mapstructure:"value"`
	Trend          string `json:"trend,omitempty" mapstructure:"trend"`
	TrendDirection string `json:"trendDirection,omitempty" mapstructure:"trendDirection"`
}

type ProgressProps struct {
	Label string  `json:"label,omitempty" mapstructure:"label"`
	Value float64 `json:"value" mapstructure:"value"`
	Color string  `json:"color,omitempty" mapstructure:"color"`
}

type AlertProps struct {
	Title       string `json:"title,omitempty" mapstructure:"title"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	Variant     string `json:"variant,omitempty" mapstructure:"variant"`
}

type AvatarProps struct {
	Initials string `json:"initials,omitempty" mapstructure:"initials"`
	Src      string `json:"src,omitempty" mapstructure:"src"`
	Status   string `json:"status,omitempty" mapstructure:"status"`
}

type DataPoint struct {
	Name  string  `json:"name" mapstructure:"name"`
	Value float64 `json:"value" mapstructure:"value"`
}

type ChartProps struct {
	Title string      `json:"title,omitempty" mapstructure:"title"`
	Type  string      `json:"type,omitempty" mapstructure:"type"`
	Color string      `json:"color,omitempty" mapstructure:"color"`
	Data  []DataPoint `json:"data" mapstructure:"data"`
}

type AccordionItem struct {
	Title   string `json:"title" mapstructure:"title"`
	Content []Node `json:"content" mapstructure:"content"`
}

type AccordionProps struct {
	Variant string          `json:"variant,omitempty" mapstructure:"variant"`
	Items   []AccordionItem `json:"items" mapstructure:"items"`
}

type ImageProps struct {
	Src         string `json:"src,omitempty" mapstructure:"src"`
	Alt         string `json:"alt,omitempty" mapstructure:"alt"`
	Caption     string `json:"caption,omitempty" mapstructure:"caption"`
	AspectRatio string `json:"aspectRatio,omitempty" mapstructure:"aspectRatio"`
}

type Marker struct {
	Title string  `json:"title" mapstructure:"title"`
	Lat   float64 `json:"lat" mapstructure:"lat"`
	Lng   float64 `json:"lng" mapstructure:"lng"`
}

type MapProps struct {
	Label       string   `json:"label,omitempty" mapstructure:"label"`
	DefaultZoom *float64 `json:"defaultZoom,omitempty" mapstructure:"defaultZoom"`
	Style       string   `json:"style,omitempty" mapstructure:"style"`
	Markers     []Marker `json:"markers" mapstructure:"markers"`
}

type InputProps struct {
	Label       string `json:"label,omitempty" mapstructure:"label"`
	Placeholder string `json:"placeholder,omitempty" mapstructure:"placeholder"`
	InputType   string `json:"inputType,omitempty" mapstructure:"inputType"`
	Value       string `json:"value,omitempty" mapstructure:"value"`
}

type BadgeProps struct {
	Label string `json:"label,omitempty" mapstructure:"label"`
	Color string `json:"color,omitempty" mapstructure:"color"`
}

type SeparatorProps struct{}

type BentoContainerProps struct {
	Children []Node `json:"children" mapstructure:"children"`
}

type BentoCardProps struct {
	Title    string `json:"title,omitempty" mapstructure:"title"`
	ColSpan  int    `json:"colSpan" mapstructure:"colSpan"`
	RowSpan  int    `json:"rowSpan" mapstructure:"rowSpan"`
	BgImage  string `json:"bgImage,omitempty" mapstructure:"bgImage"`
	Children []Node `json:"children" mapstructure:"children"`
}

type KanbanColumn struct {
	Title string       `json:"title,omitempty" mapstructure:"title"`
	Color string       `json:"color,omitempty" mapstructure:"color"`
	Items []KanbanItem `json:"items" mapstructure:"items"`
}

type KanbanProps struct {
	Columns []KanbanColumn `json:"columns" mapstructure:"columns"`
}

func (*ContainerProps) Component() ComponentType      { return ComponentContainer }
func (*HeroProps) Component() ComponentType           { return ComponentHero }
func (*TextProps) Component() ComponentType           { return ComponentText }
func (*ButtonProps) Component() ComponentType         { return ComponentButton }
func (*CardProps) Component() ComponentType           { return ComponentCard }
func (*TableProps) Component() ComponentType          { return ComponentTable }
func (*StatProps) Component() ComponentType           { return ComponentStat }
func (*ProgressProps) Component() ComponentType       { return ComponentProgress }
func (*AlertProps) Component() ComponentType          { return ComponentAlert }
func (*AvatarProps) Component() ComponentType         { return ComponentAvatar }
func (*ChartProps) Component() ComponentType          { return ComponentChart }
func (*AccordionProps) Component() ComponentType      { return ComponentAccordion }
func (*ImageProps) Component() ComponentType          { return ComponentImage }
func (*MapProps) Component() ComponentType            { return ComponentMap }
func (*InputProps) Component() ComponentType          { return ComponentInput }
func (*BadgeProps) Component() ComponentType          { return ComponentBadge }
func (*SeparatorProps) Component() ComponentType      { return ComponentSeparator }
func (*BentoContainerProps) Component() ComponentType { return ComponentBentoContainer }
func (*BentoCardProps) Component() ComponentType      { return ComponentBentoCard }
func (*KanbanProps) Component() ComponentType         { return ComponentKanban }

// NewProps returns an empty property bag for a component type, or nil for a
// type outside the catalog.
func NewProps(t ComponentType) Props {
	switch t {
	case ComponentContainer:
		return &ContainerProps{}
	case ComponentHero:
		return &HeroProps{}
	case ComponentText:
		return &TextProps{}
	case ComponentButton:
		return &ButtonProps{}
	case ComponentCard:
		return &CardProps{}
	case ComponentTable:
		return &TableProps{}
	case ComponentStat:
		return &StatProps{}
	case ComponentProgress:
		return &ProgressProps{}
	case ComponentAlert:
		return &AlertProps{}
	case ComponentAvatar:
		return &AvatarProps{}
	case ComponentChart:
		return &ChartProps{}
	case ComponentAccordion:
		return &AccordionProps{}
	case ComponentImage:
		return &ImageProps{}
	case ComponentMap:
		return &MapProps{}
	case ComponentInput:
		return &InputProps{}
	case ComponentBadge:
		return &BadgeProps{}
	case ComponentSeparator:
		return &SeparatorProps{}
	case ComponentBentoContainer:
		return &BentoContainerProps{}
	case ComponentBentoCard:
		return &BentoCardProps{}
	case ComponentKanban:
		return &KanbanProps{}
	}
	return nil
}
