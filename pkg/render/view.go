package render

// View is the JSON form of a rendered element, used by the HTTP and MCP
// adapters.
type View struct {
	Path      string             `json:"path"`
	PropsPath string             `json:"props_path,omitempty"`
	Component string             `json:"component,omitempty"`
	Props     any                `json:"props,omitempty"`
	Children  []*View            `json:"children,omitempty"`
	Slots     map[string][]*View `json:"slots,omitempty"`
	Status    string             `json:"status"`
	Message   string             `json:"message,omitempty"`
	Key       string             `json:"key,omitempty"`
	Sample    string             `json:"sample,omitempty"`
	Selected  bool               `json:"selected,omitempty"`
}

// NewView converts a rendered tree. A nil element, a node the
// renderer skipped, maps to nil.
func NewView(el *Element) *View {
	if el == nil {
		return nil
	}
	v := &View{
		Path:      el.Path,
		PropsPath: el.PropsPath,
		Component: string(el.Component),
		Props:     el.Props,
		Status:    el.Status.String(),
		Message:   el.Message,
		Key:       el.Key,
		Sample:    el.Sample,
		Selected:  el.Selected,
	}
	for _, c := range el.Children {
		if cv := NewView(c); cv != nil {
			v.Children = append(v.Children, cv)
		}
	}
	for name, list := range el.Slots {
		if v.Slots == nil {
			v.Slots = make(map[string][]*View, len(el.Slots))
		}
		for _, c := range list {
			v.Slots[name] = append(v.Slots[name], NewView(c))
		}
	}
	return v
}
