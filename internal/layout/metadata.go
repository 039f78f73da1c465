package layout

// Metadata describes the surface a Window node stands for.
//
// Geometry fields are optional: nil means the caller expresses no preference
// and the compositor should use its default.
type Metadata struct {
	Name   string  `json:"name" yaml:"name"`
	ID     uint64  `json:"id" yaml:"id"`
	X      *uint64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y      *uint64 `json:"y,omitempty" yaml:"y,omitempty"`
	Width  *uint64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height *uint64 `json:"height,omitempty" yaml:"height,omitempty"`
	Focus  bool    `json:"focus" yaml:"focus"`
	Halted bool    `json:"halted" yaml:"halted"`
}

// NewMetadata returns focused, running metadata with no geometry preference.
func NewMetadata(name string, id uint64) *Metadata {
	return &Metadata{
		Name:  name,
		ID:    id,
		Focus: true,
	}
}

// Clone returns a deep copy. Clone of nil is nil.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	c.X = cloneDim(m.X)
	c.Y = cloneDim(m.Y)
	c.Width = cloneDim(m.Width)
	c.Height = cloneDim(m.Height)
	return &c
}

// ToggleFocus flips the focus flag.
func (m *Metadata) ToggleFocus() {
	m.Focus = !m.Focus
}

// Dim returns a pointer to v, for filling optional geometry fields.
func Dim(v uint64) *uint64 {
	return &v
}

func cloneDim(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Equal reports whether two metadata values carry the same attributes.
func (m *Metadata) Equal(o *Metadata) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Name == o.Name &&
		m.ID == o.ID &&
		dimEqual(m.X, o.X) &&
		dimEqual(m.Y, o.Y) &&
		dimEqual(m.Width, o.Width) &&
		dimEqual(m.Height, o.Height) &&
		m.Focus == o.Focus &&
		m.Halted == o.Halted
}

func dimEqual(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
