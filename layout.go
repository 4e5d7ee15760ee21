package flatlay

// DefaultStringCapacity is the string field capacity when the schema does
// not carry an explicit max_length.
const DefaultStringCapacity = 256

// arrayCountSize is the byte width of the little-endian item count prefix
// that precedes every array's slot region.
const arrayCountSize = 4

// Field is the compiled descriptor of one named region of the buffer.
//
// Offset is absolute for top-level fields. For children of an object it is
// relative to the object start; for children of an array it is relative to
// the item payload, not counting the occupancy byte (accessors add it).
type Field struct {
	Name        string
	Kind        Kind
	Offset      int
	Size        int
	MaxLength   int // String: capacity in bytes, terminator included
	CountOffset int // Array: absolute offset of the uint32 count prefix
	ItemStride  int // Array: byte distance between successive slots
	MaxItems    int // Array: capacity in items
	HasUsedFlag bool
	Children    []Field

	childIndex map[string]int
}

// Child resolves a child field of an Object or Array field by name.
func (f *Field) Child(name string) (*Field, bool) {
	i, ok := f.childIndex[name]
	if !ok {
		return nil, false
	}
	return &f.Children[i], true
}

func (f *Field) rebuildChildIndex() {
	if len(f.Children) == 0 {
		f.childIndex = nil
		return
	}
	f.childIndex = make(map[string]int, len(f.Children))
	for i := range f.Children {
		f.Children[i].rebuildChildIndex()
		f.childIndex[f.Children[i].Name] = i
	}
}

// LayoutMap is the compiled layout: all top-level fields in schema order
// and the total byte length of the root buffer.
type LayoutMap struct {
	TotalSize int
	Fields    []Field

	fieldIndex map[string]int
}

// Field resolves a top-level field by name.
func (m *LayoutMap) Field(name string) (*Field, bool) {
	i, ok := m.fieldIndex[name]
	if !ok {
		return nil, false
	}
	return &m.Fields[i], true
}

func (m *LayoutMap) rebuildIndex() {
	m.fieldIndex = make(map[string]int, len(m.Fields))
	for i := range m.Fields {
		m.Fields[i].rebuildChildIndex()
		m.fieldIndex[m.Fields[i].Name] = i
	}
}

// BuildLayout compiles a schema into a LayoutMap. Offsets are fully
// determined by declaration order, so the same schema always compiles to
// the same layout.
//
// An array field's Offset equals its CountOffset; the slot region starts
// at Offset+4, and Size covers the slots only (the count prefix is
// accounted separately in the running cursor).
func BuildLayout(schema Schema) (*LayoutMap, error) {
	m := &LayoutMap{
		fieldIndex: make(map[string]int, len(schema)),
	}

	off := 0
	for _, def := range schema {
		if def.Name == "" {
			return nil, schemaErrf("", "empty field name")
		}
		if _, dup := m.fieldIndex[def.Name]; dup {
			return nil, schemaErrf(def.Name, "duplicate field name")
		}

		kind, ok := kindFromTypeName(def.Type)
		if !ok {
			return nil, schemaErrf(def.Name, "unknown type %q", def.Type)
		}

		field := Field{Name: def.Name, Kind: kind}
		switch kind {
		case Int32, Int64, Float32, Float64:
			field.Offset = off
			field.Size = kind.ScalarWidth()
			off += field.Size

		case String:
			field.MaxLength = def.MaxLength
			if field.MaxLength == 0 {
				field.MaxLength = DefaultStringCapacity
			}
			if field.MaxLength < 0 {
				return nil, schemaErrf(def.Name, "max_length must be positive, got %d", def.MaxLength)
			}
			field.Offset = off
			field.Size = field.MaxLength
			off += field.Size

		case Object:
			children, size, err := buildChildren(def)
			if err != nil {
				return nil, err
			}
			field.Children = children
			field.Offset = off
			field.Size = size
			off += field.Size

		case Array:
			if def.MaxItems <= 0 {
				return nil, schemaErrf(def.Name, "object[] requires a positive max_items")
			}
			children, itemSize, err := buildChildren(def)
			if err != nil {
				return nil, err
			}
			field.Children = children
			field.HasUsedFlag = true
			field.MaxItems = def.MaxItems
			field.CountOffset = off
			field.Offset = off
			field.ItemStride = itemSize + 1
			field.Size = field.ItemStride * field.MaxItems
			off += arrayCountSize + field.Size
		}

		field.rebuildChildIndex()
		m.fieldIndex[field.Name] = len(m.Fields)
		m.Fields = append(m.Fields, field)
	}

	m.TotalSize = off
	return m, nil
}

// buildChildren lays out the scalar children of an object or object[]
// definition over an inner cursor starting at zero. Child offsets never
// include the occupancy byte; accessors add it for array items.
func buildChildren(def FieldDef) ([]Field, int, error) {
	if !def.hasSchema && len(def.Children) == 0 {
		return nil, 0, schemaErrf(def.Name, "%s requires a \"schema\"", def.Type)
	}
	if len(def.Children) == 0 {
		return nil, 0, schemaErrf(def.Name, "\"schema\" must not be empty")
	}

	children := make([]Field, 0, len(def.Children))
	seen := make(map[string]bool, len(def.Children))
	iff := 0
	for _, cd := range def.Children {
		path := def.Name + "." + cd.Name
		if cd.Name == "" {
			return nil, 0, schemaErrf(def.Name, "empty child name")
		}
		if seen[cd.Name] {
			return nil, 0, schemaErrf(path, "duplicate field name")
		}
		seen[cd.Name] = true

		kind, ok := kindFromTypeName(cd.Type)
		if !ok {
			return nil, 0, schemaErrf(path, "unknown type %q", cd.Type)
		}
		switch kind {
		case Int32, Float32, Float64:
		default:
			return nil, 0, schemaErrf(path, "child type must be int32, float32 or float64, got %q", cd.Type)
		}

		children = append(children, Field{
			Name:   cd.Name,
			Kind:   kind,
			Offset: iff,
			Size:   kind.ScalarWidth(),
		})
		iff += kind.ScalarWidth()
	}
	return children, iff, nil
}
