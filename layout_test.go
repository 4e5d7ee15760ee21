package flatlay

import (
	"errors"
	"reflect"
	"testing"
)

func combinedSchema() Schema {
	return Schema{
		{Name: "id", Type: "int32"},
		{Name: "balance", Type: "float64"},
		{Name: "name", Type: "string", MaxLength: 16},
		{Name: "orders", Type: "object[]", MaxItems: 2, Children: []ChildDef{
			{"price", "float64"}, {"amount", "float32"}, {"side", "int32"},
		}},
	}
}

func TestBuildLayoutScalars(t *testing.T) {
	m := must(BuildLayout(Schema{
		{Name: "id", Type: "int32"},
		{Name: "balance", Type: "float64"},
	}))
	if m.TotalSize != 12 {
		t.Errorf("** TotalSize = %d, wanted 12", m.TotalSize)
	}
	id, _ := m.Field("id")
	balance, _ := m.Field("balance")
	if id == nil || id.Offset != 0 || id.Size != 4 {
		t.Errorf("** id = %+v", id)
	}
	if balance == nil || balance.Offset != 4 || balance.Size != 8 {
		t.Errorf("** balance = %+v", balance)
	}
}

func TestBuildLayoutStringDefaults(t *testing.T) {
	m := must(BuildLayout(Schema{{Name: "s", Type: "string"}}))
	s, _ := m.Field("s")
	if s.MaxLength != DefaultStringCapacity || s.Size != DefaultStringCapacity || m.TotalSize != DefaultStringCapacity {
		t.Errorf("** default string layout = %+v, total %d", s, m.TotalSize)
	}

	m = must(BuildLayout(Schema{{Name: "s", Type: "string", MaxLength: 32}}))
	s, _ = m.Field("s")
	if s.MaxLength != 32 || s.Size != 32 || m.TotalSize != 32 {
		t.Errorf("** explicit string layout = %+v, total %d", s, m.TotalSize)
	}
}

func TestBuildLayoutObject(t *testing.T) {
	m := must(BuildLayout(Schema{
		{Name: "id", Type: "int32"},
		{Name: "pos", Type: "object", Children: []ChildDef{{"x", "float32"}, {"y", "float64"}}},
	}))
	pos, ok := m.Field("pos")
	if !ok {
		t.Fatalf("** pos not found")
	}
	if pos.Offset != 4 || pos.Size != 12 {
		t.Errorf("** pos = %+v", pos)
	}
	x, _ := pos.Child("x")
	y, _ := pos.Child("y")
	if x == nil || x.Offset != 0 || x.Size != 4 {
		t.Errorf("** pos.x = %+v", x)
	}
	if y == nil || y.Offset != 4 || y.Size != 8 {
		t.Errorf("** pos.y = %+v", y)
	}
	if m.TotalSize != 16 {
		t.Errorf("** TotalSize = %d, wanted 16", m.TotalSize)
	}
}

func TestBuildLayoutArray(t *testing.T) {
	m := must(BuildLayout(Schema{
		{Name: "orders", Type: "object[]", MaxItems: 4, Children: []ChildDef{
			{"price", "float64"}, {"amount", "float32"}, {"side", "int32"},
		}},
	}))
	orders, _ := m.Field("orders")
	if orders.ItemStride != 17 {
		t.Errorf("** ItemStride = %d, wanted 17", orders.ItemStride)
	}
	if m.TotalSize != 72 {
		t.Errorf("** TotalSize = %d, wanted 72", m.TotalSize)
	}
	if orders.Offset != 0 || orders.CountOffset != 0 {
		t.Errorf("** orders offsets = %d/%d, wanted 0/0", orders.Offset, orders.CountOffset)
	}
	if orders.Size != 68 {
		t.Errorf("** orders.Size = %d, wanted 68", orders.Size)
	}
	if !orders.HasUsedFlag {
		t.Errorf("** orders.HasUsedFlag = false")
	}
}

func TestBuildLayoutCombined(t *testing.T) {
	m := must(BuildLayout(combinedSchema()))
	if m.TotalSize != 66 {
		t.Fatalf("** TotalSize = %d, wanted 66", m.TotalSize)
	}

	tests := []struct {
		name   string
		offset int
	}{
		{"id", 0},
		{"balance", 4},
		{"name", 12},
		{"orders", 28},
	}
	for _, test := range tests {
		f, ok := m.Field(test.name)
		if !ok {
			t.Fatalf("** field %s not found", test.name)
		}
		if f.Offset != test.offset {
			t.Errorf("** %s.Offset = %d, wanted %d", test.name, f.Offset, test.offset)
		}
	}

	orders, _ := m.Field("orders")
	if orders.CountOffset != 28 || orders.ItemStride != 17 || orders.MaxItems != 2 {
		t.Errorf("** orders = %+v", orders)
	}
	childOffsets := []struct {
		name   string
		offset int
	}{
		{"price", 0}, {"amount", 8}, {"side", 12},
	}
	for _, test := range childOffsets {
		c, ok := orders.Child(test.name)
		if !ok {
			t.Fatalf("** orders.%s not found", test.name)
		}
		if c.Offset != test.offset {
			t.Errorf("** orders.%s.Offset = %d, wanted %d", test.name, c.Offset, test.offset)
		}
	}
}

func TestBuildLayoutDeterministic(t *testing.T) {
	m1 := must(BuildLayout(combinedSchema()))
	m2 := must(BuildLayout(combinedSchema()))
	if !reflect.DeepEqual(m1, m2) {
		t.Errorf("** two compilations of the same schema differ")
	}
}

func TestBuildLayoutErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
	}{
		{"unknown type", Schema{{Name: "x", Type: "uint128"}}},
		{"empty field name", Schema{{Name: "", Type: "int32"}}},
		{"duplicate top-level name", Schema{{Name: "x", Type: "int32"}, {Name: "x", Type: "int64"}}},
		{"object without schema", Schema{{Name: "o", Type: "object"}}},
		{"array without schema", Schema{{Name: "a", Type: "object[]", MaxItems: 2}}},
		{"array without max_items", Schema{{Name: "a", Type: "object[]", Children: []ChildDef{{"x", "int32"}}}}},
		{"array with negative max_items", Schema{{Name: "a", Type: "object[]", MaxItems: -1, Children: []ChildDef{{"x", "int32"}}}}},
		{"negative max_length", Schema{{Name: "s", Type: "string", MaxLength: -5}}},
		{"duplicate child name", Schema{{Name: "o", Type: "object", Children: []ChildDef{{"x", "int32"}, {"x", "float32"}}}}},
		{"empty child name", Schema{{Name: "o", Type: "object", Children: []ChildDef{{"", "int32"}}}}},
		{"int64 child", Schema{{Name: "o", Type: "object", Children: []ChildDef{{"x", "int64"}}}}},
		{"string child", Schema{{Name: "a", Type: "object[]", MaxItems: 2, Children: []ChildDef{{"x", "string"}}}}},
		{"nested object child", Schema{{Name: "o", Type: "object", Children: []ChildDef{{"x", "object"}}}}},
		{"unknown child type", Schema{{Name: "o", Type: "object", Children: []ChildDef{{"x", "decimal"}}}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := BuildLayout(test.schema)
			if err == nil {
				t.Fatalf("** BuildLayout unexpectedly succeeded")
			}
			if !errors.Is(err, ErrSchemaInvalid) {
				t.Errorf("** error %v is not ErrSchemaInvalid", err)
			}
		})
	}
}

func TestBuildLayoutFromParsedJSON(t *testing.T) {
	schema := must(ParseSchema([]byte(sampleSchemaJSON)))
	m := must(BuildLayout(schema))
	if m.TotalSize != 66 {
		t.Errorf("** TotalSize = %d, wanted 66", m.TotalSize)
	}
}
