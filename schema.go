package flatlay

import (
	"fmt"
	"os"

	"github.com/valyala/fastjson"
)

// Schema is the parsed layout definition, in declaration order. Order is
// significant: it determines field offsets.
type Schema []FieldDef

// FieldDef describes one top-level field before compilation.
type FieldDef struct {
	Name      string
	Type      string
	MaxLength int        // string only; 0 means the default capacity
	MaxItems  int        // object[] only
	Children  []ChildDef // object and object[] only, in declaration order
	hasSchema bool       // a "schema" key was present, even if empty
}

// ChildDef describes one child of an object or object[] field.
type ChildDef struct {
	Name string
	Type string
}

// ParseSchemaFile reads and parses a layout definition file of the shape
// {"layout": {field: def, ...}}.
func ParseSchemaFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema parses a layout definition, preserving field declaration
// order. Structural problems (bad JSON, wrong value types) are reported
// here; semantic validation happens in BuildLayout so that schemas built
// in code get the same checks.
func ParseSchema(data []byte) (Schema, error) {
	root, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, schemaErrf("", "malformed JSON: %v", err)
	}
	layout := root.Get("layout")
	if layout == nil {
		return nil, schemaErrf("", "missing top-level \"layout\" key")
	}
	obj, err := layout.Object()
	if err != nil {
		return nil, schemaErrf("", "\"layout\" is not an object")
	}

	var schema Schema
	var firstErr error
	obj.Visit(func(key []byte, v *fastjson.Value) {
		if firstErr != nil {
			return
		}
		def, err := parseFieldDef(string(key), v)
		if err != nil {
			firstErr = err
			return
		}
		schema = append(schema, def)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return schema, nil
}

func parseFieldDef(name string, v *fastjson.Value) (FieldDef, error) {
	def := FieldDef{Name: name}

	if _, err := v.Object(); err != nil {
		return def, schemaErrf(name, "definition is not an object")
	}

	typ := v.Get("type")
	if typ == nil {
		return def, schemaErrf(name, "missing \"type\"")
	}
	typeBytes, err := typ.StringBytes()
	if err != nil {
		return def, schemaErrf(name, "\"type\" is not a string")
	}
	def.Type = string(typeBytes)

	if ml := v.Get("max_length"); ml != nil {
		n, err := ml.Int()
		if err != nil {
			return def, schemaErrf(name, "\"max_length\" is not an integer")
		}
		def.MaxLength = n
	}
	if mi := v.Get("max_items"); mi != nil {
		n, err := mi.Int()
		if err != nil {
			return def, schemaErrf(name, "\"max_items\" is not an integer")
		}
		def.MaxItems = n
	}

	if sub := v.Get("schema"); sub != nil {
		def.hasSchema = true
		so, err := sub.Object()
		if err != nil {
			return def, schemaErrf(name, "\"schema\" is not an object")
		}
		var childErr error
		so.Visit(func(key []byte, cv *fastjson.Value) {
			if childErr != nil {
				return
			}
			ct, err := cv.StringBytes()
			if err != nil {
				childErr = schemaErrf(name+"."+string(key), "child type is not a string")
				return
			}
			def.Children = append(def.Children, ChildDef{Name: string(key), Type: string(ct)})
		})
		if childErr != nil {
			return def, childErr
		}
	}

	return def, nil
}
