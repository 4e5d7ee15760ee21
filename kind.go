package flatlay

import "fmt"

// Kind enumerates the field kinds a layout can hold.
type Kind int

const (
	Int32 Kind = iota
	Int64
	Float32
	Float64
	String
	Object
	Array
)

// Tag codes are persisted inside descriptor files and must stay stable
// forever; new kinds append new codes.
const (
	tagInt32   uint8 = 0
	tagInt64   uint8 = 1
	tagFloat32 uint8 = 2
	tagFloat64 uint8 = 3
	tagString  uint8 = 4
	tagObject  uint8 = 5
	tagArray   uint8 = 6
)

func (k Kind) String() string {
	switch k {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "object[]"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) IsScalar() bool {
	switch k {
	case Int32, Int64, Float32, Float64:
		return true
	default:
		return false
	}
}

// ScalarWidth returns the byte width of a scalar kind, or 0 for
// String/Object/Array.
func (k Kind) ScalarWidth() int {
	switch k {
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

func (k Kind) TagCode() uint8 {
	switch k {
	case Int32:
		return tagInt32
	case Int64:
		return tagInt64
	case Float32:
		return tagFloat32
	case Float64:
		return tagFloat64
	case String:
		return tagString
	case Object:
		return tagObject
	case Array:
		return tagArray
	default:
		panic(fmt.Errorf("invalid kind %d", int(k)))
	}
}

func kindFromTag(tag uint8) (Kind, bool) {
	switch tag {
	case tagInt32:
		return Int32, true
	case tagInt64:
		return Int64, true
	case tagFloat32:
		return Float32, true
	case tagFloat64:
		return Float64, true
	case tagString:
		return String, true
	case tagObject:
		return Object, true
	case tagArray:
		return Array, true
	default:
		return 0, false
	}
}

// cppType returns the C++ spelling of a scalar kind for the emitted
// accessor surface.
func (k Kind) cppType() string {
	switch k {
	case Int32:
		return "int"
	case Int64:
		return "long long"
	case Float32:
		return "float"
	case Float64:
		return "double"
	default:
		panic(fmt.Errorf("kind %v has no C++ scalar type", k))
	}
}

// kindFromTypeName maps a schema "type" string to a Kind.
func kindFromTypeName(s string) (Kind, bool) {
	switch s {
	case "int32":
		return Int32, true
	case "int64":
		return Int64, true
	case "float32":
		return Float32, true
	case "float64":
		return Float64, true
	case "string":
		return String, true
	case "object":
		return Object, true
	case "object[]":
		return Array, true
	default:
		return 0, false
	}
}
