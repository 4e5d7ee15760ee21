package flatlay

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestDescriptorRoundTrip(t *testing.T) {
	m1 := must(BuildLayout(combinedSchema()))
	blob := EncodeLayout(m1)
	m2 := must(DecodeLayout(blob))

	if m1.TotalSize != m2.TotalSize {
		t.Errorf("** TotalSize %d != %d", m1.TotalSize, m2.TotalSize)
	}
	if !reflect.DeepEqual(m1, m2) {
		t.Errorf("** decoded layout differs:\n  orig: %+v\n  back: %+v", m1, m2)
	}
}

func TestEncodeLayoutDeterministic(t *testing.T) {
	m := must(BuildLayout(combinedSchema()))
	if !bytes.Equal(EncodeLayout(m), EncodeLayout(m)) {
		t.Errorf("** two encodings of the same layout differ")
	}
}

func TestDescriptorRoundTripAllKinds(t *testing.T) {
	m1 := must(BuildLayout(Schema{
		{Name: "a", Type: "int32"},
		{Name: "b", Type: "int64"},
		{Name: "c", Type: "float32"},
		{Name: "d", Type: "float64"},
		{Name: "e", Type: "string", MaxLength: 8},
		{Name: "f", Type: "object", Children: []ChildDef{{"x", "float32"}}},
		{Name: "g", Type: "object[]", MaxItems: 3, Children: []ChildDef{{"y", "float64"}}},
	}))
	m2 := must(DecodeLayout(EncodeLayout(m1)))
	if !reflect.DeepEqual(m1, m2) {
		t.Errorf("** decoded layout differs:\n  orig: %+v\n  back: %+v", m1, m2)
	}
	e, _ := m2.Field("e")
	if e.MaxLength != 8 {
		t.Errorf("** string MaxLength not reconstructed: %+v", e)
	}
}

func TestDecodeLayoutErrors(t *testing.T) {
	good := EncodeLayout(must(BuildLayout(combinedSchema())))

	badKindTag := func() []byte {
		payload := must(msgpack.Marshal(&layoutRecord{
			TotalSize: 4,
			Fields:    []fieldRecord{{Name: "x", Kind: 99, Size: 4}},
		}))
		buf := appendRaw(nil, descriptorMagic)
		buf = appendUvarint(buf, descriptorVersion)
		return appendVarbytes(buf, payload)
	}()

	badVersion := func() []byte {
		buf := appendRaw(nil, descriptorMagic)
		buf = appendUvarint(buf, 99)
		return appendVarbytes(buf, nil)
	}()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte("NOPE....")},
		{"truncated after magic", good[:4]},
		{"truncated payload", good[:len(good)-3]},
		{"trailing garbage", append(append([]byte(nil), good...), 0)},
		{"garbage payload", func() []byte {
			buf := appendRaw(nil, descriptorMagic)
			buf = appendUvarint(buf, descriptorVersion)
			return appendVarbytes(buf, []byte{0xc1, 0xc1, 0xc1})
		}()},
		{"unsupported version", badVersion},
		{"unknown kind tag", badKindTag},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeLayout(test.data)
			if err == nil {
				t.Fatalf("** DecodeLayout unexpectedly succeeded")
			}
			if !errors.Is(err, ErrDescriptorCorrupt) {
				t.Errorf("** error %v is not ErrDescriptorCorrupt", err)
			}
		})
	}
}

func TestSaveLoadLayout(t *testing.T) {
	m1 := must(BuildLayout(combinedSchema()))
	path := filepath.Join(t.TempDir(), "layout.map")
	ensure(SaveLayout(path, m1))

	m2 := must(LoadLayout(path))
	if !reflect.DeepEqual(m1, m2) {
		t.Errorf("** loaded layout differs from saved one")
	}
}

func TestLoadLayoutMissingFile(t *testing.T) {
	_, err := LoadLayout(filepath.Join(t.TempDir(), "no-such.map"))
	if err == nil {
		t.Fatalf("** LoadLayout unexpectedly succeeded")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("** error %v is not fs.ErrNotExist", err)
	}
}
