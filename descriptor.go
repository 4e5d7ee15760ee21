package flatlay

import (
	"bytes"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Descriptor file format: 4-byte magic, format version (uvarint), payload
// (varbytes). The payload is a msgpack encoding of layoutRecord.
//
// The frame is versioned so that future payload changes stay detectable;
// version 1 is the only one so far.

var descriptorMagic = []byte("FLDS")

const descriptorVersion = 1

type layoutRecord struct {
	TotalSize uint64        `msgpack:"total_size"`
	Fields    []fieldRecord `msgpack:"fields"`
}

type fieldRecord struct {
	Name        string        `msgpack:"name"`
	Kind        uint8         `msgpack:"kind"`
	Offset      uint64        `msgpack:"offset"`
	Size        uint64        `msgpack:"size"`
	CountOffset uint64        `msgpack:"count_offset"`
	Stride      uint64        `msgpack:"stride"`
	MaxItems    uint64        `msgpack:"max_items"`
	HasUsedFlag bool          `msgpack:"has_used_flag"`
	Children    []fieldRecord `msgpack:"children"`
}

// EncodeLayout serializes a LayoutMap into the descriptor blob. The output
// is deterministic: the same LayoutMap always encodes to the same bytes.
func EncodeLayout(m *LayoutMap) []byte {
	rec := layoutRecord{
		TotalSize: uint64(m.TotalSize),
		Fields:    fieldRecordsOf(m.Fields),
	}
	payload, err := msgpack.Marshal(&rec)
	if err != nil {
		panic(fmt.Errorf("failed to encode layout descriptor: %w", err))
	}

	buf := appendRaw(nil, descriptorMagic)
	buf = appendUvarint(buf, descriptorVersion)
	buf = appendVarbytes(buf, payload)
	return buf
}

func fieldRecordsOf(fields []Field) []fieldRecord {
	if len(fields) == 0 {
		return nil
	}
	recs := make([]fieldRecord, len(fields))
	for i, f := range fields {
		recs[i] = fieldRecord{
			Name:        f.Name,
			Kind:        f.Kind.TagCode(),
			Offset:      uint64(f.Offset),
			Size:        uint64(f.Size),
			CountOffset: uint64(f.CountOffset),
			Stride:      uint64(f.ItemStride),
			MaxItems:    uint64(f.MaxItems),
			HasUsedFlag: f.HasUsedFlag,
			Children:    fieldRecordsOf(f.Children),
		}
	}
	return recs
}

// DecodeLayout parses a descriptor blob produced by EncodeLayout and
// rebuilds every name lookup index from the decoded field order.
func DecodeLayout(data []byte) (*LayoutMap, error) {
	d := makeByteDecoder(data)

	magic, err := d.Raw(len(descriptorMagic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, descriptorMagic) {
		return nil, descErrf(data, 0, nil, "bad magic")
	}
	ver, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	if ver != descriptorVersion {
		return nil, descErrf(data, d.Off(), nil, "unsupported descriptor version %d", ver)
	}
	payload, err := d.VarBytes()
	if err != nil {
		return nil, err
	}
	if d.Remaining() != 0 {
		return nil, descErrf(data, d.Off(), nil, "trailing garbage after payload")
	}

	var rec layoutRecord
	if err := msgpack.Unmarshal(payload, &rec); err != nil {
		return nil, descErrf(payload, 0, nil, "failed to decode msgpack payload: %v", err)
	}

	m := &LayoutMap{TotalSize: int(rec.TotalSize)}
	m.Fields, err = fieldsOfRecords(data, rec.Fields)
	if err != nil {
		return nil, err
	}
	m.rebuildIndex()
	return m, nil
}

func fieldsOfRecords(data []byte, recs []fieldRecord) ([]Field, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	fields := make([]Field, len(recs))
	for i, rec := range recs {
		kind, ok := kindFromTag(rec.Kind)
		if !ok {
			return nil, descErrf(data, 0, nil, "unknown kind tag %d for field %q", rec.Kind, rec.Name)
		}
		children, err := fieldsOfRecords(data, rec.Children)
		if err != nil {
			return nil, err
		}
		f := Field{
			Name:        rec.Name,
			Kind:        kind,
			Offset:      int(rec.Offset),
			Size:        int(rec.Size),
			CountOffset: int(rec.CountOffset),
			ItemStride:  int(rec.Stride),
			MaxItems:    int(rec.MaxItems),
			HasUsedFlag: rec.HasUsedFlag,
			Children:    children,
		}
		if kind == String {
			f.MaxLength = f.Size
		}
		fields[i] = f
	}
	return fields, nil
}

// SaveLayout writes the encoded descriptor to a file, replacing any
// previous content.
func SaveLayout(path string, m *LayoutMap) error {
	if err := os.WriteFile(path, EncodeLayout(m), 0600); err != nil {
		return fmt.Errorf("save layout descriptor: %w", err)
	}
	return nil
}

// LoadLayout reads and decodes a descriptor file.
func LoadLayout(path string) (*LayoutMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load layout descriptor: %w", err)
	}
	return DecodeLayout(data)
}
