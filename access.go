package flatlay

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Buffer binds a compiled layout to a mutable byte region, typically an
// mmap'ed backing file. It computes every offset from the descriptor on
// each call and never caches pointers beyond the region itself.
//
// The region is owned by the caller; Buffer assumes it is the only writer.
type Buffer struct {
	layout *LayoutMap
	data   []byte
}

// NewBuffer wraps a byte region of exactly layout.TotalSize bytes.
func NewBuffer(m *LayoutMap, data []byte) (*Buffer, error) {
	if len(data) != m.TotalSize {
		return nil, fmt.Errorf("buffer length %d does not match layout total size %d", len(data), m.TotalSize)
	}
	return &Buffer{layout: m, data: data}, nil
}

func (b *Buffer) Layout() *LayoutMap { return b.layout }
func (b *Buffer) Bytes() []byte      { return b.data }

func (b *Buffer) field(name string) (*Field, error) {
	f, ok := b.layout.Field(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownField)
	}
	return f, nil
}

func (b *Buffer) arrayField(name string) (*Field, error) {
	f, err := b.field(name)
	if err != nil {
		return nil, err
	}
	if f.Kind != Array {
		return nil, fmt.Errorf("%q is %v: %w", name, f.Kind, ErrKindMismatch)
	}
	return f, nil
}

func (b *Buffer) rawCount(f *Field) int {
	return int(binary.LittleEndian.Uint32(b.data[f.CountOffset:]))
}

// Get returns the byte window of a field, or of one array item's payload.
//
// For scalar, string and object fields index must be 0 and the window
// spans the whole field. For arrays, the window is the item payload
// (ItemStride-1 bytes past the occupancy byte). A nil slice with a nil
// error means absent: index past the current count, a vacant slot, or a
// nonzero index on a non-array field.
func (b *Buffer) Get(name string, index int) ([]byte, error) {
	f, err := b.field(name)
	if err != nil {
		return nil, err
	}

	if f.Kind != Array {
		if index != 0 {
			return nil, nil
		}
		return b.data[f.Offset : f.Offset+f.Size : f.Offset+f.Size], nil
	}

	if index < 0 || index >= b.rawCount(f) {
		return nil, nil
	}
	slot := f.Offset + arrayCountSize + index*f.ItemStride
	payload := f.ItemStride
	if f.HasUsedFlag {
		if b.data[slot] == 0 {
			return nil, nil
		}
		slot++
		payload--
	}
	return b.data[slot : slot+payload : slot+payload], nil
}

// Insert appends an item at the logical end of an array. It does not
// reuse vacant slots below the tail, so a popped-but-uncompacted array can
// report Full while holding fewer than MaxItems live items.
func (b *Buffer) Insert(name string, item []byte) error {
	f, err := b.arrayField(name)
	if err != nil {
		return err
	}
	count := b.rawCount(f)
	if count >= f.MaxItems {
		return fmt.Errorf("%q: %w", name, ErrFull)
	}

	slot := f.Offset + arrayCountSize + count*f.ItemStride
	end := slot + f.ItemStride
	if f.HasUsedFlag {
		b.data[slot] = 1
		slot++
	}
	copy(b.data[slot:end], item)
	binary.LittleEndian.PutUint32(b.data[f.CountOffset:], uint32(count+1))
	return nil
}

// Pop clears the occupancy byte of one array slot. The count is left
// untouched: live items are those below the count whose flag is set.
func (b *Buffer) Pop(name string, index int) error {
	f, err := b.arrayField(name)
	if err != nil {
		return err
	}
	if index < 0 || index >= b.rawCount(f) {
		return fmt.Errorf("%q[%d]: %w", name, index, ErrOutOfBounds)
	}
	if f.HasUsedFlag {
		b.data[f.Offset+arrayCountSize+index*f.ItemStride] = 0
	}
	return nil
}

// Count reads an array's item count prefix.
func (b *Buffer) Count(name string) (int, error) {
	f, err := b.arrayField(name)
	if err != nil {
		return 0, err
	}
	return b.rawCount(f), nil
}

// SetCount overwrites an array's item count prefix.
func (b *Buffer) SetCount(name string, n int) error {
	f, err := b.arrayField(name)
	if err != nil {
		return err
	}
	if n < 0 || n > f.MaxItems {
		return fmt.Errorf("%q count %d: %w", name, n, ErrOutOfBounds)
	}
	binary.LittleEndian.PutUint32(b.data[f.CountOffset:], uint32(n))
	return nil
}

func (b *Buffer) scalarField(name string, kind Kind) (*Field, error) {
	f, err := b.field(name)
	if err != nil {
		return nil, err
	}
	if f.Kind != kind {
		return nil, fmt.Errorf("%q is %v, not %v: %w", name, f.Kind, kind, ErrKindMismatch)
	}
	return f, nil
}

func (b *Buffer) Int32(name string) (int32, error) {
	f, err := b.scalarField(name, Int32)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b.data[f.Offset:])), nil
}

func (b *Buffer) SetInt32(name string, v int32) error {
	f, err := b.scalarField(name, Int32)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.data[f.Offset:], uint32(v))
	return nil
}

func (b *Buffer) Int64(name string) (int64, error) {
	f, err := b.scalarField(name, Int64)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b.data[f.Offset:])), nil
}

func (b *Buffer) SetInt64(name string, v int64) error {
	f, err := b.scalarField(name, Int64)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b.data[f.Offset:], uint64(v))
	return nil
}

func (b *Buffer) Float32(name string) (float32, error) {
	f, err := b.scalarField(name, Float32)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b.data[f.Offset:])), nil
}

func (b *Buffer) SetFloat32(name string, v float32) error {
	f, err := b.scalarField(name, Float32)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.data[f.Offset:], math.Float32bits(v))
	return nil
}

func (b *Buffer) Float64(name string) (float64, error) {
	f, err := b.scalarField(name, Float64)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b.data[f.Offset:])), nil
}

func (b *Buffer) SetFloat64(name string, v float64) error {
	f, err := b.scalarField(name, Float64)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b.data[f.Offset:], math.Float64bits(v))
	return nil
}

// String reads a string field up to its first NUL byte or full capacity.
// Strings written at exactly MaxLength bytes carry no terminator.
func (b *Buffer) String(name string) (string, error) {
	f, err := b.scalarStringField(name)
	if err != nil {
		return "", err
	}
	raw := b.data[f.Offset : f.Offset+f.MaxLength]
	for i, c := range raw {
		if c == 0 {
			return string(raw[:i]), nil
		}
	}
	return string(raw), nil
}

// SetString copies up to MaxLength bytes of s into a string field,
// zero-filling the remainder of the capacity. A source of exactly
// MaxLength bytes is stored unterminated.
func (b *Buffer) SetString(name string, s string) error {
	f, err := b.scalarStringField(name)
	if err != nil {
		return err
	}
	dst := b.data[f.Offset : f.Offset+f.MaxLength]
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

func (b *Buffer) scalarStringField(name string) (*Field, error) {
	f, err := b.field(name)
	if err != nil {
		return nil, err
	}
	if f.Kind != String {
		return nil, fmt.Errorf("%q is %v, not string: %w", name, f.Kind, ErrKindMismatch)
	}
	return f, nil
}
