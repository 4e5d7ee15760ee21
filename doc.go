/*
Package flatlay compiles a declarative record schema into a deterministic
binary memory layout, and works with that layout three ways: persisting it
as a descriptor file, accessing a mapped byte region through it, and
emitting a C-ABI accessor surface from it.

We implement:

1. Layout compilation: a schema of scalars, fixed-capacity strings, objects
and fixed-capacity object arrays is reduced to a flat offset table
(LayoutMap) in declaration order.

2. Descriptor persistence: the LayoutMap round-trips through a small framed
binary file, so a layout compiled once can be reloaded by any process on
the same host architecture.

3. Mapped access: Buffer performs named scalar read/write, string copy and
array insert/pop/get over a byte region of the layout's total size,
typically acquired with the mmap subpackage.

4. FFI emission: a declarations/implementations C++ file pair exposing
typed accessors over the same layout, with every offset baked in as a
compile-time constant.

5. A layout catalog: a Bolt-backed store of named descriptors.

# Technical Details

**Layout rules.**
Fields occupy the buffer in schema order. Scalars take their natural width;
strings take max_length bytes. An object is the packed concatenation of its
scalar children. An array is a 4-byte little-endian item count followed by
max_items slots; each slot is one occupancy byte (0 vacant, 1 live) plus
the packed children. An array item is live iff its index is below the count
and its occupancy byte is set. Popping clears the flag but never decrements
the count; insertion is append-only at the count.

**Descriptor encoding.**
1. Magic "FLDS".
2. Format version (uvarint).
3. Payload (varbytes): msgpack of the field tree; per field: name, kind
tag, offset, size, count offset, stride, max items, used-flag bit,
children. Name lookup indexes are rebuilt on load, never persisted.

**Emitted surface.**
Both emitted files are pure functions of the LayoutMap; emission is
byte-for-byte deterministic. The implementations file re-declares the
constants and structs so it compiles without the header. Emitted accessors
do no bounds checking; callers observe get_<field>_count() first.
*/
package flatlay
