package flatlay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Emitted file names; the pair lands in a caller-chosen directory.
const (
	DeclarationsFileName    = "layout_ffi.hpp"
	ImplementationsFileName = "layout_ffi.cpp"
)

// EmitDeclarations renders the C++ declarations file for a layout: offset
// constants, mirror structs and the extern "C" accessor surface. The
// output is a pure function of the layout (no timestamps, no
// environment), so the same LayoutMap always emits identical bytes.
func EmitDeclarations(m *LayoutMap) []byte {
	var w strings.Builder
	w.WriteString("#pragma once\n\n")
	w.WriteString("#include <cstddef>\n")
	w.WriteString("#include <cstdint>\n\n")

	emitConstants(&w, m)
	emitItemStructs(&w, m)
	emitRootStruct(&w, m)

	w.WriteString("extern \"C\" {\n\n")
	w.WriteString("void init_layout_buffer(const char* path);\n\n")
	for i := range m.Fields {
		emitFieldDeclarations(&w, &m.Fields[i])
	}
	w.WriteString("}\n")
	return []byte(w.String())
}

// emitConstants writes the offset/stride/capacity constant block shared by
// the declarations and implementations files.
func emitConstants(w *strings.Builder, m *LayoutMap) {
	fmt.Fprintf(w, "constexpr std::size_t OFFSET_TOTAL_SIZE = %d;\n\n", m.TotalSize)

	for i := range m.Fields {
		f := &m.Fields[i]
		fmt.Fprintf(w, "// %s\n", f.Name)
		switch f.Kind {
		case String:
			fmt.Fprintf(w, "constexpr std::size_t OFFSET_%s = %d;\n", f.Name, f.Offset)
			fmt.Fprintf(w, "constexpr std::size_t %s_MAX_LEN = %d;\n", f.Name, f.MaxLength)
		case Object:
			for j := range f.Children {
				c := &f.Children[j]
				fmt.Fprintf(w, "constexpr std::size_t OFFSET_%s_%s = %d;\n", f.Name, c.Name, f.Offset+c.Offset)
			}
		case Array:
			flag := 0
			if f.HasUsedFlag {
				flag = 1
			}
			fmt.Fprintf(w, "constexpr std::size_t OFFSET_%s_count = %d;\n", f.Name, f.CountOffset)
			fmt.Fprintf(w, "constexpr std::size_t OFFSET_%s_base = %d;\n", f.Name, f.Offset+arrayCountSize)
			fmt.Fprintf(w, "constexpr std::size_t STRIDE_%s = %d;\n", f.Name, f.ItemStride)
			for j := range f.Children {
				c := &f.Children[j]
				fmt.Fprintf(w, "constexpr std::size_t OFFSET_%s_%s = %d;\n", f.Name, c.Name, c.Offset+flag)
			}
		default:
			fmt.Fprintf(w, "constexpr std::size_t OFFSET_%s = %d;\n", f.Name, f.Offset)
		}
		w.WriteByte('\n')
	}
}

// emitItemStructs writes packed mirror structs for object fields and
// array items. Packing keeps the struct layout identical to the buffer
// layout regardless of member order, which the by-value item fetch
// depends on.
func emitItemStructs(w *strings.Builder, m *LayoutMap) {
	for i := range m.Fields {
		f := &m.Fields[i]
		if f.Kind != Object && f.Kind != Array {
			continue
		}
		w.WriteString("#pragma pack(push, 1)\n")
		fmt.Fprintf(w, "struct %s {\n", f.Name)
		for j := range f.Children {
			c := &f.Children[j]
			fmt.Fprintf(w, "    %s %s;\n", c.Kind.cppType(), c.Name)
		}
		w.WriteString("};\n")
		w.WriteString("#pragma pack(pop)\n\n")
	}
}

// emitRootStruct writes the root_layout inspection struct listing all
// top-level fields. Accessors never touch it; the array members in
// particular do not model the count prefix or the occupancy bytes.
func emitRootStruct(w *strings.Builder, m *LayoutMap) {
	w.WriteString("struct root_layout {\n")
	for i := range m.Fields {
		f := &m.Fields[i]
		switch f.Kind {
		case String:
			fmt.Fprintf(w, "    char %s[%d];\n", f.Name, f.MaxLength)
		case Object:
			fmt.Fprintf(w, "    struct %s %s;\n", f.Name, f.Name)
		case Array:
			fmt.Fprintf(w, "    struct %s %s[%d];\n", f.Name, f.Name, f.MaxItems)
		default:
			fmt.Fprintf(w, "    %s %s;\n", f.Kind.cppType(), f.Name)
		}
	}
	w.WriteString("};\n\n")
}

func emitFieldDeclarations(w *strings.Builder, f *Field) {
	switch f.Kind {
	case Int32, Int64, Float32, Float64:
		t := f.Kind.cppType()
		fmt.Fprintf(w, "%s get_%s();\n", t, f.Name)
		fmt.Fprintf(w, "void set_%s(%s value);\n\n", f.Name, t)

	case String:
		fmt.Fprintf(w, "const char* get_%s();\n", f.Name)
		fmt.Fprintf(w, "void set_%s(const char* value);\n\n", f.Name)

	case Object:
		for j := range f.Children {
			c := &f.Children[j]
			t := c.Kind.cppType()
			fmt.Fprintf(w, "%s get_%s_%s();\n", t, f.Name, c.Name)
			fmt.Fprintf(w, "void set_%s_%s(%s value);\n", f.Name, c.Name, t)
		}
		w.WriteByte('\n')

	case Array:
		fmt.Fprintf(w, "std::size_t get_%s_count();\n", f.Name)
		fmt.Fprintf(w, "void set_%s_count(std::size_t count);\n", f.Name)
		for j := range f.Children {
			c := &f.Children[j]
			t := c.Kind.cppType()
			fmt.Fprintf(w, "%s get_%s_%s(std::size_t index);\n", t, f.Name, c.Name)
			fmt.Fprintf(w, "void set_%s_%s(std::size_t index, %s value);\n", f.Name, c.Name, t)
		}
		fmt.Fprintf(w, "void pop_%s(std::size_t index);\n", f.Name)
		fmt.Fprintf(w, "%s get_%s_item(std::size_t index);\n", f.Name, f.Name)
		fmt.Fprintf(w, "void get_%s_items(std::size_t start, std::size_t count, %s* out_buffer);\n\n", f.Name, f.Name)
	}
}

// WriteFFI emits the declarations/implementations pair into dir and
// returns both paths.
func WriteFFI(m *LayoutMap, dir string) (headerPath, implPath string, err error) {
	headerPath = filepath.Join(dir, DeclarationsFileName)
	implPath = filepath.Join(dir, ImplementationsFileName)
	if err := os.WriteFile(headerPath, EmitDeclarations(m), 0600); err != nil {
		return "", "", fmt.Errorf("emit declarations: %w", err)
	}
	if err := os.WriteFile(implPath, EmitImplementations(m), 0600); err != nil {
		return "", "", fmt.Errorf("emit implementations: %w", err)
	}
	return headerPath, implPath, nil
}
