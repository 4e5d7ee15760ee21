package flatlay

import (
	"fmt"
	"regexp"
	"strings"
)

// EmitImplementations renders the C++ implementations file. The file is
// self-contained: it re-declares the offset constants and item structs
// instead of including the declarations file (both define the same
// constexpr constants, which would collide in a single translation unit).
// Function bodies are derived directly from the LayoutMap;
// CrossCheckDeclarations provides the text-driven derivation as a
// validation pass over the emitted header.
func EmitImplementations(m *LayoutMap) []byte {
	var w strings.Builder
	fmt.Fprintf(&w, "// Accessor implementations for the surface declared in %s.\n", DeclarationsFileName)
	w.WriteString("// Self-contained on purpose: constants and structs are re-declared here\n")
	w.WriteString("// so the file compiles independently of the header.\n\n")
	w.WriteString("#include <cstddef>\n")
	w.WriteString("#include <cstdint>\n")
	w.WriteString("#include <cstring>\n")
	w.WriteString("#include <stdexcept>\n\n")
	w.WriteString("#include <fcntl.h>\n")
	w.WriteString("#include <sys/mman.h>\n")
	w.WriteString("#include <unistd.h>\n\n")

	emitConstants(&w, m)
	emitItemStructs(&w, m)

	w.WriteString("static unsigned char* base_ptr = nullptr;\n\n")
	w.WriteString("extern \"C\" {\n\n")
	emitInitBody(&w)
	for i := range m.Fields {
		emitFieldBodies(&w, &m.Fields[i])
	}
	w.WriteString("}\n")
	return []byte(w.String())
}

func emitInitBody(w *strings.Builder) {
	w.WriteString("void init_layout_buffer(const char* path) {\n")
	w.WriteString("    int fd = ::open(path, O_RDWR | O_CREAT, 0600);\n")
	w.WriteString("    if (fd < 0)\n")
	w.WriteString("        throw std::runtime_error(\"open failed\");\n")
	w.WriteString("    if (::ftruncate(fd, OFFSET_TOTAL_SIZE) < 0) {\n")
	w.WriteString("        ::close(fd);\n")
	w.WriteString("        throw std::runtime_error(\"ftruncate failed\");\n")
	w.WriteString("    }\n")
	w.WriteString("    void* mapped = ::mmap(nullptr, OFFSET_TOTAL_SIZE, PROT_READ | PROT_WRITE, MAP_SHARED, fd, 0);\n")
	w.WriteString("    if (mapped == MAP_FAILED) {\n")
	w.WriteString("        ::close(fd);\n")
	w.WriteString("        throw std::runtime_error(\"mmap failed\");\n")
	w.WriteString("    }\n")
	w.WriteString("    ::close(fd);\n")
	w.WriteString("    base_ptr = static_cast<unsigned char*>(mapped);\n")
	w.WriteString("}\n\n")
}

func emitFieldBodies(w *strings.Builder, f *Field) {
	switch f.Kind {
	case Int32, Int64, Float32, Float64:
		t := f.Kind.cppType()
		fmt.Fprintf(w, "%s get_%s() {\n", t, f.Name)
		fmt.Fprintf(w, "    return *reinterpret_cast<%s*>(base_ptr + OFFSET_%s);\n", t, f.Name)
		w.WriteString("}\n\n")
		fmt.Fprintf(w, "void set_%s(%s value) {\n", f.Name, t)
		fmt.Fprintf(w, "    *reinterpret_cast<%s*>(base_ptr + OFFSET_%s) = value;\n", t, f.Name)
		w.WriteString("}\n\n")

	case String:
		fmt.Fprintf(w, "const char* get_%s() {\n", f.Name)
		fmt.Fprintf(w, "    return reinterpret_cast<const char*>(base_ptr + OFFSET_%s);\n", f.Name)
		w.WriteString("}\n\n")
		fmt.Fprintf(w, "void set_%s(const char* value) {\n", f.Name)
		fmt.Fprintf(w, "    std::strncpy(reinterpret_cast<char*>(base_ptr + OFFSET_%s), value, %s_MAX_LEN);\n", f.Name, f.Name)
		w.WriteString("}\n\n")

	case Object:
		for j := range f.Children {
			c := &f.Children[j]
			t := c.Kind.cppType()
			fmt.Fprintf(w, "%s get_%s_%s() {\n", t, f.Name, c.Name)
			fmt.Fprintf(w, "    return *reinterpret_cast<%s*>(base_ptr + OFFSET_%s_%s);\n", t, f.Name, c.Name)
			w.WriteString("}\n\n")
			fmt.Fprintf(w, "void set_%s_%s(%s value) {\n", f.Name, c.Name, t)
			fmt.Fprintf(w, "    *reinterpret_cast<%s*>(base_ptr + OFFSET_%s_%s) = value;\n", t, f.Name, c.Name)
			w.WriteString("}\n\n")
		}

	case Array:
		fmt.Fprintf(w, "std::size_t get_%s_count() {\n", f.Name)
		fmt.Fprintf(w, "    return *reinterpret_cast<std::uint32_t*>(base_ptr + OFFSET_%s_count);\n", f.Name)
		w.WriteString("}\n\n")
		fmt.Fprintf(w, "void set_%s_count(std::size_t count) {\n", f.Name)
		fmt.Fprintf(w, "    *reinterpret_cast<std::uint32_t*>(base_ptr + OFFSET_%s_count) = static_cast<std::uint32_t>(count);\n", f.Name)
		w.WriteString("}\n\n")
		for j := range f.Children {
			c := &f.Children[j]
			t := c.Kind.cppType()
			fmt.Fprintf(w, "%s get_%s_%s(std::size_t index) {\n", t, f.Name, c.Name)
			fmt.Fprintf(w, "    return *reinterpret_cast<%s*>(base_ptr + OFFSET_%s_base + index * STRIDE_%s + OFFSET_%s_%s);\n",
				t, f.Name, f.Name, f.Name, c.Name)
			w.WriteString("}\n\n")
			fmt.Fprintf(w, "void set_%s_%s(std::size_t index, %s value) {\n", f.Name, c.Name, t)
			fmt.Fprintf(w, "    *reinterpret_cast<%s*>(base_ptr + OFFSET_%s_base + index * STRIDE_%s + OFFSET_%s_%s) = value;\n",
				t, f.Name, f.Name, f.Name, c.Name)
			w.WriteString("}\n\n")
		}
		fmt.Fprintf(w, "void pop_%s(std::size_t index) {\n", f.Name)
		fmt.Fprintf(w, "    base_ptr[OFFSET_%s_base + index * STRIDE_%s] = 0;\n", f.Name, f.Name)
		w.WriteString("}\n\n")
		flag := 0
		if f.HasUsedFlag {
			flag = 1
		}
		fmt.Fprintf(w, "%s get_%s_item(std::size_t index) {\n", f.Name, f.Name)
		fmt.Fprintf(w, "    %s item;\n", f.Name)
		fmt.Fprintf(w, "    std::memcpy(&item, base_ptr + OFFSET_%s_base + index * STRIDE_%s + %d, STRIDE_%s - %d);\n",
			f.Name, f.Name, flag, f.Name, flag)
		w.WriteString("    return item;\n")
		w.WriteString("}\n\n")
		fmt.Fprintf(w, "void get_%s_items(std::size_t start, std::size_t count, %s* out_buffer) {\n", f.Name, f.Name)
		w.WriteString("    for (std::size_t i = 0; i < count; i++) {\n")
		fmt.Fprintf(w, "        std::memcpy(&out_buffer[i], base_ptr + OFFSET_%s_base + (start + i) * STRIDE_%s + %d, STRIDE_%s - %d);\n",
			f.Name, f.Name, flag, f.Name, flag)
		w.WriteString("    }\n")
		w.WriteString("}\n\n")
	}
}

// Pattern table for the declaration scan. Every emitted accessor
// declaration matches exactly one of these.
var declPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:int|long long|float|double) get_\w+\(\);$`),
	regexp.MustCompile(`^void set_\w+\((?:int|long long|float|double) value\);$`),
	regexp.MustCompile(`^const char\* get_\w+\(\);$`),
	regexp.MustCompile(`^void set_\w+\(const char\* value\);$`),
	regexp.MustCompile(`^std::size_t get_\w+_count\(\);$`),
	regexp.MustCompile(`^void set_\w+_count\(std::size_t count\);$`),
	regexp.MustCompile(`^(?:int|float|double) get_\w+\(std::size_t index\);$`),
	regexp.MustCompile(`^void set_\w+\(std::size_t index, (?:int|float|double) value\);$`),
	regexp.MustCompile(`^void pop_\w+\(std::size_t index\);$`),
	regexp.MustCompile(`^\w+ get_\w+_item\(std::size_t index\);$`),
	regexp.MustCompile(`^void get_\w+_items\(std::size_t start, std::size_t count, \w+\* out_buffer\);$`),
}

var accessorNameRe = regexp.MustCompile(`\b(?:get_|set_|pop_)`)

// CrossCheckDeclarations verifies an emitted declarations file against a
// layout by the text-driven route: every line mentioning an accessor must
// match the fixed pattern table and correspond to a declaration the
// layout implies, and every implied declaration must be present. This is
// a validation pass only; implementation bodies are generated from the
// layout directly.
func CrossCheckDeclarations(m *LayoutMap, header []byte) error {
	expected := make(map[string]bool)
	var buf strings.Builder
	for i := range m.Fields {
		emitFieldDeclarations(&buf, &m.Fields[i])
	}
	for _, line := range strings.Split(buf.String(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			expected[line] = false
		}
	}

	for _, line := range strings.Split(string(header), "\n") {
		line = strings.TrimSpace(line)
		if !accessorNameRe.MatchString(line) {
			continue
		}
		if !matchesDeclPattern(line) {
			return fmt.Errorf("declarations cross-check: line does not match any accessor pattern: %q", line)
		}
		seen, ok := expected[line]
		if !ok {
			return fmt.Errorf("declarations cross-check: accessor not implied by the layout: %q", line)
		}
		if seen {
			return fmt.Errorf("declarations cross-check: duplicate accessor: %q", line)
		}
		expected[line] = true
	}

	for line, seen := range expected {
		if !seen {
			return fmt.Errorf("declarations cross-check: missing accessor: %q", line)
		}
	}
	return nil
}

func matchesDeclPattern(line string) bool {
	for _, re := range declPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
