package shader

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/shaderview-go/common"
)

// Built-in uniform names recognized by the render loop when the shader
// declares them. All three are optional.
const (
	// BuiltinTime is the elapsed time in seconds since program install (f32).
	BuiltinTime = "u_time"

	// BuiltinResolution is the surface size in backing-store pixels (vec2<f32>).
	BuiltinResolution = "u_resolution"

	// BuiltinPointer is the last known pointer position in backing-store
	// pixels, Y measured from the bottom (vec2<f32>).
	BuiltinPointer = "u_pointer"
)

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the
// WGSL specification. Used to compute uniform field offsets and buffer size.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// wgslLayoutMap maps WGSL type names to their uniform-address-space layout.
var wgslLayoutMap = map[string]wgslTypeLayout{
	"f32":         {4, 4},
	"i32":         {4, 4},
	"u32":         {4, 4},
	"vec2f":       {8, 8},
	"vec2<f32>":   {8, 8},
	"vec3f":       {12, 16},
	"vec3<f32>":   {12, 16},
	"vec4f":       {16, 16},
	"vec4<f32>":   {16, 16},
	"mat3x3<f32>": {48, 16},
	"mat3x3f":     {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

// wgslUniformTypeMap maps the WGSL types a setUniform call can target to
// their tagged variant. Types absent from this map occupy layout space but
// produce no binding.
var wgslUniformTypeMap = map[string]common.UniformType{
	"f32":       common.UniformScalar,
	"vec2f":     common.UniformVec2,
	"vec2<f32>": common.UniformVec2,
	"vec3f":     common.UniformVec3,
	"vec3<f32>": common.UniformVec3,
	"vec4f":     common.UniformVec4,
	"vec4<f32>": common.UniformVec4,
}

var (
	// blockCommentRegex and lineCommentRegex match WGSL comments. Both are
	// stripped before any declaration scan so commented-out code and trailing
	// field comments never reach the parsing regexes.
	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRegex  = regexp.MustCompile(`//[^\n]*`)

	// uniformVarRegex matches the program's uniform declaration and captures the struct type name:
	// @group(0) @binding(0) var<uniform> name: Type;
	uniformVarRegex = regexp.MustCompile(`@group\(0\)\s*@binding\(0\)\s*var\s*<\s*uniform\s*>\s*\w+\s*:\s*(\w+)\s*;`)

	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// fieldRegex matches a single comma-separated struct field: optional
	// attributes, name, colon, type. The type capture is greedy to handle
	// parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`(?s)^(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)$`)

	// arrayTypeRegex matches array<T, N> and captures the element type and count
	arrayTypeRegex = regexp.MustCompile(`array\s*<\s*([^,>]+?)\s*,\s*(\d+)\s*>`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// locationZeroRegex and locationOneRegex detect which vertex input
	// locations the shader consumes. Missing locations are skipped when the
	// runtime builds attribute bindings.
	locationZeroRegex = regexp.MustCompile(`@location\(0\)`)
	locationOneRegex  = regexp.MustCompile(`@location\(1\)`)
)

// stripComments removes line and block comments from WGSL source. WGSL has no
// string literals, so comment markers never appear inside other tokens.
func stripComments(source string) string {
	source = blockCommentRegex.ReplaceAllString(source, "")
	return lineCommentRegex.ReplaceAllString(source, "")
}

// entryPointFor returns the entry point name the source declares for the
// given stage, or "" when none is present.
func entryPointFor(stage Stage, source string) string {
	source = stripComments(source)
	var re *regexp.Regexp
	switch stage {
	case StageVertex:
		re = vertexEntryRegex
	case StageFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}
	if m := re.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return ""
}

// UniformBinding maps a declared uniform to its location within the program's
// uniform buffer: the byte offset, the declared type tag, and the array size
// (1 for non-arrays).
type UniformBinding struct {
	Offset    uint64
	Type      common.UniformType
	ArraySize int
}

// UniformTable is the shader-introspected name-to-binding mapping for one
// program, rebuilt from scratch after every successful link. Immutable once
// built.
type UniformTable struct {
	bindings map[string]UniformBinding
	size     uint64
}

// Lookup returns the binding for a uniform name.
//
// Parameters:
//   - name: the uniform name as declared in the shader
//
// Returns:
//   - UniformBinding: the binding, zero-valued if not found
//   - bool: true if the name is declared by the program
func (t *UniformTable) Lookup(name string) (UniformBinding, bool) {
	b, ok := t.bindings[name]
	return b, ok
}

// Size returns the uniform buffer size in bytes (std-layout, rounded up to 16).
func (t *UniformTable) Size() uint64 {
	return t.size
}

// Len returns the number of declared uniform bindings.
func (t *UniformTable) Len() int {
	return len(t.bindings)
}

// Names returns the declared uniform names in sorted order.
func (t *UniformTable) Names() []string {
	names := make([]string, 0, len(t.bindings))
	for n := range t.bindings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Reflection is the result of introspecting a vertex/fragment source pair:
// the entry points, the vertex input locations the program consumes, and the
// uniform binding table.
type Reflection struct {
	// VertexEntry and FragmentEntry are the parsed entry point names
	// ("" when the stage declares none — a link-time failure).
	VertexEntry   string
	FragmentEntry string

	// HasPosition and HasTexCoord report whether the vertex stage consumes
	// the position attribute (@location(0)) and the texture-coordinate
	// attribute (@location(1)).
	HasPosition bool
	HasTexCoord bool

	// Uniforms is the program's uniform binding table (never nil, may be empty).
	Uniforms *UniformTable
}

// Introspect scans a vertex/fragment source pair and builds the program's
// reflection data. Scanning is purely textual (the same declaration scan the
// stage parser uses); it never fails — sources that declare nothing yield an
// empty table.
//
// Parameters:
//   - vertexSource: the vertex stage WGSL source
//   - fragmentSource: the fragment stage WGSL source
//
// Returns:
//   - *Reflection: entry points, consumed attributes, and uniform table
func Introspect(vertexSource, fragmentSource string) *Reflection {
	cleanVertex := stripComments(vertexSource)
	return &Reflection{
		VertexEntry:   entryPointFor(StageVertex, vertexSource),
		FragmentEntry: entryPointFor(StageFragment, fragmentSource),
		HasPosition:   locationZeroRegex.MatchString(cleanVertex),
		HasTexCoord:   locationOneRegex.MatchString(cleanVertex),
		Uniforms:      introspectUniforms(vertexSource + "\n" + fragmentSource),
	}
}

// introspectUniforms finds the @group(0) @binding(0) var<uniform> declaration,
// resolves its struct, and lays the fields out per WGSL uniform-buffer rules.
// Comments are stripped first: a dropped field would shift every offset after
// it away from the GPU's real layout.
func introspectUniforms(source string) *UniformTable {
	table := &UniformTable{bindings: make(map[string]UniformBinding)}

	source = stripComments(source)
	varMatch := uniformVarRegex.FindStringSubmatch(source)
	if varMatch == nil {
		return table
	}
	structName := varMatch[1]

	var body string
	for _, m := range structBlockRegex.FindAllStringSubmatch(source, -1) {
		if m[1] == structName {
			body = m[2]
			break
		}
	}
	if body == "" {
		return table
	}

	var offset uint64
	var maxAlign uint64 = 16
	for _, raw := range splitFields(body) {
		field := fieldRegex.FindStringSubmatch(strings.TrimSpace(raw))
		if field == nil {
			continue
		}
		name := field[1]
		typeName := strings.TrimSpace(field[2])

		layout, uniformType, arraySize, ok := fieldLayout(typeName)
		if !ok {
			common.Logger().Warn("uniform introspection: unknown field type",
				slog.String("field", name), slog.String("type", typeName))
			continue
		}

		offset = alignUp(offset, layout.align)
		if uniformType >= 0 {
			table.bindings[name] = UniformBinding{
				Offset:    offset,
				Type:      common.UniformType(uniformType),
				ArraySize: arraySize,
			}
		}
		offset += layout.size
		if layout.align > maxAlign {
			maxAlign = layout.align
		}
	}

	table.size = alignUp(offset, maxAlign)
	return table
}

// splitFields splits a struct body into its comma-separated field
// declarations. Commas inside angle brackets (array<f32, 4>) do not split, so
// any number of fields per line parses the same as one per line.
func splitFields(body string) []string {
	var fields []string
	depth := 0
	start := 0
	for i, r := range body {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				fields = append(fields, body[start:i])
				start = i + 1
			}
		}
	}
	return append(fields, body[start:])
}

// fieldLayout resolves a field type name to its layout, its uniform type tag
// (-1 when the type is not settable via setUniform), and its array size.
func fieldLayout(typeName string) (wgslTypeLayout, int, int, bool) {
	if m := arrayTypeRegex.FindStringSubmatch(typeName); m != nil {
		elem := strings.TrimSpace(m[1])
		count, _ := strconv.Atoi(m[2])
		elemLayout, ok := wgslLayoutMap[elem]
		if !ok || count <= 0 {
			return wgslTypeLayout{}, -1, 0, false
		}
		// Uniform address space rounds array element stride up to 16.
		stride := alignUp(elemLayout.size, max(elemLayout.align, 16))
		layout := wgslTypeLayout{size: stride * uint64(count), align: max(elemLayout.align, 16)}
		tag := -1
		if t, settable := wgslUniformTypeMap[elem]; settable {
			tag = int(t)
		}
		return layout, tag, count, true
	}

	layout, ok := wgslLayoutMap[typeName]
	if !ok {
		return wgslTypeLayout{}, -1, 0, false
	}
	tag := -1
	if t, settable := wgslUniformTypeMap[typeName]; settable {
		tag = int(t)
	}
	return layout, tag, 1, true
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}
