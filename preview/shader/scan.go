package shader

// ScanUniformNames returns the user-declared uniform names in the given
// source pair, excluding the three built-ins. This is a convenience for
// host-side control panels that want to offer inputs for a shader's tunable
// values; it is a plain declaration scan and carries no correctness weight —
// the runtime's setUniform path validates against the installed program's
// table, not against this list.
//
// Parameters:
//   - vertexSource: the vertex stage WGSL source
//   - fragmentSource: the fragment stage WGSL source
//
// Returns:
//   - []string: sorted user uniform names (built-ins excluded)
func ScanUniformNames(vertexSource, fragmentSource string) []string {
	table := introspectUniforms(vertexSource + "\n" + fragmentSource)

	names := make([]string, 0, table.Len())
	for _, name := range table.Names() {
		switch name {
		case BuiltinTime, BuiltinResolution, BuiltinPointer:
			continue
		}
		names = append(names, name)
	}
	return names
}
