package guardian

import (
	"fmt"

	"github.com/wippyai/wasm-guardian/wasm"
)

// injectGlobalExports runs before the instruction rewriter, against
// original global indices. For every mutable global whose initializer is
// a bare constant (not a global.get of an imported global), it adds an
// export named wg_global_<N>, where N is the global's absolute index in
// the module's global index space (imported globals first, then local
// globals, in declaration order). Immutable or import-initialized
// globals are skipped. Re-running against an already-exported global is a
// no-op: the export table is not given a second entry for the same name.
func injectGlobalExports(m *wasm.Module) {
	existing := make(map[string]bool, len(m.Exports))
	for _, e := range m.Exports {
		existing[e.Name] = true
	}

	numImported := uint32(m.NumImportedGlobals())
	for i := range m.Globals {
		g := &m.Globals[i]
		if !g.Type.Mutable || !isConstInit(g.Init) {
			continue
		}
		idx := numImported + uint32(i)
		name := fmt.Sprintf("wg_global_%d", idx)
		if existing[name] {
			continue
		}
		m.Exports = append(m.Exports, wasm.Export{Name: name, Kind: wasm.KindGlobal, Idx: idx})
		existing[name] = true
	}
}

// isConstInit reports whether init is a single constant instruction
// followed by end, as opposed to a global.get of an imported global (or
// any other expression shape).
func isConstInit(init []byte) bool {
	instrs, err := wasm.DecodeInstructions(init)
	if err != nil || len(instrs) != 2 {
		return false
	}
	switch instrs[0].Opcode {
	case wasm.OpI32Const, wasm.OpI64Const, wasm.OpF32Const, wasm.OpF64Const:
		return instrs[1].Opcode == wasm.OpEnd
	default:
		return false
	}
}
