package guardian

import "github.com/wippyai/wasm-guardian/wasm"

// renumberFuncRefs shifts every reference to a local function by delta,
// to account for delta new function imports appended after
// oldImportedFuncs previously-imported functions. Imported function
// indices (< oldImportedFuncs) are untouched; local function indices
// (>= oldImportedFuncs) all move up by delta since the function index
// space is imports-then-locals.
//
// wasm.Module stores raw absolute indices rather than an opaque
// reference graph, so every place a function index can appear in the
// binary format must be patched explicitly. This covers call, ref.func,
// the start function, function exports, and element-segment function
// lists. It does not patch ref.func occurrences nested inside element or
// global initializer expressions (Element.Exprs, Global.Init) — those
// only arise with reference-types modules using expression-form element
// segments or function-referencing global initializers, which none of
// this rewriter's own additions produce; a module that both relies on
// TrackChanges and does this is a known limitation.
func renumberFuncRefs(m *wasm.Module, oldImportedFuncs, delta uint32) {
	shift := func(idx uint32) uint32 {
		if idx >= oldImportedFuncs {
			return idx + delta
		}
		return idx
	}

	for i := range m.Code {
		instrs, err := wasm.DecodeInstructions(m.Code[i].Code)
		if err != nil {
			continue
		}
		changed := false
		for j := range instrs {
			switch imm := instrs[j].Imm.(type) {
			case wasm.CallImm:
				if n := shift(imm.FuncIdx); n != imm.FuncIdx {
					instrs[j].Imm = wasm.CallImm{FuncIdx: n}
					changed = true
				}
			case wasm.RefFuncImm:
				if n := shift(imm.FuncIdx); n != imm.FuncIdx {
					instrs[j].Imm = wasm.RefFuncImm{FuncIdx: n}
					changed = true
				}
			}
		}
		if changed {
			m.Code[i].Code = wasm.EncodeInstructions(instrs)
		}
	}

	if m.Start != nil {
		n := shift(*m.Start)
		m.Start = &n
	}

	for i := range m.Exports {
		if m.Exports[i].Kind == wasm.KindFunc {
			m.Exports[i].Idx = shift(m.Exports[i].Idx)
		}
	}

	for i := range m.Elements {
		for j := range m.Elements[i].FuncIdxs {
			m.Elements[i].FuncIdxs[j] = shift(m.Elements[i].FuncIdxs[j])
		}
	}
}
