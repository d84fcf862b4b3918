package guardian

import "github.com/wippyai/wasm-guardian/wasm"

const (
	importModule          = "wasm_guardian"
	onGrowImportName      = "on_grow"
	onGlobalSetImportName = "on_global_set"
	dirtyFlagsExportName  = "wg_dirty_flags"
)

// addTrackingImports appends the on_grow and on_global_set function
// imports and the mutable i32 dirty-flags global (initializer 0),
// exported as wg_dirty_flags. It returns the new imports' function
// indices and the new global's index.
//
// The imports are appended to the end of m.Imports, after every existing
// import of any kind. Appending (rather than inserting) preserves every
// existing imported function's index: the function index space only
// advances on Kind==KindFunc entries, in slice order, so no import that
// already existed is renumbered. Local function indices do shift by two,
// which renumberFuncRefs accounts for.
func addTrackingImports(m *wasm.Module) (onGrow, onGlobalSet, dirtyFlagsGlobal uint32) {
	voidType := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}})

	onGrow = uint32(m.NumImportedFuncs())
	m.Imports = append(m.Imports, wasm.Import{
		Module: importModule,
		Name:   onGrowImportName,
		Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: voidType},
	})

	onGlobalSet = uint32(m.NumImportedFuncs())
	m.Imports = append(m.Imports, wasm.Import{
		Module: importModule,
		Name:   onGlobalSetImportName,
		Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: voidType},
	})

	dirtyFlagsGlobal = uint32(m.NumImportedGlobals() + len(m.Globals))
	m.Globals = append(m.Globals, wasm.Global{
		Type: wasm.GlobalType{ValType: wasm.ValI32, Mutable: true},
		Init: wasm.EncodeInstructions([]wasm.Instruction{
			{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 0}},
			{Opcode: wasm.OpEnd},
		}),
	})
	m.Exports = append(m.Exports, wasm.Export{
		Name: dirtyFlagsExportName,
		Kind: wasm.KindGlobal,
		Idx:  dirtyFlagsGlobal,
	})

	return onGrow, onGlobalSet, dirtyFlagsGlobal
}
