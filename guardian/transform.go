package guardian

import (
	"github.com/wippyai/wasm-guardian/errors"
	"github.com/wippyai/wasm-guardian/guardian/internal/ir"
	"github.com/wippyai/wasm-guardian/guardian/internal/splice"
	"github.com/wippyai/wasm-guardian/wasm"
)

// Transform rewrites moduleBytes per flags and returns the instrumented
// module's binary encoding. It loads and validates the input, optionally
// injects global exports, and — only when TrackChanges is set — rejects
// any opcode outside the rewriter's instrumented surface as a
// whole-module pre-scan before instrumenting stores/growth/global
// writes. With TrackChanges false the round trip is a pure re-encode (or
// an export-injecting one), so a module using an opcode the
// instrumentation pass can't handle still passes through unchanged.
// Transform never partially mutates its input: every failure path
// returns before any bytes are produced.
func Transform(moduleBytes []byte, flags Flags) ([]byte, error) {
	m, err := wasm.ParseModuleValidate(moduleBytes)
	if err != nil {
		return nil, errors.MalformedInput("failed to parse or validate input module", err)
	}

	if flags.TrackChanges && len(m.Memories)+m.NumImportedMemories() == 0 {
		return nil, errors.MissingMemory()
	}

	if flags.ExportGlobals {
		injectGlobalExports(m)
	}

	if flags.TrackChanges {
		if err := rejectUnsupported(m); err != nil {
			return nil, err
		}
		if err := instrumentModule(m); err != nil {
			return nil, err
		}
	}

	out := m.Encode()
	if _, err := wasm.ParseModuleValidate(out); err != nil {
		return nil, errors.EmitFailure("rewritten module failed to re-validate", err)
	}

	Logger().Sugar().Debugw("guardian transform complete",
		"export_globals", flags.ExportGlobals,
		"track_changes", flags.TrackChanges,
		"functions", len(m.Code),
	)
	return out, nil
}

// rejectUnsupported scans every function body, flat (block/loop/if
// markers included), for opcodes outside the rewriter's instrumented
// surface. It runs before any mutation so a rejected module fails
// cleanly instead of ending up partially rewritten.
func rejectUnsupported(m *wasm.Module) error {
	for i := range m.Code {
		instrs, err := wasm.DecodeInstructions(m.Code[i].Code)
		if err != nil {
			return errors.MalformedInput("failed to decode function body", err)
		}
		for _, instr := range instrs {
			if name := splice.Mnemonic(instr); name != "" {
				return errors.UnsupportedOpcode(name)
			}
		}
	}
	return nil
}

// instrumentModule adds the tracking imports and dirty-flags global,
// renumbers existing function references to account for the two new
// imports, then rewrites every local function body.
func instrumentModule(m *wasm.Module) error {
	oldImportedFuncs := uint32(m.NumImportedFuncs())
	onGrow, onGlobalSet, dirtyGlobal := addTrackingImports(m)
	renumberFuncRefs(m, oldImportedFuncs, 2)

	reg := splice.NewRegistry(true, true)

	for i := range m.Code {
		if err := rewriteFunction(m, i, reg, &splice.Context{
			DirtyFlagsGlobal: dirtyGlobal,
			OnGrowFunc:       onGrow,
			OnGlobalSetFunc:  onGlobalSet,
		}); err != nil {
			return err
		}
	}
	return nil
}

// rewriteFunction rewrites a single function body: it allocates the
// scratch locals the body needs, parses the flat instruction stream into
// a nested tree, rewrites every sequence node's instructions through
// reg, then linearizes and re-encodes the result.
func rewriteFunction(m *wasm.Module, idx int, reg *splice.Registry, ctx *splice.Context) error {
	body := &m.Code[idx]
	instrs, err := wasm.DecodeInstructions(body.Code)
	if err != nil {
		return errors.MalformedInput("failed to decode function body", err)
	}

	needAddr, needed := scratchNeeds(instrs)

	funcIdx := uint32(m.NumImportedFuncs()) + uint32(idx)
	ft := m.GetFuncType(funcIdx)
	paramCount := uint32(0)
	if ft != nil {
		paramCount = uint32(len(ft.Params))
	}
	ctx.Scratch = allocScratch(body, paramCount+localCount(*body), needAddr, needed)

	tree := ir.Parse(instrs)
	rewritten, err := ir.Rewrite(tree, func(instr wasm.Instruction) ([]wasm.Instruction, error) {
		return reg.Handle(ctx, instr)
	})
	if err != nil {
		return err
	}

	flat := append(ir.Linearize(rewritten), wasm.Instruction{Opcode: wasm.OpEnd})
	body.Code = wasm.EncodeInstructions(flat)
	return nil
}
