package guardian

import (
	"github.com/wippyai/wasm-guardian/guardian/internal/splice"
	"github.com/wippyai/wasm-guardian/wasm"
)

// scratchNeeds scans a function's flat instruction stream for the
// scratch locals its splices will require: the shared address scratch if
// any store or memory.grow is present, plus one value scratch per
// distinct stored type actually used. global.set instrumentation needs
// no scratch local at all.
func scratchNeeds(instrs []wasm.Instruction) (needAddr bool, needed map[wasm.ValType]bool) {
	needed = map[wasm.ValType]bool{}
	for _, instr := range instrs {
		switch instr.Opcode {
		case wasm.OpMemoryGrow:
			needAddr = true
		case wasm.OpI32Store, wasm.OpI32Store8, wasm.OpI32Store16:
			needAddr = true
			needed[wasm.ValI32] = true
		case wasm.OpI64Store, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32:
			needAddr = true
			needed[wasm.ValI64] = true
		case wasm.OpF32Store:
			needAddr = true
			needed[wasm.ValF32] = true
		case wasm.OpF64Store:
			needAddr = true
			needed[wasm.ValF64] = true
		case wasm.OpPrefixSIMD:
			if simd, ok := instr.Imm.(wasm.SIMDImm); ok && simd.SubOpcode == wasm.SimdV128Store {
				needAddr = true
				needed[wasm.ValV128] = true
			}
		}
	}
	return needAddr, needed
}

// allocScratch appends the scratch locals a function needs to its local
// declarations, one LocalEntry of Count 1 per scratch, and returns their
// assigned indices. localBase is the function's first free local index:
// its parameter count plus however many locals it already declares.
func allocScratch(body *wasm.FuncBody, localBase uint32, needAddr bool, needed map[wasm.ValType]bool) splice.Scratch {
	next := localBase
	alloc := func(t wasm.ValType) uint32 {
		idx := next
		body.Locals = append(body.Locals, wasm.LocalEntry{Count: 1, ValType: t})
		next++
		return idx
	}

	var s splice.Scratch
	if needAddr {
		s.Addr = alloc(wasm.ValI32)
	}
	if needed[wasm.ValI32] {
		s.I32 = alloc(wasm.ValI32)
	}
	if needed[wasm.ValI64] {
		s.I64 = alloc(wasm.ValI64)
	}
	if needed[wasm.ValF32] {
		s.F32 = alloc(wasm.ValF32)
	}
	if needed[wasm.ValF64] {
		s.F64 = alloc(wasm.ValF64)
	}
	if needed[wasm.ValV128] {
		s.V128 = alloc(wasm.ValV128)
	}
	return s
}

// localCount returns the number of locals a FuncBody already declares
// (the sum of its LocalEntry groups' counts), excluding parameters.
func localCount(body wasm.FuncBody) uint32 {
	var n uint32
	for _, e := range body.Locals {
		n += e.Count
	}
	return n
}
