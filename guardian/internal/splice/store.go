package splice

import "github.com/wippyai/wasm-guardian/wasm"

// StoreHandler instruments a linear-memory store so its target page is
// marked dirty before the store runs, per the eight-step splice: pop the
// typed value and address into scratch locals, compute the effective
// address and its page index, mark the page, then replay the original
// operands into the unmodified store.
type StoreHandler struct{}

func storeValueType(opcode byte) wasm.ValType {
	switch opcode {
	case wasm.OpI64Store, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32:
		return wasm.ValI64
	case wasm.OpF32Store:
		return wasm.ValF32
	case wasm.OpF64Store:
		return wasm.ValF64
	default:
		return wasm.ValI32
	}
}

// Handle implements Handler.
func (StoreHandler) Handle(ctx *Context, instr wasm.Instruction) ([]wasm.Instruction, error) {
	mem := instr.Imm.(wasm.MemoryImm)
	valType := storeValueType(instr.Opcode)
	valScratch := ctx.Scratch.ForType(valType)
	addrScratch := ctx.Scratch.Addr

	out := []wasm.Instruction{
		{Opcode: wasm.OpLocalSet, Imm: wasm.LocalImm{LocalIdx: valScratch}},
		{Opcode: wasm.OpLocalTee, Imm: wasm.LocalImm{LocalIdx: addrScratch}},
	}
	if mem.Offset != 0 {
		out = append(out,
			wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: int32(mem.Offset)}},
			wasm.Instruction{Opcode: wasm.OpI32Add},
		)
	}
	out = append(out,
		wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: PageShift}},
		wasm.Instruction{Opcode: wasm.OpI32ShrU},
	)
	out = append(out, markDirty(ctx, mem.MemIdx)...)
	out = append(out,
		wasm.Instruction{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: addrScratch}},
		wasm.Instruction{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: valScratch}},
		instr,
	)
	return out, nil
}

// markDirty consumes a page index left on the stack and sets its dirty
// byte: push the dirty-flags base pointer, add, push 1, i32.store8.
func markDirty(ctx *Context, memIdx uint32) []wasm.Instruction {
	return []wasm.Instruction{
		{Opcode: wasm.OpGlobalGet, Imm: wasm.GlobalImm{GlobalIdx: ctx.DirtyFlagsGlobal}},
		{Opcode: wasm.OpI32Add},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 1}},
		{Opcode: wasm.OpI32Store8, Imm: wasm.MemoryImm{Offset: 0, Align: 0, MemIdx: memIdx}},
	}
}

// SIMDStoreHandler instruments v128.store the same way StoreHandler
// instruments scalar stores; every other 0xFD-prefixed instruction
// (loads, lane ops, lane stores) is left untouched since spec coverage is
// limited to whole-value v128 stores.
type SIMDStoreHandler struct{}

// Handle implements Handler.
func (SIMDStoreHandler) Handle(ctx *Context, instr wasm.Instruction) ([]wasm.Instruction, error) {
	simd := instr.Imm.(wasm.SIMDImm)
	if simd.SubOpcode != wasm.SimdV128Store || simd.MemArg == nil {
		return nil, nil
	}
	mem := *simd.MemArg
	valScratch := ctx.Scratch.ForType(wasm.ValV128)
	addrScratch := ctx.Scratch.Addr

	out := []wasm.Instruction{
		{Opcode: wasm.OpLocalSet, Imm: wasm.LocalImm{LocalIdx: valScratch}},
		{Opcode: wasm.OpLocalTee, Imm: wasm.LocalImm{LocalIdx: addrScratch}},
	}
	if mem.Offset != 0 {
		out = append(out,
			wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: int32(mem.Offset)}},
			wasm.Instruction{Opcode: wasm.OpI32Add},
		)
	}
	out = append(out,
		wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: PageShift}},
		wasm.Instruction{Opcode: wasm.OpI32ShrU},
	)
	out = append(out, markDirty(ctx, mem.MemIdx)...)
	out = append(out,
		wasm.Instruction{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: addrScratch}},
		wasm.Instruction{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: valScratch}},
		instr,
	)
	return out, nil
}
