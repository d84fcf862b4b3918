package splice

import "github.com/wippyai/wasm-guardian/wasm"

// GrowHandler instruments memory.grow: the page delta is duplicated into
// the address scratch local and reported to the imported on_grow callback
// before the original grow runs with its original operand.
type GrowHandler struct{}

// Handle implements Handler.
func (GrowHandler) Handle(ctx *Context, instr wasm.Instruction) ([]wasm.Instruction, error) {
	delta := ctx.Scratch.Addr
	return []wasm.Instruction{
		{Opcode: wasm.OpLocalTee, Imm: wasm.LocalImm{LocalIdx: delta}},
		{Opcode: wasm.OpCall, Imm: wasm.CallImm{FuncIdx: ctx.OnGrowFunc}},
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: delta}},
		instr,
	}, nil
}
