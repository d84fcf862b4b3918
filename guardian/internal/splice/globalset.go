package splice

import "github.com/wippyai/wasm-guardian/wasm"

// GlobalSetHandler instruments global.set: the target global's index is
// reported to the imported on_global_set callback before the original set
// runs unchanged.
type GlobalSetHandler struct{}

// Handle implements Handler.
func (GlobalSetHandler) Handle(ctx *Context, instr wasm.Instruction) ([]wasm.Instruction, error) {
	idx := instr.Imm.(wasm.GlobalImm).GlobalIdx
	return []wasm.Instruction{
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: int32(idx)}},
		{Opcode: wasm.OpCall, Imm: wasm.CallImm{FuncIdx: ctx.OnGlobalSetFunc}},
		instr,
	}, nil
}
