package splice_test

import (
	"testing"

	"github.com/wippyai/wasm-guardian/guardian/internal/splice"
	"github.com/wippyai/wasm-guardian/wasm"
)

func TestGlobalSetHandlerReportsIndexBeforeSet(t *testing.T) {
	ctx := &splice.Context{OnGlobalSetFunc: 4}
	instr := wasm.Instruction{Opcode: wasm.OpGlobalSet, Imm: wasm.GlobalImm{GlobalIdx: 7}}

	out, err := (splice.GlobalSetHandler{}).Handle(ctx, instr)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(out))
	}
	if out[0].Opcode != wasm.OpI32Const || out[0].Imm.(wasm.I32Imm).Value != 7 {
		t.Error("expected the global index pushed as an i32 constant")
	}
	if out[1].Opcode != wasm.OpCall || out[1].Imm.(wasm.CallImm).FuncIdx != 4 {
		t.Error("expected a call to on_global_set")
	}
	if out[2] != instr {
		t.Error("expected the original global.set to run last, unchanged")
	}
}
