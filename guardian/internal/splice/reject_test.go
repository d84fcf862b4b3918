package splice_test

import (
	"testing"

	"github.com/wippyai/wasm-guardian/guardian/internal/splice"
	"github.com/wippyai/wasm-guardian/wasm"
)

func TestMnemonicRejectsBulkTableOps(t *testing.T) {
	cases := map[uint32]string{
		wasm.MiscDataDrop:  "data.drop",
		wasm.MiscTableInit: "table.init",
		wasm.MiscElemDrop:  "elem.drop",
		wasm.MiscTableCopy: "table.copy",
		wasm.MiscTableGrow: "table.grow",
		wasm.MiscTableFill: "table.fill",
	}
	for sub, want := range cases {
		instr := wasm.Instruction{Opcode: wasm.OpPrefixMisc, Imm: wasm.MiscImm{SubOpcode: sub}}
		if got := splice.Mnemonic(instr); got != want {
			t.Errorf("Mnemonic(sub=%#x) = %q, want %q", sub, got, want)
		}
	}
}

func TestMnemonicPassesThroughBulkMemoryOps(t *testing.T) {
	for _, sub := range []uint32{wasm.MiscMemoryInit, wasm.MiscMemoryCopy, wasm.MiscMemoryFill} {
		instr := wasm.Instruction{Opcode: wasm.OpPrefixMisc, Imm: wasm.MiscImm{SubOpcode: sub}}
		if got := splice.Mnemonic(instr); got != "" {
			t.Errorf("Mnemonic(sub=%#x) = %q, want passthrough (empty)", sub, got)
		}
	}
}

func TestRejectHandlerReturnsErrorOnlyForRejectedOpcodes(t *testing.T) {
	h := splice.RejectHandler{}

	rejected := wasm.Instruction{Opcode: wasm.OpPrefixMisc, Imm: wasm.MiscImm{SubOpcode: wasm.MiscDataDrop}}
	if _, err := h.Handle(nil, rejected); err == nil {
		t.Error("expected an error for data.drop")
	}

	passthrough := wasm.Instruction{Opcode: wasm.OpPrefixMisc, Imm: wasm.MiscImm{SubOpcode: wasm.MiscMemoryFill}}
	out, err := h.Handle(nil, passthrough)
	if err != nil || out != nil {
		t.Errorf("expected memory.fill to pass through unchanged, got out=%#v err=%v", out, err)
	}
}
