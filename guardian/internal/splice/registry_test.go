package splice_test

import (
	"testing"

	"github.com/wippyai/wasm-guardian/guardian/internal/splice"
	"github.com/wippyai/wasm-guardian/wasm"
)

func TestRegistryDispatchesByFlag(t *testing.T) {
	reg := splice.NewRegistry(false, false)
	ctx := &splice.Context{}

	store := wasm.Instruction{Opcode: wasm.OpI32Store, Imm: wasm.MemoryImm{}}
	if out, err := reg.Handle(ctx, store); err != nil || out != nil {
		t.Errorf("store should be untouched when trackChanges is false, got out=%#v err=%v", out, err)
	}

	globalSet := wasm.Instruction{Opcode: wasm.OpGlobalSet, Imm: wasm.GlobalImm{}}
	if out, err := reg.Handle(ctx, globalSet); err != nil || out != nil {
		t.Errorf("global.set should be untouched when globalSet is false, got out=%#v err=%v", out, err)
	}

	reject := wasm.Instruction{Opcode: wasm.OpPrefixMisc, Imm: wasm.MiscImm{SubOpcode: wasm.MiscDataDrop}}
	if _, err := reg.Handle(ctx, reject); err == nil {
		t.Error("reject table should apply regardless of flags")
	}
}

func TestRegistryInstrumentsWhenEnabled(t *testing.T) {
	reg := splice.NewRegistry(true, true)
	ctx := &splice.Context{Scratch: splice.Scratch{Addr: 0, I32: 1}}

	store := wasm.Instruction{Opcode: wasm.OpI32Store, Imm: wasm.MemoryImm{}}
	out, err := reg.Handle(ctx, store)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected store to be spliced when trackChanges is true")
	}

	globalSet := wasm.Instruction{Opcode: wasm.OpGlobalSet, Imm: wasm.GlobalImm{GlobalIdx: 1}}
	out, err = reg.Handle(ctx, globalSet)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected global.set to be spliced when globalSet is true")
	}

	other := wasm.Instruction{Opcode: wasm.OpNop}
	if out, err := reg.Handle(ctx, other); err != nil || out != nil {
		t.Errorf("nop should be left unchanged, got out=%#v err=%v", out, err)
	}
}
