package splice

import "github.com/wippyai/wasm-guardian/wasm"

// rejectedMisc holds the 0xFC sub-opcodes outside the rewriter's
// instrumented surface: data.drop and the table/element bulk operations. memory.copy,
// memory.fill, and memory.init are deliberately absent here — they pass
// through unchanged per the shipping policy, at the cost of requiring the
// host to rescan memory after any call that may invoke them.
var rejectedMisc = map[uint32]string{
	wasm.MiscDataDrop:  "data.drop",
	wasm.MiscTableInit: "table.init",
	wasm.MiscElemDrop:  "elem.drop",
	wasm.MiscTableCopy: "table.copy",
	wasm.MiscTableGrow: "table.grow",
	wasm.MiscTableFill: "table.fill",
}

// RejectHandler rejects the six bulk-memory/table opcodes outside the
// rewriter's instrumented surface and passes every other 0xFC-prefixed
// instruction through unchanged.
type RejectHandler struct{}

// Mnemonic returns the rejected opcode's textual name for instr, or ""
// if instr is not on the reject list.
func Mnemonic(instr wasm.Instruction) string {
	misc, ok := instr.Imm.(wasm.MiscImm)
	if !ok {
		return ""
	}
	return rejectedMisc[misc.SubOpcode]
}

// Handle implements Handler. It never splices; it only signals rejection
// through the returned error, leaving the actual whole-module pre-scan to
// the caller.
func (RejectHandler) Handle(_ *Context, instr wasm.Instruction) ([]wasm.Instruction, error) {
	if name := Mnemonic(instr); name != "" {
		return nil, &RejectedError{Mnemonic: name}
	}
	return nil, nil
}

// RejectedError reports that instr's opcode is outside the rewriter's
// instrumented surface. Callers translate it to errors.UnsupportedOpcode.
type RejectedError struct {
	Mnemonic string
}

func (e *RejectedError) Error() string {
	return "unsupported opcode: " + e.Mnemonic
}
