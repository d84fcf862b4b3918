// Package splice implements the per-opcode instrumentation table: given a
// single instruction, produce the sequence of instructions that should
// replace it (or nil to copy it unchanged).
package splice

import "github.com/wippyai/wasm-guardian/wasm"

// PageShift is PAGE_SIZE_POWER_OF_2: dirty state is tracked per 65,536-byte
// page of linear memory.
const PageShift = 16

// Scratch holds a function's already-allocated scratch-local indices, one
// per value type a store can carry, plus the address scratch shared by
// stores and memory.grow.
type Scratch struct {
	Addr uint32
	I32  uint32
	I64  uint32
	F32  uint32
	F64  uint32
	V128 uint32
}

// ForType returns the scratch local holding values of type t.
func (s Scratch) ForType(t wasm.ValType) uint32 {
	switch t {
	case wasm.ValI64:
		return s.I64
	case wasm.ValF32:
		return s.F32
	case wasm.ValF64:
		return s.F64
	case wasm.ValV128:
		return s.V128
	default:
		return s.I32
	}
}

// Context carries the module-level indices a handler needs to build its
// splice. It is rebuilt per function (Scratch differs) but
// DirtyFlagsGlobal/OnGrowFunc/OnGlobalSetFunc are fixed for the whole
// transform. Each store instruments against the memory its own
// instruction already targets (MemoryImm.MemIdx), so Context carries no
// memory index of its own.
type Context struct {
	DirtyFlagsGlobal uint32
	OnGrowFunc       uint32
	OnGlobalSetFunc  uint32
	Scratch          Scratch
}

// Handler replaces a single instruction with zero or more instructions. A
// nil slice and nil error means "leave instr unchanged".
type Handler interface {
	Handle(ctx *Context, instr wasm.Instruction) ([]wasm.Instruction, error)
}

// Func adapts a plain function to Handler.
type Func func(ctx *Context, instr wasm.Instruction) ([]wasm.Instruction, error)

// Handle implements Handler.
func (f Func) Handle(ctx *Context, instr wasm.Instruction) ([]wasm.Instruction, error) {
	return f(ctx, instr)
}

// Registry dispatches by opcode byte.
type Registry struct {
	handlers [256]Handler
}

// NewRegistry builds the registry implementing the rewriter's per-opcode
// policy table. Store opcodes and memory.grow are only registered when
// trackChanges is set; global.set is only registered when globalSet is
// set. The bulk-memory/table reject table is unconditional: those opcodes
// are outside the rewriter's instrumented surface regardless of flags.
func NewRegistry(trackChanges, globalSet bool) *Registry {
	r := &Registry{}
	if trackChanges {
		store := StoreHandler{}
		for _, op := range []byte{
			wasm.OpI32Store, wasm.OpI64Store, wasm.OpF32Store, wasm.OpF64Store,
			wasm.OpI32Store8, wasm.OpI32Store16,
			wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32,
		} {
			r.handlers[op] = store
		}
		r.handlers[wasm.OpMemoryGrow] = GrowHandler{}
		r.handlers[wasm.OpPrefixSIMD] = SIMDStoreHandler{}
	}
	if globalSet {
		r.handlers[wasm.OpGlobalSet] = GlobalSetHandler{}
	}
	r.handlers[wasm.OpPrefixMisc] = RejectHandler{}
	return r
}

// Handle dispatches instr to its registered handler, if any.
func (r *Registry) Handle(ctx *Context, instr wasm.Instruction) ([]wasm.Instruction, error) {
	h := r.handlers[instr.Opcode]
	if h == nil {
		return nil, nil
	}
	return h.Handle(ctx, instr)
}
