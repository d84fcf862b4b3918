// Package ir provides a nested sequence-tree view over a flat WebAssembly
// instruction stream, so the rewriter can walk every nested block/loop/if
// body exactly once without re-implementing control-flow bracket matching
// at every call site.
package ir

import "github.com/wippyai/wasm-guardian/wasm"

// Node is one node of the instruction tree: a sequence, a block/loop, an
// if/else, or a single leaf instruction.
type Node interface {
	node()
}

// SeqNode is a straight-line list of child nodes: the function entry body,
// or the body of a block, loop, or if/else arm.
type SeqNode struct {
	Children []Node
}

// BlockNode represents a `block` or `loop` (Opcode distinguishes them).
type BlockNode struct {
	Body   Node
	Imm    wasm.BlockImm
	Opcode byte
}

// IfNode represents an `if`, with an optional `else` arm.
type IfNode struct {
	Then Node
	Else Node // nil if there was no else
	Imm  wasm.BlockImm
}

// InstrNode is a single non-structuring instruction.
type InstrNode struct {
	Instr wasm.Instruction
}

func (*SeqNode) node()   {}
func (*BlockNode) node() {}
func (*IfNode) node()    {}
func (*InstrNode) node() {}

// Parse converts a flat instruction stream (as decoded from a function
// body, including the trailing `end`) into a tree rooted at the entry
// sequence.
func Parse(instrs []wasm.Instruction) *SeqNode {
	p := &parser{instrs: instrs}
	seq, _ := p.parseSeq()
	return seq
}

type parser struct {
	instrs []wasm.Instruction
	pos    int
}

// parseSeq consumes instructions until a matching `end` (consumed) or an
// `else` (left unconsumed, for the caller to inspect).
func (p *parser) parseSeq() (*SeqNode, byte) {
	var children []Node
	for p.pos < len(p.instrs) {
		instr := p.instrs[p.pos]
		switch instr.Opcode {
		case wasm.OpEnd:
			p.pos++
			return &SeqNode{Children: children}, wasm.OpEnd
		case wasm.OpElse:
			return &SeqNode{Children: children}, wasm.OpElse
		case wasm.OpBlock, wasm.OpLoop:
			p.pos++
			body, _ := p.parseSeq()
			children = append(children, &BlockNode{Opcode: instr.Opcode, Imm: instr.Imm.(wasm.BlockImm), Body: body})
		case wasm.OpIf:
			p.pos++
			then, term := p.parseSeq()
			var elseBody Node
			if term == wasm.OpElse {
				p.pos++ // consume the `else` marker parseSeq left unconsumed
				elseSeq, _ := p.parseSeq()
				elseBody = elseSeq
			}
			children = append(children, &IfNode{Imm: instr.Imm.(wasm.BlockImm), Then: then, Else: elseBody})
		default:
			children = append(children, &InstrNode{Instr: instr})
			p.pos++
		}
	}
	return &SeqNode{Children: children}, 0
}

// Linearize flattens a tree back into a wasm.Instruction stream, including
// the block/loop/if/else/end brackets, ready to hand to wasm.EncodeInstructions.
func Linearize(n Node) []wasm.Instruction {
	switch v := n.(type) {
	case *SeqNode:
		var out []wasm.Instruction
		for _, c := range v.Children {
			out = append(out, Linearize(c)...)
		}
		return out
	case *BlockNode:
		out := []wasm.Instruction{{Opcode: v.Opcode, Imm: v.Imm}}
		out = append(out, Linearize(v.Body)...)
		out = append(out, wasm.Instruction{Opcode: wasm.OpEnd})
		return out
	case *IfNode:
		out := []wasm.Instruction{{Opcode: wasm.OpIf, Imm: v.Imm}}
		out = append(out, Linearize(v.Then)...)
		if v.Else != nil {
			out = append(out, wasm.Instruction{Opcode: wasm.OpElse})
			out = append(out, Linearize(v.Else)...)
		}
		out = append(out, wasm.Instruction{Opcode: wasm.OpEnd})
		return out
	case *InstrNode:
		return []wasm.Instruction{v.Instr}
	}
	return nil
}

// Rewrite walks the tree depth-first, visiting every nested sequence
// exactly once (block bodies and if/else arms before their enclosing
// sequence's remaining siblings are assembled), and replaces each leaf
// instruction with whatever splice fn returns for it. A nil, nil result
// means "copy unchanged". Nested control-flow nodes are never themselves
// passed to fn: only their bodies are recursively rewritten.
func Rewrite(n Node, fn func(wasm.Instruction) ([]wasm.Instruction, error)) (Node, error) {
	switch v := n.(type) {
	case *SeqNode:
		var children []Node
		for _, c := range v.Children {
			switch leaf := c.(type) {
			case *InstrNode:
				repl, err := fn(leaf.Instr)
				if err != nil {
					return nil, err
				}
				if repl == nil {
					children = append(children, leaf)
					continue
				}
				for _, instr := range repl {
					children = append(children, &InstrNode{Instr: instr})
				}
			default:
				rewritten, err := Rewrite(c, fn)
				if err != nil {
					return nil, err
				}
				children = append(children, rewritten)
			}
		}
		return &SeqNode{Children: children}, nil
	case *BlockNode:
		body, err := Rewrite(v.Body, fn)
		if err != nil {
			return nil, err
		}
		return &BlockNode{Opcode: v.Opcode, Imm: v.Imm, Body: body}, nil
	case *IfNode:
		then, err := Rewrite(v.Then, fn)
		if err != nil {
			return nil, err
		}
		var elseBody Node
		if v.Else != nil {
			elseBody, err = Rewrite(v.Else, fn)
			if err != nil {
				return nil, err
			}
		}
		return &IfNode{Imm: v.Imm, Then: then, Else: elseBody}, nil
	}
	return n, nil
}
