// Package ast implements the expression arena: nodes with back
// references instead of pointers. Nodes live in a single contiguous
// slice indexed by NodeID; a node's children are always IDs strictly
// less than its own index, so cycles are structurally impossible and
// the arena can be walked iteratively in index order for any
// bottom-up pass (type inference, codegen).
//
// Nodes are plain data rather than a pointer/interface Expr tree, but
// every consumer (semantic analyzer, block evaluator) keeps the same
// one-case-per-kind dispatch shape, just switching on Kind instead of
// calling an Accept method.
package ast

import (
	"numexpr/internal/errors"
	"numexpr/internal/types"
)

// NodeID indexes into an Arena's Nodes slice. A zero NodeID is never a
// valid reference (index 0 is always the arena's own placeholder/root
// bookkeeping), so NodeID 0 doubles as "absent".
type NodeID int32

const NoNode NodeID = -1

type Kind uint8

const (
	KindLiteral Kind = iota
	KindVarRef
	KindLocalRef
	KindUnary
	KindBinary
	KindCall
	KindReduction
	KindWhere
	KindCast
	KindSequence
	KindAssign
	KindFor
	KindIf
	KindBreak
	KindContinue
	KindPrint
	KindKernelDef
	KindReturn
)

func (k Kind) String() string {
	names := [...]string{
		"Literal", "VarRef", "LocalRef", "Unary", "Binary", "Call",
		"Reduction", "Where", "Cast", "Sequence", "Assign", "For", "If",
		"Break", "Continue", "Print", "KernelDef", "Return",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Kind(?)"
}

// ReductionOp enumerates the fixed reduction set.
type ReductionOp uint8

const (
	ReduceSum ReductionOp = iota
	ReduceProd
	ReduceMin
	ReduceMax
	ReduceAny
	ReduceAll
)

func (r ReductionOp) String() string {
	names := [...]string{"sum", "prod", "min", "max", "any", "all"}
	if int(r) < len(names) {
		return names[r]
	}
	return "ReductionOp(?)"
}

// Node is one arena entry. Not every field is meaningful for every
// Kind; see the per-Kind comments below. Fixed-arity children live in
// A/B/C; variable-arity children (call args, statement bodies) live in
// List.
type Node struct {
	Kind Kind
	Pos  errors.Position
	Tag  types.Tag // inferred type, filled in by the semantic analyzer

	Op string // operator symbol ("+", "<"), function name, or builtin name

	A, B, C NodeID // A=cond/left/value, B=then/right, C=else — meaning is per-Kind
	List    []NodeID

	Lit   types.Scalar // KindLiteral
	Name  string       // KindVarRef/KindLocalRef/KindAssign: identifier
	VarIx int          // KindVarRef: resolved ordinal index into the descriptor table
	Slot  int          // KindLocalRef/KindAssign/phi: resolved temporary-arena slot

	RedOp     ReductionOp // KindReduction
	Predicate bool        // KindReduction: true if this is a fused predicate reduction

	Fmt string // KindPrint: format string ("" means positional args)

	Params []string // KindKernelDef: parameter names, in declaration order
}

// Arena owns all nodes produced while compiling one expression or
// kernel program. Indices only ever reference earlier entries: the
// parser builds bottom-up and CheckBackReferences verifies it; Add
// itself does not check.
type Arena struct {
	Nodes []Node
}

func NewArena() *Arena {
	// Reserve index 0 so NodeID 0 is never confused with "unset" (Go
	// zero value); the real root is recorded separately by the caller.
	return &Arena{Nodes: []Node{{Kind: KindLiteral}}}
}

// Add appends n and returns its NodeID. It is the caller's
// responsibility to only reference already-added IDs in n's A/B/C/List
// fields (the parser builds bottom-up, so this is automatic).
func (a *Arena) Add(n Node) NodeID {
	id := NodeID(len(a.Nodes))
	a.Nodes = append(a.Nodes, n)
	return id
}

func (a *Arena) Get(id NodeID) *Node { return &a.Nodes[id] }

func (a *Arena) Len() int { return len(a.Nodes) }

// CheckBackReferences verifies that every non-leaf
// node's children are strictly earlier in the arena). It is run once
// after parsing, before semantic analysis, as a cheap sanity check
// against parser bugs — not part of the hot compile path.
func (a *Arena) CheckBackReferences() error {
	for i, n := range a.Nodes {
		id := NodeID(i)
		for _, child := range n.children() {
			if child == NoNode {
				continue
			}
			if child >= id {
				return errors.New(errors.KindType, n.Pos,
					"internal: node %d (%s) references non-earlier child %d", id, n.Kind, child)
			}
		}
	}
	return nil
}

// Children returns n's child NodeIDs (from A/B/C and List, in that
// order, skipping absent slots), for callers outside this package that
// need to walk the arena, such as the AST explainer.
func (n *Node) Children() []NodeID {
	return n.children()
}

func (n *Node) children() []NodeID {
	out := make([]NodeID, 0, 3+len(n.List))
	if n.A != NoNode && n.A != 0 {
		out = append(out, n.A)
	}
	if n.B != NoNode && n.B != 0 {
		out = append(out, n.B)
	}
	if n.C != NoNode && n.C != 0 {
		out = append(out, n.C)
	}
	out = append(out, n.List...)
	return out
}
