package jit

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"numexpr/internal/ast"
	"numexpr/internal/errors"
	"numexpr/internal/semantic"
	numtypes "numexpr/internal/types"
)

// GenerateLLVM is the alternate codegen path: it lowers res.Root
// straight to LLVM IR via llir/llvm rather than emitting C text for an
// external compiler to parse. It covers a narrower slice of the type
// lattice than GenerateC (float64 variables and a float64 output only)
// since building the full integer/unsigned/cast lattice node-by-node
// in SSA form earns its keep only where the C path's libm calls would
// otherwise dominate the generated loop; the C path remains the
// default and this one opt-in via the Backend knob (NUMEXPR_BACKEND=llvm).
func GenerateLLVM(funcName string, res *semantic.Result) (string, error) {
	root := res.Arena.Get(res.Root)
	if root.Kind == ast.KindKernelDef {
		return "", errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: multi-statement kernels are not JIT-compiled")
	}
	if res.OutputTag != numtypes.Float64 {
		return "", errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: LLVM backend only supports float64 output")
	}
	for _, v := range res.Vars {
		if v.Declared != numtypes.Float64 {
			return "", errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: LLVM backend only supports float64 variables")
		}
	}

	m := ir.NewModule()
	ptrDouble := types.NewPointer(types.Double)
	params := make([]*ir.Param, 0, len(res.Vars)+2)
	n := ir.NewParam("n", types.I64)
	params = append(params, n)
	varParams := make([]*ir.Param, len(res.Vars))
	for i := range res.Vars {
		p := ir.NewParam(fmt.Sprintf("var%d", i), ptrDouble)
		varParams[i] = p
		params = append(params, p)
	}
	outParam := ir.NewParam("out", ptrDouble)
	params = append(params, outParam)

	fn := m.NewFunc(funcName, types.Void, params...)
	entry := fn.NewBlock("entry")
	loop := fn.NewBlock("loop")
	body := fn.NewBlock("body")
	exit := fn.NewBlock("exit")

	iPtr := entry.NewAlloca(types.I64)
	entry.NewStore(constant.NewInt(types.I64, 0), iPtr)
	entry.NewBr(loop)

	i := loop.NewLoad(types.I64, iPtr)
	cond := loop.NewICmp(enum.IPredSLT, i, n)
	loop.NewCondBr(cond, body, exit)

	g := &llvmGen{arena: res.Arena, block: body, vars: varParams, idx: i}
	v, err := g.emit(res.Root)
	if err != nil {
		return "", err
	}
	outPtr := body.NewGetElementPtr(types.Double, outParam, i)
	body.NewStore(v, outPtr)
	iNext := body.NewAdd(i, constant.NewInt(types.I64, 1))
	body.NewStore(iNext, iPtr)
	body.NewBr(loop)

	exit.NewRet(nil)

	return m.String(), nil
}

type llvmGen struct {
	arena *ast.Arena
	block *ir.Block
	vars  []*ir.Param
	idx   value.Value
}

func (g *llvmGen) emit(id ast.NodeID) (value.Value, error) {
	n := g.arena.Get(id)
	switch n.Kind {
	case ast.KindLiteral:
		return constant.NewFloat(types.Double, n.Lit.F64), nil
	case ast.KindVarRef:
		ptr := g.block.NewGetElementPtr(types.Double, g.vars[n.VarIx], g.idx)
		return g.block.NewLoad(types.Double, ptr), nil
	case ast.KindUnary:
		inner, err := g.emit(n.A)
		if err != nil {
			return nil, err
		}
		if n.Op == "-" {
			return g.block.NewFNeg(inner), nil
		}
		return nil, errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: unary operator %q in LLVM backend", n.Op)
	case ast.KindBinary:
		l, err := g.emit(n.A)
		if err != nil {
			return nil, err
		}
		r, err := g.emit(n.B)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "+":
			return g.block.NewFAdd(l, r), nil
		case "-":
			return g.block.NewFSub(l, r), nil
		case "*":
			return g.block.NewFMul(l, r), nil
		case "/":
			return g.block.NewFDiv(l, r), nil
		}
		return nil, errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: binary operator %q in LLVM backend", n.Op)
	default:
		return nil, errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: node kind %v in LLVM backend", n.Kind)
	}
}
