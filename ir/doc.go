// Package ir defines the statically typed expression tree produced by
// parsing.
//
// # Types
//
// A [Type] is a comparable value: a primitive [Kind], an enumeration or a
// record, optionally nullable. Enumerations are named integer types created
// with [NewEnum]; records are structured inputs created with [NewRecord] and
// represented at run time as map[string]any.
//
// # Nodes
//
// Trees are built from immutable [Node] values: [Const], [Param], [Member],
// [Unary], [Binary], [Convert] and [Call]. Constructors check operand types
// and return an error on mismatch; callers are expected to apply implicit
// conversions (see package coerce) beforehand.
//
// # Evaluation
//
// [Compile] turns a tree into a [Program] of native closures:
//
//	x := ir.NewParam("x", ir.Int64)
//	sum, _ := ir.NewBinary(ir.OpAdd, x, ir.MustConstant(int64(1)))
//	prog, _ := ir.Compile(sum, x)
//	v, _ := prog(41) // int64(42)
//
// Trees that reference no parameters are local: [IsLocal] reports this and
// [EvalLocal] evaluates them without inputs.
package ir
