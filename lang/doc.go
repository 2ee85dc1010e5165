// Package lang turns an ordered list of grammar definitions into a parser of
// typed expression trees.
//
// # Defining a language
//
// A language is nothing more than its definitions, in match order. Earlier
// definitions win when two patterns match at the same position, so keywords
// and function names precede identifiers:
//
//	num := grammar.NewOperand("NUM", `[0-9]+`,
//		func(text string, _ []*ir.Param) (ir.Node, error) {
//			v, err := strconv.ParseInt(text, 10, 64)
//			if err != nil {
//				return nil, err
//			}
//			return ir.Constant(v)
//		})
//
//	add := grammar.NewBinary("ADD", `\+`, 3,
//		func(l, r ir.Node) (ir.Node, error) {
//			l, r, _ = coerce.Numeric(l, r)
//			return ir.NewBinary(ir.OpAdd, l, r)
//		})
//
//	calc, err := lang.Define(grammar.NewIgnore("WS", `\s+`), num, add)
//
// # Parsing
//
// [Language.Parse] returns an [ir.Node] whose type is known statically.
// Placeholders for values supplied later are given as [ir.Param] values; the
// operand builders decide how identifiers in the text refer to them:
//
//	x := ir.NewParam("x", ir.Int64)
//	node, err := calc.Parse(ctx, "x + 1", x)
//	prog, err := ir.Compile(node, x)
//	v, err := prog(int64(41)) // 42
//
// Failures are [*diag.Error] values naming the exact span of text at fault.
//
// # Concrete languages
//
// Subpackages arith, filter and script define ready-made languages on top of
// this package.
package lang
