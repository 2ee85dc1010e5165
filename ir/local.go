package ir

// IsLocal reports whether n can be evaluated without inputs, that is,
// whether the tree references no [Param].
func IsLocal(n Node) bool {
	return Walk(n, func(n Node) bool {
		_, isParam := n.(*Param)

		return !isParam
	})
}

// EvalLocal evaluates a tree that references no parameters.
func EvalLocal(n Node) (any, error) {
	prog, err := Compile(n)
	if err != nil {
		return nil, err
	}

	return prog()
}

// Fold replaces a local tree with the constant it evaluates to. Trees that
// reference parameters are returned unchanged.
func Fold(n Node) (Node, error) {
	if _, ok := n.(*Const); ok || !IsLocal(n) {
		return n, nil
	}

	v, err := EvalLocal(n)
	if err != nil {
		return nil, err
	}

	return &Const{value: v, typ: n.Type()}, nil
}
