package typed

// Inspect walks a subtree depth first, calling f for every node. Children are
// skipped when f returns false. Nil children are not visited.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Arithmetic:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *Comparison:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *Unary:
		Inspect(n.Operand, f)
	case *Conditional:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	case *Call:
		Inspect(n.Callee, f)
		inspectExprs(n.Args, f)
	case *IntrinsicCall:
		inspectExprs(n.Args, f)
	case *Member:
		Inspect(n.Parent, f)
	case *MemberUpdate:
		Inspect(n.Parent, f)
		Inspect(n.Value, f)
	case *Index:
		Inspect(n.Parent, f)
		Inspect(n.Key, f)
	case *Construct:
		for i, e := range n.Elements {
			if i < len(n.Keys) {
				Inspect(n.Keys[i], f)
			}
			Inspect(e, f)
		}
	case *Return:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *Store:
		Inspect(n.Value, f)
	case *Block:
		for _, s := range n.Body {
			Inspect(s, f)
		}
	case *If:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *For:
		Inspect(n.Start, f)
		Inspect(n.End, f)
		Inspect(n.Body, f)
	case *While:
		Inspect(n.Cond, f)
		Inspect(n.Body, f)
	case *ExprStmt:
		Inspect(n.Expr, f)
	}
}

func inspectExprs(es []Expression, f func(Node) bool) {
	for _, e := range es {
		Inspect(e, f)
	}
}

// InspectProgram walks the global body and every function body.
func InspectProgram(p *Program, f func(Node) bool) {
	for _, s := range p.Body {
		Inspect(s, f)
	}
	for _, fn := range p.Functions {
		if fn.Body != nil {
			Inspect(fn.Body, f)
		}
	}
}
