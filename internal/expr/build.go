package expr

// Build constructs the composite node for op from untyped operands.
//
// Arithmetic (+ - *) and comparison (> < =) operators need two Arith
// operands; & and | need two Bool operands. A mismatch is a TYPE ERROR.
// An unknown operator is a SYNTAX ERROR because only malformed text can
// produce one. Nil operands are an INVARIANT ERROR.
func Build(op string, l, r Expr) (Expr, error) {
	if l == nil || r == nil {
		return nil, InvariantErrorf("operator %q has a missing operand", op)
	}

	switch op {
	case OpPlus, OpMinus, OpMult, OpGt, OpLt, OpEq:
		la, lok := l.(Arith)
		ra, rok := r.(Arith)
		if !lok || !rok {
			return nil, TypeErrorf("operator %q needs arithmetic operands, got %s and %s", op, capability(l), capability(r))
		}
		switch op {
		case OpPlus:
			return Plus{L: la, R: ra}, nil
		case OpMinus:
			return Minus{L: la, R: ra}, nil
		case OpMult:
			return Mult{L: la, R: ra}, nil
		case OpGt:
			return Gt{L: la, R: ra}, nil
		case OpLt:
			return Lt{L: la, R: ra}, nil
		default:
			return Eq{L: la, R: ra}, nil
		}

	case OpAnd, OpOr:
		lb, lok := l.(Bool)
		rb, rok := r.(Bool)
		if !lok || !rok {
			return nil, TypeErrorf("operator %q needs boolean operands, got %s and %s", op, capability(l), capability(r))
		}
		if op == OpAnd {
			return And{L: lb, R: rb}, nil
		}
		return Or{L: lb, R: rb}, nil
	}

	return nil, SyntaxErrorf(-1, "unknown operator %q", op)
}

func capability(e Expr) string {
	switch e.(type) {
	case Arith:
		return "arithmetic"
	case Bool:
		return "boolean"
	}
	return "untyped"
}
