// This file implements the optional arithmetic evaluator backing is/2 and
// the numeric comparison goals (<, >, =<, >=, =:=, =\=). Spec.md treats
// these as an ambient convenience rather than a core module, so the
// evaluator is deliberately small: it handles Number literals, bound
// Variables/FieldAccess dereferencing to a Number, the four basic
// Compound operators, mod, and unary minus.
package noetic

// EvalArith evaluates an arithmetic expression term to a float64, against
// bindings b and field resolver fr.
func EvalArith(t Term, b *Bindings, fr FieldResolver) (float64, error) {
	d := Deref(t, b, fr)
	switch v := d.(type) {
	case *Number:
		return v.Value, nil
	case *Variable:
		return 0, &ResolutionError{Goal: "is", Message: "arithmetic expression has unbound variable " + v.Name}
	case *Compound:
		return evalCompound(v, b, fr)
	default:
		return 0, &ResolutionError{Goal: "is", Message: "non-numeric term " + d.String() + " in arithmetic expression"}
	}
}

func evalCompound(c *Compound, b *Bindings, fr FieldResolver) (float64, error) {
	if len(c.Args) == 1 && c.Functor == "-" {
		x, err := EvalArith(c.Args[0], b, fr)
		if err != nil {
			return 0, err
		}
		return -x, nil
	}
	if len(c.Args) != 2 {
		return 0, &ResolutionError{Goal: "is", Message: "unsupported arithmetic functor " + c.Functor}
	}
	x, err := EvalArith(c.Args[0], b, fr)
	if err != nil {
		return 0, err
	}
	y, err := EvalArith(c.Args[1], b, fr)
	if err != nil {
		return 0, err
	}
	switch c.Functor {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return 0, &ResolutionError{Goal: "is", Message: "division by zero"}
		}
		return x / y, nil
	case "mod":
		if y == 0 {
			return 0, &ResolutionError{Goal: "is", Message: "modulo by zero"}
		}
		xi, yi := int64(x), int64(y)
		m := xi % yi
		if m != 0 && (m < 0) != (yi < 0) {
			m += yi
		}
		return float64(m), nil
	default:
		return 0, &ResolutionError{Goal: "is", Message: "unsupported arithmetic functor " + c.Functor}
	}
}
