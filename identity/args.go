package identity

import "fmt"

// Arg is a single named call argument. Positional arguments are passed to
// Call as plain values; Named wraps a value to bind it by parameter name.
type Arg struct {
	Name  string
	Value any
}

// Named binds value to the parameter called name, independent of position.
func Named(name string, value any) Arg {
	return Arg{Name: name, Value: value}
}

// Pair is one name/value element of a Binding.
type Pair struct {
	// Name is the bound parameter name. Empty for raw positional values.
	Name string

	Value any
}

// Binding is one call's arguments in hashable form.
//
// In canonical mode Pairs holds every parameter in declaration order, so two
// calls that spell the same logical arguments differently bind identically.
// In raw mode Pairs preserves the literal call-site form: positional values
// first (unnamed), then named values in the order given.
type Binding struct {
	// Canonical reports which mode produced this binding.
	Canonical bool

	// Pairs is the identity representation of the arguments.
	Pairs []Pair

	// Values holds the argument values in declaration order, ready for
	// invocation. Variadic surplus stays flattened at the tail.
	Values []any
}

// Bind normalizes the arguments of one call against fn's parameters.
//
// In canonical mode every parameter must be bound exactly once, either
// positionally or by name; Go functions have no default values, so a missing
// parameter is an error (the variadic tail may be empty). In raw mode the
// arguments pass through as given, but named values still need declared
// parameter names to produce an invocable ordering.
func Bind(fn Function, args []any, canonical bool) (Binding, error) {
	positional, named, err := splitArgs(fn, args)
	if err != nil {
		return Binding{}, err
	}

	if !canonical {
		b := Binding{Canonical: false}
		b.Pairs = make([]Pair, 0, len(args))
		for _, v := range positional {
			b.Pairs = append(b.Pairs, Pair{Value: v})
		}
		for _, a := range named {
			b.Pairs = append(b.Pairs, Pair{Name: a.Name, Value: a.Value})
		}
		if len(named) == 0 {
			b.Values = positional
			return b, nil
		}
		values, err := orderValues(fn, positional, named)
		if err != nil {
			return Binding{}, err
		}
		b.Values = values
		return b, nil
	}

	values, err := orderValues(fn, positional, named)
	if err != nil {
		return Binding{}, err
	}

	b := Binding{Canonical: true, Values: values}
	params := fn.Params
	if params == nil {
		// Version-tagged identity: no declared names, synthesize positions.
		for i, v := range values {
			b.Pairs = append(b.Pairs, Pair{Name: fmt.Sprintf("arg%d", i), Value: v})
		}
		return b, nil
	}
	fixed := len(params)
	if fn.Variadic {
		fixed--
	}
	for i := 0; i < fixed && i < len(values); i++ {
		b.Pairs = append(b.Pairs, Pair{Name: params[i], Value: values[i]})
	}
	if fn.Variadic {
		rest := []any{}
		if len(values) > fixed {
			rest = values[fixed:]
		}
		b.Pairs = append(b.Pairs, Pair{Name: params[fixed], Value: rest})
	}
	return b, nil
}

// splitArgs separates positional values from Named arguments, enforcing that
// no positional value follows a named one.
func splitArgs(fn Function, args []any) ([]any, []Arg, error) {
	var positional []any
	var named []Arg
	for i, a := range args {
		if n, ok := a.(Arg); ok {
			named = append(named, n)
			continue
		}
		if len(named) > 0 {
			return nil, nil, &BindError{
				Function: fn.Name,
				Reason:   fmt.Sprintf("positional argument %d follows a named argument", i),
			}
		}
		positional = append(positional, a)
	}
	return positional, named, nil
}

// orderValues places positional and named values into declaration order.
func orderValues(fn Function, positional []any, named []Arg) ([]any, error) {
	if len(named) == 0 && fn.Params == nil {
		return positional, nil
	}
	if fn.Params == nil {
		return nil, &BindError{
			Function: fn.Name,
			Reason:   "named arguments require declared parameter names (identity was built from a version tag)",
		}
	}

	fixed := len(fn.Params)
	if fn.Variadic {
		fixed--
	}
	if !fn.Variadic && len(positional) > len(fn.Params) {
		return nil, &BindError{
			Function: fn.Name,
			Reason:   fmt.Sprintf("%d positional arguments for %d parameters", len(positional), len(fn.Params)),
		}
	}

	slots := make([]any, fixed)
	bound := make([]bool, fixed)
	var tail []any

	for i, v := range positional {
		if i < fixed {
			slots[i] = v
			bound[i] = true
			continue
		}
		tail = append(tail, v)
	}

	index := make(map[string]int, fixed)
	for i := 0; i < fixed; i++ {
		index[fn.Params[i]] = i
	}
	for _, a := range named {
		i, ok := index[a.Name]
		if !ok {
			if fn.Variadic && a.Name == fn.Params[fixed] {
				return nil, &BindError{
					Function: fn.Name,
					Reason:   fmt.Sprintf("variadic parameter %q cannot be passed by name", a.Name),
				}
			}
			return nil, &BindError{
				Function: fn.Name,
				Reason:   fmt.Sprintf("no parameter named %q", a.Name),
			}
		}
		if bound[i] {
			return nil, &BindError{
				Function: fn.Name,
				Reason:   fmt.Sprintf("parameter %q bound twice", a.Name),
			}
		}
		slots[i] = a.Value
		bound[i] = true
	}

	for i, ok := range bound {
		if !ok {
			return nil, &BindError{
				Function: fn.Name,
				Reason:   fmt.Sprintf("parameter %q is not bound", fn.Params[i]),
			}
		}
	}

	return append(slots, tail...), nil
}
