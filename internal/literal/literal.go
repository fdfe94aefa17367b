// Package literal extracts Python-style literal assignments from untrusted text.
//
// The source is parsed with the Starlark grammar and the right-hand side of the
// named assignment is converted from syntax tree to Go values. Only literal
// forms are accepted (strings, numbers, booleans, None, lists, tuples, dicts);
// nothing is evaluated, so the text cannot reach any ambient state.
package literal

import (
	"fmt"
	"math/big"
	"strings"

	"go.starlark.net/syntax"

	"colstd/internal/domain"
)

const (
	maxSourceBytes = 512 * 1024
	maxDepth       = 32
)

// Extract locates `name = <literal>` in src and returns the literal as Go
// values: string, int64, float64, bool, nil, []any or map[string]any.
func Extract(src, name string) (any, error) {
	if len(src) > maxSourceBytes {
		return nil, domain.ErrValidation("source exceeds %d bytes", maxSourceBytes)
	}
	stmt, err := isolateAssignment(src, name)
	if err != nil {
		return nil, err
	}

	f, err := (&syntax.FileOptions{}).Parse("<"+name+">", normalizeStrings(stmt), 0)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(f.Stmts) != 1 {
		return nil, domain.ErrValidation("expected a single assignment to %s", name)
	}
	assign, ok := f.Stmts[0].(*syntax.AssignStmt)
	if !ok || assign.Op != syntax.EQ {
		return nil, domain.ErrValidation("expected a single assignment to %s", name)
	}
	if id, ok := assign.LHS.(*syntax.Ident); !ok || id.Name != name {
		return nil, domain.ErrValidation("expected a single assignment to %s", name)
	}
	return convert(assign.RHS, 0)
}

// StringMap extracts `name = {...}` where every key and value is a string.
func StringMap(src, name string) (map[string]string, error) {
	v, err := Extract(src, name)
	if err != nil {
		return nil, err
	}
	dict, ok := v.(map[string]any)
	if !ok {
		return nil, domain.ErrValidation("%s is %s, not a dict", name, typeName(v))
	}
	out := make(map[string]string, len(dict))
	for k, raw := range dict {
		s, ok := raw.(string)
		if !ok {
			return nil, domain.ErrValidation("%s[%q] is %s, not a string", name, k, typeName(raw))
		}
		out[k] = s
	}
	return out, nil
}

// Records extracts `name = [{...}, ...]`, a list of dicts with string keys.
func Records(src, name string) ([]map[string]any, error) {
	v, err := Extract(src, name)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, domain.ErrValidation("%s is %s, not a list", name, typeName(v))
	}
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, domain.ErrValidation("%s[%d] is %s, not a dict", name, i, typeName(item))
		}
		out = append(out, rec)
	}
	return out, nil
}

func convert(e syntax.Expr, depth int) (any, error) {
	if depth > maxDepth {
		return nil, domain.ErrValidation("literal nested deeper than %d", maxDepth)
	}
	switch x := e.(type) {
	case *syntax.Literal:
		return convertScalar(x)

	case *syntax.Ident:
		switch x.Name {
		case "None":
			return nil, nil
		case "True":
			return true, nil
		case "False":
			return false, nil
		}
		return nil, domain.ErrValidation("name %q is not a literal", x.Name)

	case *syntax.ParenExpr:
		return convert(x.X, depth+1)

	case *syntax.ListExpr:
		return convertList(x.List, depth)

	case *syntax.TupleExpr:
		return convertList(x.List, depth)

	case *syntax.DictExpr:
		out := make(map[string]any, len(x.List))
		for _, item := range x.List {
			entry, ok := item.(*syntax.DictEntry)
			if !ok {
				return nil, domain.ErrValidation("malformed dict entry")
			}
			k, err := convert(entry.Key, depth+1)
			if err != nil {
				return nil, err
			}
			ks, ok := k.(string)
			if !ok {
				return nil, domain.ErrValidation("dict key is %s, not a string", typeName(k))
			}
			v, err := convert(entry.Value, depth+1)
			if err != nil {
				return nil, err
			}
			// Later keys win, as in Python.
			out[ks] = v
		}
		return out, nil

	case *syntax.UnaryExpr:
		v, err := convert(x.X, depth+1)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case syntax.MINUS:
			switch n := v.(type) {
			case int64:
				return -n, nil
			case float64:
				return -n, nil
			}
		case syntax.PLUS:
			switch v.(type) {
			case int64, float64:
				return v, nil
			}
		}
		return nil, domain.ErrValidation("unsupported unary %s on %s", x.Op, typeName(v))

	case *syntax.BinaryExpr:
		return convertConcat(x, depth)
	}

	start, _ := e.Span()
	return nil, domain.ErrValidation("%s: expression is not a literal", start)
}

// convertConcat joins a chain of strings combined with '+'. The chain is
// walked iteratively so its length does not count against maxDepth.
func convertConcat(x *syntax.BinaryExpr, depth int) (any, error) {
	var parts []syntax.Expr
	var e syntax.Expr = x
	for {
		bin, ok := e.(*syntax.BinaryExpr)
		if !ok {
			parts = append(parts, e)
			break
		}
		if bin.Op != syntax.PLUS {
			return nil, domain.ErrValidation("operator %s is not allowed in a literal", bin.Op)
		}
		parts = append(parts, bin.Y)
		e = bin.X
	}

	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		v, err := convert(parts[i], depth+1)
		if err != nil {
			return nil, err
		}
		s, ok := v.(string)
		if !ok {
			return nil, domain.ErrValidation("'+' is only allowed between strings")
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func convertList(items []syntax.Expr, depth int) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		v, err := convert(item, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func convertScalar(lit *syntax.Literal) (any, error) {
	switch v := lit.Value.(type) {
	case string:
		return v, nil
	case int64:
		return v, nil
	case *big.Int:
		if v.IsInt64() {
			return v.Int64(), nil
		}
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, nil
	case float64:
		return v, nil
	}
	return nil, domain.ErrValidation("unsupported literal %s", lit.Raw)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "None"
	case string:
		return "a string"
	case int64:
		return "an int"
	case float64:
		return "a float"
	case bool:
		return "a bool"
	case []any:
		return "a list"
	case map[string]any:
		return "a dict"
	}
	return fmt.Sprintf("%T", v)
}
