package executor

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
)

// frame is the dataframe handle exposed to rename code as `df`. It carries
// only column names; data never enters the interpreter.
type frame struct {
	columns []string
	frozen  bool
}

var (
	_ starlark.HasAttrs    = (*frame)(nil)
	_ starlark.HasSetField = (*frame)(nil)
)

func newFrame(columns []string) *frame {
	return &frame{columns: append([]string(nil), columns...)}
}

func (f *frame) String() string {
	return fmt.Sprintf("DataFrame(columns=[%s])", strings.Join(f.columns, ", "))
}
func (f *frame) Type() string          { return "DataFrame" }
func (f *frame) Freeze()               { f.frozen = true }
func (f *frame) Truth() starlark.Bool  { return len(f.columns) > 0 }
func (f *frame) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: DataFrame") }

func (f *frame) Attr(name string) (starlark.Value, error) {
	switch name {
	case "columns":
		items := make([]starlark.Value, len(f.columns))
		for i, c := range f.columns {
			items[i] = starlark.String(c)
		}
		return starlark.NewList(items), nil
	case "rename":
		return starlark.NewBuiltin("rename", f.rename).BindReceiver(f), nil
	}
	return nil, nil
}

func (f *frame) AttrNames() []string { return []string{"columns", "rename"} }

// SetField supports `df.columns = [...]` with one new name per column.
func (f *frame) SetField(name string, val starlark.Value) error {
	if name != "columns" {
		return starlark.NoSuchAttrError(fmt.Sprintf("DataFrame has no settable field .%s", name))
	}
	if f.frozen {
		return fmt.Errorf("cannot set columns of frozen DataFrame")
	}
	names, err := stringSeq(val)
	if err != nil {
		return fmt.Errorf("df.columns: %w", err)
	}
	if len(names) != len(f.columns) {
		return fmt.Errorf("df.columns: length mismatch: expected %d names, got %d", len(f.columns), len(names))
	}
	f.columns = names
	return nil
}

// rename implements df.rename(columns=..., inplace=False, errors="ignore")
// and the positional df.rename(mapper, axis=1) form.
func (f *frame) rename(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		mapper  starlark.Value = starlark.None
		columns starlark.Value = starlark.None
		axis    starlark.Value = starlark.None
		inplace                = false
		errMode                = "ignore"
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"mapper?", &mapper, "columns?", &columns, "axis?", &axis, "inplace?", &inplace, "errors?", &errMode); err != nil {
		return nil, err
	}

	mapping := columns
	if mapping == starlark.None {
		if mapper == starlark.None {
			return nil, fmt.Errorf("%s: columns mapping is required", b.Name())
		}
		if !isColumnsAxis(axis) {
			return nil, fmt.Errorf("%s: only column renames are supported (use columns= or axis=1)", b.Name())
		}
		mapping = mapper
	}

	dict, ok := mapping.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("%s: columns must be a dict, got %s", b.Name(), mapping.Type())
	}
	renames := make(map[string]string, dict.Len())
	for _, item := range dict.Items() {
		k, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("%s: mapping key %s is not a string", b.Name(), item[0])
		}
		v, ok := starlark.AsString(item[1])
		if !ok {
			return nil, fmt.Errorf("%s: mapping value for %q is not a string", b.Name(), k)
		}
		renames[k] = v
	}

	out := make([]string, len(f.columns))
	seen := make(map[string]bool, len(f.columns))
	for i, c := range f.columns {
		out[i] = c
		if v, ok := renames[c]; ok {
			out[i] = v
		}
		seen[c] = true
	}
	if errMode == "raise" {
		for k := range renames {
			if !seen[k] {
				return nil, fmt.Errorf("%s: %q not found in columns", b.Name(), k)
			}
		}
	}

	if inplace {
		if f.frozen {
			return nil, fmt.Errorf("%s: cannot rename frozen DataFrame in place", b.Name())
		}
		f.columns = out
		return starlark.None, nil
	}
	return &frame{columns: out}, nil
}

func isColumnsAxis(v starlark.Value) bool {
	switch x := v.(type) {
	case starlark.Int:
		n, ok := x.Int64()
		return ok && n == 1
	case starlark.String:
		return string(x) == "columns"
	}
	return false
}

func stringSeq(v starlark.Value) ([]string, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("expected a list of strings, got %s", v.Type())
	}
	iter := iterable.Iterate()
	defer iter.Done()

	var out []string
	var item starlark.Value
	for iter.Next(&item) {
		s, ok := starlark.AsString(item)
		if !ok {
			return nil, fmt.Errorf("expected a list of strings, found %s", item.Type())
		}
		out = append(out, s)
	}
	return out, nil
}
