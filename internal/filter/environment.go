package filter

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
)

// Variables a filter expression may reference. Asset filters bind the
// summary fields and frame filters the framing fields; tag is bound in
// both.
var variables = map[string]*cel.Type{
	// asset summary
	"tag":       cel.StringType,
	"schema":    cel.StringType,
	"dialect":   cel.StringType,
	"version":   cel.IntType,
	"records":   cel.IntType,
	"texture":   cel.StringType,
	"languages": cel.IntType,
	"children":  cel.IntType,

	// segment framing
	"name":   cel.StringType,
	"offset": cel.IntType,
	"size":   cel.IntType,
	"depth":  cel.IntType,
	"known":  cel.BoolType,
}

// NewEnvironment creates the CEL environment filters are compiled in.
func NewEnvironment() (*cel.Env, error) {
	opts := []cel.EnvOption{
		cel.CustomTypeAdapter(NewWireTypeAdapter()),
		cel.StdLib(),
		TagFunctions(),
	}
	for name, typ := range variables {
		opts = append(opts, cel.Variable(name, typ))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// TagFunctions adds tagValue(string) -> int, the numeric value of a four
// character tag, and isTag(string) -> bool.
func TagFunctions() cel.EnvOption {
	return cel.Lib(&tagLib{})
}

type tagLib struct{}

func (*tagLib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Function("tagValue",
			cel.Overload("tagvalue_string", []*cel.Type{cel.StringType}, cel.IntType,
				cel.UnaryBinding(func(val ref.Val) ref.Val {
					s, ok := val.(types.String)
					if !ok {
						return types.NewErr("tagValue expects a string")
					}
					tag, err := datfile.ParseTag(string(s))
					if err != nil {
						return types.NewErr("%s", err)
					}
					return types.Int(tag)
				}),
			),
		),
		cel.Function("isTag",
			cel.Overload("istag_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(func(val ref.Val) ref.Val {
					s, ok := val.(types.String)
					if !ok {
						return types.False
					}
					_, err := datfile.ParseTag(strings.TrimSpace(string(s)))
					return types.Bool(err == nil)
				}),
			),
		),
	}
}

func (*tagLib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

// WireTypeAdapter extends the default adapter with the narrow integer types
// the container uses, so framing values can be passed without conversion.
type WireTypeAdapter struct {
	types.Adapter
}

// NewWireTypeAdapter wraps the default type adapter.
func NewWireTypeAdapter() *WireTypeAdapter {
	return &WireTypeAdapter{
		Adapter: types.DefaultTypeAdapter,
	}
}

// NativeToValue converts Go native types to CEL values.
func (a *WireTypeAdapter) NativeToValue(value any) ref.Val {
	switch v := value.(type) {
	case int8:
		return types.Int(v)
	case int16:
		return types.Int(v)
	case int32:
		return types.Int(v)
	case int:
		return types.Int(v)
	case uint8:
		return types.Int(v)
	case uint16:
		return types.Int(v)
	case uint32:
		return types.Int(v)
	case float32:
		return types.Double(v)
	case datfile.Tag:
		return types.String(v.String())
	case datfile.Dialect:
		return types.String(v.String())
	default:
		return a.Adapter.NativeToValue(value)
	}
}
