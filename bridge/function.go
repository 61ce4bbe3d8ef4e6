package bridge

import (
	"fmt"

	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/internal/util"
)

// Param declares one positional argument of a Function.
type Param = util.Param

// Func is the signature of a bridged function. obj is the object the
// property was called on; args are the decoded positional arguments.
type Func func(obj host.Object, args []any) (any, error)

// Function is a callable property value.
//
// When Params is empty the function receives whatever arguments the caller
// sent. When Params is declared, call checks the argument count and the JSON
// type of every argument before invoking Fn and answers mismatches with an
// error body.
type Function struct {
	Fn     Func
	Params []Param
}

// Invoke validates args against the declared parameters and runs the
// function. A panic inside Fn is returned as an error.
func (f *Function) Invoke(obj host.Object, args []any) (result any, err error) {
	if f == nil || f.Fn == nil {
		return nil, fmt.Errorf("function has no implementation")
	}
	if len(f.Params) > 0 {
		if err := util.ValidateArguments(args, f.Params); err != nil {
			return nil, err
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("function panic: %v", r)
		}
	}()
	return f.Fn(obj, args)
}

func asFunction(v any) (*Function, bool) {
	switch fn := v.(type) {
	case *Function:
		return fn, fn != nil
	case Function:
		return &fn, true
	case Func:
		return &Function{Fn: fn}, fn != nil
	case func(host.Object, []any) (any, error):
		return &Function{Fn: fn}, fn != nil
	}
	return nil, false
}
