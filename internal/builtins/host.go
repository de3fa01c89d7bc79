package builtins

import (
	"fmt"
	"math"
	"time"

	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

// HostImpl is the native side of a host function.
type HostImpl func(args []value.Value) (value.Value, error)

type HostFunction struct {
	Name    string
	Linkage string
	Return  typesystem.TypeID
	Params  []typesystem.TypeID
	Pure    bool
	Impl    HostImpl
}

// Type interns the function type of h.
func (h *HostFunction) Type(reg *typesystem.Registry) typesystem.TypeID {
	return reg.Function(h.Return, h.Params, h.Pure)
}

// Now is the clock behind get_time_of_day.
var Now = time.Now

var hostTable = []*HostFunction{
	{
		Name: config.SqrtFuncName, Linkage: "host.sqrt", Return: typesystem.Double,
		Params: []typesystem.TypeID{typesystem.Double}, Pure: true,
		Impl: func(args []value.Value) (value.Value, error) {
			return value.Double(math.Sqrt(args[0].AsDouble())), nil
		},
	},
	{
		Name: config.ToDoubleFuncName, Linkage: "host.to_double", Return: typesystem.Double,
		Params: []typesystem.TypeID{typesystem.Int}, Pure: true,
		Impl: func(args []value.Value) (value.Value, error) {
			return value.Double(float64(args[0].AsInt())), nil
		},
	},
	{
		Name: config.ToIntFuncName, Linkage: "host.to_int", Return: typesystem.Int,
		Params: []typesystem.TypeID{typesystem.Double}, Pure: true,
		Impl: func(args []value.Value) (value.Value, error) {
			f := args[0].AsDouble()
			if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
				return value.Value{}, fmt.Errorf("to_int: %v does not fit in an int", f)
			}
			return value.Int(int64(f)), nil
		},
	},
	{
		Name: config.GetTimeOfDayFuncName, Linkage: "host.get_time_of_day", Return: typesystem.Int,
		Impl: func(args []value.Value) (value.Value, error) {
			return value.Int(Now().UnixMilli()), nil
		},
	},
}

var hostByLinkage = make(map[string]*HostFunction)

func init() {
	for _, h := range hostTable {
		hostByLinkage[h.Linkage] = h
	}
}

// HostFunctions returns the host functions in declaration order.
func HostFunctions() []*HostFunction {
	return hostTable
}

// LookupHost resolves an external linkage name.
func LookupHost(linkage string) (*HostFunction, bool) {
	h, ok := hostByLinkage[linkage]
	return h, ok
}
