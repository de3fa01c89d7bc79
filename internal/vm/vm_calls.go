package vm

import (
	"errors"
	"fmt"

	"github.com/funvibe/floyd/internal/builtins"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

// callValue calls the function value below argc arguments. A user function
// gets a fresh frame linked to the global frame, arguments in its first
// slots, and starts at its first instruction.
func (vm *VM) callValue(argc int) error {
	callee := vm.peek(argc)
	if callee.Kind() != typesystem.KindFunction {
		return vm.runtimeError("cannot call a value of type %s", vm.typeName(callee))
	}
	ref := callee.AsFunction()
	if ref.Index < 0 || ref.Index >= len(vm.prog.Functions) {
		return vm.runtimeError("call of unknown function %d", ref.Index)
	}
	fn := vm.prog.Functions[ref.Index]
	if fn.Arity != argc {
		return vm.runtimeError("%s expects %d arguments, got %d", fn.displayName(), fn.Arity, argc)
	}

	args := vm.popN(argc)
	vm.pop() // callee

	if fn.IsHost() {
		return vm.callHost(fn, args)
	}
	if len(vm.calls) >= vm.opts.MaxCallDepth {
		return vm.runtimeError("call depth limit of %d exceeded", vm.opts.MaxCallDepth)
	}

	vm.calls = append(vm.calls, callRecord{fn: vm.fn, ip: vm.ip, frame: vm.frame, stackBase: vm.sp})
	f := vm.newFrame(fn.Layout, vm.global)
	copy(f.slots, args)
	vm.fn, vm.ip, vm.frame = fn, 0, f
	return nil
}

func (vm *VM) callHost(fn *CompiledFunction, args []value.Value) error {
	h, ok := builtins.LookupHost(fn.Linkage)
	if !ok {
		return vm.runtimeError("unknown host linkage %q", fn.Linkage)
	}
	result, err := h.Impl(args)
	if err != nil {
		return vm.runtimeError("%s: %v", fn.displayName(), err)
	}
	vm.push(result)
	return nil
}

func (vm *VM) callIntrinsic(id, argc int) error {
	in := builtins.IntrinsicByID(id)
	if in == nil {
		return vm.runtimeError("unknown intrinsic %d", id)
	}
	args := vm.popN(argc)
	result, err := in.Exec(vm, args)
	if err != nil {
		// Errors from callbacks already carry their own location and trace.
		var re *RuntimeError
		if errors.As(err, &re) {
			return err
		}
		return vm.runtimeError("%s: %v", in.Name, err)
	}
	vm.push(result)
	return nil
}

// Call runs fn to completion with args and returns its result. Intrinsics
// use it for callbacks; Run uses it for main.
func (vm *VM) Call(fn value.Value, args ...value.Value) (value.Value, error) {
	vm.push(fn)
	for _, a := range args {
		vm.push(a)
	}
	depth := len(vm.calls)
	if err := vm.callValue(len(args)); err != nil {
		return value.Void(), err
	}
	if len(vm.calls) > depth {
		if err := vm.execute(depth); err != nil {
			return value.Void(), err
		}
	}
	return vm.pop(), nil
}

// Types implements builtins.Context.
func (vm *VM) Types() *typesystem.Registry {
	return vm.prog.Types
}

// Print implements builtins.Context.
func (vm *VM) Print(line string) {
	vm.printed = append(vm.printed, line)
	if vm.opts.Output != nil {
		fmt.Fprintln(vm.opts.Output, line)
	}
}

var _ builtins.Context = (*VM)(nil)
