package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/token"
	"github.com/funvibe/floyd/internal/typed"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/internal/value"
)

var errTruncatedBytecode = errors.New("truncated bytecode")
var errStackUnderflow = errors.New("stack underflow")
var errInvalidConstantIndex = errors.New("invalid constant index")

// Initial size of the operand stack
const InitialStackSize = 256

// Options configure one interpreter.
type Options struct {
	Logger zerolog.Logger
	// MaxCallDepth of zero uses config.DefaultMaxCallDepth.
	MaxCallDepth int
	// MaxInstructions of zero disables the budget.
	MaxInstructions int64
	// Trace logs every executed instruction at trace level.
	Trace bool
	// Output, when set, receives every printed line as it is produced.
	Output io.Writer
}

// OptionsFromConfig maps floyd.yaml settings onto interpreter options.
func OptionsFromConfig(cfg *config.Config, log zerolog.Logger) Options {
	return Options{
		Logger:          log,
		MaxCallDepth:    cfg.Limits.MaxCallDepth,
		MaxInstructions: cfg.Limits.MaxInstructions,
		Trace:           cfg.Trace.Instructions,
	}
}

// frame is one live scope instance. Block and loop frames link to the
// frame they were entered from; function frames link to the global frame.
type frame struct {
	slots  []value.Value
	parent *frame
	layout int
}

// callRecord is what RETURN restores.
type callRecord struct {
	fn        *CompiledFunction
	ip        int
	frame     *frame
	stackBase int
}

// Result is the outcome of a run. Printed is kept when the run fails.
type Result struct {
	Exit    value.Value
	Printed []string
}

// VM is the virtual machine that executes bytecode
type VM struct {
	prog *Program
	opts Options
	log  zerolog.Logger
	ctx  context.Context

	stack []value.Value
	sp    int // Stack pointer (points to next free slot)

	fn     *CompiledFunction
	ip     int
	frame  *frame
	global *frame
	calls  []callRecord

	printed  []string
	executed int64
}

// New creates an interpreter for prog. A VM runs one program at a time.
func New(prog *Program, opts Options) *VM {
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = config.DefaultMaxCallDepth
	}
	return &VM{prog: prog, opts: opts, log: opts.Logger}
}

// Run executes the global instructions and then the entry point. args are
// passed to main when it takes a [string] parameter.
func (vm *VM) Run(ctx context.Context, args []string) (*Result, error) {
	if err := vm.prog.Validate(); err != nil {
		return nil, err
	}
	vm.reset(ctx)

	log := vm.log.With().Str("program", vm.prog.ID.String()).Logger()
	log.Debug().Str("file", vm.prog.File).Msg("run started")

	exit, err := vm.runProgram(args)
	result := &Result{Exit: exit, Printed: vm.printed}
	if err != nil {
		log.Debug().Err(err).Int64("instructions", vm.executed).Msg("run failed")
		return result, err
	}
	log.Debug().Int64("instructions", vm.executed).Int("printed", len(vm.printed)).Msg("run finished")
	return result, nil
}

func (vm *VM) reset(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	vm.ctx = ctx
	vm.stack = make([]value.Value, InitialStackSize)
	vm.sp = 0
	vm.calls = vm.calls[:0]
	vm.printed = nil
	vm.executed = 0

	vm.global = vm.newFrame(vm.prog.Script.Layout, nil)
	vm.frame = vm.global
	vm.fn = vm.prog.Script
	vm.ip = 0
}

func (vm *VM) runProgram(args []string) (value.Value, error) {
	if err := vm.execute(-1); err != nil {
		return value.Void(), err
	}

	entry := vm.prog.Entry
	switch entry.Kind {
	case typed.EntryMain:
		fn := vm.prog.Functions[entry.Function]
		callee := value.Function(fn.Type, value.FunctionRef{Index: entry.Function, Name: fn.Name})
		var callArgs []value.Value
		if entry.TakesArgs {
			callArgs = append(callArgs, vm.argsVector(fn, args))
		}
		return vm.Call(callee, callArgs...)
	case typed.EntryResult:
		return vm.global.slots[entry.Slot], nil
	}
	return value.Void(), nil
}

// argsVector builds the [string] argument of main from its declared type.
func (vm *VM) argsVector(fn *CompiledFunction, args []string) value.Value {
	t := vm.prog.Types.Get(fn.Type).Params[0]
	elems := make([]value.Value, len(args))
	for i, a := range args {
		elems[i] = value.String(a)
	}
	return value.Vector(t, elems)
}

func (vm *VM) newFrame(layout int, parent *frame) *frame {
	l := vm.prog.Layouts[layout]
	f := &frame{slots: make([]value.Value, l.Size()), parent: parent, layout: layout}
	for slot, v := range l.Constants {
		f.slots[slot] = v
	}
	return f
}

// execute runs until HALT, or until a return brings the call stack back to
// depth. A depth of -1 only stops at HALT.
func (vm *VM) execute(depth int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if r == errTruncatedBytecode || r == errStackUnderflow || r == errInvalidConstantIndex {
				err = vm.runtimeError("corrupt bytecode: %v", r)
				return
			}
			panic(r) // Re-panic other errors
		}
	}()

	opsSinceCheck := 0
	for {
		opsSinceCheck++
		if opsSinceCheck >= config.ContextPollInterval {
			opsSinceCheck = 0
			if err := vm.ctx.Err(); err != nil {
				return fmt.Errorf("run cancelled: %w", err)
			}
		}
		vm.executed++
		if vm.opts.MaxInstructions > 0 && vm.executed > vm.opts.MaxInstructions {
			return vm.runtimeError("instruction budget of %d exceeded", vm.opts.MaxInstructions)
		}

		if vm.ip >= len(vm.fn.Chunk.Code) {
			return vm.runtimeError("ran past the end of %s", vm.fn.displayName())
		}
		op := Opcode(vm.fn.Chunk.Code[vm.ip])
		if vm.opts.Trace {
			vm.log.Trace().
				Str("fn", vm.fn.displayName()).
				Int("ip", vm.ip).
				Stringer("op", op).
				Int("sp", vm.sp).
				Int("depth", len(vm.calls)).
				Msg("exec")
		}
		vm.ip++

		switch op {
		case OP_HALT:
			return nil
		case OP_RETURN, OP_RETURN_VOID:
			result := value.Void()
			if op == OP_RETURN {
				result = vm.pop()
			}
			if err := vm.returnWithValue(result); err != nil {
				return err
			}
			if len(vm.calls) == depth {
				return nil
			}
		default:
			if err := vm.executeOneOp(op); err != nil {
				return err
			}
		}
	}
}

// returnWithValue pops the current call and resumes the caller.
func (vm *VM) returnWithValue(result value.Value) error {
	if len(vm.calls) == 0 {
		return vm.runtimeError("return outside of a function")
	}
	rec := vm.calls[len(vm.calls)-1]
	vm.calls = vm.calls[:len(vm.calls)-1]
	vm.fn, vm.ip, vm.frame = rec.fn, rec.ip, rec.frame
	vm.sp = rec.stackBase
	vm.push(result)
	return nil
}

// Stack operations
func (vm *VM) push(v value.Value) {
	if vm.sp >= len(vm.stack) {
		grown := make([]value.Value, 2*len(vm.stack))
		copy(grown, vm.stack[:vm.sp])
		vm.stack = grown
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	if vm.sp <= 0 {
		panic(errStackUnderflow)
	}
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = value.Value{}
	return v
}

func (vm *VM) peek(distance int) value.Value {
	idx := vm.sp - 1 - distance
	if idx < 0 {
		panic(errStackUnderflow)
	}
	return vm.stack[idx]
}

// popN returns the top n values in push order.
func (vm *VM) popN(n int) []value.Value {
	if vm.sp < n {
		panic(errStackUnderflow)
	}
	out := make([]value.Value, n)
	copy(out, vm.stack[vm.sp-n:vm.sp])
	for i := vm.sp - n; i < vm.sp; i++ {
		vm.stack[i] = value.Value{}
	}
	vm.sp -= n
	return out
}

// Read helpers
func (vm *VM) readByte() byte {
	if vm.ip >= len(vm.fn.Chunk.Code) {
		panic(errTruncatedBytecode)
	}
	b := vm.fn.Chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readUint16() int {
	high := vm.readByte()
	low := vm.readByte()
	return int(high)<<8 | int(low)
}

func (vm *VM) readConstant() value.Value {
	idx := vm.readUint16()
	if idx >= len(vm.fn.Chunk.Constants) {
		panic(errInvalidConstantIndex)
	}
	return vm.fn.Chunk.Constants[idx]
}

func (vm *VM) readType() typesystem.TypeID {
	return vm.readConstant().AsTypeID()
}

// TraceEntry is one active call at the time of a runtime error.
type TraceEntry struct {
	Function string
	Offset   int
}

// RuntimeError aborts a run. Offset is the source offset of the failing
// instruction; Trace lists the active calls, innermost first.
type RuntimeError struct {
	Message string
	Offset  int
	Trace   []TraceEntry
	Err     error
}

func (e *RuntimeError) Error() string {
	var sb strings.Builder
	sb.WriteString("runtime error: ")
	sb.WriteString(e.Message)
	for _, t := range e.Trace {
		fmt.Fprintf(&sb, "\n\tat %s (%s)", t.Function, token.At(t.Offset))
	}
	return sb.String()
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func (e *RuntimeError) Loc() token.Location { return token.At(e.Offset) }

// runtimeError is located at the instruction being executed. Every byte of
// an instruction carries the same source offset, so ip-1 is enough even
// after the operands are read.
// load reads a slot. A slot whose initializer has not run yet holds the zero
// Value, which is reported instead of being pushed.
func (vm *VM) load(f *frame, slot int) error {
	v := f.slots[slot]
	if !v.IsValid() {
		return vm.runtimeError("%s read before it was initialized", vm.prog.Layouts[f.layout].Names[slot])
	}
	vm.push(v)
	return nil
}

func (vm *VM) runtimeError(format string, args ...any) *RuntimeError {
	e := &RuntimeError{Message: fmt.Sprintf(format, args...)}
	for _, a := range args {
		if err, ok := a.(error); ok {
			e.Err = err
		}
	}
	e.Offset = vm.fn.Chunk.OffsetAt(vm.ip - 1)
	e.Trace = append(e.Trace, TraceEntry{Function: vm.fn.displayName(), Offset: e.Offset})
	for i := len(vm.calls) - 1; i >= 0; i-- {
		rec := vm.calls[i]
		e.Trace = append(e.Trace, TraceEntry{Function: rec.fn.displayName(), Offset: rec.fn.Chunk.OffsetAt(rec.ip - 1)})
	}
	return e
}
