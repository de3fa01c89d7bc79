// Package vm compiles resolved programs to bytecode and interprets them.
package vm

import "fmt"

// Opcode represents a single VM instruction
type Opcode byte

const (
	// Stack manipulation
	OP_CONST Opcode = iota // Push constant from pool
	OP_POP                 // Discard top of stack
	OP_DUP                 // Duplicate top of stack
	OP_PICK                // Push a copy of the item N below the top

	// Arithmetic
	OP_ADD // + (numbers, string and vector concatenation)
	OP_SUB // -
	OP_MUL // *
	OP_DIV // /
	OP_MOD // %
	OP_NEG // Unary minus

	// Comparison
	OP_EQ // ==
	OP_NE // !=
	OP_LT // <
	OP_LE // <=
	OP_GT // >
	OP_GE // >=

	// Logic
	OP_NOT // !

	// Variables
	OP_LOAD         // Load slot of the frame N scopes out: dist8 slot16
	OP_STORE        // Store into slot of the frame N scopes out: dist8 slot16
	OP_LOAD_GLOBAL  // Load global slot: slot16
	OP_STORE_GLOBAL // Store global slot: slot16

	// Control flow
	OP_JUMP          // Unconditional jump forward
	OP_JUMP_IF_FALSE // Jump forward if top of stack is false (does not pop)
	OP_LOOP          // Jump backward

	// Scopes
	OP_ENTER_SCOPE // Push a frame laid out by layout16
	OP_EXIT_SCOPE  // Pop the innermost frame

	// Ranges: [iter, end] stay on the stack for the whole loop
	OP_FOR_TEST // closed8 offset16: jump forward when iter is past end
	OP_FOR_NEXT // Increment iter

	// Functions
	OP_CALL           // Call function value below argc8 arguments
	OP_CALL_INTRINSIC // Call intrinsic id8 with argc8 arguments
	OP_RETURN         // Return top of stack
	OP_RETURN_VOID    // Return void

	// Aggregates
	OP_MAKE_VECTOR   // type16 count16
	OP_MAKE_DICT     // type16 count16, key/value pairs
	OP_MAKE_STRUCT   // type16 count16
	OP_GET_MEMBER    // index16
	OP_UPDATE_MEMBER // index16: [struct, value] -> [struct']
	OP_GET_INDEX     // [parent, key] -> [element]

	OP_HALT // Stop execution
)

// maxDistance is the largest scope distance a dist8 operand holds. Globals
// are addressed by OP_LOAD_GLOBAL and OP_STORE_GLOBAL instead.
const maxDistance = 0xff

var opcodeNames = map[Opcode]string{
	OP_CONST:          "CONST",
	OP_POP:            "POP",
	OP_DUP:            "DUP",
	OP_PICK:           "PICK",
	OP_ADD:            "ADD",
	OP_SUB:            "SUB",
	OP_MUL:            "MUL",
	OP_DIV:            "DIV",
	OP_MOD:            "MOD",
	OP_NEG:            "NEG",
	OP_EQ:             "EQ",
	OP_NE:             "NE",
	OP_LT:             "LT",
	OP_LE:             "LE",
	OP_GT:             "GT",
	OP_GE:             "GE",
	OP_NOT:            "NOT",
	OP_LOAD:           "LOAD",
	OP_STORE:          "STORE",
	OP_LOAD_GLOBAL:    "LOAD_GLOBAL",
	OP_STORE_GLOBAL:   "STORE_GLOBAL",
	OP_JUMP:           "JUMP",
	OP_JUMP_IF_FALSE:  "JUMP_IF_FALSE",
	OP_LOOP:           "LOOP",
	OP_ENTER_SCOPE:    "ENTER_SCOPE",
	OP_EXIT_SCOPE:     "EXIT_SCOPE",
	OP_FOR_TEST:       "FOR_TEST",
	OP_FOR_NEXT:       "FOR_NEXT",
	OP_CALL:           "CALL",
	OP_CALL_INTRINSIC: "CALL_INTRINSIC",
	OP_RETURN:         "RETURN",
	OP_RETURN_VOID:    "RETURN_VOID",
	OP_MAKE_VECTOR:    "MAKE_VECTOR",
	OP_MAKE_DICT:      "MAKE_DICT",
	OP_MAKE_STRUCT:    "MAKE_STRUCT",
	OP_GET_MEMBER:     "GET_MEMBER",
	OP_UPDATE_MEMBER:  "UPDATE_MEMBER",
	OP_GET_INDEX:      "GET_INDEX",
	OP_HALT:           "HALT",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_%d", byte(op))
}

// operandWidth is the number of operand bytes following op.
func operandWidth(op Opcode) int {
	switch op {
	case OP_CONST, OP_LOAD_GLOBAL, OP_STORE_GLOBAL, OP_JUMP, OP_JUMP_IF_FALSE, OP_LOOP,
		OP_ENTER_SCOPE, OP_GET_MEMBER, OP_UPDATE_MEMBER, OP_CALL_INTRINSIC:
		return 2
	case OP_PICK, OP_CALL:
		return 1
	case OP_LOAD, OP_STORE, OP_FOR_TEST:
		return 3
	case OP_MAKE_VECTOR, OP_MAKE_DICT, OP_MAKE_STRUCT:
		return 4
	}
	return 0
}
