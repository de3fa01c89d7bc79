package config

const SourceFileExt = ".ast.json"

// ConfigFileName is looked up from the working directory upwards.
const ConfigFileName = "floyd.yaml"

// Intrinsic names
const (
	AssertFuncName       = "assert"
	PrintFuncName        = "print"
	ToStringFuncName     = "to_string"
	TypeOfFuncName       = "typeof"
	UpdateFuncName       = "update"
	SizeFuncName         = "size"
	FindFuncName         = "find"
	ExistsFuncName       = "exists"
	EraseFuncName        = "erase"
	GetKeysFuncName      = "get_keys"
	PushBackFuncName     = "push_back"
	SubsetFuncName       = "subset"
	ReplaceFuncName      = "replace"
	ParseJSONFuncName    = "parse_json"
	GenerateJSONFuncName = "generate_json"
	ToJSONFuncName       = "to_json"
	GetJSONTypeFuncName  = "get_json_type"
	MapFuncName          = "map"
	FilterFuncName       = "filter"
	ReduceFuncName       = "reduce"
)

// Host function names (typed, external linkage)
const (
	SqrtFuncName         = "sqrt"
	ToDoubleFuncName     = "to_double"
	ToIntFuncName        = "to_int"
	GetTimeOfDayFuncName = "get_time_of_day"
)

// Built-in type names
const (
	VoidTypeName   = "void"
	BoolTypeName   = "bool"
	IntTypeName    = "int"
	DoubleTypeName = "double"
	StringTypeName = "string"
	JSONTypeName   = "json"
	TypeIDTypeName = "typeid"
)

// Program entry points
const (
	MainFuncName   = "main"
	ResultBindName = "result"
)

// Interpreter limits
const (
	DefaultMaxCallDepth = 4096
	// DefaultMaxInstructions of zero means no instruction budget.
	DefaultMaxInstructions = 0
	// ContextPollInterval is how many instructions run between ctx checks.
	ContextPollInterval = 1024
)
