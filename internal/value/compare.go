package value

import (
	"cmp"
	"fmt"
	"math"
	"strings"

	"github.com/funvibe/floyd/internal/typesystem"
)

// CompareError reports an attempt to order values of different types.
type CompareError struct {
	Left, Right typesystem.TypeID
}

func (e *CompareError) Error() string {
	return fmt.Sprintf("cannot compare values of type #%d and #%d", e.Left, e.Right)
}

// Compare returns -1, 0 or 1.
//
// Vectors compare element by element; when one is a prefix of the other the
// shorter one sorts greater. Dicts walk their keys in ascending order,
// comparing each key before its value, and break ties on length the same way.
// Structs compare member by member in declaration order. Doubles use a total
// order in which NaN sorts below every other number and equals itself.
func Compare(a, b Value) (int, error) {
	return compare(a, b, cmp.Compare[float64])
}

// Equals reports whether a and b hold the same value. Doubles follow IEEE
// equality, so a NaN anywhere in either operand makes them unequal.
func Equals(a, b Value) (bool, error) {
	c, err := compare(a, b, ieeeCompare)
	return c == 0, err
}

// ieeeCompare is cmpFloat with NaN unordered against everything, itself
// included.
func ieeeCompare(a, b float64) int {
	if math.IsNaN(a) || math.IsNaN(b) {
		return 1
	}
	return cmpFloat(a, b)
}

func compare(a, b Value, cmpDouble func(x, y float64) int) (int, error) {
	if a.kind != b.kind || (a.kind.IsAggregate() || a.kind == typesystem.KindFunction) && a.typ != b.typ {
		return 0, &CompareError{Left: a.typ, Right: b.typ}
	}
	switch a.kind {
	case typesystem.KindVoid:
		return 0, nil
	case typesystem.KindBool:
		return cmpInt(int64(a.bits), int64(b.bits)), nil
	case typesystem.KindInt:
		return cmpInt(a.AsInt(), b.AsInt()), nil
	case typesystem.KindDouble:
		return cmpDouble(a.AsDouble(), b.AsDouble()), nil
	case typesystem.KindString:
		return strings.Compare(a.AsString(), b.AsString()), nil
	case typesystem.KindTypeID:
		return cmpInt(int64(a.AsTypeID()), int64(b.AsTypeID())), nil
	case typesystem.KindJSON:
		return compareJSON(a.AsJSON(), b.AsJSON(), cmpDouble), nil
	case typesystem.KindFunction:
		return cmpInt(int64(a.AsFunction().Index), int64(b.AsFunction().Index)), nil
	case typesystem.KindStruct:
		af, bf := a.fields(), b.fields()
		for i := range af {
			c, err := compare(af[i], bf[i], cmpDouble)
			if err != nil || c != 0 {
				return c, err
			}
		}
		return 0, nil
	case typesystem.KindVector:
		return compareVectors(a, b, cmpDouble)
	case typesystem.KindDict:
		return compareDicts(a, b, cmpDouble)
	}
	return 0, &CompareError{Left: a.typ, Right: b.typ}
}

func compareVectors(a, b Value, cmpDouble func(x, y float64) int) (int, error) {
	n := min(a.Len(), b.Len())
	for i := 0; i < n; i++ {
		ae, _ := a.Index(i)
		be, _ := b.Index(i)
		c, err := compare(ae, be, cmpDouble)
		if err != nil || c != 0 {
			return c, err
		}
	}
	return lengthTieBreak(a.Len(), b.Len()), nil
}

func compareDicts(a, b Value, cmpDouble func(x, y float64) int) (int, error) {
	ak, bk := a.Keys(), b.Keys()
	n := min(len(ak), len(bk))
	for i := 0; i < n; i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c, nil
		}
		av, _ := a.Lookup(ak[i])
		bv, _ := b.Lookup(bk[i])
		c, err := compare(av, bv, cmpDouble)
		if err != nil || c != 0 {
			return c, err
		}
	}
	return lengthTieBreak(len(ak), len(bk)), nil
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// lengthTieBreak orders two sequences with an equal common prefix. The
// shorter one is greater.
func lengthTieBreak(la, lb int) int {
	return cmpInt(int64(lb), int64(la))
}
