package typesystem

import (
	"bytes"
	"encoding/gob"
	"strings"
)

// Registry is a de-duplicating store of type descriptors. It is filled during
// analysis and read-only afterwards.
type Registry struct {
	descs []Descriptor
	index map[string]TypeID

	// bound maps unresolved-name types to the complete type the name was
	// later re-interned as.
	bound map[TypeID]TypeID
}

// NewRegistry creates a registry holding the primitive types.
func NewRegistry() *Registry {
	r := &Registry{
		index: make(map[string]TypeID),
		bound: make(map[TypeID]TypeID),
	}
	for _, k := range []Kind{KindUndefined, KindVoid, KindBool, KindInt, KindDouble, KindString, KindJSON, KindTypeID} {
		r.Intern(Descriptor{Kind: k})
	}
	return r
}

// Intern returns the id of d, adding it when no equal descriptor exists.
func (r *Registry) Intern(d Descriptor) TypeID {
	d = normalize(d)
	key := d.key()
	if id, ok := r.index[key]; ok {
		return id
	}
	id := TypeID(len(r.descs))
	r.descs = append(r.descs, d)
	r.index[key] = id
	return id
}

// normalize drops fields that do not belong to the descriptor's kind so
// they cannot split otherwise equal types.
func normalize(d Descriptor) Descriptor {
	out := Descriptor{Kind: d.Kind}
	switch d.Kind {
	case KindStruct:
		out.Members = append([]Member(nil), d.Members...)
	case KindVector, KindDict:
		out.Elem = d.Elem
	case KindFunction:
		out.Return = d.Return
		out.Params = append([]TypeID(nil), d.Params...)
		out.Pure = d.Pure
	case KindUnresolved:
		out.Name = d.Name
	}
	return out
}

func (r *Registry) Vector(elem TypeID) TypeID {
	return r.Intern(Descriptor{Kind: KindVector, Elem: elem})
}

func (r *Registry) Dict(elem TypeID) TypeID {
	return r.Intern(Descriptor{Kind: KindDict, Elem: elem})
}

func (r *Registry) Function(ret TypeID, params []TypeID, pure bool) TypeID {
	return r.Intern(Descriptor{Kind: KindFunction, Return: ret, Params: params, Pure: pure})
}

func (r *Registry) Struct(members []Member) TypeID {
	return r.Intern(Descriptor{Kind: KindStruct, Members: members})
}

// Unresolved interns a placeholder for a type name that is not known yet.
func (r *Registry) Unresolved(name string) TypeID {
	return r.Intern(Descriptor{Kind: KindUnresolved, Name: name})
}

// Resolve returns the descriptor of id. The slices inside are shared with the
// registry and must not be modified.
func (r *Registry) Resolve(id TypeID) (Descriptor, error) {
	if id < 0 || int(id) >= len(r.descs) {
		return Descriptor{}, &UnknownTypeError{ID: id}
	}
	return r.descs[id], nil
}

// Get is Resolve for ids the caller obtained from this registry.
func (r *Registry) Get(id TypeID) Descriptor {
	if id < 0 || int(id) >= len(r.descs) {
		return Descriptor{}
	}
	return r.descs[id]
}

func (r *Registry) Kind(id TypeID) Kind {
	return r.Get(id).Kind
}

func (r *Registry) Len() int {
	return len(r.descs)
}

// BindName records that the unresolved name now denotes target.
func (r *Registry) BindName(name string, target TypeID) {
	r.bound[r.Unresolved(name)] = target
}

// Equal compares two types structurally, following bound names.
func (r *Registry) Equal(a, b TypeID) bool {
	return r.equal(a, b, make(map[[2]TypeID]bool))
}

func (r *Registry) equal(a, b TypeID, assumed map[[2]TypeID]bool) bool {
	a, b = r.follow(a), r.follow(b)
	if a == b {
		return true
	}
	pair := [2]TypeID{a, b}
	if assumed[pair] {
		return true
	}
	assumed[pair] = true

	da, db := r.Get(a), r.Get(b)
	if da.Kind != db.Kind {
		return false
	}
	switch da.Kind {
	case KindStruct:
		if len(da.Members) != len(db.Members) {
			return false
		}
		for i := range da.Members {
			if da.Members[i].Name != db.Members[i].Name || !r.equal(da.Members[i].Type, db.Members[i].Type, assumed) {
				return false
			}
		}
		return true
	case KindVector, KindDict:
		return r.equal(da.Elem, db.Elem, assumed)
	case KindFunction:
		if da.Pure != db.Pure || len(da.Params) != len(db.Params) || !r.equal(da.Return, db.Return, assumed) {
			return false
		}
		for i := range da.Params {
			if !r.equal(da.Params[i], db.Params[i], assumed) {
				return false
			}
		}
		return true
	case KindUnresolved:
		return da.Name == db.Name
	}
	// Distinct primitive ids are distinct types.
	return false
}

func (r *Registry) follow(id TypeID) TypeID {
	for i := 0; i < len(r.bound)+1; i++ {
		target, ok := r.bound[id]
		if !ok {
			return id
		}
		id = target
	}
	return id
}

// Canonical replaces bound names inside vector, dict and function types by
// their targets. Struct types are returned as they are, so recursion through
// a struct member stays behind its name.
func (r *Registry) Canonical(id TypeID) TypeID {
	id = r.follow(id)
	d := r.Get(id)
	switch d.Kind {
	case KindVector:
		return r.Vector(r.Canonical(d.Elem))
	case KindDict:
		return r.Dict(r.Canonical(d.Elem))
	case KindFunction:
		params := make([]TypeID, len(d.Params))
		for i, p := range d.Params {
			params[i] = r.Canonical(p)
		}
		return r.Function(r.Canonical(d.Return), params, d.Pure)
	}
	return id
}

// IsResolved reports whether id and everything nested in it is complete.
func (r *Registry) IsResolved(id TypeID) bool {
	return r.isResolved(id, make(map[TypeID]bool))
}

func (r *Registry) isResolved(id TypeID, visiting map[TypeID]bool) bool {
	if visiting[id] {
		return true
	}
	visiting[id] = true

	d := r.Get(id)
	switch d.Kind {
	case KindUndefined:
		return false
	case KindUnresolved:
		target, ok := r.bound[id]
		return ok && r.isResolved(target, visiting)
	case KindStruct:
		for _, m := range d.Members {
			if !r.isResolved(m.Type, visiting) {
				return false
			}
		}
	case KindVector, KindDict:
		return r.isResolved(d.Elem, visiting)
	case KindFunction:
		if !r.isResolved(d.Return, visiting) {
			return false
		}
		for _, p := range d.Params {
			if !r.isResolved(p, visiting) {
				return false
			}
		}
	}
	return true
}

// MemberIndex finds a struct member by name. It reports false for unknown
// members and for non-struct types.
func (r *Registry) MemberIndex(id TypeID, name string) (int, bool) {
	d := r.Get(r.follow(id))
	if d.Kind != KindStruct {
		return -1, false
	}
	for i, m := range d.Members {
		if m.Name == name {
			return i, true
		}
	}
	return -1, false
}

// String renders a type the way it is written in source.
func (r *Registry) String(id TypeID) string {
	var sb strings.Builder
	r.write(&sb, id, 0)
	return sb.String()
}

func (r *Registry) write(sb *strings.Builder, id TypeID, depth int) {
	if depth > 16 {
		sb.WriteString("...")
		return
	}
	d := r.Get(id)
	switch d.Kind {
	case KindVector:
		sb.WriteByte('[')
		r.write(sb, d.Elem, depth+1)
		sb.WriteByte(']')
	case KindDict:
		sb.WriteString("[string:")
		r.write(sb, d.Elem, depth+1)
		sb.WriteByte(']')
	case KindStruct:
		sb.WriteString("struct {")
		for i, m := range d.Members {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteByte(' ')
			r.write(sb, m.Type, depth+1)
			sb.WriteByte(' ')
			sb.WriteString(m.Name)
		}
		sb.WriteString(" }")
	case KindFunction:
		sb.WriteString("func ")
		r.write(sb, d.Return, depth+1)
		sb.WriteByte('(')
		for i, p := range d.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			r.write(sb, p, depth+1)
		}
		sb.WriteByte(')')
		if !d.Pure {
			sb.WriteString(" impure")
		}
	case KindUnresolved:
		sb.WriteString(DisplayName(d.Name))
	default:
		sb.WriteString(d.Kind.String())
	}
}

// DisplayName strips the "#n" suffix that keeps placeholder names of
// different scopes apart.
func DisplayName(name string) string {
	if i := strings.IndexByte(name, '#'); i >= 0 {
		return name[:i]
	}
	return name
}

// registrySnapshot is the gob form of a Registry.
type registrySnapshot struct {
	Descs []Descriptor
	Bound map[TypeID]TypeID
}

func (r *Registry) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(registrySnapshot{Descs: r.descs, Bound: r.bound}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Registry) GobDecode(data []byte) error {
	var snap registrySnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return err
	}
	r.descs = nil
	r.index = make(map[string]TypeID, len(snap.Descs))
	r.bound = snap.Bound
	if r.bound == nil {
		r.bound = make(map[TypeID]TypeID)
	}
	for _, d := range snap.Descs {
		r.index[d.key()] = TypeID(len(r.descs))
		r.descs = append(r.descs, d)
	}
	return nil
}
