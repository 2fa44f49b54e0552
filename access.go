package ecs

// AccessKind distinguishes the four shapes an AccessPattern can take.
type AccessKind uint8

const (
	AccessAll AccessKind = iota
	AccessNone
	AccessTypes
	AccessQueries
)

// Query pairs a required and excluded type set. Query.Matches(archetype) is
// true iff every required type is present and no excluded type is present.
type Query struct {
	Required []ComponentType
	Excluded []ComponentType
}

// Having returns a copy of q with required appended.
func (q Query) Having(types ...ComponentType) Query {
	q.Required = append(append([]ComponentType(nil), q.Required...), types...)
	return q
}

// Excluding returns a copy of q with excluded appended.
func (q Query) Excluding(types ...ComponentType) Query {
	q.Excluded = append(append([]ComponentType(nil), q.Excluded...), types...)
	return q
}

// Matches reports whether an archetype (set of present types) satisfies q.
func (q Query) Matches(has map[ComponentType]struct{}) bool {
	for _, t := range q.Required {
		if _, ok := has[t]; !ok {
			return false
		}
	}
	for _, t := range q.Excluded {
		if _, ok := has[t]; ok {
			return false
		}
	}
	return true
}

// types returns the union of types this query can ever produce: its
// required set (excluded types are never readable through this query).
func (q Query) types() []ComponentType {
	return q.Required
}

// AccessPattern is one of All, NoAccess, Types(set), or Queries(list). The
// zero value is AccessAll's kind value by coincidence of iota but callers
// should always go through the constructors below.
type AccessPattern struct {
	kind    AccessKind
	types   map[ComponentType]struct{}
	queries []Query
}

// All grants unrestricted access.
func All() AccessPattern { return AccessPattern{kind: AccessAll} }

// NoAccess grants no access.
func NoAccess() AccessPattern { return AccessPattern{kind: AccessNone} }

// Types grants access to exactly the given set of component types.
func Types(types ...ComponentType) AccessPattern {
	set := make(map[ComponentType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return AccessPattern{kind: AccessTypes, types: set}
}

// Queries grants access to the union of types reachable through any of the
// given queries.
func Queries(queries ...Query) AccessPattern {
	return AccessPattern{kind: AccessQueries, queries: append([]Query(nil), queries...)}
}

// PatternAllows reports whether t is reachable under pattern p.
func PatternAllows(p AccessPattern, t ComponentType) bool {
	switch p.kind {
	case AccessAll:
		return true
	case AccessNone:
		return false
	case AccessTypes:
		_, ok := p.types[t]
		return ok
	case AccessQueries:
		for _, q := range p.queries {
			for _, rt := range q.types() {
				if rt == t {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

// NormalizeAccessPair applies the default-access rule for a (reads, writes)
// pair supplied by a caller: if both are omitted (nil AccessPattern, the Go
// zero value), both become All; if exactly one is specified, the omitted
// side becomes NoAccess (no implicit write access is ever granted).
func NormalizeAccessPair(reads, writes *AccessPattern) (AccessPattern, AccessPattern) {
	readsSet := reads != nil
	writesSet := writes != nil

	switch {
	case !readsSet && !writesSet:
		return All(), All()
	case readsSet && !writesSet:
		return *reads, NoAccess()
	case !readsSet && writesSet:
		return NoAccess(), *writes
	default:
		return *reads, *writes
	}
}

// QueriesDisjoint reports whether q1 and q2 can never both match the same
// archetype: true iff one requires a type the other excludes.
func QueriesDisjoint(q1, q2 Query) bool {
	for _, t := range q1.Required {
		for _, e := range q2.Excluded {
			if t == e {
				return true
			}
		}
	}
	for _, t := range q2.Required {
		for _, e := range q1.Excluded {
			if t == e {
				return true
			}
		}
	}
	return false
}
