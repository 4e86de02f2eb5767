package core

import "strings"

const (
	DefaultUserA Owner = "userA"
	DefaultUserB Owner = "userB"
	DefaultJoint Owner = "joint"
)

// Household names the individual users and the shared owner label.
type Household struct {
	Users []Owner
	Joint Owner
}

func DefaultHousehold() Household {
	return Household{Users: []Owner{DefaultUserA, DefaultUserB}, Joint: DefaultJoint}
}

// ParseHousehold builds a household from a comma separated user list and a joint label.
func ParseHousehold(users, joint string) Household {
	h := Household{Joint: Owner(strings.TrimSpace(joint))}
	for _, u := range strings.Split(users, ",") {
		if u = strings.TrimSpace(u); u != "" {
			h.Users = append(h.Users, Owner(u))
		}
	}
	return h
}

// Owners returns every valid owner label: the users, then the joint label.
func (h Household) Owners() OwnerSet {
	out := make(OwnerSet, 0, len(h.Users)+1)
	out = append(out, h.Users...)
	return append(out, h.Joint)
}

func (h Household) IsOwner(o Owner) bool {
	return o != "" && h.Owners().Contains(o)
}

func (h Household) IsUser(name string) bool {
	for _, u := range h.Users {
		if string(u) == name {
			return true
		}
	}
	return false
}

// AllowedOwners is the set of owners whose rows user may see and edit:
// the user's own label and the joint label. Unknown users get nothing.
func (h Household) AllowedOwners(user string) OwnerSet {
	if !h.IsUser(user) {
		return OwnerSet{}
	}
	return OwnerSet{Owner(user), h.Joint}
}

// OwnerSet keeps display order: the acting user first, then joint.
type OwnerSet []Owner

func (s OwnerSet) Contains(o Owner) bool {
	for _, x := range s {
		if x == o {
			return true
		}
	}
	return false
}

// VisibleRows keeps the rows owned by an allowed owner, preserving order.
func VisibleRows(l Ledger, allowed OwnerSet) Ledger {
	return l.Filter(func(t Transaction) bool { return allowed.Contains(t.Owner) })
}

const scopeAllValue = "all"

// DisplayScope narrows an already visible set of rows. The zero value shows all of them.
type DisplayScope struct {
	owner Owner
}

var ScopeAllAllowed = DisplayScope{}

func ScopeOwner(o Owner) DisplayScope { return DisplayScope{owner: o} }

func (s DisplayScope) All() bool { return s.owner == "" }

func (s DisplayScope) Owner() Owner { return s.owner }

// Value is the form value of the scope selector.
func (s DisplayScope) Value() string {
	if s.All() {
		return scopeAllValue
	}
	return string(s.owner)
}

// ParseDisplayScope maps a selector value back to a scope; anything not allowed means all.
func ParseDisplayScope(raw string, allowed OwnerSet) DisplayScope {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == scopeAllValue || !allowed.Contains(Owner(raw)) {
		return ScopeAllAllowed
	}
	return ScopeOwner(Owner(raw))
}

func ApplyDisplayFilter(rows Ledger, scope DisplayScope) Ledger {
	if scope.All() {
		return rows.Clone()
	}
	return rows.Filter(func(t Transaction) bool { return t.Owner == scope.owner })
}
