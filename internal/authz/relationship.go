package authz

// Action is what a principal attempts on a resource.
type Action int

const (
	// ActionRead covers reads of a single resource and collection listings.
	ActionRead Action = iota + 1
	// ActionWrite covers create, update and delete of resource content.
	ActionWrite
	// ActionManage covers membership roster changes.
	ActionManage
)

// String returns string representation of Action.
func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionWrite:
		return "write"
	case ActionManage:
		return "manage"
	default:
		return "unknown"
	}
}

// Relationship is what a user is to a project. It is derived on demand from
// the ownership edge and the membership roster and never stored elsewhere.
type Relationship int

const (
	// RelationshipNone no relationship to the project.
	RelationshipNone Relationship = iota
	// RelationshipMember on the membership roster.
	RelationshipMember
	// RelationshipOwner owns the project. Owner wins when a user is both.
	RelationshipOwner
)

// String returns string representation of Relationship.
func (r Relationship) String() string {
	switch r {
	case RelationshipOwner:
		return "owner"
	case RelationshipMember:
		return "member"
	default:
		return "none"
	}
}

// InProject reports whether the relationship grants project residency.
func (r Relationship) InProject() bool {
	return r == RelationshipOwner || r == RelationshipMember
}

// Decision is the outcome of a policy evaluation.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// String returns string representation of Decision.
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}

	return "deny"
}

// Allowed reports whether the decision permits the action.
func (d Decision) Allowed() bool {
	return d == Allow
}
