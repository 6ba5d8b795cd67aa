package authz

// Kind identifies the type of a protected resource.
type Kind int

const (
	KindProject Kind = iota + 1
	KindTask
	KindComment
	KindActivityLog
)

// String returns string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindProject:
		return "project"
	case KindTask:
		return "task"
	case KindComment:
		return "comment"
	case KindActivityLog:
		return "activity_log"
	default:
		return "unknown"
	}
}

// Resource is anything the decision engine can evaluate. Every resource
// reaches exactly one project; the engine never dispatches on concrete types
// beyond the kind and the capability interfaces below.
type Resource interface {
	ResourceKind() Kind
	// ResourceProject returns the ID of the project the resource reaches.
	ResourceProject() int
}

// Assignable is implemented by resources with an optional assignee.
type Assignable interface {
	AssigneeUserID() (int, bool)
}

// Authored is implemented by resources with a fixed author.
type Authored interface {
	AuthorUserID() int
}
