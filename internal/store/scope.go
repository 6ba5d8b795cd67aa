package store

// Scope restricts list queries to a set of visible projects. It is the
// push-down form of the read policy: a query filtered by a scope returns
// exactly the rows a per-item read decision would allow.
type Scope struct {
	// All disables the restriction (superauthority principals).
	All bool
	// ProjectIDs is the visible project set when All is false.
	ProjectIDs []int
}

// ScopeAll returns a scope that sees every project.
func ScopeAll() Scope {
	return Scope{All: true}
}

// ScopeProjects returns a scope restricted to the given projects.
func ScopeProjects(ids ...int) Scope {
	return Scope{ProjectIDs: ids}
}

// Empty reports whether the scope can never match a row.
func (s Scope) Empty() bool {
	return !s.All && len(s.ProjectIDs) == 0
}

// where renders the scope as a SQL condition on the given column. The
// second return value is false when the scope needs no condition.
func (s Scope) where(column string) (string, []any, bool) {
	if s.All {
		return "", nil, false
	}

	return column + " IN (" + inPlaceholders(len(s.ProjectIDs)) + ")", intsToAny(s.ProjectIDs), true
}
