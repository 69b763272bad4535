package models

// CourseScope is the set of course IDs a caller may see. All set means
// no course filter is applied (admin access).
type CourseScope struct {
	All bool
	IDs []string
}

// UnboundedScope returns a scope without a course filter.
func UnboundedScope() CourseScope {
	return CourseScope{All: true}
}

// ScopeOf returns a scope restricted to the given course IDs.
func ScopeOf(ids ...string) CourseScope {
	return CourseScope{IDs: ids}
}

// Empty reports whether the scope excludes every course.
func (s CourseScope) Empty() bool {
	return !s.All && len(s.IDs) == 0
}

// Contains reports whether the given course falls inside the scope.
func (s CourseScope) Contains(courseID string) bool {
	if s.All {
		return true
	}
	for _, id := range s.IDs {
		if id == courseID {
			return true
		}
	}
	return false
}
