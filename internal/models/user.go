package models

type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

func ValidUserRoles() []UserRole {
	return []UserRole{RoleStudent, RoleModerator, RoleAdmin}
}

// Session carries the caller facts every component needs. It is built once per
// request by the HTTP layer and passed explicitly.
type Session struct {
	ID     string   `json:"id"`
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	IsDemo bool     `json:"is_demo"`
}

// CanEditExercises reports whether the session may create or update exercises.
func (s *Session) CanEditExercises() bool {
	return s != nil && !s.IsDemo && (s.Role == RoleAdmin || s.Role == RoleModerator)
}

// CanRemoveExercises reports whether the session may delete exercises.
func (s *Session) CanRemoveExercises() bool {
	return s != nil && !s.IsDemo && (s.Role == RoleAdmin || s.Role == RoleModerator)
}

// CanSeeAnswerKeys reports whether the session may read exercises with their answer
// keys outside a completed test.
func (s *Session) CanSeeAnswerKeys() bool {
	return s.CanEditExercises()
}
