package auth

// Role identifies which workflow actor a session represents.
type Role string

const (
	RoleLecturer    Role = "Lecturer"
	RoleHOD         Role = "HOD"
	RoleCoordinator Role = "Coordinator"
	RoleManager     Role = "Manager"
)

// IsReviewer reports whether the role may decide claims.
func (r Role) IsReviewer() bool {
	switch r {
	case RoleHOD, RoleCoordinator, RoleManager:
		return true
	default:
		return false
	}
}

func isValidRole(role Role) bool {
	switch role {
	case RoleLecturer, RoleHOD, RoleCoordinator, RoleManager:
		return true
	default:
		return false
	}
}
