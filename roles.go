package auth

// Role is a named bundle of permissions assigned to users
type Role string

const (
	// RoleUser is the default role for registered accounts
	RoleUser Role = "user"
	// RoleModerator can act on other users' content
	RoleModerator Role = "moderator"
	// RoleAdmin implicitly holds every permission
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	default:
		return false
	}
}

// Permission is a fine grained capability granted through roles
type Permission string

const (
	PermViewProfile         Permission = "viewProfile"
	PermUpdateProfile       Permission = "updateProfile"
	PermViewPosts           Permission = "viewPosts"
	PermCreatePost          Permission = "createPost"
	PermUpdateOwnPost       Permission = "updateOwnPost"
	PermDeleteOwnPost       Permission = "deleteOwnPost"
	PermCreateComment       Permission = "createComment"
	PermUpdateOwnComment    Permission = "updateOwnComment"
	PermDeleteOwnComment    Permission = "deleteOwnComment"
	PermViewNotifications   Permission = "viewNotifications"
	PermModeratePosts       Permission = "moderatePosts"
	PermModerateComments    Permission = "moderateComments"
	PermViewAllUsers        Permission = "viewAllUsers"
	PermManageUsers         Permission = "manageUsers"
	PermManageRoles         Permission = "manageRoles"
	PermViewSystemAnalytics Permission = "viewSystemAnalytics"
	PermViewAuditLogs       Permission = "viewAuditLogs"
)

var userPermissions = []Permission{
	PermViewProfile,
	PermUpdateProfile,
	PermViewPosts,
	PermCreatePost,
	PermUpdateOwnPost,
	PermDeleteOwnPost,
	PermCreateComment,
	PermUpdateOwnComment,
	PermDeleteOwnComment,
	PermViewNotifications,
}

var moderatorPermissions = append(append([]Permission{}, userPermissions...),
	PermModeratePosts,
	PermModerateComments,
	PermViewAllUsers,
)

var adminPermissions = append(append([]Permission{}, moderatorPermissions...),
	PermManageUsers,
	PermManageRoles,
	PermViewSystemAnalytics,
	PermViewAuditLogs,
)

// rolePermissions is the source of truth mapping roles to capabilities.
// Treat as immutable: callers only ever receive copies.
var rolePermissions = map[Role][]Permission{
	RoleUser:      userPermissions,
	RoleModerator: moderatorPermissions,
	RoleAdmin:     adminPermissions,
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []Role {
	return []Role{RoleUser, RoleModerator, RoleAdmin}
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}

// HasPermission checks if any role in the set grants the permission.
// Admin short-circuits: it holds every permission, including ones added to
// the table later.
func HasPermission(roles []Role, permission Permission) bool {
	for _, role := range roles {
		if role == RoleAdmin {
			return true
		}
		for _, p := range rolePermissions[role] {
			if p == permission {
				return true
			}
		}
	}
	return false
}

// PermissionsFor returns the deduplicated union of permissions granted by
// the given roles. The result is a fresh slice; mutating it does not affect
// the role table.
func PermissionsFor(roles ...Role) []Permission {
	seen := make(map[Permission]bool)
	var out []Permission
	for _, role := range roles {
		for _, p := range rolePermissions[role] {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
