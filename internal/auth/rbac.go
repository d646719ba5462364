package auth

// Role is a named bundle of permissions assigned to a user.
type Role string

// Permission is an atomic capability checked against a route's requirements.
type Permission string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

const (
	PermUsersRead       Permission = "users.read"
	PermUsersWrite      Permission = "users.write"
	PermUsersAssignRole Permission = "users.assignRole"
	PermEventsRead      Permission = "events.read"
	PermEventsPublish   Permission = "events.publish"
	PermProxyUsersRead  Permission = "proxy.users.read"
	PermProxyCatalog    Permission = "proxy.catalog.read"
)

// rolePermissions is the static role matrix. Every defined role has an entry;
// lookups against names outside this map contribute nothing.
var rolePermissions = map[Role][]Permission{
	RoleUser:    {PermUsersRead, PermEventsRead, PermEventsPublish},
	RoleManager: {PermUsersRead, PermEventsRead, PermEventsPublish, PermProxyUsersRead},
	RoleAdmin: {
		PermUsersRead, PermUsersWrite, PermUsersAssignRole,
		PermEventsRead, PermEventsPublish,
		PermProxyUsersRead, PermProxyCatalog,
	},
}

// PermissionSet is the granted-permission lookup produced from a role list.
type PermissionSet map[Permission]struct{}

// Has reports whether the set grants the permission.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// IsRole reports whether name is a member of the closed role set.
func IsRole(name string) bool {
	_, ok := rolePermissions[Role(name)]
	return ok
}

// PermissionsForRoles unions the permissions of every recognized role name.
// Unknown names are skipped, never an error: tokens minted under an older
// role matrix must still resolve with whatever roles remain valid.
func PermissionsForRoles(roleNames []string) PermissionSet {
	granted := make(PermissionSet)
	for _, name := range roleNames {
		perms, ok := rolePermissions[Role(name)]
		if !ok {
			continue
		}
		for _, p := range perms {
			granted[p] = struct{}{}
		}
	}
	return granted
}

// HasAll reports whether granted contains every required permission.
func HasAll(granted PermissionSet, required ...Permission) bool {
	for _, p := range required {
		if !granted.Has(p) {
			return false
		}
	}
	return true
}
