// Package rbac stores roles and permissions and answers authorization checks.
package rbac

// AdminRoleName is the role created for allow-listed emails at registration.
// Holding it bypasses checks that allow an admin bypass.
const AdminRoleName = "admin"

// Resource types a permission can target.
const (
	ResourceUser  = "user"
	ResourceRole  = "role"
	ResourceLink  = "link"
	ResourceAdmin = "admin"
)

// Actions. "rw" does not imply "r": checks match the literal action.
const (
	ActionRead      = "r"
	ActionReadWrite = "rw"
)

func ValidAction(action string) bool {
	return action == ActionRead || action == ActionReadWrite
}

func ValidResource(resource string) bool {
	switch resource {
	case ResourceUser, ResourceRole, ResourceLink, ResourceAdmin:
		return true
	}
	return false
}

// Grant is an (action, resource, optional resource id) capability, either
// requested by a check or held through a role.
type Grant struct {
	Action     string
	Resource   string
	ResourceID *string
}

// Global grants action on every resource of the given type.
func Global(action, resource string) Grant {
	return Grant{Action: action, Resource: resource}
}

// On grants action on a single resource.
func On(action, resource, id string) Grant {
	return Grant{Action: action, Resource: resource, ResourceID: &id}
}
