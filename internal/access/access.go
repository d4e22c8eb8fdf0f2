// Package access decides whether an actor's role permits an operation.
//
// Every protected operation lists the roles allowed to perform it in Policy.
// There is no role hierarchy: an operation open to admins names RoleAdmin
// explicitly.
package access

import (
	"github.com/gurkanbulca/taskhub/internal/models"
)

// Decision is the outcome of an access check.
type Decision bool

// Decision values
const (
	Deny  Decision = false
	Allow Decision = true
)

// Operation names a protected action.
type Operation string

// Operations guarded by the policy table.
const (
	OpViewProfile       Operation = "users.profile"
	OpGetSingleUser     Operation = "users.get_single"
	OpListUsers         Operation = "users.list"
	OpAssignRole        Operation = "roles.assign"
	OpCreateTeam        Operation = "teams.create"
	OpListTeams         Operation = "teams.list"
	OpGetTeam           Operation = "teams.get"
	OpCreateTask        Operation = "tasks.create"
	OpListOwnTasks      Operation = "tasks.list_own"
	OpUpdateOwnTask     Operation = "tasks.update_own"
	OpDeleteOwnTask     Operation = "tasks.delete_own"
	OpListAllTasks      Operation = "tasks.list_all"
	OpAssignTask        Operation = "tasks.assign"
	OpUpdateTaskForUser Operation = "tasks.update_for_user"
	OpTaskAnalytics     Operation = "tasks.analytics"
	OpAdminDashboard    Operation = "dashboard.admin"
	OpManagerDashboard  Operation = "dashboard.manager"
	OpUserDashboard     Operation = "dashboard.user"
	OpWatchTaskEvents   Operation = "events.watch"
)

// Denial messages
const (
	MsgNoRole           = "Access denied. User does not have a role."
	MsgPermissionDenied = "You do not have permission to access this resource."
)

// RoleSet is the fixed set of roles allowed to perform an operation.
type RoleSet []models.Role

// Contains reports whether role is a member of the set.
func (s RoleSet) Contains(role models.Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

var (
	adminOnly      = RoleSet{models.RoleAdmin}
	adminOrManager = RoleSet{models.RoleAdmin, models.RoleManager}
	anyone         = RoleSet{models.RoleAdmin, models.RoleManager, models.RoleUser}
)

// Policy maps every protected operation to its allowed roles.
var Policy = map[Operation]RoleSet{
	OpViewProfile:       anyone,
	OpGetSingleUser:     anyone,
	OpListUsers:         adminOrManager,
	OpAssignRole:        adminOnly,
	OpCreateTeam:        adminOrManager,
	OpListTeams:         adminOnly,
	OpGetTeam:           adminOrManager,
	OpCreateTask:        anyone,
	OpListOwnTasks:      anyone,
	OpUpdateOwnTask:     anyone,
	OpDeleteOwnTask:     anyone,
	OpListAllTasks:      adminOrManager,
	OpAssignTask:        adminOrManager,
	OpUpdateTaskForUser: adminOrManager,
	OpTaskAnalytics:     anyone,
	OpAdminDashboard:    adminOnly,
	OpManagerDashboard:  adminOrManager,
	OpUserDashboard:     anyone,
	OpWatchTaskEvents:   anyone,
}

// Decide allows iff role is a known role contained in required.
func Decide(role models.Role, required RoleSet) Decision {
	switch role {
	case models.RoleAdmin, models.RoleManager, models.RoleUser:
		if required.Contains(role) {
			return Allow
		}
		return Deny
	default:
		return Deny
	}
}

// Required returns the role set of op and whether op is in the policy table.
func Required(op Operation) (RoleSet, bool) {
	roles, ok := Policy[op]
	return roles, ok
}

// Authorize returns nil when actor may perform op, and a Forbidden error
// otherwise. A nil actor or an actor without a role is denied like a wrong role.
func Authorize(actor *models.Actor, op Operation) error {
	if actor == nil || actor.Role == "" {
		return models.Forbidden(MsgNoRole)
	}
	required, ok := Required(op)
	if !ok {
		return models.Forbidden(MsgPermissionDenied)
	}
	if Decide(actor.Role, required) == Deny {
		return models.Forbidden(MsgPermissionDenied)
	}
	return nil
}
