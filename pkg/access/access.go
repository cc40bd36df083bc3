// Package access is the capability matrix for the workspace. Every predicate
// is a pure function of the actor and the live document state; capabilities
// are never stored and never trusted from the client.
package access

import "github.com/lumeo-studio/workspace-api/pkg/models"

// Permissions is the role-level capability set projected to the front end.
type Permissions struct {
	CanViewStats                 bool `json:"canViewStats"`
	CanViewAllLeads              bool `json:"canViewAllLeads"`
	CanAssignLeads               bool `json:"canAssignLeads"`
	CanManageUsers               bool `json:"canManageUsers"`
	CanManagePlans               bool `json:"canManagePlans"`
	CanViewOwnerStats            bool `json:"canViewOwnerStats"`
	CanManageTraining            bool `json:"canManageTraining"`
	CanReviewCalls               bool `json:"canReviewCalls"`
	CanAssignManagers            bool `json:"canAssignManagers"`
	CanManageTrainingAssignments bool `json:"canManageTrainingAssignments"`
	CanAccessTraining            bool `json:"canAccessTraining"`
}

// PermissionsFor projects the role-level capability set for an actor.
// Training access for managers additionally depends on an explicit
// assignment inside the document.
func PermissionsFor(actor models.User, data models.AppData) Permissions {
	ownerOrProduct := actor.Role == models.RoleOwner || actor.Role == models.RoleProduct
	return Permissions{
		CanViewStats:                 true,
		CanViewAllLeads:              true,
		CanAssignLeads:               ownerOrProduct,
		CanManageUsers:               actor.Role == models.RoleOwner,
		CanManagePlans:               actor.Role == models.RoleOwner,
		CanViewOwnerStats:            actor.Role == models.RoleOwner,
		CanManageTraining:            ownerOrProduct,
		CanReviewCalls:               ownerOrProduct,
		CanAssignManagers:            ownerOrProduct,
		CanManageTrainingAssignments: ownerOrProduct,
		CanAccessTraining:            CanAccessTraining(actor, data),
	}
}

// CanViewStats: every live role sees the stats dashboard.
func CanViewStats(actor models.User) bool {
	return actor.Role == models.RoleOwner || actor.Role == models.RoleProduct || actor.Role == models.RoleManager
}

// CanViewAllLeads: managers see all leads in this revision (department
// scoping was relaxed from the earlier workspace design).
func CanViewAllLeads(actor models.User) bool {
	return CanViewStats(actor)
}

// CanReadLead mirrors CanViewAllLeads at resource level.
func CanReadLead(actor models.User, lead models.Lead) bool {
	return CanViewAllLeads(actor)
}

// CanAssignLeads: owner and product route leads to managers.
func CanAssignLeads(actor models.User) bool {
	return actor.Role == models.RoleOwner || actor.Role == models.RoleProduct
}

// CanManageUsers: owner only.
func CanManageUsers(actor models.User) bool {
	return actor.Role == models.RoleOwner
}

// CanManagePlans: owner only.
func CanManagePlans(actor models.User) bool {
	return actor.Role == models.RoleOwner
}

// CanViewOwnerStats: owner only.
func CanViewOwnerStats(actor models.User) bool {
	return actor.Role == models.RoleOwner
}

// CanUpdateStatus: owner/product always; a manager only on a lead assigned
// to them.
func CanUpdateStatus(actor models.User, lead models.Lead) bool {
	if actor.Role == models.RoleOwner || actor.Role == models.RoleProduct {
		return true
	}
	return actor.Role == models.RoleManager && lead.AssigneeID == actor.ID
}

// CanManageTargetDept: owner anywhere; product only inside its own
// department.
func CanManageTargetDept(actor models.User, dept string) bool {
	if actor.Role == models.RoleOwner {
		return true
	}
	return actor.Role == models.RoleProduct && dept == actor.Department
}

// CanAssignTargetUser: owner anywhere; product only for users of its own
// department.
func CanAssignTargetUser(actor models.User, target models.User) bool {
	if actor.Role == models.RoleOwner {
		return true
	}
	return actor.Role == models.RoleProduct && target.Department == actor.Department
}

// CanSelfAssign is the manager "take next" exception: a manager may claim an
// unassigned lead (or re-save their own) without general assignment rights.
func CanSelfAssign(actor models.User, lead models.Lead, newAssigneeID string) bool {
	if actor.Role != models.RoleManager {
		return false
	}
	if newAssigneeID != actor.ID {
		// Managers cannot hand leads to anyone, including un-assigning
		// their own.
		return false
	}
	return lead.AssigneeID == "" || lead.AssigneeID == actor.ID
}

// CanManageTraining: owner and product run the training module.
func CanManageTraining(actor models.User) bool {
	return actor.Role == models.RoleOwner || actor.Role == models.RoleProduct
}

// CanReviewCalls: owner and product submit call reviews.
func CanReviewCalls(actor models.User) bool {
	return CanManageTraining(actor)
}

// CanAccessTraining: owner/product always; a manager only with an explicit
// assignment in the performance block.
func CanAccessTraining(actor models.User, data models.AppData) bool {
	if actor.Role == models.RoleOwner || actor.Role == models.RoleProduct {
		return true
	}
	if actor.Role != models.RoleManager {
		return false
	}
	for _, a := range data.Performance.TrainingAssignments {
		if a.UserID == actor.ID {
			return a.Assigned
		}
	}
	return false
}

// CanReadTrainingProfile: owner always; product for same department; a
// manager only their own.
func CanReadTrainingProfile(actor models.User, target models.User) bool {
	switch actor.Role {
	case models.RoleOwner:
		return true
	case models.RoleProduct:
		return target.Department == actor.Department
	case models.RoleManager:
		return target.ID == actor.ID
	default:
		return false
	}
}

// CanManageTrainingProfile: owner always; product for same department.
func CanManageTrainingProfile(actor models.User, target models.User) bool {
	if actor.Role == models.RoleOwner {
		return true
	}
	return actor.Role == models.RoleProduct && target.Department == actor.Department
}

// CanManageTrainingAssignmentTarget: the target must be a manager; owner
// always; product for same department.
func CanManageTrainingAssignmentTarget(actor models.User, target models.User) bool {
	if target.Role != models.RoleManager {
		return false
	}
	if actor.Role == models.RoleOwner {
		return true
	}
	return actor.Role == models.RoleProduct && target.Department == actor.Department
}
