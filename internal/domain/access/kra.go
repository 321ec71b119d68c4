package access

// GoalContext selects which KRA tab a caller is looking at: a manager's own
// team, or the organisation-wide listing.
type GoalContext string

const (
	GoalContextTeam GoalContext = "team"
	GoalContextAll  GoalContext = "all"
)

func ParseGoalContext(raw string) (GoalContext, bool) {
	switch GoalContext(raw) {
	case GoalContextTeam:
		return GoalContextTeam, true
	case GoalContextAll:
		return GoalContextAll, true
	}
	return "", false
}

// GoalRef identifies one KRA assignment record by its owner and the manager
// who assigned it.
type GoalRef struct {
	EmployeeID string `json:"employeeId"`
	AssignedBy string `json:"assignedBy"`
}

type ContextualAccess struct {
	CanEdit  bool `json:"canEdit"`
	CanView  bool `json:"canView"`
	ReadOnly bool `json:"isReadOnly"`
}

var (
	goalAccessNone = ContextualAccess{}
	goalAccessEdit = ContextualAccess{CanEdit: true, CanView: true}
	goalAccessView = ContextualAccess{CanView: true, ReadOnly: true}
)

// ResolveGoalAccess layers record ownership on top of the role system for
// KRA records. The team tab grants edit rights only to the record's direct
// assignor (and the employee themselves); admins and HR browsing the
// all-records tab are read-only unless they are also the direct assignor,
// and get nothing on the team tab at all.
func ResolveGoalAccess(s *Snapshot, ref GoalRef, scope GoalContext) ContextualAccess {
	if s == nil || s.User == nil || s.User.ID == "" {
		return goalAccessNone
	}
	if scope != GoalContextTeam && scope != GoalContextAll {
		return goalAccessNone
	}

	owner := ref.EmployeeID != "" && s.User.ID == ref.EmployeeID
	assignor := ref.AssignedBy != "" && s.User.ID == ref.AssignedBy
	adminOrHR := isSuperAdmin(s) || s.HoldsRole(RoleHR)

	if owner {
		return goalAccessEdit
	}
	if adminOrHR {
		if scope != GoalContextAll {
			return goalAccessNone
		}
		if assignor {
			return goalAccessEdit
		}
		return goalAccessView
	}
	if assignor {
		return goalAccessEdit
	}
	return goalAccessNone
}
