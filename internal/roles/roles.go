package roles

// ID is one of the fixed set of roles recognized by the platform. Role strings
// are always stored in their hyphenated lowercase form; Normalize in the
// session package converts upstream variants before they reach this package.
type ID string

const (
	SuperAdmin     ID = "super-admin"
	ExecutiveAdmin ID = "executive-admin"
	ClusterHead    ID = "cluster-head"
	UserHead       ID = "user-head"
	Nurse          ID = "nurse"
	Technician     ID = "technician"
	Doctor         ID = "doctor"
	Patient        ID = "user"
)

// All lists every known role, most privileged first.
var All = []ID{
	SuperAdmin,
	ExecutiveAdmin,
	ClusterHead,
	UserHead,
	Nurse,
	Technician,
	Doctor,
	Patient,
}

// creationMatrix maps a role to the set of roles it may create. The backend
// re-checks this on every create call; the gateway uses it only to decide
// which create actions are offered at all. Care-delivery roles and patients
// create nobody.
var creationMatrix = map[ID][]ID{
	SuperAdmin:     {ExecutiveAdmin, ClusterHead, UserHead, Nurse, Technician, Doctor},
	ExecutiveAdmin: {ClusterHead, UserHead, Nurse, Technician, Doctor},
	ClusterHead:    {UserHead, Nurse, Technician},
	UserHead:       {Nurse, Technician, Doctor},
}

// AllowedToCreate returns the roles the given role may create. Unknown roles
// yield nil.
func AllowedToCreate(r ID) []ID {
	allowed, ok := creationMatrix[r]
	if !ok {
		return nil
	}
	out := make([]ID, len(allowed))
	copy(out, allowed)
	return out
}

// CanCreate reports whether creator may create target.
func CanCreate(creator, target ID) bool {
	for _, r := range creationMatrix[creator] {
		if r == target {
			return true
		}
	}
	return false
}

// Valid reports whether r is a member of the closed role enumeration.
func Valid(r ID) bool {
	for _, known := range All {
		if r == known {
			return true
		}
	}
	return false
}

// DashboardPath returns the dashboard route for a role.
func DashboardPath(r ID) string {
	return "/dashboard/" + string(r)
}

// NavItem is a single sidebar entry shown on a role's dashboard.
type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var navByRole = map[ID][]NavItem{
	SuperAdmin: {
		{Label: "Organizations", Path: "/api/organizations"},
		{Label: "Executives", Path: "/api/executive-admins"},
		{Label: "Cluster Heads", Path: "/api/cluster-heads"},
		{Label: "Devices", Path: "/api/devices"},
		{Label: "Reports", Path: "/api/reports"},
		{Label: "Audit", Path: "/api/audit"},
	},
	ExecutiveAdmin: {
		{Label: "Organizations", Path: "/api/organizations"},
		{Label: "Cluster Heads", Path: "/api/cluster-heads"},
		{Label: "Devices", Path: "/api/devices"},
		{Label: "Reports", Path: "/api/reports"},
	},
	ClusterHead: {
		{Label: "User Heads", Path: "/api/user-heads"},
		{Label: "Nurses", Path: "/api/nurses"},
		{Label: "Technicians", Path: "/api/technicians"},
		{Label: "Reports", Path: "/api/reports"},
	},
	UserHead: {
		{Label: "Nurses", Path: "/api/nurses"},
		{Label: "Technicians", Path: "/api/technicians"},
		{Label: "Doctors", Path: "/api/doctors"},
		{Label: "Devices", Path: "/api/devices"},
	},
	Nurse: {
		{Label: "Consultations", Path: "/api/consultations"},
		{Label: "Reports", Path: "/api/reports"},
	},
	Technician: {
		{Label: "Devices", Path: "/api/devices"},
		{Label: "Reports", Path: "/api/reports"},
	},
	Doctor: {
		{Label: "Consultations", Path: "/api/consultations"},
		{Label: "Reports", Path: "/api/reports"},
	},
	Patient: {
		{Label: "Consultations", Path: "/api/consultations"},
		{Label: "Reports", Path: "/api/reports"},
	},
}

// NavItems returns the sidebar entries for a role. Unknown roles get none.
func NavItems(r ID) []NavItem {
	items, ok := navByRole[r]
	if !ok {
		return nil
	}
	out := make([]NavItem, len(items))
	copy(out, items)
	return out
}
