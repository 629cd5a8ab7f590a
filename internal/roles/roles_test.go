package roles

import "testing"

func TestAllowedToCreate(t *testing.T) {
	tests := []struct {
		role ID
		want []ID
	}{
		{SuperAdmin, []ID{ExecutiveAdmin, ClusterHead, UserHead, Nurse, Technician, Doctor}},
		{ExecutiveAdmin, []ID{ClusterHead, UserHead, Nurse, Technician, Doctor}},
		{ClusterHead, []ID{UserHead, Nurse, Technician}},
		{UserHead, []ID{Nurse, Technician, Doctor}},
		{Nurse, nil},
		{Technician, nil},
		{Doctor, nil},
		{Patient, nil},
		{ID("unknown-role"), nil},
	}

	for _, tt := range tests {
		got := AllowedToCreate(tt.role)
		if len(got) != len(tt.want) {
			t.Errorf("AllowedToCreate(%s) = %v, want %v", tt.role, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("AllowedToCreate(%s)[%d] = %s, want %s", tt.role, i, got[i], tt.want[i])
			}
		}
	}
}

func TestAllowedToCreateReturnsCopy(t *testing.T) {
	first := AllowedToCreate(SuperAdmin)
	first[0] = Patient
	second := AllowedToCreate(SuperAdmin)
	if second[0] != ExecutiveAdmin {
		t.Errorf("mutating a returned slice leaked into the matrix: got %s", second[0])
	}
}

func TestCanCreate(t *testing.T) {
	if !CanCreate(SuperAdmin, ExecutiveAdmin) {
		t.Error("super-admin should be able to create executive-admin")
	}
	if CanCreate(ClusterHead, ExecutiveAdmin) {
		t.Error("cluster-head must not create executive-admin")
	}
	if CanCreate(Patient, Nurse) {
		t.Error("patients create nobody")
	}
	if CanCreate(Nurse, Nurse) {
		t.Error("nurses create nobody")
	}
}

func TestValid(t *testing.T) {
	for _, r := range All {
		if !Valid(r) {
			t.Errorf("Valid(%s) = false, want true", r)
		}
	}
	for _, r := range []ID{"admin", "cluster_head", "", "USER"} {
		if Valid(r) {
			t.Errorf("Valid(%s) = true, want false", r)
		}
	}
}

func TestDashboardPath(t *testing.T) {
	if got := DashboardPath(ClusterHead); got != "/dashboard/cluster-head" {
		t.Errorf("DashboardPath = %s", got)
	}
	if got := DashboardPath(Patient); got != "/dashboard/user" {
		t.Errorf("DashboardPath = %s", got)
	}
}

func TestNavItems(t *testing.T) {
	for _, r := range All {
		if len(NavItems(r)) == 0 {
			t.Errorf("role %s has no navigation entries", r)
		}
	}
	if NavItems(ID("ghost")) != nil {
		t.Error("unknown role should have no navigation entries")
	}
}
