package auth

import (
	"testing"

	"github.com/smsm300/fox-kiro-v5/internal/models"
)

func TestAllowedSectionsPerRole(t *testing.T) {
	cases := []struct {
		role    models.UserRole
		allowed []Section
		denied  []Section
	}{
		{models.RoleAdmin,
			[]Section{SectionUsers, SectionSettings, SectionTreasury},
			nil},
		{models.RoleAccountant,
			[]Section{SectionTreasury, SectionReports},
			[]Section{SectionSales, SectionUsers, SectionSettings}},
		{models.RoleCashier,
			[]Section{SectionSales, SectionShifts},
			[]Section{SectionTreasury, SectionReports, SectionUsers}},
		{models.RoleStockKeeper,
			[]Section{SectionInventory, SectionPurchases},
			[]Section{SectionSales, SectionTreasury, SectionUsers}},
	}

	for _, tc := range cases {
		set := AllowedSections(tc.role)
		for _, s := range tc.allowed {
			if _, ok := set[s]; !ok {
				t.Errorf("%s should have access to %s", tc.role, s)
			}
		}
		for _, s := range tc.denied {
			if _, ok := set[s]; ok {
				t.Errorf("%s should not have access to %s", tc.role, s)
			}
		}
	}
}

func TestAllowedSectionsUnknownRole(t *testing.T) {
	if set := AllowedSections(models.UserRole("intruder")); len(set) != 0 {
		t.Errorf("unknown role got %d sections, want none", len(set))
	}
}

func TestSectionListSorted(t *testing.T) {
	list := SectionList(models.RoleAdmin)
	if len(list) != 11 {
		t.Fatalf("admin has %d sections, want 11", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1] >= list[i] {
			t.Errorf("list not sorted at %d: %s >= %s", i, list[i-1], list[i])
		}
	}
}
