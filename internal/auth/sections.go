package auth

import (
	"sort"

	"github.com/smsm300/fox-kiro-v5/internal/models"
)

// Section is a top-level area of the application the UI can navigate to.
type Section string

const (
	SectionDashboard Section = "dashboard"
	SectionSales     Section = "sales"
	SectionPurchases Section = "purchases"
	SectionInventory Section = "inventory"
	SectionTreasury  Section = "treasury"
	SectionCustomers Section = "customers"
	SectionSuppliers Section = "suppliers"
	SectionReports   Section = "reports"
	SectionShifts    Section = "shifts"
	SectionSettings  Section = "settings"
	SectionUsers     Section = "users"
)

// AllowedSections is the capability table driving menu visibility. Pure data,
// testable without any rendering.
func AllowedSections(role models.UserRole) map[Section]struct{} {
	var sections []Section
	switch role {
	case models.RoleAdmin:
		sections = []Section{
			SectionDashboard, SectionSales, SectionPurchases, SectionInventory,
			SectionTreasury, SectionCustomers, SectionSuppliers, SectionReports,
			SectionShifts, SectionSettings, SectionUsers,
		}
	case models.RoleAccountant:
		sections = []Section{
			SectionDashboard, SectionTreasury, SectionCustomers,
			SectionSuppliers, SectionReports,
		}
	case models.RoleCashier:
		sections = []Section{
			SectionDashboard, SectionSales, SectionCustomers, SectionShifts,
		}
	case models.RoleStockKeeper:
		sections = []Section{
			SectionDashboard, SectionInventory, SectionPurchases, SectionSuppliers,
		}
	}

	set := make(map[Section]struct{}, len(sections))
	for _, s := range sections {
		set[s] = struct{}{}
	}
	return set
}

// SectionList returns the allowed sections sorted, for JSON responses.
func SectionList(role models.UserRole) []Section {
	set := AllowedSections(role)
	list := make([]Section, 0, len(set))
	for s := range set {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}
