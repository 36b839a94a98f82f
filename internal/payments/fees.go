package payments

import (
	"github.com/confera/backend/internal/models"
)

// DefaultFee applies to any category missing from the schedule.
const DefaultFee = 1000

// baseFees is the conference fee schedule in INR, keyed by participant
// category. Settings may override individual entries.
var baseFees = map[models.Category]int{
	models.CategoryStudent:  500,
	models.CategoryFaculty:  750,
	models.CategoryExternal: 300,
	models.CategoryIndustry: 900,
}

// CategoryFee returns the fee for one participant. Overrides (from the
// settings row) take precedence over the base schedule; unknown
// categories fall back to DefaultFee.
func CategoryFee(c models.Category, overrides map[string]int) int {
	if overrides != nil {
		if v, ok := overrides[string(c)]; ok {
			return v
		}
	}
	if v, ok := baseFees[c]; ok {
		return v
	}
	return DefaultFee
}

// TotalFee is the registration's full fee: the principal author's fee
// plus each team member's fee by their own category.
func TotalFee(reg *models.Registration, overrides map[string]int) int {
	total := CategoryFee(reg.PersonalDetails.Category, overrides)
	for _, m := range reg.TeamMembers {
		total += CategoryFee(m.Category, overrides)
	}
	return total
}
