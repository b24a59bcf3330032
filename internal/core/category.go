package core

import "strings"

// CostCategory is the closed set of classification tags shared by costs,
// expenses and budgets.
type CostCategory string

const (
	CategorySoftware   CostCategory = "software"
	CategoryHardware   CostCategory = "hardware"
	CategoryPersonnel  CostCategory = "personnel"
	CategoryTravel     CostCategory = "travel"
	CategoryMarketing  CostCategory = "marketing"
	CategoryOffice     CostCategory = "office"
	CategoryUtilities  CostCategory = "utilities"
	CategoryConsulting CostCategory = "consulting"
	CategoryTraining   CostCategory = "training"
	CategoryOther      CostCategory = "other"
)

// canonical order, used for breakdown rows
var costCategories = []CostCategory{
	CategorySoftware,
	CategoryHardware,
	CategoryPersonnel,
	CategoryTravel,
	CategoryMarketing,
	CategoryOffice,
	CategoryUtilities,
	CategoryConsulting,
	CategoryTraining,
	CategoryOther,
}

// CostCategories returns every known category in canonical order.
func CostCategories() []CostCategory {
	return append([]CostCategory(nil), costCategories...)
}

// LookupCostCategory returns the category named by s, ignoring case and
// surrounding whitespace.
func LookupCostCategory(s string) (CostCategory, bool) {
	c := CostCategory(strings.ToLower(strings.TrimSpace(s)))
	return c, c.IsValid()
}

// ParseCostCategory is the lenient form of LookupCostCategory: unknown
// values are bucketed as CategoryOther.
func ParseCostCategory(s string) CostCategory {
	if c, ok := LookupCostCategory(s); ok {
		return c
	}
	return CategoryOther
}

func (c CostCategory) IsValid() bool {
	for _, known := range costCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c CostCategory) String() string {
	return string(c)
}

// BudgetPeriod is the allocation window of a budget.
type BudgetPeriod string

const (
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
	PeriodYearly    BudgetPeriod = "yearly"
	PeriodOneTime   BudgetPeriod = "one_time"
)

func (p BudgetPeriod) IsValid() bool {
	switch p {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly, PeriodOneTime:
		return true
	default:
		return false
	}
}

// ParseBudgetPeriod maps unknown values to PeriodMonthly.
func ParseBudgetPeriod(s string) BudgetPeriod {
	p := BudgetPeriod(strings.ToLower(strings.TrimSpace(s)))
	if p.IsValid() {
		return p
	}
	return PeriodMonthly
}
