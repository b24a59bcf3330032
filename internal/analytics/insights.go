package analytics

import (
	"fmt"
	"sort"

	"finboard/internal/core"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityCaution Severity = "caution"
	SeverityInfo    Severity = "info"
	SeverityHealthy Severity = "healthy"
)

func (s Severity) rank() int {
	switch s {
	case SeverityWarning:
		return 0
	case SeverityCaution:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

type Insight struct {
	Severity Severity           `json:"severity"`
	Category *core.CostCategory `json:"category,omitempty"`
	Message  string             `json:"message"`
}

// Thresholds are percentages of budget (or of total spend for
// ConcentrationShare).
type Thresholds struct {
	Warning            float64 `json:"warning"`
	Caution            float64 `json:"caution"`
	Healthy            float64 `json:"healthy"`
	ConcentrationShare float64 `json:"concentrationShare"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Warning:            100,
		Caution:            80,
		Healthy:            50,
		ConcentrationShare: 50,
	}
}

// GenerateInsights turns a report into advisory messages, most severe first.
func GenerateInsights(r Report, th Thresholds) []Insight {
	insights := []Insight{}

	u := r.BudgetUtilization
	switch {
	case r.TotalBudgets.Cents <= 0:
		if !r.TotalSpend().IsZero() {
			insights = append(insights, Insight{
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("spent %s with no budget set", r.TotalSpend()),
			})
		}
	case u > th.Warning:
		insights = append(insights, Insight{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("over budget by %.1f%%", u-th.Warning),
		})
	case u >= th.Caution:
		insights = append(insights, Insight{
			Severity: SeverityCaution,
			Message:  fmt.Sprintf("%.1f%% of budget used", u),
		})
	case u < th.Healthy:
		insights = append(insights, Insight{
			Severity: SeverityHealthy,
			Message:  fmt.Sprintf("only %.1f%% of budget used", u),
		})
	}

	for _, row := range r.BudgetVsActual {
		if row.Percentage > th.Warning {
			cat := row.Category
			insights = append(insights, Insight{
				Severity: SeverityWarning,
				Category: &cat,
				Message:  fmt.Sprintf("category %s exceeds budget by %.1f%%", cat, row.Percentage-th.Warning),
			})
		}
	}

	if len(r.TopCategories) > 0 {
		top := r.TopCategories[0]
		share := Percentage(top.Total, r.TotalSpend())
		if share >= th.ConcentrationShare {
			cat := top.Category
			insights = append(insights, Insight{
				Severity: SeverityInfo,
				Category: &cat,
				Message:  fmt.Sprintf("category %s accounts for %.1f%% of spend", cat, share),
			})
		}
	}

	sort.SliceStable(insights, func(i, j int) bool {
		a, b := insights[i], insights[j]
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() < b.Severity.rank()
		}
		return a.Message < b.Message
	})
	return insights
}
