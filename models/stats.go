package models

// CategoryTotal aggregates the records of one category.
type CategoryTotal struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Stats is the aggregate snapshot badge predicates and dashboards read.
// The period fields follow the user's goal type; the week fields always cover
// the trailing seven days.
type Stats struct {
	TotalEntries   int                        `json:"totalEntries"`
	PeriodEntries  int                        `json:"periodEntries"`
	TotalImpact    float64                    `json:"totalImpact"`
	PeriodImpact   float64                    `json:"periodImpact"`
	WeekEntries    int                        `json:"weekEntries"`
	WeekImpact     float64                    `json:"weekImpact"`
	WeekActiveDays int                        `json:"weekActiveDays"`
	MonthImpact    float64                    `json:"monthImpact"`
	ByCategory     map[Category]CategoryTotal `json:"byCategory"`
}

// MonthlyComparison compares the current calendar month with the previous one.
type MonthlyComparison struct {
	ThisMonth float64 `json:"thisMonth"`
	LastMonth float64 `json:"lastMonth"`
}

// CategoryShare is one row of the all-time category breakdown.
type CategoryShare struct {
	Category Category `json:"category"`
	Total    float64  `json:"total"`
	Count    int      `json:"count"`
}

// Intensity averages the current month's impact per day and per week.
type Intensity struct {
	MonthTotal    float64 `json:"monthTotal"`
	DailyAverage  float64 `json:"dailyAverage"`
	WeeklyAverage float64 `json:"weeklyAverage"`
}

// Trend is the direction of a category's recent impact against its baseline.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Suggestion compares one category's last seven days with its weekly
// baseline from the weeks before.
type Suggestion struct {
	Category    Category `json:"category"`
	Trend       Trend    `json:"trend"`
	RecentTotal float64  `json:"recentTotal"`
	Baseline    float64  `json:"baseline"`
	Change      float64  `json:"change"`
	Message     string   `json:"message"`
}

type SuggestionReport struct {
	Suggestions     []Suggestion `json:"suggestions"`
	NoRecentEntries bool         `json:"noRecentEntries"`
	Message         string       `json:"message,omitempty"`
}
