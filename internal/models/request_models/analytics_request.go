package request_models

// AnalyticsQuery is bound from query parameters on the analytics routes.
// Period "custom" requires both dates in ISO 8601 (2006-01-02) form.
type AnalyticsQuery struct {
	Period    string `form:"period,default=month" binding:"omitempty,oneof=today week month quarter year custom"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}
