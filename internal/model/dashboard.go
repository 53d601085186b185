package model

// DashboardStats holds the summary counters shown on the admin dashboard.
type DashboardStats struct {
	TotalStudents       int `json:"total_students"`
	TotalParents        int `json:"total_parents"`
	TotalClasses        int `json:"total_classes"`
	TotalRegistrations  int `json:"total_registrations"`
	ActiveSubscriptions int `json:"active_subscriptions"`
	ClassesToday        int `json:"classes_today"`
}
