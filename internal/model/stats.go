package model

// DashboardStats is the coordinator landing-page summary.
type DashboardStats struct {
	TotalDonors        int `db:"total_donors" json:"total_donors"`
	TotalRecipients    int `db:"total_recipients" json:"total_recipients"`
	TotalOrgans        int `db:"total_organs" json:"total_organs"`
	TotalHospitals     int `db:"total_hospitals" json:"total_hospitals"`
	TotalSurgeries     int `db:"total_surgeries" json:"total_surgeries"`
	AvailableOrgans    int `db:"available_organs" json:"available_organs"`
	WaitingRecipients  int `db:"waiting_recipients" json:"waiting_recipients"`
	PendingAllocations int `db:"pending_allocations" json:"pending_allocations"`
	ActiveWaitlist     int `db:"active_waitlist" json:"active_waitlist"`
}
