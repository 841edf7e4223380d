package models

// DashboardStats holds the counters shown on the portal dashboard
type DashboardStats struct {
	TotalMembers    int64 `json:"totalMembers"`
	ActiveEvents    int64 `json:"activeEvents"`
	PublishedNews   int64 `json:"publishedNews"`
	PendingArticles int64 `json:"pendingArticles"`
}

// AllModels lists every persisted model in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&News{},
		&Event{},
		&EventRegistration{},
		&Article{},
		&Comment{},
		&Notification{},
	}
}
