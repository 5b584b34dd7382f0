package models

type CourierStat struct {
	CourierID   int64  `json:"courier_id"`
	CourierName string `json:"courier_name"`
	Total       int    `json:"total"`
	Completed   int    `json:"completed"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DashboardStats feeds the dashboard charts.
type DashboardStats struct {
	Total        int                `json:"total"`
	ByStatus     map[TaskStatus]int `json:"by_status"`
	ByType       map[TaskType]int   `json:"by_type"`
	ByCourier    []CourierStat      `json:"by_courier"`
	Daily        []DailyCount       `json:"daily"`
	LastActivity string             `json:"last_activity,omitempty"`
}
