package models

import "time"

// DailyReport is the end-of-day snapshot archived in MongoDB.
type DailyReport struct {
	Date       string    `bson:"date" json:"date"`
	SalesCount int       `bson:"sales_count" json:"sales_count"`
	Daily      Totals    `bson:"daily" json:"daily"`
	Cumulative Totals    `bson:"cumulative" json:"cumulative"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
