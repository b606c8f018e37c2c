package domain

import "time"

// Plan is a purchasable subscription length. Prices are in UGX.
type Plan struct {
	ID       string
	Name     string
	Duration time.Duration
	Price    int64
	Currency string
}

const day = 24 * time.Hour

// Plans is the catalogue offered to subscribers, shortest first.
var Plans = []Plan{
	{ID: "1hour", Name: "1 Hour", Duration: time.Hour, Price: 1000, Currency: "UGX"},
	{ID: "12hours", Name: "12 Hours", Duration: 12 * time.Hour, Price: 2000, Currency: "UGX"},
	{ID: "1day", Name: "1 Day", Duration: day, Price: 20000, Currency: "UGX"},
	{ID: "1week", Name: "1 Week", Duration: 7 * day, Price: 5000, Currency: "UGX"},
	{ID: "1month", Name: "1 Month", Duration: 30 * day, Price: 8000, Currency: "UGX"},
	{ID: "3months", Name: "3 Months", Duration: 90 * day, Price: 15000, Currency: "UGX"},
	{ID: "1year", Name: "1 Year", Duration: 365 * day, Price: 25000, Currency: "UGX"},
}

// PlanByID looks a plan up in the catalogue.
func PlanByID(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
