package route

import (
	"math"
	"time"
)

// DeliveryPlan turns a route cost into stop arrival times.
type DeliveryPlan struct {
	SpeedKmh float64
	Start    time.Duration // offset from midnight
}

// Schedule is the stop-wise timing of a route.
type Schedule struct {
	Stops        []string `json:"stops"`
	TotalMinutes int      `json:"totalMinutes"`
	Completion   string   `json:"completion"`
}

// Plan spreads the total travel time for costKm evenly over the legs
// between stops and formats each arrival as HH:MM.
func (d DeliveryPlan) Plan(costKm float64, stops int) Schedule {
	if d.SpeedKmh <= 0 || stops <= 0 {
		return Schedule{}
	}
	total := int(math.Round(costKm / d.SpeedKmh * 60))
	perLeg := 0
	if stops > 1 {
		perLeg = total / (stops - 1)
	}

	times := make([]string, stops)
	for i := range times {
		times[i] = clock(d.Start + time.Duration(perLeg*i)*time.Minute)
	}
	return Schedule{
		Stops:        times,
		TotalMinutes: total,
		Completion:   clock(d.Start + time.Duration(total)*time.Minute),
	}
}

func clock(offset time.Duration) string {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(offset).Format("15:04")
}
