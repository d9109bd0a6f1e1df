package services

import (
	"time"

	"github.com/iStreamsERP/istreams-task-management/models"
	"github.com/iStreamsERP/istreams-task-management/utils"
)

// CalendarEvent is a task projected onto the calendar: a dated interval
// plus its length in days, which drives the display color grouping.
type CalendarEvent struct {
	Task         models.Task `json:"task"`
	Start        time.Time   `json:"start"`
	End          time.Time   `json:"end"`
	DurationDays int         `json:"durationDays"`
}

// BuildCalendarEvents projects tasks onto calendar intervals. A task with no
// start date is pinned to now; a task with no completion date runs one day
// past its start.
func BuildCalendarEvents(tasks []models.Task, now time.Time) []CalendarEvent {
	events := make([]CalendarEvent, 0, len(tasks))
	for _, t := range tasks {
		start := t.StartDate
		if start.IsZero() {
			start = now
		}
		end := t.CompletionDate
		if end.IsZero() {
			end = start.AddDate(0, 0, 1)
		}

		days := int(utils.StartOfDay(end).Sub(utils.StartOfDay(start)).Hours()/24) + 1
		if days < 1 {
			days = 1
		}

		events = append(events, CalendarEvent{
			Task:         t,
			Start:        start,
			End:          end,
			DurationDays: days,
		})
	}
	return events
}

// OccursOn reports whether the event's interval touches the given day,
// date-only.
func (e CalendarEvent) OccursOn(day time.Time) bool {
	d := utils.StartOfDay(day)
	return !d.Before(utils.StartOfDay(e.Start)) && !d.After(utils.StartOfDay(e.End))
}

// DurationBucket groups events by length for consistent coloring across
// views.
func (e CalendarEvent) DurationBucket() string {
	switch d := e.DurationDays; {
	case d <= 2:
		return "upto-2d"
	case d <= 5:
		return "upto-5d"
	case d <= 10:
		return "upto-10d"
	case d <= 15:
		return "upto-15d"
	case d <= 30:
		return "upto-30d"
	default:
		return "over-30d"
	}
}

// EventsOn filters events down to those touching one day.
func EventsOn(events []CalendarEvent, day time.Time) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(events))
	for _, e := range events {
		if e.OccursOn(day) {
			out = append(out, e)
		}
	}
	return out
}
