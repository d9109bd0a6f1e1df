package services

import (
	"sort"
	"strings"
	"time"

	"github.com/iStreamsERP/istreams-task-management/models"
	"github.com/iStreamsERP/istreams-task-management/utils"
)

// Assignment filter values.
const (
	AssignmentAll = "all"
	AssignedByMe  = "assignedByMe"
	AssignedToMe  = "assignedToMe"
)

// Sort orders.
const (
	SortNameAsc  = "name-asc"
	SortNameDesc = "name-desc"
	SortDateAsc  = "date-asc"
	SortDateDesc = "date-desc"
)

// statusFilterMapping maps the UI-facing filter values onto raw server
// statuses. Filter values outside the table match by literal equality.
var statusFilterMapping = map[string]models.TaskStatus{
	"pending":  models.StatusNew,
	"accepted": models.StatusAccepted,
	"rejected": models.StatusRejected,
}

// TaskFilter is a conjunction of optional predicates over a task list. An
// empty field means "no constraint".
type TaskFilter struct {
	Status     string
	Assignment string
	Search     string
	Start      *time.Time
	End        *time.Time
}

// FilterTasks applies every set predicate of f, ANDed, against tasks.
// viewer drives the assignment predicates. Input order is preserved.
func FilterTasks(tasks []models.Task, f TaskFilter, viewer string) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !matchStatus(t, f.Status) {
			continue
		}
		if !matchAssignment(t, f.Assignment, viewer) {
			continue
		}
		if !matchSearch(t, f.Search) {
			continue
		}
		if !matchDateRange(t, f.Start, f.End) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchStatus(t models.Task, filter string) bool {
	if filter == "" || filter == "all" {
		return true
	}
	if mapped, ok := statusFilterMapping[filter]; ok {
		return t.Status == mapped
	}
	return string(t.Status) == filter
}

func matchAssignment(t models.Task, filter, viewer string) bool {
	switch filter {
	case AssignedByMe:
		return t.CreatedUser == viewer
	case AssignedToMe:
		return t.AssignedUser == viewer
	default:
		return true
	}
}

func matchSearch(t models.Task, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(t.TaskName), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(t.TaskInfo), needle) {
		return true
	}
	// Task ids only match exactly, otherwise a short numeric search would
	// pull in half the list.
	return t.TaskID == search
}

// matchDateRange implements the assignment-view window predicate. With both
// bounds set, a task matches when it starts in the window, ends in the
// window, or spans it entirely.
func matchDateRange(t models.Task, start, end *time.Time) bool {
	if start == nil && end == nil {
		return true
	}

	hasStart := !t.StartDate.IsZero()
	hasEnd := !t.CompletionDate.IsZero()

	if start != nil && end == nil {
		return hasStart && !t.StartDate.Before(utils.StartOfDay(*start))
	}
	if start == nil && end != nil {
		return hasEnd && !t.CompletionDate.After(utils.EndOfDay(*end))
	}

	lo := utils.StartOfDay(*start)
	hi := utils.EndOfDay(*end)
	within := func(v time.Time) bool {
		return !v.Before(lo) && !v.After(hi)
	}

	switch {
	case hasStart && hasEnd:
		return within(t.StartDate) || within(t.CompletionDate) ||
			(t.StartDate.Before(lo) && t.CompletionDate.After(hi))
	case hasStart:
		return within(t.StartDate)
	case hasEnd:
		return within(t.CompletionDate)
	default:
		return false
	}
}

// SortTasks orders a copy of tasks by the given order. Unknown orders leave
// the input order untouched. The sort is stable: equal keys keep their
// relative input positions.
func SortTasks(tasks []models.Task, order string) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)

	switch order {
	case SortNameAsc, SortNameDesc:
		sort.SliceStable(out, func(i, j int) bool {
			a := strings.ToLower(out[i].TaskName)
			b := strings.ToLower(out[j].TaskName)
			if order == SortNameAsc {
				return a < b
			}
			return a > b
		})
	case SortDateAsc, SortDateDesc:
		sort.SliceStable(out, func(i, j int) bool {
			if order == SortDateAsc {
				return out[i].CreatedOn.Before(out[j].CreatedOn)
			}
			return out[i].CreatedOn.After(out[j].CreatedOn)
		})
	}
	return out
}

// QueryTasks filters then sorts in one pass. The two stages are independent,
// so filter order never changes the result.
func QueryTasks(tasks []models.Task, f TaskFilter, order, viewer string) []models.Task {
	return SortTasks(FilterTasks(tasks, f, viewer), order)
}

// CountOverdue counts tasks whose completion date has passed without the
// task being completed. today is taken once by the caller so every task in a
// batch is judged against the same cutoff.
func CountOverdue(tasks []models.Task, today time.Time) int {
	cutoff := utils.StartOfDay(today)
	n := 0
	for _, t := range tasks {
		if t.CompletionDate.IsZero() {
			continue
		}
		if t.Status == models.StatusCompleted {
			continue
		}
		if t.CompletionDate.Before(cutoff) {
			n++
		}
	}
	return n
}

// TaskSummary is the dashboard badge row: overall counts plus the same
// counts restricted to tasks due within the trailing seven days.
type TaskSummary struct {
	Total   int `json:"total"`
	New     int `json:"new"`
	Overdue int `json:"overdue"`
	Current int `json:"current"`

	TotalLast7Days   int `json:"totalLast7Days"`
	NewLast7Days     int `json:"newLast7Days"`
	OverdueLast7Days int `json:"overdueLast7Days"`
	CurrentLast7Days int `json:"currentLast7Days"`
}

// Summarize computes the dashboard counts for one batch. now is evaluated
// exactly once, here, so the whole summary shares a cutoff.
func Summarize(tasks []models.Task, now time.Time) TaskSummary {
	today := utils.StartOfDay(now)
	weekAgo := today.AddDate(0, 0, -6)

	var s TaskSummary
	s.Total = len(tasks)

	var last7 []models.Task
	for _, t := range tasks {
		if t.Status == models.StatusNew {
			s.New++
		}
		if overdueAt(t, today) {
			s.Overdue++
		}
		if dueAt(t, today) {
			s.Current++
		}
		if !t.CompletionDate.IsZero() && !t.CompletionDate.Before(weekAgo) && !t.CompletionDate.After(today) {
			last7 = append(last7, t)
		}
	}

	s.TotalLast7Days = len(last7)
	for _, t := range last7 {
		if t.Status == models.StatusNew {
			s.NewLast7Days++
		}
		if overdueAt(t, today) {
			s.OverdueLast7Days++
		}
		if dueAt(t, today) {
			s.CurrentLast7Days++
		}
	}
	return s
}

func overdueAt(t models.Task, today time.Time) bool {
	if t.CompletionDate.IsZero() || t.Status == models.StatusCompleted {
		return false
	}
	return t.CompletionDate.Before(today)
}

func dueAt(t models.Task, today time.Time) bool {
	if t.CompletionDate.IsZero() {
		return false
	}
	return !t.CompletionDate.Before(today)
}
