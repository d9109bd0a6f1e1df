package services

import (
	"reflect"
	"testing"
	"time"

	"github.com/iStreamsERP/istreams-task-management/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func ptr(t time.Time) *time.Time { return &t }

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.TaskID)
	}
	return ids
}

func sampleTasks() []models.Task {
	return []models.Task{
		{TaskID: "1", TaskName: "Audit ledgers", TaskInfo: "Quarterly audit", Status: models.StatusNew, CreatedUser: "ann", AssignedUser: "bob", CreatedOn: day(2025, 1, 5)},
		{TaskID: "2", TaskName: "Backup servers", TaskInfo: "Nightly backup check", Status: models.StatusAccepted, CreatedUser: "bob", AssignedUser: "ann", CreatedOn: day(2025, 1, 3)},
		{TaskID: "3", TaskName: "audit firewall", TaskInfo: "Security review", Status: models.StatusRejected, CreatedUser: "ann", AssignedUser: "cal", CreatedOn: day(2025, 1, 7)},
		{TaskID: "4", TaskName: "Close accounts", TaskInfo: "Month end", Status: models.StatusCompleted, CreatedUser: "cal", AssignedUser: "ann", CreatedOn: day(2025, 1, 1)},
	}
}

func TestFilterTasksByStatus(t *testing.T) {
	tests := []struct {
		filter string
		want   []string
	}{
		{filter: "", want: []string{"1", "2", "3", "4"}},
		{filter: "all", want: []string{"1", "2", "3", "4"}},
		{filter: "pending", want: []string{"1"}},
		{filter: "accepted", want: []string{"2"}},
		{filter: "rejected", want: []string{"3"}},
		{filter: "COMPLETED", want: []string{"4"}},
		{filter: "no-such-status", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got := taskIDs(FilterTasks(sampleTasks(), TaskFilter{Status: tt.filter}, "ann"))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("filter %q = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestFilterTasksByAssignment(t *testing.T) {
	tests := []struct {
		filter string
		want   []string
	}{
		{filter: AssignmentAll, want: []string{"1", "2", "3", "4"}},
		{filter: AssignedByMe, want: []string{"1", "3"}},
		{filter: AssignedToMe, want: []string{"2", "4"}},
	}
	for _, tt := range tests {
		got := taskIDs(FilterTasks(sampleTasks(), TaskFilter{Assignment: tt.filter}, "ann"))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("assignment %q = %v, want %v", tt.filter, got, tt.want)
		}
	}
}

func TestFilterTasksBySearch(t *testing.T) {
	tests := []struct {
		search string
		want   []string
	}{
		{search: "audit", want: []string{"1", "3"}},
		{search: "backup", want: []string{"2"}},
		{search: "3", want: []string{"3"}},
		{search: "zzz", want: []string{}},
	}
	for _, tt := range tests {
		got := taskIDs(FilterTasks(sampleTasks(), TaskFilter{Search: tt.search}, "ann"))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("search %q = %v, want %v", tt.search, got, tt.want)
		}
	}
}

func TestFilterOrderIndependence(t *testing.T) {
	tasks := sampleTasks()
	combined := FilterTasks(tasks, TaskFilter{Status: "pending", Search: "audit"}, "ann")
	statusFirst := FilterTasks(FilterTasks(tasks, TaskFilter{Status: "pending"}, "ann"), TaskFilter{Search: "audit"}, "ann")
	searchFirst := FilterTasks(FilterTasks(tasks, TaskFilter{Search: "audit"}, "ann"), TaskFilter{Status: "pending"}, "ann")

	if !reflect.DeepEqual(taskIDs(combined), taskIDs(statusFirst)) ||
		!reflect.DeepEqual(taskIDs(combined), taskIDs(searchFirst)) {
		t.Errorf("filter application order changed the result: %v / %v / %v",
			taskIDs(combined), taskIDs(statusFirst), taskIDs(searchFirst))
	}
}

func TestFilterTasksByDateRange(t *testing.T) {
	spanning := models.Task{TaskID: "A", StartDate: day(2025, 1, 10), CompletionDate: day(2025, 1, 12)}
	startOnly := models.Task{TaskID: "B", StartDate: day(2025, 2, 1)}

	t.Run("interval containing the range matches", func(t *testing.T) {
		f := TaskFilter{Start: ptr(day(2025, 1, 11)), End: ptr(day(2025, 1, 11))}
		got := taskIDs(FilterTasks([]models.Task{spanning}, f, "ann"))
		if !reflect.DeepEqual(got, []string{"A"}) {
			t.Errorf("got %v, want [A]", got)
		}
	})

	t.Run("start after the range end does not match", func(t *testing.T) {
		f := TaskFilter{Start: ptr(day(2025, 1, 1)), End: ptr(day(2025, 1, 31))}
		got := taskIDs(FilterTasks([]models.Task{startOnly}, f, "ann"))
		if len(got) != 0 {
			t.Errorf("got %v, want none", got)
		}
	})

	t.Run("open-ended range matches from its start", func(t *testing.T) {
		f := TaskFilter{Start: ptr(day(2025, 2, 1))}
		got := taskIDs(FilterTasks([]models.Task{startOnly}, f, "ann"))
		if !reflect.DeepEqual(got, []string{"B"}) {
			t.Errorf("got %v, want [B]", got)
		}
	})

	t.Run("task with no dates fails a bounded range", func(t *testing.T) {
		bare := models.Task{TaskID: "C"}
		f := TaskFilter{Start: ptr(day(2025, 1, 1)), End: ptr(day(2025, 1, 31))}
		if got := taskIDs(FilterTasks([]models.Task{bare}, f, "ann")); len(got) != 0 {
			t.Errorf("got %v, want none", got)
		}
	})
}

func TestSortTasks(t *testing.T) {
	tasks := sampleTasks()

	t.Run("name ascending is case-insensitive", func(t *testing.T) {
		got := taskIDs(SortTasks(tasks, SortNameAsc))
		want := []string{"3", "1", "2", "4"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("date descending", func(t *testing.T) {
		got := taskIDs(SortTasks(tasks, SortDateDesc))
		want := []string{"3", "1", "2", "4"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("stable on equal keys", func(t *testing.T) {
		dup := []models.Task{
			{TaskID: "x", TaskName: "Same", CreatedOn: day(2025, 1, 1)},
			{TaskID: "y", TaskName: "Same", CreatedOn: day(2025, 1, 1)},
			{TaskID: "z", TaskName: "Same", CreatedOn: day(2025, 1, 1)},
		}
		got := taskIDs(SortTasks(dup, SortNameAsc))
		if !reflect.DeepEqual(got, []string{"x", "y", "z"}) {
			t.Errorf("equal keys reordered: %v", got)
		}
	})

	t.Run("unknown order keeps input order", func(t *testing.T) {
		got := taskIDs(SortTasks(tasks, "whatever"))
		if !reflect.DeepEqual(got, []string{"1", "2", "3", "4"}) {
			t.Errorf("got %v, want input order", got)
		}
	})

	t.Run("input slice is untouched", func(t *testing.T) {
		before := taskIDs(tasks)
		SortTasks(tasks, SortNameDesc)
		if !reflect.DeepEqual(taskIDs(tasks), before) {
			t.Error("SortTasks mutated its input")
		}
	})
}

func TestQueryTasksEmpty(t *testing.T) {
	got := QueryTasks(nil, TaskFilter{Status: "pending"}, SortNameAsc, "ann")
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestCountOverdue(t *testing.T) {
	today := day(2025, 6, 15)
	yesterday := day(2025, 6, 14)

	tests := []struct {
		name string
		task models.Task
		want int
	}{
		{name: "past due and accepted", task: models.Task{Status: models.StatusAccepted, CompletionDate: yesterday}, want: 1},
		{name: "past due but completed", task: models.Task{Status: models.StatusCompleted, CompletionDate: yesterday}, want: 0},
		{name: "due today", task: models.Task{Status: models.StatusAccepted, CompletionDate: today}, want: 0},
		{name: "no completion date", task: models.Task{Status: models.StatusAccepted}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountOverdue([]models.Task{tt.task}, today); got != tt.want {
				t.Errorf("CountOverdue = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	now := day(2025, 6, 15)
	tasks := []models.Task{
		{Status: models.StatusNew, CompletionDate: day(2025, 6, 16)},
		{Status: models.StatusAccepted, CompletionDate: day(2025, 6, 12)},
		{Status: models.StatusCompleted, CompletionDate: day(2025, 6, 10)},
		{Status: models.StatusAccepted, CompletionDate: day(2025, 5, 1)},
		{Status: models.StatusAccepted},
	}

	s := Summarize(tasks, now)
	if s.Total != 5 {
		t.Errorf("Total = %d, want 5", s.Total)
	}
	if s.New != 1 {
		t.Errorf("New = %d, want 1", s.New)
	}
	if s.Overdue != 2 {
		t.Errorf("Overdue = %d, want 2", s.Overdue)
	}
	if s.Current != 1 {
		t.Errorf("Current = %d, want 1", s.Current)
	}
	if s.TotalLast7Days != 2 {
		t.Errorf("TotalLast7Days = %d, want 2", s.TotalLast7Days)
	}
	if s.OverdueLast7Days != 1 {
		t.Errorf("OverdueLast7Days = %d, want 1", s.OverdueLast7Days)
	}
}
