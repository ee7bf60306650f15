package timeline

import (
	"sort"
	"time"
)

// CourseGroup is one course's items in a weekly summary.
type CourseGroup struct {
	CourseName string         `json:"courseName"`
	Items      []CombinedItem `json:"items"`
}

type WeekSummary struct {
	WeekStart time.Time     `json:"weekStart"`
	WeekEnd   time.Time     `json:"weekEnd"`
	Weeks     []time.Time   `json:"weeks"` // every week holding a dated item, plus the current one; newest first
	Courses   []CourseGroup `json:"courses"`
}

// StartOfWeek returns the Monday 00:00 of t's week, in t's location.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// Summarize groups the dated items falling in the week of `week` by course.
// Groups keep the order of first appearance; items keep their timeline order.
func Summarize(items []CombinedItem, week, now time.Time) WeekSummary {
	start := StartOfWeek(week)
	end := start.AddDate(0, 0, 7)

	seen := make(map[int64]time.Time)
	addWeek := func(t time.Time) {
		w := StartOfWeek(t.In(week.Location()))
		seen[w.Unix()] = w
	}
	addWeek(now)
	for _, it := range items {
		if it.Date != nil {
			addWeek(*it.Date)
		}
	}
	weeks := make([]time.Time, 0, len(seen))
	for _, w := range seen {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].After(weeks[j]) })

	var groups []CourseGroup
	index := make(map[string]int)
	for _, it := range items {
		if it.Date == nil || it.Date.Before(start) || !it.Date.Before(end) {
			continue
		}
		i, ok := index[it.CourseName]
		if !ok {
			i = len(groups)
			index[it.CourseName] = i
			groups = append(groups, CourseGroup{CourseName: it.CourseName})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	if groups == nil {
		groups = []CourseGroup{}
	}

	return WeekSummary{WeekStart: start, WeekEnd: end, Weeks: weeks, Courses: groups}
}

// Urgent returns the HIGH priority items of a ranked list.
func Urgent(items []CombinedItem) []CombinedItem {
	var out []CombinedItem
	for _, it := range items {
		if it.priority == PriorityHigh {
			out = append(out, it)
		}
	}
	return out
}
