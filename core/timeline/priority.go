package timeline

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// UrgentWindow is how close a date must be to now for the item to be HIGH priority.
const UrgentWindow = 24 * time.Hour

var (
	priorityOrder = map[Priority]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}
	typeOrder     = map[ItemType]int{
		TypeTest:             0,
		TypeUrgent:           1,
		TypeAssignment:       2,
		TypeSubmissionWindow: 3,
		TypeInfo:             4,
		TypeEvent:            5,
		TypeAnnouncement:     6,
		TypeMaterial:         7,
	}
)

func derivePriority(it CombinedItem, now time.Time) Priority {
	if it.Type == TypeTest || it.Type == TypeUrgent || it.Status.Elevated() {
		return PriorityHigh
	}
	if it.Date == nil {
		return PriorityLow
	}
	if until := it.Date.Sub(now); until > 0 && until <= UrgentWindow {
		return PriorityHigh
	}
	return PriorityMedium
}

// Rank returns a copy of items with their priority derived against now.
func Rank(items []CombinedItem, now time.Time) []CombinedItem {
	ranked := make([]CombinedItem, len(items))
	for i, it := range items {
		it.priority = derivePriority(it, now)
		ranked[i] = it
	}
	return ranked
}

func rankOf(order map[ItemType]int, t ItemType) int {
	if r, ok := order[t]; ok {
		return r
	}
	return len(order)
}

// Sort orders ranked items in place: dated first by ascending date, then priority, then type.
func Sort(items []CombinedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if (a.Date == nil) != (b.Date == nil) {
			return a.Date != nil
		}
		if a.Date != nil && !a.Date.Equal(*b.Date) {
			return a.Date.Before(*b.Date)
		}
		if pa, pb := priorityOrder[a.priority], priorityOrder[b.priority]; pa != pb {
			return pa < pb
		}
		return rankOf(typeOrder, a.Type) < rankOf(typeOrder, b.Type)
	})
}

func dedupKey(it CombinedItem) string {
	var date string
	if it.Date != nil {
		date = strconv.FormatInt(it.Date.Unix(), 10)
	}
	return strings.Join([]string{it.CourseID, string(it.Type), strings.ToLower(strings.TrimSpace(it.Title)), date}, "\x1f")
}

// detectedPrefix marks items built from AI-detected events rather than platform records.
const detectedPrefix = "detected-"

// Dedup drops repeated IDs, keeping the first. Detected items are also dropped
// when an earlier item shares their (course, type, title, date); platform
// records never are.
func Dedup(items []CombinedItem) []CombinedItem {
	seenIDs := make(map[string]struct{}, len(items))
	seenKeys := make(map[string]struct{}, len(items))
	out := items[:0:0]
	for _, it := range items {
		if it.ID != "" {
			if _, ok := seenIDs[it.ID]; ok {
				continue
			}
		}
		key := dedupKey(it)
		if strings.HasPrefix(it.ID, detectedPrefix) {
			if _, ok := seenKeys[key]; ok {
				continue
			}
		}
		if it.ID != "" {
			seenIDs[it.ID] = struct{}{}
		}
		seenKeys[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Finalize dedups, ranks and sorts a freshly built list.
func Finalize(items []CombinedItem, now time.Time) []CombinedItem {
	ranked := Rank(Dedup(items), now)
	Sort(ranked)
	return ranked
}
