package converter

import (
	"cmp"
	"slices"
	"sort"
)

// Timed is an item positioned at an absolute time in milliseconds
type Timed interface {
	At() int
}

// Timeline collects timed items and keeps track of whether they arrived in order
type Timeline[T Timed] struct {
	items  []T
	sorted bool
}

// NewTimeline creates an empty timeline
func NewTimeline[T Timed]() *Timeline[T] {
	return &Timeline[T]{sorted: true}
}

// Add appends an item
func (t *Timeline[T]) Add(item T) {
	if n := len(t.items); n > 0 && t.items[n-1].At() > item.At() {
		t.sorted = false
	}
	t.items = append(t.items, item)
}

// AddSorted inserts an item after every item at or before its time.
// Use it on a timeline that is sorted to keep it that way.
func (t *Timeline[T]) AddSorted(item T) {
	idx := sort.Search(len(t.items), func(i int) bool { return t.items[i].At() > item.At() })
	t.items = slices.Insert(t.items, idx, item)
}

// Sort orders the items by time, keeping the insertion order of equal times
func (t *Timeline[T]) Sort() {
	if t.sorted {
		return
	}
	slices.SortStableFunc(t.items, func(a, b T) int { return cmp.Compare(a.At(), b.At()) })
	t.sorted = true
}

// Sorted reports whether the items are known to be in time order
func (t *Timeline[T]) Sorted() bool {
	return t.sorted
}

// Items returns the items in their current order
func (t *Timeline[T]) Items() []T {
	return t.items
}

// Len returns the number of items
func (t *Timeline[T]) Len() int {
	return len(t.items)
}

// NoteEvent is one hit object endpoint
type NoteEvent struct {
	Time  int
	Lane  int
	Key   Key
	Sound KeySound
}

func (e NoteEvent) At() int { return e.Time }

// TimingEvent is one timing change
type TimingEvent struct {
	Time   int
	Change TimingChange
}

func (e TimingEvent) At() int { return e.Time }

// MaterializeHitObjects groups note events sharing a time into rows of
// keyCount lanes and appends them to h. Events in lanes outside the row
// are ignored. Row beats are measured from start under bpms.
func MaterializeHitObjects(tl *Timeline[NoteEvent], h *HitObjects, keyCount, start int, bpms []BPMChange) error {
	tl.Sort()
	items := tl.Items()

	for i := 0; i < len(items); {
		time := items[i].Time
		row := NewRow(keyCount)
		var sounds []KeySound

		for ; i < len(items) && items[i].Time == time; i++ {
			event := items[i]
			if event.Lane < 0 || event.Lane >= keyCount {
				continue
			}
			if !applyKey(row, event.Lane, event.Key) {
				continue
			}
			if !event.Sound.IsDefault() {
				if sounds == nil {
					sounds = make([]KeySound, keyCount)
					for lane := range sounds {
						sounds[lane] = DefaultKeySound
					}
				}
				sounds[event.Lane] = event.Sound
			}
		}

		beat, err := TimeToBeat(time, start, bpms)
		if err != nil {
			return err
		}
		h.AddRow(time, beat, row, sounds)
	}

	return nil
}

// applyKey writes key into a lane. A slider start is never overwritten by
// a later key in the same row.
func applyKey(row Row, lane int, key Key) bool {
	if key.Type != KeySliderStart && row[lane].Type == KeySliderStart {
		return false
	}
	row[lane] = key
	return true
}

// MaterializeTimingPoints sorts timing events and appends them to tp with
// beats measured from start under the BPM events of the timeline
func MaterializeTimingPoints(tl *Timeline[TimingEvent], tp *TimingPoints, start int) error {
	tl.Sort()

	var bpms []BPMChange
	for _, event := range tl.Items() {
		if event.Change.Kind == ChangeBPM {
			bpms = append(bpms, BPMChange{Time: event.Time, BPM: event.Change.Value})
		}
	}

	for _, event := range tl.Items() {
		beat, err := TimeToBeat(event.Time, start, bpms)
		if err != nil {
			return err
		}
		tp.Add(event.Time, beat, event.Change)
	}

	return nil
}
