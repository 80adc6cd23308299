package security

import (
	"sort"
	"time"
)

// eventIndex keeps recent events per type in ascending timestamp order.
// It is not safe for concurrent use; Monitor guards it.
type eventIndex struct {
	byType map[EventType][]*Event
}

func newEventIndex() *eventIndex {
	return &eventIndex{byType: make(map[EventType][]*Event)}
}

func (x *eventIndex) add(e *Event) {
	events := x.byType[e.Type]
	n := len(events)
	if n == 0 || !e.Timestamp.Before(events[n-1].Timestamp) {
		x.byType[e.Type] = append(events, e)
		return
	}
	i := sort.Search(n, func(i int) bool { return events[i].Timestamp.After(e.Timestamp) })
	events = append(events, nil)
	copy(events[i+1:], events[i:])
	events[i] = e
	x.byType[e.Type] = events
}

// window returns the events of type t whose key matches and whose age at now
// is within w, oldest first.
func (x *eventIndex) window(t EventType, key keyFunc, identity string, now time.Time, w time.Duration) []*Event {
	events := x.byType[t]
	since := now.Add(-w)
	start := sort.Search(len(events), func(i int) bool { return !events[i].Timestamp.Before(since) })
	var out []*Event
	for _, e := range events[start:] {
		if e.Timestamp.After(now) {
			break
		}
		if key(e.Details) == identity {
			out = append(out, e)
		}
	}
	return out
}

// countSince counts events per type with a timestamp at or after since.
func (x *eventIndex) countSince(since time.Time, filter func(*Event) bool) map[EventType]int {
	counts := make(map[EventType]int)
	for t, events := range x.byType {
		start := sort.Search(len(events), func(i int) bool { return !events[i].Timestamp.Before(since) })
		for _, e := range events[start:] {
			if filter == nil || filter(e) {
				counts[t]++
			}
		}
	}
	return counts
}

// evictBefore drops events older than cutoff and returns how many went.
func (x *eventIndex) evictBefore(cutoff time.Time) int {
	removed := 0
	for t, events := range x.byType {
		i := sort.Search(len(events), func(i int) bool { return !events[i].Timestamp.Before(cutoff) })
		if i == 0 {
			continue
		}
		removed += i
		if i == len(events) {
			delete(x.byType, t)
			continue
		}
		x.byType[t] = append([]*Event(nil), events[i:]...)
	}
	return removed
}

func (x *eventIndex) size() int {
	n := 0
	for _, events := range x.byType {
		n += len(events)
	}
	return n
}
