package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventIndex_OutOfOrderInsert(t *testing.T) {
	x := newEventIndex()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, offset := range []int{0, 10, 5, 1} {
		x.add(&Event{ID: time.Duration(offset).String(), Type: LoginFailed, Timestamp: base.Add(time.Duration(offset) * time.Minute), Details: Details{IP: "a"}})
	}

	got := x.window(LoginFailed, byIP, "a", base.Add(10*time.Minute), 15*time.Minute)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Timestamp.Before(got[i-1].Timestamp))
	}
}

func TestEventIndex_WindowBounds(t *testing.T) {
	x := newEventIndex()
	now := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	x.add(&Event{Type: LoginFailed, Timestamp: now.Add(-15 * time.Minute), Details: Details{IP: "a"}})
	x.add(&Event{Type: LoginFailed, Timestamp: now.Add(-15*time.Minute - time.Second), Details: Details{IP: "a"}})
	x.add(&Event{Type: LoginFailed, Timestamp: now.Add(time.Second), Details: Details{IP: "a"}})
	x.add(&Event{Type: LoginFailed, Timestamp: now, Details: Details{IP: "b"}})

	got := x.window(LoginFailed, byIP, "a", now, 15*time.Minute)
	assert.Len(t, got, 1)
}

func TestEventIndex_Evict(t *testing.T) {
	x := newEventIndex()
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	x.add(&Event{Type: LoginFailed, Timestamp: now.Add(-8 * 24 * time.Hour)})
	x.add(&Event{Type: LoginSuccess, Timestamp: now.Add(-8 * 24 * time.Hour)})
	x.add(&Event{Type: LoginSuccess, Timestamp: now})

	assert.Equal(t, 2, x.evictBefore(now.Add(-7*24*time.Hour)))
	assert.Equal(t, 1, x.size())
	assert.Equal(t, map[EventType]int{LoginSuccess: 1}, x.countSince(now.Add(-time.Hour), nil))
}

func TestSeverityFor(t *testing.T) {
	cases := map[EventType]Severity{
		LoginSuccess:               SeverityInfo,
		PasswordResetRequest:       SeverityLow,
		LoginFailed:                SeverityMedium,
		CSRFTokenInvalid:           SeverityHigh,
		PrivilegeEscalationAttempt: SeverityCritical,
	}
	for typ, want := range cases {
		assert.Equal(t, want, SeverityFor(typ), typ)
	}
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))
	assert.Equal(t, SeverityHigh, maxSeverity(SeverityMedium, SeverityHigh))
}

func TestMemoryBlockList(t *testing.T) {
	clock := newFakeClock()
	l := NewMemoryBlockList(clock)
	ctx := context.Background()
	expires := clock.Now().Add(time.Minute)

	added, err := l.Add(ctx, Block{IP: "1.1.1.1", BlockedAt: clock.Now(), ExpiresAt: &expires})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = l.Add(ctx, Block{IP: "1.1.1.1", BlockedAt: clock.Now()})
	require.NoError(t, err)
	assert.False(t, added)

	clock.Advance(time.Minute)
	blocked, err := l.IsBlocked(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.False(t, blocked)

	list, err := l.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	added, err = l.Add(ctx, Block{IP: "1.1.1.1", BlockedAt: clock.Now()})
	require.NoError(t, err)
	assert.True(t, added)
	require.NoError(t, l.Remove(ctx, "1.1.1.1"))
	require.NoError(t, l.Remove(ctx, "1.1.1.1"))
}
