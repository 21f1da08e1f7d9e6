package replay

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestOffsetPreservesWeekdayAndHourForWholeWeeks(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	ref := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2000; i++ {
		ts := ref.Add(time.Duration(rnd.Int63n(int64(5 * 365 * day))))
		days := rnd.Intn(2*3650) - 3650
		off := Offset{Days: days}
		shifted := off.Apply(ts)

		err := off.Check(ts, shifted)
		if days%7 == 0 {
			if err != nil {
				t.Fatalf("offset %d on %s rejected: %v", days, ts, err)
			}
			if ts.Weekday() != shifted.Weekday() || ts.Hour() != shifted.Hour() {
				t.Fatalf("offset %d on %s changed weekday or hour", days, ts)
			}
			continue
		}
		if !errors.Is(err, ErrMisalignedOffset) {
			t.Fatalf("offset %d on %s accepted", days, ts)
		}
	}
}

func TestOffsetApplyKeepsWallClock(t *testing.T) {
	ts := time.Date(2024, 3, 30, 2, 30, 0, 0, time.UTC)
	got := Offset{Days: 7}.Apply(ts)
	if got.Hour() != 2 || got.Minute() != 30 || got.Day() != 6 {
		t.Fatalf("unexpected %s", got)
	}
	if got := (Offset{}).Apply(ts); !got.Equal(ts) {
		t.Fatal("zero offset moved the timestamp")
	}
}
