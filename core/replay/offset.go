package replay

import (
	"errors"
	"fmt"
	"time"
)

// ErrMisalignedOffset is returned when shifting a record changes its weekday
// or its hour.
var ErrMisalignedOffset = errors.New("offset does not preserve weekday and hour")

// Offset is a whole number of days added to every record of a batch run.
type Offset struct {
	Days int
}

// Apply shifts t by o using calendar arithmetic, keeping the wall-clock time.
func (o Offset) Apply(t time.Time) time.Time {
	if o.Days == 0 {
		return t
	}
	return t.AddDate(0, 0, o.Days)
}

// Check verifies that shifted kept the weekday and hour of orig.
func (o Offset) Check(orig, shifted time.Time) error {
	if orig.Weekday() != shifted.Weekday() || orig.Hour() != shifted.Hour() {
		return fmt.Errorf("%w: %d days moves %s to %s", ErrMisalignedOffset, o.Days,
			orig.Format("Mon 15:04"), shifted.Format("Mon 15:04"))
	}
	return nil
}

func (o Offset) String() string { return fmt.Sprintf("%dd", o.Days) }
