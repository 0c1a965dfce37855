package date

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Clock is a time of day with minute granularity. Statements rarely print
// seconds and when they do, they are dropped.
type Clock struct {
	h, m int
}

// NewClock returns the Clock for hour and minute. It panics if they are out of range.
func NewClock(hour, minute int) Clock {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		panic(fmt.Sprintf("invalid clock %02d:%02d", hour, minute))
	}
	return Clock{hour, minute}
}

func (c Clock) Hour() int      { return c.h }
func (c Clock) Minute() int    { return c.m }
func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.h, c.m) }

// clockLayouts are tried in order by ParseClock.
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"15.04",
	"15.04.05",
	"3:04 PM",
	"3:04:05 PM",
	"3:04PM",
}

// ParseClock parses a time of day such as "09:05", "09:05:31", "9.05" or "9:05 AM".
func ParseClock(value string) (Clock, error) {
	value = strings.TrimSpace(value)
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return Clock{t.Hour(), t.Minute()}, nil
		}
	}
	return Clock{}, fmt.Errorf("invalid time of day %q", value)
}

// DateTime is a day with an optional time of day. When the statement does not
// print a time, the clock is midnight.
type DateTime struct {
	Date
	Clock
}

// At returns the DateTime for day d at clock c.
func At(d Date, c Clock) DateTime { return DateTime{d, c} }

// String formats the DateTime as "2006-01-02T15:04".
func (dt DateTime) String() string { return dt.Date.String() + "T" + dt.Clock.String() }

// Before reports whether dt is strictly before x.
func (dt DateTime) Before(x DateTime) bool {
	if dt.Date != x.Date {
		return dt.Date.Before(x.Date)
	}
	if dt.Clock.h != x.Clock.h {
		return dt.Clock.h < x.Clock.h
	}
	return dt.Clock.m < x.Clock.m
}

// ParseDateTime parses the String format of a DateTime.
func ParseDateTime(str string) (DateTime, error) {
	day, clock, found := strings.Cut(str, "T")
	d, err := Parse(day)
	if err != nil {
		return DateTime{}, err
	}
	if !found {
		return DateTime{Date: d}, nil
	}
	c, err := ParseClock(clock)
	if err != nil {
		return DateTime{}, err
	}
	return DateTime{d, c}, nil
}

func (dt DateTime) MarshalJSON() ([]byte, error) {
	str := dt.String()
	return json.Marshal(&str)
}

func (dt *DateTime) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	v, err := ParseDateTime(str)
	if err != nil {
		return err
	}
	*dt = v
	return nil
}
