package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Schedule is the trainer's fixed weekly offering: the ordered daily slot
// list, the weekdays the business operates on, an optional earliest bookable
// date, and the business time zone. It is built once at startup and never
// mutated afterwards.
type Schedule struct {
	slots     []TimeOfDay
	weekdays  map[time.Weekday]bool
	startDate Date
	location  *time.Location
}

// NewSchedule parses the configured slot list ("HH:MM" values), allowed
// weekday names, optional start date ("YYYY-MM-DD", empty for none) and IANA
// time zone name into an immutable Schedule.
func NewSchedule(slots, weekdays []string, startDate, timezone string) (Schedule, error) {
	if len(slots) == 0 {
		return Schedule{}, errors.New("at least one daily slot is required")
	}
	if len(weekdays) == 0 {
		return Schedule{}, errors.New("at least one allowed weekday is required")
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	parsedSlots := make([]TimeOfDay, 0, len(slots))
	seen := make(map[TimeOfDay]struct{}, len(slots))
	for _, s := range slots {
		t, err := ParseTimeOfDay(s)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid slot: %w", err)
		}
		if _, ok := seen[t]; ok {
			return Schedule{}, fmt.Errorf("duplicate slot %q", t)
		}
		seen[t] = struct{}{}
		parsedSlots = append(parsedSlots, t)
	}

	allowed := make(map[time.Weekday]bool, len(weekdays))
	for _, w := range weekdays {
		wd, err := parseWeekday(w)
		if err != nil {
			return Schedule{}, err
		}
		allowed[wd] = true
	}

	var start Date
	if strings.TrimSpace(startDate) != "" {
		start, err = ParseDate(startDate)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid start date: %w", err)
		}
	}

	return Schedule{
		slots:     parsedSlots,
		weekdays:  allowed,
		startDate: start,
		location:  loc,
	}, nil
}

func (s Schedule) Location() *time.Location {
	return s.location
}

// Today is the current business-local calendar date.
func (s Schedule) Today(now time.Time) Date {
	return DateOf(now.In(s.location))
}

// OpenSlots computes the bookable times for date, in configured order.
// booked holds the times already taken on that date; now anchors the
// "today" and same-day cutoff decisions.
func (s Schedule) OpenSlots(date Date, booked []TimeOfDay, now time.Time) []TimeOfDay {
	if !s.startDate.IsZero() && date.Before(s.startDate) {
		return nil
	}
	if !s.weekdays[date.Weekday()] {
		return nil
	}
	today := s.Today(now)
	if date.Before(today) {
		return nil
	}

	taken := make(map[TimeOfDay]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}

	localNow := now.In(s.location)
	cutoff := TimeOfDay{Hour: localNow.Hour(), Minute: localNow.Minute()}

	open := make([]TimeOfDay, 0, len(s.slots))
	for _, slot := range s.slots {
		if _, ok := taken[slot]; ok {
			continue
		}
		if date.Equal(today) && !slot.After(cutoff) {
			continue
		}
		open = append(open, slot)
	}
	return open
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	case "sun", "sunday":
		return time.Sunday, nil
	default:
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
}
