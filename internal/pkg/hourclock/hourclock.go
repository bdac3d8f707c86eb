// Package hourclock converts between the "H:MM AM/PM" display format shown in
// clients and the "HH:MM:SS" 24-hour wire format stored and compared by the
// booking workflow. Wire strings are fixed-width, so lexicographic comparison
// matches chronological order.
package hourclock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrParse        = errors.New("malformed time string")
	ErrInvalidHours = errors.New("hours must be non-negative")
	ErrPastMidnight = errors.New("time arithmetic crosses midnight")
)

// ToWire parses a display time such as "6:00 PM" into "18:00:00".
func ToWire(display string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(display))
	if len(fields) != 2 {
		return "", fmt.Errorf("%w: %q", ErrParse, display)
	}

	meridiem := strings.ToUpper(fields[1])
	if meridiem != "AM" && meridiem != "PM" {
		return "", fmt.Errorf("%w: %q", ErrParse, display)
	}

	hour, minute, err := splitClock(fields[0])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrParse, display)
	}
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: %q", ErrParse, display)
	}

	if meridiem == "AM" && hour == 12 {
		hour = 0
	} else if meridiem == "PM" && hour != 12 {
		hour += 12
	}

	return fmt.Sprintf("%02d:%02d:00", hour, minute), nil
}

// ToDisplay converts a wire time such as "18:00:00" into "6:00 PM".
func ToDisplay(wire string) (string, error) {
	hour, minute, err := ParseWire(wire)
	if err != nil {
		return "", err
	}

	meridiem := "AM"
	displayHour := hour
	switch {
	case hour == 0:
		displayHour = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		displayHour = hour - 12
		meridiem = "PM"
	}

	return fmt.Sprintf("%d:%02d %s", displayHour, minute, meridiem), nil
}

// AddHours returns wire shifted forward by whole hours. Results that would
// cross midnight are rejected; bookings never span calendar days.
func AddHours(wire string, hours int) (string, error) {
	if hours < 0 {
		return "", ErrInvalidHours
	}

	hour, minute, err := ParseWire(wire)
	if err != nil {
		return "", err
	}

	hour += hours
	if hour > 23 {
		return "", ErrPastMidnight
	}

	return fmt.Sprintf("%02d:%02d:00", hour, minute), nil
}

// ParseWire validates an "HH:MM:SS" string and returns its hour and minute.
func ParseWire(wire string) (hour, minute int, err error) {
	if len(wire) != 8 || wire[2] != ':' || wire[5] != ':' {
		return 0, 0, fmt.Errorf("%w: %q", ErrParse, wire)
	}

	hour, err = strconv.Atoi(wire[0:2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrParse, wire)
	}
	minute, err = strconv.Atoi(wire[3:5])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrParse, wire)
	}
	second, secErr := strconv.Atoi(wire[6:8])
	if secErr != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrParse, wire)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrParse, wire)
	}

	return hour, minute, nil
}

func splitClock(clock string) (hour, minute int, err error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 || len(parts[1]) != 2 {
		return 0, 0, ErrParse
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, ErrParse
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, ErrParse
	}
	return hour, minute, nil
}
