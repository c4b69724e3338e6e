package compare

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"quick-compare/pkg/models"
)

const (
	NotAvailable = "N/A"
	Unavailable  = "Unavailable"
)

// ClockTime is a 12-hour wall clock reading.
type ClockTime struct {
	Hour     int    `json:"hour"`
	Minute   int    `json:"minute"`
	Meridiem string `json:"meridiem"`

	// HourText is the hour exactly as the platform wrote it, e.g. "09".
	HourText string `json:"-"`
}

func (c ClockTime) hourLabel() string {
	if c.HourText != "" {
		return c.HourText
	}
	return strconv.Itoa(c.Hour)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%d:%02d %s", c.Hour, c.Minute, c.Meridiem)
}

// Slot is a delivery window such as "Tomorrow 9:00 AM - 11:00 AM". Start and
// End are nil when only the day could be read.
type Slot struct {
	Day   string     `json:"day"`
	Start *ClockTime `json:"start,omitempty"`
	End   *ClockTime `json:"end,omitempty"`
}

// String renders the slot on two lines: the day, then "9 to 11 AM". Hours
// keep the platform's own formatting, so "09:00" stays "09".
func (s Slot) String() string {
	if s.Start == nil || s.End == nil {
		return s.Day
	}
	return fmt.Sprintf("%s\n%s to %s %s", s.Day, s.Start.hourLabel(), s.End.hourLabel(), s.End.Meridiem)
}

// SlotParser reads a delivery window out of a raw ETA string.
type SlotParser interface {
	ParseSlot(raw string) (Slot, bool)
}

var timeRange = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*([AP]M)\s*-\s*(\d{1,2}):(\d{2})\s*([AP]M)`)

// RegexSlotParser understands "Today"/"Tomorrow" followed by an
// "H:MM AM - H:MM PM" range. "tomorrow" wins when both words appear.
type RegexSlotParser struct{}

func (RegexSlotParser) ParseSlot(raw string) (Slot, bool) {
	lower := strings.ToLower(raw)

	var slot Slot
	switch {
	case strings.Contains(lower, "tomorrow"):
		slot.Day = "Tomorrow"
	case strings.Contains(lower, "today"):
		slot.Day = "Today"
	default:
		return Slot{}, false
	}

	m := timeRange.FindStringSubmatch(raw)
	if m == nil {
		return slot, true
	}
	slot.Start = clock(m[1], m[2], m[3])
	slot.End = clock(m[4], m[5], m[6])
	return slot, true
}

func clock(hour, minute, meridiem string) *ClockTime {
	h, _ := strconv.Atoi(hour)
	mm, _ := strconv.Atoi(minute)
	return &ClockTime{Hour: h, Minute: mm, Meridiem: meridiem, HourText: hour}
}

// DefaultSlotParser is used by FormatETA and SlotFor.
var DefaultSlotParser SlotParser = RegexSlotParser{}

// FormatETA turns a platform's raw ETA into display text. An empty value or
// "N/A" becomes "Unavailable". DMart slots are shortened to the day plus the
// hour range; everything else passes through untouched.
func FormatETA(eta, platform string) string {
	if eta == "" || eta == NotAvailable {
		return Unavailable
	}
	if slot := SlotFor(eta, platform); slot != nil {
		return slot.String()
	}
	return eta
}

// SlotFor returns the structured DMart delivery window, or nil when eta is
// not a DMart slot.
func SlotFor(eta, platform string) *Slot {
	if eta == "" || eta == NotAvailable || models.ParsePlatform(platform) != models.DMart {
		return nil
	}
	slot, ok := DefaultSlotParser.ParseSlot(eta)
	if !ok {
		return nil
	}
	return &slot
}
