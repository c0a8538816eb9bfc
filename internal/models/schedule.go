package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Day indexes the seven schedule slots, Monday first.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var (
	dayKeys   = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	dayLabels = [7]string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu", "Minggu"}
)

// ClosedLabel marks a closed day in the week view.
const ClosedLabel = "Tutup"

// Key returns the lowercase English day name used as the JSON key.
func (d Day) Key() string { return dayKeys[d] }

// Label returns the Indonesian day label used in the week view.
func (d Day) Label() string { return dayLabels[d] }

// DayOf maps a time.Weekday onto the Monday-first index.
func DayOf(w time.Weekday) Day {
	return Day((int(w) + 6) % 7)
}

// ParseDay resolves a day key, case-insensitively.
func ParseDay(key string) (Day, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for i, k := range dayKeys {
		if k == key {
			return Day(i), true
		}
	}
	return 0, false
}

// TimeOfDay is a wall-clock time stored as minutes after midnight and serialised as "HH:MM".
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" (or "H:MM") in 24-hour notation.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// MustTimeOfDay is ParseTimeOfDay for literals.
func MustTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON implements json.Marshaler.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid time %s, expected \"HH:MM\"", string(data))
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DayHours is one day of a weekly schedule.
type DayHours struct {
	IsOpen    bool       `json:"isOpen"`
	OpenTime  *TimeOfDay `json:"openTime,omitempty"`
	CloseTime *TimeOfDay `json:"closeTime,omitempty"`
}

// UnmarshalJSON reads one day. Times of a closed day are ignored whatever their content,
// and an empty time string on an open day reads as unset so Validate reports it.
func (d *DayHours) UnmarshalJSON(data []byte) error {
	var raw struct {
		IsOpen    bool            `json:"isOpen"`
		OpenTime  json.RawMessage `json:"openTime"`
		CloseTime json.RawMessage `json:"closeTime"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = DayHours{IsOpen: raw.IsOpen}
	if !raw.IsOpen {
		return nil
	}
	var err error
	if d.OpenTime, err = optionalTime(raw.OpenTime); err != nil {
		return err
	}
	d.CloseTime, err = optionalTime(raw.CloseTime)
	return err
}

func optionalTime(data json.RawMessage) (*TimeOfDay, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return nil, nil
	}
	var t TimeOfDay
	if err := t.UnmarshalJSON(trimmed); err != nil {
		return nil, err
	}
	return &t, nil
}

// OpenDay builds an open DayHours from two "HH:MM" literals.
func OpenDay(open, close string) *DayHours {
	o, c := MustTimeOfDay(open), MustTimeOfDay(close)
	return &DayHours{IsOpen: true, OpenTime: &o, CloseTime: &c}
}

// TodayHours is the derived status for the current day.
type TodayHours struct {
	IsOpen    bool       `json:"isOpen"`
	OpenTime  *TimeOfDay `json:"openTime,omitempty"`
	CloseTime *TimeOfDay `json:"closeTime,omitempty"`
}

// WeeklySchedule holds seven optional day slots, Monday first. A nil slot means the day
// was never configured and is treated as closed.
type WeeklySchedule struct {
	Days [7]*DayHours
}

// IsEmpty reports whether no day is configured.
func (w WeeklySchedule) IsEmpty() bool {
	for _, d := range w.Days {
		if d != nil {
			return false
		}
	}
	return true
}

// On resolves the hours for a single day. Only the day's open flag is consulted; the
// current clock time is not compared against the interval.
func (w WeeklySchedule) On(day Day) TodayHours {
	hours := w.Days[day]
	if hours == nil || !hours.IsOpen {
		return TodayHours{IsOpen: false}
	}
	return TodayHours{IsOpen: true, OpenTime: hours.OpenTime, CloseTime: hours.CloseTime}
}

// At resolves the hours for the weekday of now, which must already be in the studio's zone.
func (w WeeklySchedule) At(now time.Time) TodayHours {
	return w.On(DayOf(now.Weekday()))
}

// Validate checks that every open day carries an interval with open before close.
func (w WeeklySchedule) Validate() error {
	for i, hours := range w.Days {
		if hours == nil || !hours.IsOpen {
			continue
		}
		day := Day(i).Key()
		if hours.OpenTime == nil || hours.CloseTime == nil {
			return fmt.Errorf("operatingHours.%s: openTime and closeTime are required when isOpen is true", day)
		}
		if *hours.OpenTime >= *hours.CloseTime {
			return fmt.Errorf("operatingHours.%s: openTime %s must be before closeTime %s", day, hours.OpenTime, hours.CloseTime)
		}
	}
	return nil
}

// MarshalJSON writes the day-keyed object in Monday-first order, omitting unset days.
func (w WeeklySchedule) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for i, hours := range w.Days {
		if hours == nil {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		value, err := json.Marshal(hours)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`"` + dayKeys[i] + `":`)
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the day-keyed object. Unknown keys are rejected; null days stay unset.
func (w *WeeklySchedule) UnmarshalJSON(data []byte) error {
	*w = WeeklySchedule{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw map[string]*DayHours
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("operatingHours: %w", err)
	}
	for key, hours := range raw {
		day, ok := ParseDay(key)
		if !ok {
			return fmt.Errorf("operatingHours: unknown day %q", key)
		}
		w.Days[day] = hours
	}
	return nil
}

// Value stores the schedule as JSON.
func (w WeeklySchedule) Value() (driver.Value, error) {
	data, err := w.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal operating hours: %w", err)
	}
	return data, nil
}

// Scan reads a JSON/JSONB column.
func (w *WeeklySchedule) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*w = WeeklySchedule{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for WeeklySchedule", value)
	}
	if len(data) == 0 {
		*w = WeeklySchedule{}
		return nil
	}
	return w.UnmarshalJSON(data)
}

// WeekEntry is one row of the readable week view.
type WeekEntry struct {
	Label string
	Hours string
}

// WeekView is the readable week schedule, Monday first.
type WeekView []WeekEntry

// View renders "HH:MM - HH:MM" for open days and ClosedLabel otherwise.
func (w WeeklySchedule) View() WeekView {
	view := make(WeekView, 0, len(dayLabels))
	for i, hours := range w.Days {
		entry := WeekEntry{Label: dayLabels[i], Hours: ClosedLabel}
		if hours != nil && hours.IsOpen {
			entry.Hours = fmt.Sprintf("%s - %s", formatOptional(hours.OpenTime), formatOptional(hours.CloseTime))
		}
		view = append(view, entry)
	}
	return view
}

// MarshalJSON keeps the Monday-first order in the emitted object.
func (v WeekView) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Hours)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func formatOptional(t *TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}
