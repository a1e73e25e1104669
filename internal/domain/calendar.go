package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date — календарная дата без времени и часового пояса.
// Хранится в БД как DATE ("2006-01-02").
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// dateLayout — формат даты в API и БД.
const dateLayout = "2006-01-02"

// ParseDate парсит дату в формате YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf возвращает дату момента t в его часовом поясе.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero возвращает true для незаданной даты.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String возвращает дату в формате YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// At возвращает момент времени tod в день d в часовом поясе loc.
func (d Date) At(tod TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, tod.Hour, tod.Minute, tod.Second, 0, loc)
}

// Long возвращает дату для писем: "Monday, March 10, 2025".
func (d Date) Long() string {
	return d.At(TimeOfDay{}, time.UTC).Format("Monday, January 2, 2006")
}

// MarshalJSON сериализует дату строкой YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON парсит дату из строки YYYY-MM-DD.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay — время суток без даты.
// Хранится в БД как TIME ("15:04:05").
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay парсит время в формате HH:MM или HH:MM:SS.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: expected HH:MM", s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, p := range parts {
		// Postgres может вернуть дробные секунды: "09:00:00.000"
		if i == 2 {
			p, _, _ = strings.Cut(p, ".")
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return TimeOfDay{}, fmt.Errorf("parse time of day %q: invalid component %q", s, p)
		}
		values[i] = n
	}

	return TimeOfDay{Hour: values[0], Minute: values[1], Second: values[2]}, nil
}

// Minutes возвращает количество минут от полуночи.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before сравнивает время суток.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	if t.Minutes() != other.Minutes() {
		return t.Minutes() < other.Minutes()
	}
	return t.Second < other.Second
}

// String возвращает время в формате HH:MM (или HH:MM:SS, если заданы секунды).
func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Clock12 возвращает время в 12-часовом формате: "9:00 AM".
func (t TimeOfDay) Clock12() string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format("3:04 PM")
}

// MarshalJSON сериализует время строкой HH:MM.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON парсит время из строки HH:MM[:SS].
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
