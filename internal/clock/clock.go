// Package clock абстрагирует текущее время, чтобы расчёт напоминаний
// и окна диспетчера был детерминированным в тестах.
package clock

import "time"

// Clock возвращает текущее время.
type Clock interface {
	Now() time.Time
}

// System — системные часы (UTC).
type System struct{}

// Now возвращает текущее время в UTC.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed — часы, всегда возвращающие один и тот же момент.
type Fixed time.Time

// Now возвращает зафиксированный момент.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
