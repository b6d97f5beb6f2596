package calendar

import (
	"time"

	"github.com/warp/workhours/generic"
)

// Easter returns Easter Sunday of the given Gregorian year using the anonymous
// Gregorian algorithm (Meeus/Jones/Butcher). It is exact for every year after 1582.
func Easter(year int) generic.TimePoint {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	n := h + l - 7*m + 114

	return generic.NewTimePoint(year, time.Month(n/31), n%31+1)
}
