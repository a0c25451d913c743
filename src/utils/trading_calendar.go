package utils

import (
	"log"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar calculates trading days using scmhub/calendar.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// isBareAShareCode matches the six-digit codes used by the A-share
// providers (no exchange suffix).
func isBareAShareCode(symbol string) bool {
	if len(symbol) != 6 {
		return false
	}
	for _, r := range symbol {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------

func GetCalendar(symbol string) *TradingCalendar {
	// Suffix to MIC code mapping (ISO 10383); see scmhub/calendar for the
	// supported MICs.
	mic := "xnys" // Default US NYSE
	if isBareAShareCode(symbol) {
		if strings.HasPrefix(symbol, "6") {
			mic = "xshg"
		} else {
			mic = "xshe"
		}
	} else if strings.HasSuffix(symbol, ".SS") {
		mic = "xshg"
	} else if strings.HasSuffix(symbol, ".SZ") {
		mic = "xshe"
	} else if strings.HasSuffix(symbol, ".HK") {
		mic = "xhkg"
	} else if strings.HasSuffix(symbol, ".T") {
		mic = "xtks"
	} else if strings.HasSuffix(symbol, ".L") {
		mic = "xlon"
	} else if strings.HasSuffix(symbol, ".PA") {
		mic = "xpar"
	} else if strings.HasSuffix(symbol, ".DE") {
		mic = "xfra"
	} else if strings.HasSuffix(symbol, ".TO") {
		mic = "xtse"
	} else if strings.HasSuffix(symbol, ".AX") {
		mic = "xasx"
	} else if strings.HasSuffix(symbol, ".KS") {
		mic = "xkrx"
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		log.Printf("WARNING: Failed to load calendar for MIC '%s' and fallback 'xnys'. Using simple fallback (Mon-Fri).", mic)
		return &TradingCalendar{Fallback: true, Timezone: time.UTC}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}

		hour := t.Hour()
		minute := t.Minute()

		// 9:30 - 16:00
		if (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16 {
			return true
		}
		return false
	}

	return tc.Calendar.IsOpen(t)
}
