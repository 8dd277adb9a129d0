package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Expression kinds
const (
	ExprTypeInterval = "interval"
	ExprTypeDaily    = "daily"
)

// MinInterval is the shortest accepted interval.
const MinInterval = time.Second

// ParsedExpression is a parsed schedule expression.
type ParsedExpression struct {
	Type     string
	Interval time.Duration // interval
	Hour     int           // daily
	Minute   int           // daily
}

var (
	intervalRegex = regexp.MustCompile(`^every\s+(\d+)\s*(s|m|h|d|seconds?|minutes?|hours?|days?)$`)
	dailyRegex    = regexp.MustCompile(`^daily\s+at\s+(\d{1,2}):(\d{2})$`)
)

// ParseExpression parses "every <n><unit>" or "daily at HH:MM".
func ParseExpression(expr string) (*ParsedExpression, error) {
	expr = strings.TrimSpace(strings.ToLower(expr))

	if m := intervalRegex.FindStringSubmatch(expr); m != nil {
		value, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid interval: %s", m[1])
		}
		var unit time.Duration
		switch m[2][0] {
		case 's':
			unit = time.Second
		case 'm':
			unit = time.Minute
		case 'h':
			unit = time.Hour
		case 'd':
			unit = 24 * time.Hour
		}
		d := time.Duration(value) * unit
		if d < MinInterval {
			return nil, fmt.Errorf("interval must be at least %s", MinInterval)
		}
		return &ParsedExpression{Type: ExprTypeInterval, Interval: d}, nil
	}

	if m := dailyRegex.FindStringSubmatch(expr); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return nil, fmt.Errorf("invalid time: %s:%s", m[1], m[2])
		}
		return &ParsedExpression{Type: ExprTypeDaily, Hour: hour, Minute: minute}, nil
	}

	return nil, fmt.Errorf("unrecognized schedule expression: %q", expr)
}

// NextRun returns the first run time strictly after from.
func (p *ParsedExpression) NextRun(from time.Time) time.Time {
	switch p.Type {
	case ExprTypeDaily:
		next := time.Date(from.Year(), from.Month(), from.Day(), p.Hour, p.Minute, 0, 0, from.Location())
		if !next.After(from) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	default:
		return from.Add(p.Interval)
	}
}

// String renders the expression in canonical form.
func (p *ParsedExpression) String() string {
	if p.Type == ExprTypeDaily {
		return fmt.Sprintf("daily at %02d:%02d", p.Hour, p.Minute)
	}
	return "every " + FormatDuration(p.Interval)
}

// FormatDuration formats a duration with its largest whole unit.
func FormatDuration(d time.Duration) string {
	switch {
	case d%(24*time.Hour) == 0 && d >= 24*time.Hour:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d%time.Hour == 0 && d >= time.Hour:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0 && d >= time.Minute:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}
