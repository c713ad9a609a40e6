// Copyright 2025 Mediaforge Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// fieldSet is a bitmask over the admissible values of one cron field. Bit v
// set means value v matches. The widest field (minute) needs 60 bits.
type fieldSet uint64

func (s fieldSet) has(v int) bool { return s&(1<<uint(v)) != 0 }

// cronFields defines the five fields in order, with their value bounds.
var cronFields = [5]struct {
	name     string
	min, max int
}{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 6}, // 0 = Sunday
}

// cronAliases maps the @-shorthands onto their five-field equivalents.
var cronAliases = map[string]string{
	"@hourly":   "0 * * * *",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@weekly":   "0 0 * * 0",
	"@monthly":  "0 0 1 * *",
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
}

// CronExpr is a parsed five-field cron schedule. The scheduler's default
// "0 6 * * *" fires once a day at 06:00 local time.
type CronExpr struct {
	minute fieldSet
	hour   fieldSet
	dom    fieldSet
	month  fieldSet
	dow    fieldSet
}

// ParseCron parses a schedule in minute/hour/day-of-month/month/day-of-week
// order. Each field accepts "*", single values, ranges, steps, and
// comma-separated combinations of those; @-aliases such as "@daily" are
// accepted too.
func ParseCron(expr string) (*CronExpr, error) {
	if alias, ok := cronAliases[strings.ToLower(strings.TrimSpace(expr))]; ok {
		expr = alias
	}

	fields := strings.Fields(expr)
	if len(fields) != len(cronFields) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(cronFields), len(fields))
	}

	var sets [5]fieldSet
	for i, raw := range fields {
		spec := cronFields[i]
		set, err := parseField(raw, spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field %q: %w", spec.name, raw, err)
		}
		sets[i] = set
	}

	return &CronExpr{
		minute: sets[0],
		hour:   sets[1],
		dom:    sets[2],
		month:  sets[3],
		dow:    sets[4],
	}, nil
}

// parseField accumulates one field's comma-separated terms into a bitmask.
// Each term is "*", "v", "lo-hi", optionally followed by "/step".
func parseField(field string, min, max int) (fieldSet, error) {
	var set fieldSet
	for _, term := range strings.Split(field, ",") {
		lo, hi, step := min, max, 1

		if i := strings.IndexByte(term, '/'); i >= 0 {
			n, err := strconv.Atoi(term[i+1:])
			if err != nil || n <= 0 {
				return 0, fmt.Errorf("bad step %q", term[i+1:])
			}
			step = n
			term = term[:i]
		}

		if term != "*" {
			var err error
			if i := strings.IndexByte(term, '-'); i >= 0 {
				if lo, err = boundedAtoi(term[:i], min, max); err != nil {
					return 0, err
				}
				if hi, err = boundedAtoi(term[i+1:], min, max); err != nil {
					return 0, err
				}
				if lo > hi {
					return 0, fmt.Errorf("descending range %d-%d", lo, hi)
				}
			} else {
				if lo, err = boundedAtoi(term, min, max); err != nil {
					return 0, err
				}
				hi = lo
			}
		}

		for v := lo; v <= hi; v += step {
			set |= 1 << uint(v)
		}
	}
	return set, nil
}

func boundedAtoi(s string, min, max int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", s)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("value %d outside %d-%d", v, min, max)
	}
	return v, nil
}

// Next returns the first matching minute strictly after from, in from's
// location. Non-matching months and days are skipped whole rather than
// minute by minute, so even sparse schedules resolve quickly. The zero time
// is returned if nothing matches within four years, which only happens for
// impossible date combinations such as February 30th.
func (c *CronExpr) Next(from time.Time) time.Time {
	t := from.Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(4, 0, 0)

	for t.Before(limit) {
		switch {
		case !c.month.has(int(t.Month())):
			t = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
		case !c.dayMatches(t):
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
		case !c.hour.has(t.Hour()):
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
		case !c.minute.has(t.Minute()):
			t = t.Add(time.Minute)
		default:
			return t
		}
	}
	return time.Time{}
}

// dayMatches requires both day constraints: a schedule restricting the
// weekday leaves day-of-month at "*" (every bit set) and vice versa.
func (c *CronExpr) dayMatches(t time.Time) bool {
	return c.dom.has(t.Day()) && c.dow.has(int(t.Weekday()))
}
