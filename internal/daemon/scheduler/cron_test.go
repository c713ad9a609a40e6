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
	"testing"
	"time"
)

func TestParseCron(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"daily at six", "0 6 * * *", false},
		{"every 15 minutes", "*/15 * * * *", false},
		{"weekday mornings", "0 9 * * 1-5", false},
		{"comma list", "0,30 6,18 * * *", false},
		{"range with step", "0-30/10 * * * *", false},
		{"hourly alias", "@hourly", false},
		{"daily alias", "@daily", false},
		{"weekly alias", "@weekly", false},
		{"monthly alias", "@monthly", false},
		{"yearly alias", "@yearly", false},
		{"too few fields", "0 6 * *", true},
		{"too many fields", "0 6 * * * *", true},
		{"minute out of range", "60 * * * *", true},
		{"hour out of range", "0 24 * * *", true},
		{"month out of range", "0 0 1 13 *", true},
		{"garbage", "not a cron", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCron(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCron(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestCronExpr_Next(t *testing.T) {
	tests := []struct {
		name string
		expr string
		from time.Time
		want time.Time
	}{
		{
			name: "daily at six, before six",
			expr: "0 6 * * *",
			from: time.Date(2025, 3, 10, 4, 30, 0, 0, time.UTC),
			want: time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "daily at six, after six rolls to tomorrow",
			expr: "0 6 * * *",
			from: time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at fire time advances to next",
			expr: "0 6 * * *",
			from: time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "every 15 minutes",
			expr: "*/15 * * * *",
			from: time.Date(2025, 3, 10, 10, 7, 0, 0, time.UTC),
			want: time.Date(2025, 3, 10, 10, 15, 0, 0, time.UTC),
		},
		{
			name: "weekdays only skips weekend",
			expr: "0 9 * * 1-5",
			from: time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC), // Saturday
			want: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), // Monday
		},
		{
			name: "monthly on the first",
			expr: "0 0 1 * *",
			from: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			want: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "year rollover",
			expr: "0 0 1 1 *",
			from: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseCron(tt.expr)
			if err != nil {
				t.Fatalf("ParseCron(%q) error = %v", tt.expr, err)
			}
			got := expr.Next(tt.from)
			if !got.Equal(tt.want) {
				t.Errorf("Next(%v) = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestCronExpr_Next_Timezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}

	expr, err := ParseCron("0 6 * * *")
	if err != nil {
		t.Fatalf("ParseCron() error = %v", err)
	}

	from := time.Date(2025, 3, 10, 3, 0, 0, 0, loc)
	next := expr.Next(from)

	if next.Hour() != 6 || next.Minute() != 0 {
		t.Errorf("Next() = %v, want 06:00 local", next)
	}
	if next.Location() != loc {
		t.Errorf("Next() location = %v, want %v", next.Location(), loc)
	}
}
