package engagement

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestLink_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Link
	}{
		{
			name: "current shape",
			in:   `{"submitter":"alice","date":"2026-10-19","interactions":["bob"],"viewed_by":[]}`,
			want: Link{Submitter: "alice", Date: "2026-10-19", Interactions: []string{"bob"}, ViewedBy: []string{}},
		},
		{
			name: "legacy user key",
			in:   `{"user":"alice","date":"2026-10-19","interactions":[],"viewed_by":[]}`,
			want: Link{Submitter: "alice", Date: "2026-10-19", Interactions: []string{}, ViewedBy: []string{}},
		},
		{
			name: "submitter wins over user",
			in:   `{"submitter":"alice","user":"mallory","date":"2026-10-19"}`,
			want: Link{Submitter: "alice", Date: "2026-10-19", Interactions: []string{}, ViewedBy: []string{}},
		},
		{
			name: "missing lists become empty",
			in:   `{"submitter":"alice","date":"2026-10-19","interactions":null}`,
			want: Link{Submitter: "alice", Date: "2026-10-19", Interactions: []string{}, ViewedBy: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Link
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewLink_EncodesEmptyLists(t *testing.T) {
	body, err := json.Marshal(NewLink("alice", "2026-10-19"))
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}

	want := `{"submitter":"alice","date":"2026-10-19","interactions":[],"viewed_by":[]}`
	if string(body) != want {
		t.Errorf("Marshal() = %s, want %s", body, want)
	}
}

func TestLinks_SubmittedOn(t *testing.T) {
	links := Links{
		"https://x.com/b":   NewLink("bob", "2026-10-19"),
		"https://x.com/a":   NewLink("alice", "2026-10-19"),
		"https://x.com/old": NewLink("carol", "2026-10-18"),
	}

	got := links.SubmittedOn("2026-10-19")
	want := []Submission{
		{URL: "https://x.com/a", Submitter: "alice", Date: "2026-10-19"},
		{URL: "https://x.com/b", Submitter: "bob", Date: "2026-10-19"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SubmittedOn() = %+v, want %+v", got, want)
	}

	if got := links.SubmittedOn("2026-01-01"); len(got) != 0 {
		t.Errorf("SubmittedOn(other day) = %+v, want empty", got)
	}
}

func TestLinks_Leaderboard(t *testing.T) {
	links := Links{
		"l1": {Submitter: "alice", Date: "2026-10-18", Interactions: []string{"bob", "carol", "dave"}},
		"l2": {Submitter: "bob", Date: "2026-10-19", Interactions: []string{"carol", "alice"}},
		"l3": {Submitter: "carol", Date: "2026-10-19", Interactions: []string{"carol"}},
	}

	got := links.Leaderboard()
	want := []Engagement{
		{User: "carol", Count: 3},
		{User: "alice", Count: 1},
		{User: "bob", Count: 1},
		{User: "dave", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Leaderboard() = %+v, want %+v", got, want)
	}

	if got := (Links{}).Leaderboard(); len(got) != 0 {
		t.Errorf("Leaderboard() on empty registry = %+v, want empty", got)
	}
}

func TestParseQuotaPolicy(t *testing.T) {
	tests := []struct {
		in     string
		want   QuotaPolicy
		wantOK bool
	}{
		{"", QuotaLifetime, true},
		{"lifetime", QuotaLifetime, true},
		{"daily", QuotaDaily, true},
		{"weekly", QuotaLifetime, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseQuotaPolicy(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseQuotaPolicy(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestQuotaPolicy_Current(t *testing.T) {
	stale := Quota{Count: 1, Date: "2026-10-18"}

	if got := QuotaLifetime.current(stale, "2026-10-19"); got != stale {
		t.Errorf("lifetime current() = %+v, want %+v", got, stale)
	}
	if got := QuotaDaily.current(stale, "2026-10-19"); got.Count != 0 || got.Date != "2026-10-19" {
		t.Errorf("daily current() on earlier day = %+v, want zero count dated today", got)
	}

	fresh := Quota{Count: 1, Date: "2026-10-19"}
	if got := QuotaDaily.current(fresh, "2026-10-19"); got != fresh {
		t.Errorf("daily current() same day = %+v, want %+v", got, fresh)
	}
}

func TestDayOf_UsesLocation(t *testing.T) {
	// 22:30 UTC is already the next day in Istanbul (UTC+3).
	ts := time.Date(2026, 10, 19, 22, 30, 0, 0, time.UTC)
	istanbul := time.FixedZone("TRT", 3*60*60)

	if got := dayOf(ts, time.UTC); got != "2026-10-19" {
		t.Errorf("dayOf(UTC) = %s, want 2026-10-19", got)
	}
	if got := dayOf(ts, istanbul); got != "2026-10-20" {
		t.Errorf("dayOf(TRT) = %s, want 2026-10-20", got)
	}
}
