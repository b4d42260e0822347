package engagement

import (
	"encoding/json"
	"slices"
	"sort"
	"time"
)

const (
	// DateLayout is the day granularity used for submission dates.
	DateLayout = "2006-01-02"
	// DailyLimit is how many links a user may submit per quota period.
	DailyLimit = 1
)

// Link is the registry entry for a submitted link, keyed by the link string.
type Link struct {
	Submitter    string   `json:"submitter"`
	Date         string   `json:"date"`
	Interactions []string `json:"interactions"`
	// ViewedBy is reserved. It is kept in the document shape for older readers
	// and nothing writes to it.
	ViewedBy []string `json:"viewed_by"`
}

// NewLink returns a fresh record with empty interaction lists.
func NewLink(submitter string, day string) Link {
	return Link{
		Submitter:    submitter,
		Date:         day,
		Interactions: []string{},
		ViewedBy:     []string{},
	}
}

// UnmarshalJSON also accepts the older "user" key for the submitter and turns
// missing lists into empty ones so the record re-encodes with [] rather than null.
func (l *Link) UnmarshalJSON(b []byte) error {
	type plain Link
	var aux struct {
		plain
		User string `json:"user"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*l = Link(aux.plain)
	if l.Submitter == "" {
		l.Submitter = aux.User
	}
	if l.Interactions == nil {
		l.Interactions = []string{}
	}
	if l.ViewedBy == nil {
		l.ViewedBy = []string{}
	}
	return nil
}

// HasInteraction reports whether who already acknowledged the link.
func (l Link) HasInteraction(who string) bool {
	return slices.Contains(l.Interactions, who)
}

// Links maps link strings to their records.
type Links map[string]Link

// Submission is one line of the daily listing.
type Submission struct {
	URL       string
	Submitter string
	Date      string
}

// SubmittedOn returns the links registered on day, ordered by submitter and then link.
func (ls Links) SubmittedOn(day string) []Submission {
	var out []Submission
	for url, l := range ls {
		if l.Date != day {
			continue
		}
		out = append(out, Submission{URL: url, Submitter: l.Submitter, Date: l.Date})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Submitter != out[j].Submitter {
			return out[i].Submitter < out[j].Submitter
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// Engagement is how many links one user acknowledged.
type Engagement struct {
	User  string
	Count int
}

// Leaderboard counts acknowledgements per user across every link regardless of
// date, highest count first. Equal counts are ordered by user.
func (ls Links) Leaderboard() []Engagement {
	counts := make(map[string]int)
	for _, l := range ls {
		for _, who := range l.Interactions {
			counts[who]++
		}
	}

	out := make([]Engagement, 0, len(counts))
	for who, n := range counts {
		out = append(out, Engagement{User: who, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].User < out[j].User
	})
	return out
}

// Quota is a user's submission counter. Date is only set under QuotaDaily.
type Quota struct {
	Count int    `json:"count"`
	Date  string `json:"date,omitempty"`
}

// Quotas maps user identities to their counters.
type Quotas map[string]Quota

// QuotaPolicy decides when a user's counter starts over.
type QuotaPolicy uint8

const (
	// QuotaLifetime never resets a counter except through a full reset.
	QuotaLifetime QuotaPolicy = iota
	// QuotaDaily ignores counters recorded on an earlier day.
	QuotaDaily
)

// ParseQuotaPolicy maps a configuration value to a policy. Empty means QuotaLifetime.
func ParseQuotaPolicy(s string) (QuotaPolicy, bool) {
	switch s {
	case "", "lifetime":
		return QuotaLifetime, true
	case "daily":
		return QuotaDaily, true
	default:
		return QuotaLifetime, false
	}
}

func (p QuotaPolicy) String() string {
	if p == QuotaDaily {
		return "daily"
	}
	return "lifetime"
}

// current returns the counter that applies on day under the policy.
func (p QuotaPolicy) current(q Quota, day string) Quota {
	if p == QuotaDaily && q.Date != day {
		return Quota{Date: day}
	}
	return q
}

// dayOf formats t in loc at day granularity.
func dayOf(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}
