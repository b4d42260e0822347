package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sundayezeilo/engagebot/internal/chat"
	"github.com/sundayezeilo/engagebot/internal/errx"
)

var (
	// ErrUsage means the command had the wrong number of arguments.
	ErrUsage = errors.New("expected exactly one link")
	// ErrQuotaExceeded means the caller already used today's submission.
	ErrQuotaExceeded = errors.New("submission quota used")
	// ErrUnauthorized means a non-admin called an admin command.
	ErrUnauthorized = errors.New("caller is not an admin")
	// ErrUnknownLink means an acknowledgement named a link that is not registered.
	ErrUnknownLink = errors.New("link is not registered")
)

// AckStatus is the outcome of a successful acknowledgement.
type AckStatus uint8

const (
	// AckRecorded means the caller was added to the link's interactions.
	AckRecorded AckStatus = iota + 1
	// AckDuplicate means the caller had already acknowledged the link.
	AckDuplicate
)

// Service defines the bot's operations on the link registry and quota counters.
type Service interface {
	Submit(ctx context.Context, caller chat.User, args []string) (Submission, error)
	ListActive(ctx context.Context) ([]Submission, error)
	Reset(ctx context.Context, caller chat.User) error
	Interactions(ctx context.Context, caller chat.User) ([]Engagement, error)
	Acknowledge(ctx context.Context, caller chat.User, data string) (string, AckStatus, error)
}

// service implements the Service interface.
type service struct {
	repo     Repository
	admins   AdminList
	policy   QuotaPolicy
	now      func() time.Time
	location *time.Location

	// mu serialises every load-mutate-save sequence so concurrent updates
	// cannot overwrite each other's changes.
	mu sync.Mutex
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	Admins      AdminList
	QuotaPolicy QuotaPolicy
	Now         func() time.Time // default: time.Now
	Location    *time.Location   // default: time.Local
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	return &service{
		repo:     repo,
		admins:   config.Admins,
		policy:   config.QuotaPolicy,
		now:      now,
		location: loc,
	}
}

func (s *service) today() string {
	return dayOf(s.now(), s.location)
}

// Submit registers args[0] for caller, consuming their quota.
func (s *service) Submit(ctx context.Context, caller chat.User, args []string) (Submission, error) {
	const op = "engagement.service.Submit"

	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return Submission{}, errx.E(op, errx.Invalid, ErrUsage)
	}
	url := args[0]
	who := caller.Handle()

	s.mu.Lock()
	defer s.mu.Unlock()

	links, err := s.repo.LoadLinks(ctx)
	if err != nil {
		return Submission{}, errx.E(op, errx.KindOf(err), err)
	}
	quotas, err := s.repo.LoadQuotas(ctx)
	if err != nil {
		return Submission{}, errx.E(op, errx.KindOf(err), err)
	}

	day := s.today()
	quota := s.policy.current(quotas[who], day)
	if quota.Count >= DailyLimit {
		return Submission{}, errx.E(op, errx.LimitExceeded,
			fmt.Errorf("%w: %s has %d of %d", ErrQuotaExceeded, who, quota.Count, DailyLimit))
	}

	links[url] = NewLink(who, day)
	quota.Count++
	quotas[who] = quota

	if err := s.repo.SaveLinks(ctx, links); err != nil {
		return Submission{}, errx.E(op, errx.KindOf(err), err)
	}
	if err := s.repo.SaveQuotas(ctx, quotas); err != nil {
		return Submission{}, errx.E(op, errx.KindOf(err), err)
	}

	return Submission{URL: url, Submitter: who, Date: day}, nil
}

// ListActive returns the links submitted today.
func (s *service) ListActive(ctx context.Context) ([]Submission, error) {
	const op = "engagement.service.ListActive"

	links, err := s.repo.LoadLinks(ctx)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	return links.SubmittedOn(s.today()), nil
}

// Reset empties both documents. Only admins may call it.
func (s *service) Reset(ctx context.Context, caller chat.User) error {
	const op = "engagement.service.Reset"

	if !s.admins.Allows(caller) {
		return errx.E(op, errx.Unauthorized, ErrUnauthorized)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SaveLinks(ctx, Links{}); err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}
	if err := s.repo.SaveQuotas(ctx, Quotas{}); err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}
	return nil
}

// Interactions returns the acknowledgement leaderboard. Only admins may call it.
func (s *service) Interactions(ctx context.Context, caller chat.User) ([]Engagement, error) {
	const op = "engagement.service.Interactions"

	if !s.admins.Allows(caller) {
		return nil, errx.E(op, errx.Unauthorized, ErrUnauthorized)
	}

	links, err := s.repo.LoadLinks(ctx)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	return links.Leaderboard(), nil
}

// Acknowledge records that caller interacted with the link named by the
// callback data. Repeating it is harmless and writes nothing.
func (s *service) Acknowledge(ctx context.Context, caller chat.User, data string) (string, AckStatus, error) {
	const op = "engagement.service.Acknowledge"

	ref, err := ParseCallbackData(data)
	if err != nil {
		return "", 0, errx.E(op, errx.Invalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	links, err := s.repo.LoadLinks(ctx)
	if err != nil {
		return "", 0, errx.E(op, errx.KindOf(err), err)
	}

	url, ok := ref.resolve(links)
	if !ok {
		return "", 0, errx.E(op, errx.NotFound, ErrUnknownLink)
	}

	who := caller.Handle()
	record := links[url]
	if record.HasInteraction(who) {
		return url, AckDuplicate, nil
	}

	record.Interactions = append(record.Interactions, who)
	links[url] = record

	if err := s.repo.SaveLinks(ctx, links); err != nil {
		return "", 0, errx.E(op, errx.KindOf(err), err)
	}
	return url, AckRecorded, nil
}
