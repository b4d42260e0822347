package engagement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/sundayezeilo/engagebot/internal/docstore"
	"github.com/sundayezeilo/engagebot/internal/errx"
)

const (
	DefaultLinksDocument  = "tweets.json"
	DefaultQuotasDocument = "user_tweet_count.json"

	documentIndent = "    "
)

type repo struct {
	store     docstore.Store
	linksDoc  string
	quotasDoc string
}

// RepositoryConfig holds configuration for the repository.
type RepositoryConfig struct {
	LinksDocument  string
	QuotasDocument string
}

// NewRepository creates a Repository that keeps each mapping as an indented
// JSON document in store.
func NewRepository(store docstore.Store, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}

	linksDoc := config.LinksDocument
	if linksDoc == "" {
		linksDoc = DefaultLinksDocument
	}
	quotasDoc := config.QuotasDocument
	if quotasDoc == "" {
		quotasDoc = DefaultQuotasDocument
	}

	return &repo{
		store:     store,
		linksDoc:  linksDoc,
		quotasDoc: quotasDoc,
	}
}

func (r *repo) LoadLinks(ctx context.Context) (Links, error) {
	const op = "engagement.repo.LoadLinks"

	links := Links{}
	if err := r.load(ctx, r.linksDoc, &links); err != nil {
		return nil, mapRepoError(op, err)
	}
	if links == nil {
		links = Links{}
	}
	return links, nil
}

func (r *repo) SaveLinks(ctx context.Context, links Links) error {
	const op = "engagement.repo.SaveLinks"

	if links == nil {
		links = Links{}
	}
	if err := r.save(ctx, r.linksDoc, links); err != nil {
		return mapRepoError(op, err)
	}
	return nil
}

func (r *repo) LoadQuotas(ctx context.Context) (Quotas, error) {
	const op = "engagement.repo.LoadQuotas"

	quotas := Quotas{}
	if err := r.load(ctx, r.quotasDoc, &quotas); err != nil {
		return nil, mapRepoError(op, err)
	}
	if quotas == nil {
		quotas = Quotas{}
	}
	return quotas, nil
}

func (r *repo) SaveQuotas(ctx context.Context, quotas Quotas) error {
	const op = "engagement.repo.SaveQuotas"

	if quotas == nil {
		quotas = Quotas{}
	}
	if err := r.save(ctx, r.quotasDoc, quotas); err != nil {
		return mapRepoError(op, err)
	}
	return nil
}

// load decodes the named document into v. A missing or blank document leaves v untouched.
func (r *repo) load(ctx context.Context, name string, v any) error {
	body, err := r.store.Read(ctx, name)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &decodeError{name: name, err: err}
	}
	return nil
}

func (r *repo) save(ctx context.Context, name string, v any) error {
	body, err := encodeDocument(v)
	if err != nil {
		return &decodeError{name: name, err: err}
	}
	return r.store.Write(ctx, name, body)
}

// encodeDocument writes v indented and without HTML escaping, so links with
// query strings stay readable in the stored document.
func encodeDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", documentIndent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// decodeError marks a document whose contents could not be (de)serialised.
type decodeError struct {
	name string
	err  error
}

func (e *decodeError) Error() string { return "document " + e.name + ": " + e.err.Error() }

func (e *decodeError) Unwrap() error { return e.err }

func mapRepoError(op string, err error) error {
	var de *decodeError
	switch {
	case errors.As(err, &de):
		return errx.E(op, errx.Internal, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}
