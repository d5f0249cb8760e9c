package advisor

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"

	"github.com/Aman-CERP/dbadvisor/internal/capability"
	"github.com/Aman-CERP/dbadvisor/internal/configstore"
	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
)

// DefaultSessionGCMaxLifetime is the host session lifetime, in seconds,
// assumed when none is configured.
const DefaultSessionGCMaxLifetime = 1440

// Advisor runs advisory passes over configuration stores.
type Advisor struct {
	probe     capability.Probe
	catalog   Catalog
	gcMaxLife int64
	random    io.Reader
	logger    *slog.Logger
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithProbe sets the capability probe.
func WithProbe(p capability.Probe) Option {
	return func(a *Advisor) {
		a.probe = p
	}
}

// WithCatalog sets the text catalog.
func WithCatalog(c Catalog) Option {
	return func(a *Advisor) {
		a.catalog = c
	}
}

// WithSessionGCMaxLifetime sets the host session garbage-collection max
// lifetime in seconds.
func WithSessionGCMaxLifetime(seconds int) Option {
	return func(a *Advisor) {
		a.gcMaxLife = int64(seconds)
	}
}

// WithRandom sets the source used to generate cookie secrets. It must be
// cryptographically secure.
func WithRandom(r io.Reader) Option {
	return func(a *Advisor) {
		a.random = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Advisor) {
		a.logger = l
	}
}

// New creates an Advisor.
func New(opts ...Option) *Advisor {
	a := &Advisor{
		probe:     capability.Default(),
		catalog:   DefaultCatalog(),
		gcMaxLife: DefaultSessionGCMaxLifetime,
		random:    rand.Reader,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Report is the outcome of one pass.
type Report struct {
	// Advisories in check order. Never nil.
	Advisories []Advisory `json:"advisories"`

	// SecretGenerated is set when blowfish_secret was replaced.
	SecretGenerated bool `json:"secret_generated"`

	// CookieAuthUsed is set when any server uses cookie authentication.
	CookieAuthUsed bool `json:"cookie_auth_used"`

	ServerCount int `json:"server_count"`
}

// Count returns the number of advisories with severity s.
func (r Report) Count(s Severity) int {
	n := 0
	for _, a := range r.Advisories {
		if a.Severity == s {
			n++
		}
	}
	return n
}

// Run performs one pass over store.
func (a *Advisor) Run(ctx context.Context, store configstore.Store) (Report, error) {
	p := &pass{
		Advisor: a,
		ctx:     ctx,
		store:   store,
		cfg:     configstore.NewReader(store),
		report:  Report{Advisories: []Advisory{}},
	}

	steps := []func() error{
		p.checkArbitraryServer,
		p.checkServers,
		p.checkSecretNotice,
		p.checkDirectories,
		p.checkLoginCookie,
		p.checkZip,
		p.checkBZip,
		p.checkGZip,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return Report{}, dberrors.InternalError("advisory pass cancelled", err)
		}
		if err := step(); err != nil {
			return Report{}, err
		}
		if err := p.cfg.Err(); err != nil {
			return Report{}, dberrors.StoreError("configuration store unavailable", err)
		}
	}

	a.logger.Debug("advisory pass complete",
		slog.Int("servers", p.report.ServerCount),
		slog.Int("advisories", len(p.report.Advisories)),
		slog.Bool("secret_generated", p.report.SecretGenerated))

	return p.report, nil
}

// RunTo performs one pass and emits its advisories to sink inside a single
// Begin/End frame. Nothing is emitted when the pass fails.
func (a *Advisor) RunTo(ctx context.Context, store configstore.Store, sink Sink) (Report, error) {
	report, err := a.Run(ctx, store)
	if err != nil {
		return report, err
	}

	if err := sink.Begin(); err != nil {
		return report, dberrors.InternalError("failed to open message region", err)
	}
	for _, adv := range report.Advisories {
		if err := sink.Add(adv); err != nil {
			return report, dberrors.InternalError("failed to emit advisory", err)
		}
	}
	if err := sink.End(); err != nil {
		return report, dberrors.InternalError("failed to close message region", err)
	}
	return report, nil
}

// pass holds the state of one Run.
type pass struct {
	*Advisor
	ctx    context.Context
	store  configstore.Store
	cfg    *configstore.Reader
	report Report
}

func (p *pass) add(sev Severity, key, field, title, body string) {
	p.logger.Debug("advisory", slog.String("key", key), slog.String("severity", sev.String()))
	p.report.Advisories = append(p.report.Advisories, Advisory{
		Severity: sev,
		Key:      key,
		Field:    field,
		Title:    title,
		Body:     body,
	})
}

func (p *pass) title(field string) string {
	return p.catalog.Title(titleKey(field))
}

// available asks the probe about name. Probe failures abort the pass.
func (p *pass) available(name string) (bool, error) {
	ok, err := p.probe.Available(name)
	if err != nil {
		return false, dberrors.New(dberrors.ErrCodeProbeFailed, "capability probe failed", err).
			WithDetail("capability", name)
	}
	return ok, nil
}
