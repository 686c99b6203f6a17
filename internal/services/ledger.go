package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getmentor/getmentor-escrow/internal/achievement"
	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/repository"
	"github.com/getmentor/getmentor-escrow/internal/token"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"github.com/getmentor/getmentor-escrow/pkg/profiling"
	"github.com/getmentor/getmentor-escrow/pkg/statedb"
	"github.com/getmentor/getmentor-escrow/pkg/tracing"
	"go.uber.org/zap"
)

// ErrLedgerNotInitialized is returned when an operation runs before Bootstrap
var ErrLedgerNotInitialized = errors.New("ledger is not initialized")

// ErrSystemCaller is returned when a ledger-held account tries to act as a caller.
// Custody and the system contracts only move through the escrow operations.
var ErrSystemCaller = apperrors.New(apperrors.KindUnauthorized, "ledger-held accounts cannot act as callers")

// Ledger runs ledger operations as atomic units against the state store.
// All ledger services share one Ledger.
type Ledger struct {
	db         *statedb.DB
	registries *achievement.Directory
	now        func() time.Time
}

// LedgerOption customizes a Ledger
type LedgerOption func(*Ledger)

// WithClock overrides the wall clock used for timestamps
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger creates the shared ledger executor
func NewLedger(db *statedb.DB, registries *achievement.Directory, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		db:         db,
		registries: registries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DB returns the state store
func (l *Ledger) DB() *statedb.DB {
	return l.db
}

// unit is the state visible to one operation
type unit struct {
	repo       *repository.LedgerRepository
	registries *achievement.Directory
	now        time.Time
	cfg        *models.PlatformConfig
}

func (u *unit) config() (*models.PlatformConfig, error) {
	if u.cfg != nil {
		return u.cfg, nil
	}
	cfg, err := u.repo.GetConfig()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLedgerNotInitialized
		}
		return nil, err
	}
	u.cfg = cfg
	return cfg, nil
}

func (u *unit) token() (*token.Token, error) {
	tok, err := token.Load(u.repo.Tx())
	if err != nil {
		if errors.Is(err, token.ErrNotDeployed) {
			return nil, ErrLedgerNotInitialized
		}
		return nil, err
	}
	return tok, nil
}

// registry resolves the achievement registry the ledger is wired to
func (u *unit) registry() (*achievement.Registry, error) {
	cfg, err := u.config()
	if err != nil {
		return nil, err
	}
	if cfg.NFTContract.IsZero() {
		return nil, apperrors.ErrNFTContractNotSet
	}
	reg, err := u.registries.Open(u.repo.Tx(), cfg.NFTContract)
	if err != nil {
		if errors.Is(err, achievement.ErrUnknownRegistry) {
			return nil, apperrors.New(apperrors.KindNFTContractNotSet, "no achievement registry deployed at %s", cfg.NFTContract)
		}
		return nil, err
	}
	return reg, nil
}

// ensureExternal rejects the custody account, the token and any achievement registry as callers
func (u *unit) ensureExternal(caller models.Address) error {
	cfg, err := u.config()
	if err != nil {
		return err
	}
	if caller == cfg.LedgerAddress || caller == cfg.TokenAddress {
		return ErrSystemCaller
	}
	if _, err := u.registries.Open(u.repo.Tx(), caller); err == nil {
		return ErrSystemCaller
	} else if !errors.Is(err, achievement.ErrUnknownRegistry) {
		return err
	}
	return nil
}

func (u *unit) emit(name models.EventName, payload any) error {
	cfg, err := u.config()
	if err != nil {
		return err
	}
	u.repo.Emit(cfg.LedgerAddress, name, payload)
	return nil
}

func (u *unit) mentor(addr models.Address) (*models.Mentor, error) {
	m, err := u.repo.GetMentor(addr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotRegistered, "mentor %s is not registered", addr)
		}
		return nil, err
	}
	return m, nil
}

func (u *unit) student(addr models.Address) (*models.Student, error) {
	s, err := u.repo.GetStudent(addr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotRegistered, "student %s is not registered", addr)
		}
		return nil, err
	}
	if !s.IsRegistered {
		return nil, apperrors.New(apperrors.KindNotRegistered, "student %s is not registered", addr)
	}
	return s, nil
}

func (u *unit) session(id uint64) (*models.Session, error) {
	s, err := u.repo.GetSession(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFoundError(fmt.Sprintf("session %d", id))
		}
		return nil, err
	}
	return s, nil
}

// execute runs fn as one atomic ledger operation and records its outcome
func (l *Ledger) execute(ctx context.Context, op string, fields []zap.Field, fn func(u *unit) error) error {
	ctx, span := tracing.StartSpan(ctx, "ledger."+op)
	defer span.End()
	start := time.Now()

	var err error
	profiling.WithOperation(ctx, op, func(ctx context.Context) {
		err = l.db.Update(ctx, func(tx *statedb.Tx) error {
			return fn(l.newUnit(tx))
		})
	})
	tracing.EndWithError(span, err)

	duration := metrics.MeasureDuration(start)
	status := operationStatus(err)
	metrics.LedgerOperationDuration.WithLabelValues(op, status).Observe(duration)
	metrics.LedgerOperationTotal.WithLabelValues(op, status).Inc()

	fields = append(fields, zap.String("operation", op), zap.Float64("duration", duration))
	switch {
	case err == nil:
		logger.Info("Ledger operation committed", fields...)
	case apperrors.KindOf(err) != "":
		logger.Warn("Ledger operation rejected", append(fields, zap.String("code", status), zap.Error(err))...)
	default:
		logger.Error("Ledger operation failed", append(fields, zap.Error(err))...)
	}
	return err
}

// IsSystemAddress reports whether addr is held by the ledger itself
func (l *Ledger) IsSystemAddress(ctx context.Context, addr models.Address) (bool, error) {
	var system bool
	err := l.view(ctx, func(u *unit) error {
		err := u.ensureExternal(addr)
		if errors.Is(err, ErrSystemCaller) {
			system = true
			return nil
		}
		return err
	})
	return system, err
}

// view runs fn against committed state
func (l *Ledger) view(ctx context.Context, fn func(u *unit) error) error {
	return l.db.View(ctx, func(tx *statedb.Tx) error {
		return fn(l.newUnit(tx))
	})
}

func (l *Ledger) newUnit(tx *statedb.Tx) *unit {
	return &unit{
		repo:       repository.NewLedgerRepository(tx),
		registries: l.registries,
		now:        l.now().UTC(),
	}
}

func operationStatus(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := apperrors.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
