package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"retailops/backend/internal/cache"
	"retailops/backend/internal/domain"
	"retailops/backend/internal/finance"
	"retailops/backend/internal/lock"
	"retailops/backend/internal/store"
)

var (
	ErrInUse     = store.ErrInUse
	ErrForbidden = errors.New("forbidden")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Service is the only write path for reconciled and derived fields. It
// enforces the referential rules the repository cannot.
type Service struct {
	repo       store.Repository
	wages      *finance.WageCalculator
	locker     lock.Locker
	payroll    cache.PayrollCache
	payrollTTL time.Duration
	logger     *logrus.Logger
	validate   *validator.Validate
}

// New wires a Service. A nil locker falls back to an in-process lock, a nil
// cache disables payroll caching and a nil logger discards output.
func New(repo store.Repository, wages *finance.WageCalculator, locker lock.Locker, payroll cache.PayrollCache, payrollTTL time.Duration, logger *logrus.Logger) *Service {
	if wages == nil {
		wages = finance.NewWageCalculator(1)
	}
	if locker == nil {
		locker = lock.NewLocal()
	}
	if payroll == nil {
		payroll = cache.NoopPayrollCache{}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	return &Service{
		repo:       repo,
		wages:      wages,
		locker:     locker,
		payroll:    payroll,
		payrollTTL: payrollTTL,
		logger:     logger,
		validate:   newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs struct-tag validation and reports failures as store.ErrInvalid.
func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", store.ErrInvalid, err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", store.ErrInvalid, strings.Join(parts, "; "))
}

func requireRole(ctx context.Context, roles ...domain.UserRole) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, fmt.Errorf("%w: no authenticated actor", ErrForbidden)
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return domain.Actor{}, fmt.Errorf("%w: role %s may not perform this action", ErrForbidden, actor.Role)
}

func requireAdmin(ctx context.Context) (domain.Actor, error) {
	return requireRole(ctx, domain.RoleAdmin)
}

func requireStaff(ctx context.Context) (domain.Actor, error) {
	return requireRole(ctx, domain.RoleAdmin, domain.RoleUser)
}

func parseDate(field string, raw string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", store.ErrInvalid, field)
	}
	return t.UTC(), nil
}

func parseCurrency(raw domain.Currency) (domain.Currency, error) {
	c, ok := domain.ParseCurrency(string(raw))
	if !ok {
		return "", fmt.Errorf("%w: %q", finance.ErrInvalidCurrency, raw)
	}
	return c, nil
}

// parseRange turns optional inclusive from/to dates into a half-open range.
func parseRange(from string, to string) (store.Range, error) {
	var r store.Range
	if strings.TrimSpace(from) != "" {
		d, err := parseDate("from", from)
		if err != nil {
			return r, err
		}
		r.From = d
	}
	if strings.TrimSpace(to) != "" {
		d, err := parseDate("to", to)
		if err != nil {
			return r, err
		}
		r.To = d.AddDate(0, 0, 1)
	}
	if !r.From.IsZero() && !r.To.IsZero() && !r.To.After(r.From) {
		return r, fmt.Errorf("%w: range ends before it starts", store.ErrInvalid)
	}
	return r, nil
}

// withLock runs fn while holding the keyed lock.
func (s *Service) withLock(ctx context.Context, key string, fn func() error) error {
	release, err := s.locker.Obtain(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// ensureNoDependents implements the delete guard for parent entities.
func (s *Service) ensureNoDependents(ctx context.Context, kind domain.EntityKind, id string) error {
	n, err := s.repo.CountDependents(ctx, kind, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s %s has %d dependent records", ErrInUse, kind, id, n)
	}
	return nil
}

// invalidatePayroll bumps the employee's payroll cache version. Failure
// leaves stale entries that expire with their TTL, so it is only logged.
func (s *Service) invalidatePayroll(ctx context.Context, employeeIDs ...string) {
	for _, id := range employeeIDs {
		if id == "" {
			continue
		}
		if err := s.payroll.Bump(ctx, id); err != nil {
			s.logger.WithFields(logrus.Fields{
				"module":      "service",
				"employee_id": id,
			}).WithError(err).Warn("failed to invalidate payroll cache")
		}
	}
}

func (s *Service) logWrite(ctx context.Context, action string, entity string, id string, fields logrus.Fields) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system"}
	}
	entry := s.logger.WithFields(logrus.Fields{
		"module": "service",
		"action": action,
		"entity": entity,
		"id":     id,
		"actor":  actor.Username,
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Info("write")
}
