package v1

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/user-admin/internal/core/domain"
	"github.com/duynhne/user-admin/middleware"
)

var validationFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "user_validation_failures_total",
		Help: "Rejected user submissions by field and rule",
	},
	[]string{"field", "code"},
)

// UserService implements user management on top of the remote users API
type UserService struct {
	repo   domain.UserRepository
	roster *Roster
}

// NewUserService creates a new user service
func NewUserService(repo domain.UserRepository) *UserService {
	return &UserService{
		repo:   repo,
		roster: NewRoster(),
	}
}

// ListUsers returns the roster, loading it from upstream on first use
func (s *UserService) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	ctx, span := middleware.StartSpan(ctx, "user.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if users, ok := s.roster.Snapshot(); ok {
		span.SetAttributes(attribute.Bool("roster.cached", true), attribute.Int("user.count", len(users)))
		return users, nil
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.roster.Load(users)

	span.SetAttributes(attribute.Bool("roster.cached", false), attribute.Int("user.count", len(users)))
	users, _ = s.roster.Snapshot()
	return users, nil
}

// GetUser fetches a single user from upstream for the detail view
func (s *UserService) GetUser(ctx context.Context, id int) (*domain.UserRecord, error) {
	ctx, span := middleware.StartSpan(ctx, "user.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", id),
	))
	defer span.End()

	user, err := s.repo.Get(ctx, id)
	if err != nil {
		span.SetAttributes(attribute.Bool("user.found", false))
		if !errors.Is(err, domain.ErrUserNotFound) {
			span.RecordError(err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Bool("user.found", true))
	return user, nil
}

// CreateUser validates input in create mode and posts it upstream.
// The username is always derived from the name.
func (s *UserService) CreateUser(ctx context.Context, input domain.UserRecord) (*domain.UserRecord, error) {
	ctx, span := middleware.StartSpan(ctx, "user.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	rec, errs := domain.NewUserForm(domain.UserRecord{}).Merge(input).Submit()
	span.SetAttributes(attribute.String("username", rec.Username))
	if !errs.Valid() {
		span.SetAttributes(attribute.Bool("user.created", false))
		return nil, s.rejected(errs)
	}

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.roster.Append(*created)

	span.SetAttributes(
		attribute.Int("user.id", created.ID),
		attribute.Bool("user.created", true),
	)
	span.AddEvent("user.created")
	return created, nil
}

// UpdateUser validates input in edit mode against the existing record and
// puts it upstream. The existing username is preserved.
func (s *UserService) UpdateUser(ctx context.Context, id int, input domain.UserRecord) (*domain.UserRecord, error) {
	ctx, span := middleware.StartSpan(ctx, "user.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", id),
	))
	defer span.End()

	existing, err := s.existing(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			span.RecordError(err)
		}
		return nil, err
	}

	rec, errs := domain.NewUserForm(existing).Merge(input).Submit()
	if !errs.Valid() {
		span.SetAttributes(attribute.Bool("user.updated", false))
		return nil, s.rejected(errs)
	}

	updated, err := s.repo.Update(ctx, id, rec)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.roster.Replace(*updated)

	span.SetAttributes(attribute.Bool("user.updated", true))
	return updated, nil
}

// DeleteUser removes a user upstream and from the roster
func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	ctx, span := middleware.StartSpan(ctx, "user.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", id),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	s.roster.Remove(id)

	span.SetAttributes(attribute.Bool("user.deleted", true))
	return nil
}

// PreviewUser builds the form a submission of input would produce and
// validates it. An input with an ID is seeded from the existing record the
// same way UpdateUser is, so an unknown ID fails with ErrUserNotFound.
// Nothing is written upstream.
func (s *UserService) PreviewUser(ctx context.Context, input domain.UserRecord) (domain.UserRecord, domain.FieldErrors, error) {
	ctx, span := middleware.StartSpan(ctx, "user.preview", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", input.ID),
	))
	defer span.End()

	var seed domain.UserRecord
	if !input.IsNew() {
		existing, err := s.existing(ctx, input.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrUserNotFound) {
				span.RecordError(err)
			}
			return domain.UserRecord{}, nil, err
		}
		seed = existing
	}

	rec, errs := domain.NewUserForm(seed).Merge(input).Submit()
	span.SetAttributes(attribute.Int("validation.errors", len(errs)))
	return rec, errs, nil
}

// existing returns the record stored under id, from the roster when it has
// one and from upstream otherwise.
func (s *UserService) existing(ctx context.Context, id int) (domain.UserRecord, error) {
	if rec, ok := s.roster.Find(id); ok {
		return rec, nil
	}
	fetched, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.UserRecord{}, err
	}
	rec := *fetched
	rec.ID = id
	return rec, nil
}

func (s *UserService) rejected(errs domain.FieldErrors) error {
	for field, fe := range errs {
		validationFailures.WithLabelValues(field, string(fe.Code)).Inc()
	}
	return fmt.Errorf("submit user: %w", &domain.ValidationError{Fields: errs})
}
