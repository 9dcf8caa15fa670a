package directory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedService decorates a Service with OpenTelemetry spans around each
// directory call.
type TracedService struct {
	inner  Service
	tracer trace.Tracer
}

var _ Service = (*TracedService)(nil)

// NewTracedService wraps inner so every call emits a span on tracer.
func NewTracedService(inner Service, tracer trace.Tracer) *TracedService {
	return &TracedService{inner: inner, tracer: tracer}
}

func (s *TracedService) LookupByEmail(ctx context.Context, email string) (*Organization, error) {
	ctx, span := s.tracer.Start(ctx, "directory.lookup_by_email")
	defer span.End()

	org, err := s.inner.LookupByEmail(ctx, email)
	span.SetAttributes(attribute.Bool("directory.matched", org != nil))
	recordResult(span, err)
	return org, err
}

func (s *TracedService) SearchByName(ctx context.Context, name string, limit int) ([]Organization, error) {
	ctx, span := s.tracer.Start(ctx, "directory.search_by_name",
		trace.WithAttributes(attribute.Int("directory.limit", limit)))
	defer span.End()

	orgs, err := s.inner.SearchByName(ctx, name, limit)
	span.SetAttributes(attribute.Int("directory.results", len(orgs)))
	recordResult(span, err)
	return orgs, err
}

func (s *TracedService) LookupByID(ctx context.Context, id string) (*Organization, error) {
	ctx, span := s.tracer.Start(ctx, "directory.lookup_by_id",
		trace.WithAttributes(attribute.String("directory.organization_id", id)))
	defer span.End()

	org, err := s.inner.LookupByID(ctx, id)
	recordResult(span, err)
	return org, err
}

func (s *TracedService) CreateOrganization(ctx context.Context, name string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "directory.create_organization")
	defer span.End()

	id, err := s.inner.CreateOrganization(ctx, name)
	if err == nil {
		span.SetAttributes(attribute.String("directory.organization_id", id))
	}
	recordResult(span, err)
	return id, err
}

func (s *TracedService) SubmitRegistration(ctx context.Context, reg Registration) error {
	ctx, span := s.tracer.Start(ctx, "directory.submit_registration",
		trace.WithAttributes(attribute.String("directory.organization_id", reg.OrganizationID)))
	defer span.End()

	err := s.inner.SubmitRegistration(ctx, reg)
	recordResult(span, err)
	return err
}

func recordResult(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
