package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/membership"
	"github.com/iota-uz/iota-freight/pkg/authz"
	"github.com/iota-uz/iota-freight/pkg/composables"
)

const (
	LoadsAuthzObject = "freight.loads"
	LanesAuthzObject = "freight.lanes"
)

const (
	actionHold      = "hold"
	actionRelease   = "release"
	actionUploadPOD = "upload_pod"
	actionReview    = "review"
	actionConvert   = "convert"
	actionRead      = "read"
)

// AuthContext identifies who is acting and on behalf of which organization.
// It is supplied by the caller on every operation.
type AuthContext struct {
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
}

var authorizeFreightFn = defaultAuthorizeFreight

func defaultAuthorizeFreight(ctx context.Context, m membership.Membership, object, action string) error {
	req := authz.NewRequest(
		authz.SubjectForRole(m.Role),
		authz.DomainFromTenant(m.OrganizationID),
		object,
		authz.NormalizeAction(action),
		authz.WithAttribute("actor_id", m.UserID.String()),
	)
	return authz.Use().Authorize(ctx, req)
}

// authorize validates auth and returns ctx scoped to its organization.
func authorize(ctx context.Context, members membership.Repository, auth AuthContext, object, action string) (context.Context, error) {
	if auth.OrganizationID == uuid.Nil || auth.ActorID == uuid.Nil {
		return ctx, newServiceError(http.StatusBadRequest, "FREIGHT_NO_AUTH_CONTEXT", "organization and actor are required", nil)
	}
	ctx = composables.WithTenantID(ctx, auth.OrganizationID)

	m, err := members.Get(ctx, auth.OrganizationID, auth.ActorID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			logWithFields(ctx, logLevelWarn, "freight.auth.not_a_member", fieldsFor(auth))
			return ctx, newServiceError(http.StatusForbidden, "FREIGHT_NOT_A_MEMBER", "actor is not a member of the organization", nil)
		}
		return ctx, err
	}
	if err := authorizeFreightFn(ctx, m, object, action); err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			return ctx, newServiceError(http.StatusForbidden, "FREIGHT_FORBIDDEN", "permission denied", err)
		}
		return ctx, err
	}
	return ctx, nil
}
