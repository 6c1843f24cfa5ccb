package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/customer"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/membership"
)

type CustomerRepository struct{}

func NewCustomerRepository() customer.Repository {
	return &CustomerRepository{}
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (customer.Customer, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return customer.Customer{}, err
	}
	var c customer.Customer
	err = tx.QueryRow(ctx,
		`SELECT id, organization_id, name FROM freight_customers WHERE organization_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&c.ID, &c.OrganizationID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return customer.Customer{}, customer.ErrNotFound
		}
		return customer.Customer{}, gerrors.Wrap(err, "get customer")
	}
	return c, nil
}

type MembershipRepository struct{}

func NewMembershipRepository() membership.Repository {
	return &MembershipRepository{}
}

// Get looks the membership up by explicit organization id, since it runs
// before the tenant of the caller has been trusted.
func (r *MembershipRepository) Get(ctx context.Context, organizationID, userID uuid.UUID) (membership.Membership, error) {
	tx, err := useTx(ctx)
	if err != nil {
		return membership.Membership{}, err
	}
	var m membership.Membership
	err = tx.QueryRow(ctx,
		`SELECT organization_id, user_id, role FROM freight_memberships WHERE organization_id = $1 AND user_id = $2`,
		organizationID, userID,
	).Scan(&m.OrganizationID, &m.UserID, &m.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return membership.Membership{}, membership.ErrNotFound
		}
		return membership.Membership{}, gerrors.Wrap(err, "get membership")
	}
	return m, nil
}
