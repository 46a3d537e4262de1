package store

import (
	"context"
	"strings"

	"github.com/Sivanthsiv/food-ecommerce/internal/models"
)

// UpdateAccountProfile copies contact and address fields onto the account
// identified by accountID, falling back to the account registered with email.
// The account e-mail itself is never changed.
func (s *Store) UpdateAccountProfile(ctx context.Context, accountID, email string, p models.AccountProfile) error {
	query := `
		UPDATE accounts SET
			name = $3, phone = $4, address_line1 = $5, address_line2 = $6,
			city = $7, state = $8, postal_code = $9, updated_at = NOW()
		WHERE id = COALESCE(
			(SELECT id FROM accounts WHERE id = $1),
			(SELECT id FROM accounts WHERE email = $2))`

	res, err := s.db.ExecContext(ctx, query,
		accountID, strings.ToLower(strings.TrimSpace(email)),
		p.Name, p.Phone, p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
