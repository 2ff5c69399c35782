package service

import (
	"time"

	"ledger/trust"
)

// TokenIssuer signs identity tokens. *trust.Codec satisfies it.
type TokenIssuer interface {
	Issue(userID int64, email string, role trust.Role, now time.Time) (string, error)
}
