// Package settlement decides the wallet outcome when a charging session
// closes. The decision is pure; the caller persists both the session close
// and the balance debit in one store transaction.
package settlement

import (
	"fmt"

	"github.com/google/uuid"

	"gridvolt/internal/models"
)

// Result is the terminal payment outcome for a session.
type Result struct {
	Status     models.PaymentStatus
	Reference  string
	NewBalance float64
}

// Paid reports whether the debit was applied.
func (r Result) Paid() bool {
	return r.Status == models.PaymentPaid
}

// Settle debits cost from balance when the funds cover it. Insufficient funds
// is not an error, it is the Failed outcome with the balance untouched.
func Settle(balance, cost float64) Result {
	if balance < cost {
		return Result{
			Status:     models.PaymentFailed,
			NewBalance: balance,
		}
	}
	return Result{
		Status:     models.PaymentPaid,
		Reference:  newReference(),
		NewBalance: balance - cost,
	}
}

func newReference() string {
	return fmt.Sprintf("WALLET_TXN_%s", uuid.NewString())
}
