package service

import (
	"github.com/shopspring/decimal"

	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/pkg/utils"
)

// CalculateBalance derives what a member owes a league from their attendance records.
//
//	owed    = Σ missed: social_fee (+ fine_amount when the league fines), fixed: social_fee
//	balance = owed − Σ amount_paid
//
// Weeks without a record contribute nothing and the bowling fee is never included.
func CalculateBalance(records []*domain.AttendanceRecord, policy domain.FeePolicy) decimal.Decimal {
	owed := decimal.Zero
	paid := decimal.Zero

	for _, record := range records {
		switch record.Status {
		case domain.StatusMissed:
			owed = owed.Add(policy.SocialFee)
			if policy.HasFines {
				owed = owed.Add(policy.FineAmount)
			}
		case domain.StatusFixed:
			owed = owed.Add(policy.SocialFee)
		}
		paid = paid.Add(record.AmountPaid)
	}

	return utils.RoundMoney(owed.Sub(paid))
}
