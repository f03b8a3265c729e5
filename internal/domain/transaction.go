package domain

import (
	"strings"
	"time"
)

// TransactionKind classifies a ledger entry. Kinds prefixed with "earned"
// are credits, everything else is a debit.
type TransactionKind string

const (
	KindEarnedReport  TransactionKind = "earned_report"
	KindEarnedCollect TransactionKind = "earned_collect"
	KindEarnedRecycle TransactionKind = "earned_recycle"
	KindRedeemed      TransactionKind = "redeemed"
)

const earnedPrefix = "earned"

// IsCredit reports whether entries of this kind add to a balance.
func (k TransactionKind) IsCredit() bool {
	return strings.HasPrefix(string(k), earnedPrefix)
}

// Valid reports whether the kind is one the ledger knows how to book.
func (k TransactionKind) Valid() bool {
	return k.IsCredit() || k == KindRedeemed
}

// Transaction is an immutable ledger entry. Amount is always stored as a
// magnitude; the sign comes from Kind.
type Transaction struct {
	ID          string
	UserID      string
	Kind        TransactionKind
	Amount      int
	Description string
	CreatedAt   time.Time
}

// Signed returns the contribution of the entry to a running balance.
func (t Transaction) Signed() int {
	if t.Kind.IsCredit() {
		return t.Amount
	}
	return -t.Amount
}

// SumTransactions folds entries into an unclamped signed total.
func SumTransactions(txs []Transaction) int {
	total := 0
	for _, tx := range txs {
		total += tx.Signed()
	}
	return total
}

// TotalEarned sums only the credit entries.
func TotalEarned(txs []Transaction) int {
	total := 0
	for _, tx := range txs {
		if tx.Kind.IsCredit() {
			total += tx.Amount
		}
	}
	return total
}
