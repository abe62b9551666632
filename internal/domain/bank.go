package domain

import "fmt"

// BankAccount is a user's saved payout/payment bank account. Read-only to the order workflow.
type BankAccount struct {
	ID                string
	AccountHolderName string
	AccountNumber     string
	IFSCCode          string
	BankName          string
}

// MaskedNumber hides all but the last four digits of the account number.
func (b BankAccount) MaskedNumber() string {
	n := len(b.AccountNumber)
	if n <= 4 {
		return b.AccountNumber
	}
	return fmt.Sprintf("XXXX%s", b.AccountNumber[n-4:])
}

// String returns a human-readable label.
func (b BankAccount) String() string {
	return fmt.Sprintf("%s %s (%s)", b.BankName, b.MaskedNumber(), b.AccountHolderName)
}
