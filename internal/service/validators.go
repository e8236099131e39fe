package service

import (
	"fmt"

	"github.com/atlasmarket/payments/internal/models"
	"github.com/shopspring/decimal"
)

// ValidateAmount checks that an amount is strictly positive
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("invalid amount: must be greater than 0")
	}
	return nil
}

// ValidateCurrency checks for a 3-letter uppercase ISO-4217 code
func ValidateCurrency(currency string) error {
	if len(currency) != 3 {
		return fmt.Errorf("invalid currency: must be a 3-letter ISO-4217 code")
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("invalid currency: must be a 3-letter ISO-4217 code")
		}
	}
	return nil
}

// ValidateProvider checks for a supported payment provider
func ValidateProvider(provider models.PaymentProvider) error {
	if !provider.Valid() {
		return fmt.Errorf("unsupported payment provider: %q", provider)
	}
	return nil
}
