package errors

// Investment plan errors
import "fmt"

// PlanNotFoundError creates a not found error for an unknown plan id
func PlanNotFoundError(planID string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Code:    "PLAN_NOT_FOUND",
		Message: fmt.Sprintf("investment plan %s not found", planID),
		Details: map[string]interface{}{
			"plan_id": planID,
		},
	}
}

// ArchetypeNotFoundError creates a not found error for an unknown archetype
func ArchetypeNotFoundError(archetypeID string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Code:    "ARCHETYPE_NOT_FOUND",
		Message: fmt.Sprintf("plan archetype %s not found", archetypeID),
		Details: map[string]interface{}{
			"archetype_id": archetypeID,
		},
	}
}

// BelowMinimumInvestmentError creates an invalid argument error for a
// creation amount below the archetype minimum. The message carries the
// offending value and the constraint so a UI can render it directly.
func BelowMinimumInvestmentError(archetypeID, amount, minimum string) *DomainError {
	return &DomainError{
		Err:  ErrInvalidArgument,
		Code: "BELOW_MINIMUM_INVESTMENT",
		Message: fmt.Sprintf("amount %s is below the minimum investment of %s for archetype %s",
			amount, minimum, archetypeID),
		Details: map[string]interface{}{
			"archetype_id":   archetypeID,
			"amount":         amount,
			"min_investment": minimum,
		},
	}
}

// NonPositiveAmountError creates an invalid argument error for a zero or
// negative deposit/withdrawal amount
func NonPositiveAmountError(amount string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidArgument,
		Code:    "NON_POSITIVE_AMOUNT",
		Message: fmt.Sprintf("amount must be greater than zero, got %s", amount),
		Details: map[string]interface{}{
			"amount": amount,
		},
	}
}

// InsufficientBalanceError creates an insufficient balance error carrying
// the available balance and the requested amount
func InsufficientBalanceError(planID, requested, available string) *DomainError {
	return &DomainError{
		Err:  ErrInsufficientBalance,
		Code: "INSUFFICIENT_BALANCE",
		Message: fmt.Sprintf("cannot withdraw %s: available balance is %s",
			requested, available),
		Details: map[string]interface{}{
			"plan_id":   planID,
			"requested": requested,
			"available": available,
		},
	}
}
