package validator

import (
	"log"

	"tradehub_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules wires the enum rules derived from statuses.go.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// A rule that fails to register is a startup error, not
			// something to limp past.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-subscription-tier", validateSubscriptionTier)
	mustRegister("is-billing-cycle", validateBillingCycle)
	mustRegister("is-job-status", validateJobStatus)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // empty is the 'required' rule's problem
	}
	switch models.UserRole(value) {
	case models.UserRoleCustomer, models.UserRoleTrader, models.UserRoleAdmin:
		return true
	default:
		return false
	}
}

func validateSubscriptionTier(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.ValidTier(models.SubscriptionTier(value))
}

func validateBillingCycle(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.BillingCycle(value) {
	case models.BillingCycleMonthly, models.BillingCycleAnnual:
		return true
	default:
		return false
	}
}

func validateJobStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.JobStatus(value) {
	case models.JobStatusOpen, models.JobStatusQuoted, models.JobStatusInProgress, models.JobStatusCompleted:
		return true
	default:
		return false
	}
}
