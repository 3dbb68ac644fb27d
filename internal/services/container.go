package services

import "tradehub_backend/internal/repositories"

// ServiceContainer bundles the constructed services for wiring in app.
type ServiceContainer struct {
	AuthService    AuthService
	TraderService  TraderService
	BillingService BillingService
	JobService     JobService

	// UserRepo is exposed for handlers that only need a user lookup.
	UserRepo repositories.UserRepository
}
