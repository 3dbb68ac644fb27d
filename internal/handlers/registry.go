package handlers

// AppHandlers holds every handler the router registers.
type AppHandlers struct {
	AuthHandler    *AuthHandler
	PlanHandler    *PlanHandler
	BillingHandler *BillingHandler
	TraderHandler  *TraderHandler
	JobHandler     *JobHandler
}
