package contextkeys

// contextKey is unexported to avoid collisions with other packages.
type contextKey string

// DBContextKey stores the *gorm.DB handle (pool or transaction) in context.
const DBContextKey = contextKey("db")

// RequestIDKey stores the per-request id set by the request id middleware.
const RequestIDKey = contextKey("request_id")
