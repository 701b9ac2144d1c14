package user

// Principal identifies the authenticated caller of an API operation.
type Principal struct {
	UserID string
	Email  string
}
