package model

// Principal is the authenticated caller of a request.
// It is injected into the request context by the auth middleware.
type Principal struct {
	AccountID   string `json:"account_id"`
	ExternalRef string `json:"external_ref"`
	Email       string `json:"email"`
}
