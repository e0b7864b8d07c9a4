package domain

// RejectionKind classifies why an order command was not carried out.
type RejectionKind string

const (
	RejectUnauthorized RejectionKind = "unauthorized"
	RejectInvalidInput RejectionKind = "invalid_input"
	RejectBackend      RejectionKind = "backend_rejected"
	RejectRateLimited  RejectionKind = "rate_limited"
)

// Rejection is a user-presentable failure of an order command. Status is
// the HTTP status the caller should answer with.
type Rejection struct {
	Kind   RejectionKind `json:"kind"`
	Status int           `json:"status"`
	Reason string        `json:"error"`
}

// CommandResult is the outcome of placing or cancelling an order. Exactly
// one of ConfirmationRefs (on success, possibly empty) or Rejection is
// meaningful.
type CommandResult struct {
	OK               bool       `json:"ok"`
	ConfirmationRefs []string   `json:"confirmationRefs"`
	Rejection        *Rejection `json:"rejection,omitempty"`
}

// Accepted builds a successful CommandResult.
func Accepted(refs []string) CommandResult {
	if refs == nil {
		refs = []string{}
	}
	return CommandResult{OK: true, ConfirmationRefs: refs}
}

// Rejected builds a failed CommandResult.
func Rejected(kind RejectionKind, status int, reason string) CommandResult {
	return CommandResult{
		ConfirmationRefs: []string{},
		Rejection:        &Rejection{Kind: kind, Status: status, Reason: reason},
	}
}
