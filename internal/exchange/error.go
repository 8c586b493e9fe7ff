package exchange

import "fmt"

// Kind distinguishes the two ways an exchange can fail: the token endpoint
// explicitly rejecting the code (already used, expired, client mismatch), or
// the endpoint being unreachable or returning something unintelligible
type Kind int

const (
	KindRejected Kind = iota
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindTransport:
		return "transport"
	}
	return "unknown"
}

// Error describes a failed code-for-token exchange
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("token exchange failed (%s): %s", e.Kind, e.Reason)
}
