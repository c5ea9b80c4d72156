// Package guard gates administrator-only views behind two sequential
// asynchronous checks: session resolution, then the admin marker lookup for
// the resolved identity.
package guard

import "fmt"

// Decision is the derived access verdict for an admin view
type Decision int

const (
	Pending Decision = iota
	DeniedNotAuthenticated
	DeniedNotAdmin
	DeniedLookupError
	Granted
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case DeniedNotAuthenticated:
		return "denied_not_authenticated"
	case DeniedNotAdmin:
		return "denied_not_admin"
	case DeniedLookupError:
		return "denied_lookup_error"
	case Granted:
		return "granted"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Denied reports whether d is one of the terminal denial states
func (d Decision) Denied() bool {
	return d == DeniedNotAuthenticated || d == DeniedNotAdmin || d == DeniedLookupError
}

// Session is the visitor's authentication resolution state.
// An empty Identity with Resolving false means "resolved, signed out".
type Session struct {
	Identity  string
	Resolving bool
}

// Marker is the result of the admin marker lookup for Identity
type Marker struct {
	Identity  string
	Exists    bool
	Resolving bool
	Err       error
}

// Decide derives the access decision. A marker computed for a different
// identity than the session's never contributes; the decision stays Pending
// until a lookup for the current identity resolves.
func Decide(s Session, m Marker) Decision {
	if s.Resolving {
		return Pending
	}
	if s.Identity == "" {
		return DeniedNotAuthenticated
	}
	if m.Identity != s.Identity || m.Resolving {
		return Pending
	}
	if m.Err != nil {
		return DeniedLookupError
	}
	if !m.Exists {
		return DeniedNotAdmin
	}
	return Granted
}

// Destination is a navigation target for denied visitors
type Destination string

const (
	DestinationLogin Destination = "/login"
	DestinationHome  Destination = "/"
)

// DestinationFor returns where a denied visitor is sent
func DestinationFor(d Decision) (Destination, bool) {
	switch d {
	case DeniedNotAuthenticated:
		return DestinationLogin, true
	case DeniedNotAdmin, DeniedLookupError:
		return DestinationHome, true
	default:
		return "", false
	}
}

// Render is what the guarded view shows
type Render int

const (
	RenderLoading Render = iota
	RenderContent
)

func (r Render) String() string {
	if r == RenderContent {
		return "content"
	}
	return "loading"
}

// RenderFor maps a decision to a render state. Denied decisions keep the
// loading placeholder up until navigation happens.
func RenderFor(d Decision) Render {
	if d == Granted {
		return RenderContent
	}
	return RenderLoading
}

// Severity of a visitor notice
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Notice is a dismissable message shown to the visitor before a redirect
type Notice struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Detail   string   `json:"detail"`
}

// NoticeFor builds the visitor notice for d. Only the two denials that can
// come from a legitimate but misconfigured administrator carry one, and both
// include the identity so the visitor can hand it to whoever manages roles.
func NoticeFor(d Decision, identity string, lookupErr error) (Notice, bool) {
	switch d {
	case DeniedNotAdmin:
		return Notice{
			Severity: SeverityError,
			Title:    "Access Denied",
			Detail: fmt.Sprintf(
				"Your account (UID: %s) does not have administrator privileges. "+
					"An administrator must create an admin role for this UID.", identity),
		}, true
	case DeniedLookupError:
		return Notice{
			Severity: SeverityError,
			Title:    "Permission Error",
			Detail: fmt.Sprintf(
				"Could not verify administrator status for UID %s: %v. "+
					"Check the role store's access rules.", identity, lookupErr),
		}, true
	default:
		return Notice{}, false
	}
}
