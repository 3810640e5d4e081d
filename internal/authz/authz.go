// Package authz implements the marketplace authorization policy as a
// pure decision function. Handlers load the identity and resource
// state, ask Authorize, and translate a deny into an HTTP response.
// Keeping the rules in one place (instead of scattering ownership
// checks across handlers) is what makes the role matrix reviewable.
package authz

import (
	"github.com/amineqh/auto-services-marketplace/internal/apperr"
	"github.com/amineqh/auto-services-marketplace/internal/model"
)

// Action names a policy-relevant operation on a resource.
type Action string

const (
	ActionCreate       Action = "create"
	ActionReadOne      Action = "readOne"
	ActionReadMany     Action = "readMany"
	ActionUpdate       Action = "update"
	ActionUpdateStatus Action = "updateStatus"
	ActionDelete       Action = "delete"
)

// Reason classifies why a request was denied. A broken resource
// reference is NotFound and must never be reported as Forbidden; the
// two answer different questions (does it exist vs. may you touch it).
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	ReasonNotFound        Reason = "not_found"
	ReasonInvalid         Reason = "invalid"
)

// Identity is the authenticated actor. A nil *Identity means the
// request carries no authentication at all.
type Identity struct {
	ID   uint64
	Role string
}

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  Reason
	Message string
}

// Err converts a deny into the matching typed error from the
// taxonomy. Calling Err on an allow returns nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		return apperr.Authentication(d.Message)
	case ReasonNotFound:
		return apperr.NotFound("%s", d.Message)
	case ReasonInvalid:
		return apperr.Validation("%s", d.Message)
	default:
		return apperr.Authorization(d.Message)
	}
}

func allow() Decision { return Decision{Allowed: true} }

func deny(r Reason, msg string) Decision {
	return Decision{Allowed: false, Reason: r, Message: msg}
}

// Authorize decides whether id may perform action on res. It is a
// pure function over the supplied state and has no side effects.
//
// Evaluation order: reference integrity of the target resource comes
// first (a broken or unavailable reference is reported the same way
// to every caller, admins included), then the admin blanket allow,
// then per-role and ownership rules.
func Authorize(id *Identity, action Action, res Resource) Decision {
	switch r := res.(type) {
	case *Service:
		return authorizeService(id, action, r)
	case *Booking:
		return authorizeBooking(id, action, r)
	case *Order:
		return authorizeOrder(id, action, r)
	}
	return deny(ReasonNotFound, "unknown resource")
}

func authorizeService(id *Identity, action Action, svc *Service) Decision {
	// Reads are public; no identity needed.
	if action == ActionReadOne || action == ActionReadMany {
		if action == ActionReadOne && svc == nil {
			return deny(ReasonNotFound, "service not found")
		}
		return allow()
	}
	if id == nil {
		return deny(ReasonUnauthenticated, "not authorized to access this route")
	}
	if id.Role == model.RoleAdmin {
		if action != ActionCreate && svc == nil {
			return deny(ReasonNotFound, "service not found")
		}
		return allow()
	}
	switch action {
	case ActionCreate:
		if id.Role != model.RoleServiceUser {
			return deny(ReasonForbidden, "role is not authorized to create services")
		}
		return allow()
	case ActionUpdate, ActionDelete:
		if svc == nil {
			return deny(ReasonNotFound, "service not found")
		}
		if svc.OwnerID != id.ID {
			return deny(ReasonForbidden, "not authorized to modify this service")
		}
		return allow()
	}
	return deny(ReasonForbidden, "not authorized")
}

func authorizeBooking(id *Identity, action Action, b *Booking) Decision {
	if id == nil {
		return deny(ReasonUnauthenticated, "not authorized to access this route")
	}

	if action == ActionCreate {
		// Reference checks come before any role rule so a missing or
		// unavailable service reads the same for every caller.
		if b == nil || b.Service == nil {
			return deny(ReasonNotFound, "service not found")
		}
		if !b.Service.Available {
			return deny(ReasonInvalid, "service is not available")
		}
		if id.Role == model.RoleAdmin {
			return allow()
		}
		if id.Role != model.RoleClient {
			return deny(ReasonForbidden, "only clients can create bookings")
		}
		return allow()
	}

	if b == nil {
		return deny(ReasonNotFound, "booking not found")
	}
	if id.Role == model.RoleAdmin {
		return allow()
	}

	switch action {
	case ActionReadOne:
		if id.Role == model.RoleClient {
			if b.ClientID != id.ID {
				return deny(ReasonForbidden, "not authorized to view this booking")
			}
			return allow()
		}
		// Provider access runs through the service reference.
		if b.Service == nil {
			return deny(ReasonNotFound, "service not found")
		}
		if b.Service.OwnerID != id.ID {
			return deny(ReasonForbidden, "not authorized to view this booking")
		}
		return allow()
	case ActionReadMany:
		// Any authenticated role may list; query scoping narrows results.
		return allow()
	case ActionUpdateStatus:
		// Clients never change status, owners or not.
		if id.Role != model.RoleServiceUser {
			return deny(ReasonForbidden, "not authorized to update booking status")
		}
		if b.Service == nil {
			return deny(ReasonNotFound, "service not found")
		}
		if b.Service.OwnerID != id.ID {
			return deny(ReasonForbidden, "not authorized to update booking status")
		}
		return allow()
	case ActionUpdate:
		if id.Role == model.RoleClient {
			if b.ClientID != id.ID {
				return deny(ReasonForbidden, "not authorized to update this booking")
			}
			return allow() // handler restricts the client to notes
		}
		if b.Service == nil {
			return deny(ReasonNotFound, "service not found")
		}
		if b.Service.OwnerID != id.ID {
			return deny(ReasonForbidden, "not authorized to update this booking")
		}
		return allow()
	case ActionDelete:
		if b.ClientID != id.ID {
			return deny(ReasonForbidden, "not authorized to delete this booking")
		}
		return allow()
	}
	return deny(ReasonForbidden, "not authorized")
}

func authorizeOrder(id *Identity, action Action, o *Order) Decision {
	if id == nil {
		return deny(ReasonUnauthenticated, "not authorized to access this route")
	}
	if id.Role == model.RoleAdmin {
		if action != ActionCreate && action != ActionReadMany && o == nil {
			return deny(ReasonNotFound, "order not found")
		}
		return allow()
	}
	switch action {
	case ActionCreate:
		if id.Role != model.RoleClient {
			return deny(ReasonForbidden, "only clients can place orders")
		}
		return allow()
	case ActionReadMany:
		return allow() // scoping narrows to the caller's own orders
	case ActionReadOne, ActionUpdate, ActionDelete:
		if o == nil {
			return deny(ReasonNotFound, "order not found")
		}
		if o.ClientID != id.ID {
			return deny(ReasonForbidden, "not authorized to access this order")
		}
		return allow()
	}
	return deny(ReasonForbidden, "not authorized")
}
