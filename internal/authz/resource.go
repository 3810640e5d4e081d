package authz

import "github.com/amineqh/auto-services-marketplace/internal/apperr"

// Resource describes the already-loaded state the policy engine needs
// about the thing being acted on. Callers fetch the records; the
// engine never touches storage. The three implementations cover the
// resource types of the marketplace.
type Resource interface {
	resource()
}

// Service carries the ownership and availability state of a service
// listing. A nil *Service passed where one is referenced (e.g. when
// creating a booking against a service id that did not resolve)
// means the reference is broken.
type Service struct {
	OwnerID   uint64
	Available bool
}

func (*Service) resource() {}

// Booking carries a booking's owning client and, when resolved, the
// service it points at. Service stays nil when the service id no
// longer resolves; the engine reports that as not-found rather than
// dereferencing it.
type Booking struct {
	ClientID uint64
	Service  *Service
}

func (*Booking) resource() {}

// Order carries the owning client of a parts order.
type Order struct {
	ClientID uint64
}

func (*Order) resource() {}

// Owners resolves the set of identities holding an ownership
// relationship over res. Ownership is direct (order/booking client,
// service owner) or one-hop transitive (booking → service → owner).
// A broken intermediate reference yields a not-found error instead
// of a crash; deeper chains do not occur in this domain.
func Owners(res Resource) ([]uint64, error) {
	switch r := res.(type) {
	case *Service:
		if r == nil {
			return nil, apperr.NotFound("service not found")
		}
		return []uint64{r.OwnerID}, nil
	case *Order:
		if r == nil {
			return nil, apperr.NotFound("order not found")
		}
		return []uint64{r.ClientID}, nil
	case *Booking:
		if r == nil {
			return nil, apperr.NotFound("booking not found")
		}
		if r.Service == nil {
			return nil, apperr.NotFound("service not found")
		}
		return []uint64{r.ClientID, r.Service.OwnerID}, nil
	}
	return nil, apperr.NotFound("unknown resource")
}
