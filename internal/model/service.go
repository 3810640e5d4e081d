package model

import (
	"fmt"
	"time"
)

// Service categories. The category acts as a discriminator tag
// selecting which extra fields are required at creation.
const (
	CategoryRemorquage      = "REMORQUAGE"       // towing
	CategoryMecanique       = "MECANIQUE"        // repair work
	CategoryPieceAuto       = "PIECE_AUTO"       // spare parts
	CategoryLocationVoiture = "LOCATION_VOITURE" // car rental
)

// ValidCategory reports whether s is one of the known service categories.
func ValidCategory(s string) bool {
	switch s {
	case CategoryRemorquage, CategoryMecanique, CategoryPieceAuto, CategoryLocationVoiture:
		return true
	}
	return false
}

// Service represents a provider listing as stored in the `services`
// table. The base columns are shared by every category; the
// category-specific columns are nullable and only populated for the
// matching category. This mirrors a single flat table with a
// discriminator column rather than one table per category.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user (SERVICE_USER or ADMIN) who created the listing.
//  Category    – discriminator tag (REMORQUAGE, MECANIQUE, PIECE_AUTO,
//                LOCATION_VOITURE).
//  Title       – short listing title.
//  Description – free-form description.
//  Location    – where the service is offered.
//  Price       – listed price.
//  Image       – image file name; defaults to "no-photo.jpg".
//  Available   – whether the service accepts new bookings.
//  CreatedAt   – creation timestamp.
type Service struct {
	ID          uint64    // services.id
	OwnerID     uint64    // services.owner_id
	Category    string    // services.category
	Title       string    // services.title
	Description string    // services.description
	Location    string    // services.location
	Price       float64   // services.price
	Image       string    // services.image
	Available   bool      // services.available
	CreatedAt   time.Time // services.created_at

	Details ServiceDetails // category-specific columns
}

// ServiceDetails carries the category-specific attribute bundles.
// All fields are pointers so that absent values stay NULL in the
// database and are omitted from JSON responses.
type ServiceDetails struct {
	// REMORQUAGE
	VehicleType *string  `json:"vehicleType,omitempty"` // services.vehicle_type (required)
	Distance    *float64 `json:"distance,omitempty"`    // services.distance
	Urgency     *string  `json:"urgency,omitempty"`     // services.urgency

	// PIECE_AUTO
	Brand      *string `json:"brand,omitempty"`      // services.brand (required)
	Model      *string `json:"model,omitempty"`      // services.model (required)
	Year       *int    `json:"year,omitempty"`       // services.year (shared with LOCATION_VOITURE)
	PartNumber *string `json:"partNumber,omitempty"` // services.part_number

	// MECANIQUE
	RepairType    *string `json:"repairType,omitempty"`    // services.repair_type (required)
	EstimatedTime *string `json:"estimatedTime,omitempty"` // services.estimated_time
	ToolsRequired *string `json:"toolsRequired,omitempty"` // services.tools_required

	// LOCATION_VOITURE
	CarBrand       *string `json:"carBrand,omitempty"`       // services.car_brand (required)
	CarModel       *string `json:"carModel,omitempty"`       // services.car_model (required)
	FuelType       *string `json:"fuelType,omitempty"`       // services.fuel_type
	Transmission   *string `json:"transmission,omitempty"`   // services.transmission
	RentalDuration *string `json:"rentalDuration,omitempty"` // services.rental_duration
}

// requiredDetails maps each category to the detail fields that must be
// present at creation. Categories outside this map (none today) have no
// extra required fields; that permissive fallback is intentional and
// matches the behaviour the API has always had.
var requiredDetails = map[string][]requiredField{
	CategoryRemorquage: {
		{"vehicleType", func(d ServiceDetails) bool { return strPresent(d.VehicleType) }},
	},
	CategoryPieceAuto: {
		{"brand", func(d ServiceDetails) bool { return strPresent(d.Brand) }},
		{"model", func(d ServiceDetails) bool { return strPresent(d.Model) }},
	},
	CategoryMecanique: {
		{"repairType", func(d ServiceDetails) bool { return strPresent(d.RepairType) }},
	},
	CategoryLocationVoiture: {
		{"carBrand", func(d ServiceDetails) bool { return strPresent(d.CarBrand) }},
		{"carModel", func(d ServiceDetails) bool { return strPresent(d.CarModel) }},
	},
}

type requiredField struct {
	name    string
	present func(ServiceDetails) bool
}

func strPresent(s *string) bool { return s != nil && *s != "" }

// ValidateDetails checks that every detail field required by the
// category is present. It returns the json name of the first missing
// field, suitable for a user-facing validation message.
func ValidateDetails(category string, d ServiceDetails) error {
	for _, f := range requiredDetails[category] {
		if !f.present(d) {
			return fmt.Errorf("please provide %s", f.name)
		}
	}
	return nil
}
