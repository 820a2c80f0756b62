package domain

import "time"

// Gender is the demographic attribute used for segment sub-splits.
type Gender string

const (
	GenderFemale  Gender = "F"
	GenderMale    Gender = "M"
	GenderUnknown Gender = "U"
)

// Genders lists every split key in report order.
var Genders = []Gender{GenderFemale, GenderMale, GenderUnknown}

// ParseGender normalizes directory values ("F", "female", "Mme", ...) to a Gender.
func ParseGender(s string) Gender {
	switch s {
	case "F", "f", "female", "Female", "FEMALE", "Mme", "MME", "Mlle":
		return GenderFemale
	case "M", "m", "male", "Male", "MALE", "Mr", "MR", "M.":
		return GenderMale
	default:
		return GenderUnknown
	}
}

// Customer is one entry of the customer directory.
type Customer struct {
	CustomerID string
	Gender     Gender
	City       string
	CreatedAt  time.Time
}
