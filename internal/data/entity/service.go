package entity

import (
	"regexp"
	"strings"
)

// AddOn is an optional extra a customer can attach to a catalog service,
// e.g. fridge cleaning on top of a kitchen deep clean.
type AddOn struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Service is one bookable cleaning service in the catalog.
type Service struct {
	Base
	Name        string  `db:"name"`
	Slug        string  `db:"slug"`
	Description *string `db:"description"`
	Category    string  `db:"category"`
	BasePrice   float64 `db:"base_price"`
	DurationMin int     `db:"duration_minutes"`
	AddOns      []AddOn `db:"add_ons"` // stored as JSONB
	IsActive    bool    `db:"is_active"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalises a service name into its URL slug. Invoked explicitly
// by create/update, not by a persistence hook.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStrip.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// AddOnByName returns the add-on with the given name, if the service offers it.
func (s *Service) AddOnByName(name string) (AddOn, bool) {
	for _, a := range s.AddOns {
		if a.Name == name {
			return a, true
		}
	}
	return AddOn{}, false
}
