package config

import (
	"fmt"
	"strings"
	"time"

	"salescope/internal/textutil"
)

// UnknownSalesman is reported for videos with no roster entry.
const UnknownSalesman = "Unknown"

const rosterDateLayout = "2006-01-02"

// Roster maps a shop to the salesman on duty per YYYY-MM-DD date. Shops are
// matched by textutil.NameKey, so "Harbor" and "harbor" are the same shop.
type Roster map[string]map[string]string

// Lookup returns the salesman working shop on date, or UnknownSalesman.
func (r Roster) Lookup(shop, date string) string {
	if date == "" {
		return UnknownSalesman
	}
	key := textutil.NameKey(shop)
	for name, days := range r {
		if textutil.NameKey(name) != key {
			continue
		}
		if salesman := strings.TrimSpace(days[date]); salesman != "" {
			return salesman
		}
	}
	return UnknownSalesman
}

func (r Roster) validate() error {
	seen := make(map[string]string, len(r))
	for shop, days := range r {
		key := textutil.NameKey(shop)
		if other, ok := seen[key]; ok {
			return fmt.Errorf("salesmen: shops %q and %q name the same shop", other, shop)
		}
		seen[key] = shop
		for date, name := range days {
			if _, err := time.Parse(rosterDateLayout, date); err != nil {
				return fmt.Errorf("salesmen.%s: %q is not a YYYY-MM-DD date", shop, date)
			}
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("salesmen.%s.%s: salesman name is empty", shop, date)
			}
		}
	}
	return nil
}
