package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// PartnerMenu is one restaurant partner with its dish list, as stored in the
// partner menu file.
type PartnerMenu struct {
	Name   string        `json:"name"`
	City   string        `json:"city"`
	Area   string        `json:"area,omitempty"`
	Phone  string        `json:"phone,omitempty"`
	Dishes []PartnerDish `json:"dishes"`
}

// PartnerDish is a single menu entry offered by a partner.
type PartnerDish struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	PaymentLink string   `json:"payment_link,omitempty"`
}

// Load reads a catalog file (JSON array of items).
func Load(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	log.Debug().Int("items", len(items)).Str("path", path).Msg("catalog loaded")
	return items, nil
}

// LoadPartnerMenus reads the partner menu file (JSON array of partners).
func LoadPartnerMenus(path string) ([]PartnerMenu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read partner menus: %w", err)
	}

	var menus []PartnerMenu
	if err := json.Unmarshal(data, &menus); err != nil {
		return nil, fmt.Errorf("failed to parse partner menus: %w", err)
	}

	log.Debug().Int("partners", len(menus)).Str("path", path).Msg("partner menus loaded")
	return menus, nil
}

// FlattenPartners converts partner menus into pool items carrying partner,
// city and price metadata.
func FlattenPartners(menus []PartnerMenu) []Item {
	var items []Item
	for _, m := range menus {
		for _, d := range m.Dishes {
			items = append(items, Item{
				Title:       d.Title,
				Description: d.Description,
				Tags:        d.Tags,
				Partner:     m.Name,
				City:        m.City,
				Price:       d.Price,
				Link:        d.PaymentLink,
			})
		}
	}
	return items
}

// PartnersFor returns the partners in a city offering a dish, matched
// case-insensitively on a title substring.
func PartnersFor(menus []PartnerMenu, dish, city string) []PartnerMenu {
	dish = strings.ToLower(dish)
	var out []PartnerMenu
	for _, m := range menus {
		if city != "" && !strings.EqualFold(m.City, city) {
			continue
		}
		var offered []PartnerDish
		for _, d := range m.Dishes {
			if strings.Contains(strings.ToLower(d.Title), dish) {
				offered = append(offered, d)
			}
		}
		if len(offered) > 0 {
			match := m
			match.Dishes = offered
			out = append(out, match)
		}
	}
	return out
}

// Filter applies diet preferences to a pool. If the filter empties a
// non-empty pool the full pool is returned instead, so the ranking floor can
// still be met.
func Filter(pool []Item, diet string, satvik bool) []Item {
	var out []Item
	for _, it := range pool {
		if diet == "veg" && it.Type != "" && it.Type != "veg" {
			continue
		}
		if diet == "nonveg" && it.Type != "" && it.Type != "nonveg" {
			continue
		}
		if satvik && !it.HasTag("satvik") {
			continue
		}
		out = append(out, it)
	}
	if len(out) == 0 {
		return pool
	}
	return out
}
