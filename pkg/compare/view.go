package compare

import (
	"regexp"
	"strconv"
	"strings"

	"quick-compare/pkg/models"
)

// OfferView is one platform row of a product card.
type OfferView struct {
	Platform    string `json:"platform"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
	Logo        string `json:"logo,omitempty"`
	Price       string `json:"price"`
	IsCheapest  bool   `json:"is_cheapest"`
	InStock     bool   `json:"in_stock"`
	ProductURL  string `json:"product_url"`
	ETA         string `json:"eta"`
	Slot        *Slot  `json:"slot,omitempty"`
}

// ProductView is a product card ready to be drawn.
type ProductView struct {
	Name            string      `json:"name"`
	Quantity        string      `json:"quantity"`
	ImageURL        string      `json:"image_url,omitempty"`
	CheapestPrice   float64     `json:"cheapest_price"`
	LowestPrice     string      `json:"lowest_price,omitempty"`
	FastestDelivery string      `json:"fastest_delivery,omitempty"`
	Offers          []OfferView `json:"platforms"`
}

// BuildViews runs one render pass: filter by selector, then work out the
// cheapest offer and the ETA line of every row. etas holds the raw ETA per
// platform; a platform missing from it renders as unavailable.
func BuildViews(products []models.Product, selector string, etas map[models.Platform]string) []ProductView {
	visible := FilterByPlatform(products, selector)
	views := make([]ProductView, 0, len(visible))

	for _, p := range visible {
		cheapest := CheapestPrice(p.Platforms)

		v := ProductView{
			Name:            orDefault(p.Name, "Unnamed Product"),
			Quantity:        orDefault(p.Quantity, NotAvailable),
			ImageURL:        p.ImageURL,
			CheapestPrice:   cheapest,
			FastestDelivery: FastestDelivery(p.Platforms),
			Offers:          make([]OfferView, 0, len(p.Platforms)),
		}
		if cheapest > 0 {
			v.LowestPrice = "₹" + strconv.Itoa(int(cheapest))
		}

		for _, o := range p.Platforms {
			meta := models.MetaFor(o.Platform)
			row := OfferView{
				Platform:    meta.Key,
				DisplayName: meta.Name,
				Color:       meta.Color,
				Logo:        meta.Logo,
				Price:       orDefault(o.Price, NotAvailable),
				IsCheapest:  IsCheapest(o, cheapest),
				InStock:     o.InStock,
				ProductURL:  orDefault(o.ProductURL, "#"),
				ETA:         NotAvailable,
			}
			if kind := o.Kind(); kind != models.Unknown {
				raw := etas[kind]
				row.ETA = FormatETA(raw, kind.Key())
				row.Slot = SlotFor(raw, kind.Key())
			}
			v.Offers = append(v.Offers, row)
		}
		views = append(views, v)
	}
	return views
}

var minutes = regexp.MustCompile(`(\d+)`)

// FastestDelivery picks the delivery_time with the smallest leading number,
// e.g. "8 min" over "12 min". Empty when no offer reports one.
func FastestDelivery(offers []models.Offer) string {
	best, bestMin := "", -1
	for _, o := range offers {
		if o.DeliveryTime == "" || o.DeliveryTime == NotAvailable {
			continue
		}
		m := minutes.FindString(o.DeliveryTime)
		if m == "" {
			continue
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if bestMin < 0 || n < bestMin {
			best, bestMin = o.DeliveryTime, n
		}
	}
	return best
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

