package models

import "strings"

// Platform is a delivery platform we compare prices on.
type Platform int

const (
	Unknown Platform = iota
	Blinkit
	Zepto
	DMart
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{Blinkit, Zepto, DMart}

// Meta is what the storefront needs to draw a platform row.
type Meta struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Logo  string `json:"logo,omitempty"`
}

func (p Platform) Meta() Meta {
	switch p {
	case Blinkit:
		return Meta{Key: "blinkit", Name: "Blinkit", Color: "bg-yellow-500", Logo: "static/assets/Blinkit_logo.webp"}
	case Zepto:
		return Meta{Key: "zepto", Name: "Zepto", Color: "bg-purple-500", Logo: "static/assets/zepto_logo.webp"}
	case DMart:
		return Meta{Key: "dmart", Name: "DMart", Color: "bg-green-500", Logo: "static/assets/Dmart_logo.webp"}
	default:
		return Meta{Color: "bg-gray-500"}
	}
}

// MetaFor returns the metadata for a raw key. Unknown keys are shown under
// their own name in the generic color.
func MetaFor(key string) Meta {
	p := ParsePlatform(key)
	if p == Unknown {
		m := p.Meta()
		m.Key = strings.ToLower(key)
		m.Name = key
		return m
	}
	return p.Meta()
}

func (p Platform) Key() string {
	return p.Meta().Key
}

func (p Platform) String() string {
	if p == Unknown {
		return "unknown"
	}
	return p.Meta().Name
}

// ParsePlatform maps a case-insensitive key to a Platform.
func ParsePlatform(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blinkit":
		return Blinkit
	case "zepto":
		return Zepto
	case "dmart":
		return DMart
	default:
		return Unknown
	}
}

func (p Platform) MarshalText() ([]byte, error) {
	if p == Unknown {
		return []byte("unknown"), nil
	}
	return []byte(p.Key()), nil
}

func (p *Platform) UnmarshalText(b []byte) error {
	*p = ParsePlatform(string(b))
	return nil
}
