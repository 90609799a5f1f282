// Package catalog describes the print products we sell and where they ship.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"pawpop-backend/internal/models"
)

type Region string

const (
	RegionNorthAmerica Region = "NORTH_AMERICA"
	RegionEurope       Region = "EUROPE"
	RegionGlobal       Region = "GLOBAL"
)

var (
	ErrNotPhysical       = errors.New("product is not fulfilled by the print provider")
	ErrRegionUnavailable = errors.New("product is not available in this region")
)

type Variant struct {
	ID         int
	Size       string
	PriceCents int64
}

// Product is one blueprint offered by one print provider in one region.
type Product struct {
	Type            models.ProductType
	Region          Region
	BlueprintID     int
	PrintProviderID int
	Variants        []Variant
}

func (p *Product) Variant(size string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Size == size {
			return v, true
		}
	}
	return Variant{}, false
}

func (p *Product) Sizes() []string {
	sizes := make([]string, len(p.Variants))
	for i, v := range p.Variants {
		sizes[i] = v.Size
	}
	return sizes
}

var europeanCountries = map[string]bool{
	"DE": true, "FR": true, "IT": true, "ES": true, "NL": true, "BE": true, "AT": true,
	"PT": true, "IE": true, "FI": true, "SE": true, "DK": true, "NO": true, "PL": true,
	"CZ": true, "HU": true, "SK": true, "SI": true, "HR": true, "BG": true, "RO": true,
	"LT": true, "LV": true, "EE": true, "MT": true, "CY": true, "LU": true, "GR": true,
}

var northAmericanCountries = map[string]bool{"US": true, "CA": true}

var canvasVariants = []Variant{
	{ID: 82228, Size: "12x16", PriceCents: 7999},
	{ID: 82229, Size: "16x20", PriceCents: 9999},
	{ID: 82230, Size: "16x24", PriceCents: 10999},
	{ID: 82231, Size: "20x24", PriceCents: 12999},
}

var products = map[models.ProductType]map[Region]*Product{
	models.ProductArtPrint: {
		RegionNorthAmerica: {
			Type: models.ProductArtPrint, Region: RegionNorthAmerica,
			BlueprintID: 1191, PrintProviderID: 1,
			Variants: []Variant{
				{ID: 91644, Size: "12x18", PriceCents: 2999},
				{ID: 91645, Size: "16x20", PriceCents: 3999},
				{ID: 91646, Size: "18x24", PriceCents: 4999},
				{ID: 91647, Size: "20x30", PriceCents: 5999},
			},
		},
		RegionEurope: {
			Type: models.ProductArtPrint, Region: RegionEurope,
			BlueprintID: 494, PrintProviderID: 1,
			Variants: []Variant{
				{ID: 65216, Size: "12x18", PriceCents: 3499},
				{ID: 65217, Size: "16x20", PriceCents: 4499},
				{ID: 65218, Size: "18x24", PriceCents: 5499},
			},
		},
	},
	models.ProductCanvasStretched: {
		RegionGlobal: {
			Type: models.ProductCanvasStretched, Region: RegionGlobal,
			BlueprintID: 555, PrintProviderID: 1,
			Variants: canvasVariants,
		},
	},
	models.ProductCanvasFramed: {
		RegionGlobal: {
			Type: models.ProductCanvasFramed, Region: RegionGlobal,
			BlueprintID: 944, PrintProviderID: 1,
			Variants: canvasVariants,
		},
	},
}

// RegionFor returns the fulfilment region for a product shipped to country.
// Art prints are only produced for North America and Europe; canvas ships
// everywhere from one catalog.
func RegionFor(productType models.ProductType, country string) (Region, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	switch productType {
	case models.ProductDigital:
		return "", ErrNotPhysical
	case models.ProductCanvasStretched, models.ProductCanvasFramed:
		return RegionGlobal, nil
	case models.ProductArtPrint:
		if europeanCountries[country] {
			return RegionEurope, nil
		}
		if northAmericanCountries[country] {
			return RegionNorthAmerica, nil
		}
		return "", fmt.Errorf("%w: %s to %s", ErrRegionUnavailable, productType, country)
	default:
		return "", fmt.Errorf("unknown product type %q", productType)
	}
}

// Lookup finds the catalog product for productType shipped to country.
func Lookup(productType models.ProductType, country string) (*Product, error) {
	region, err := RegionFor(productType, country)
	if err != nil {
		return nil, err
	}
	p, ok := products[productType][region]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrRegionUnavailable, productType, region)
	}
	return p, nil
}

// Get returns the product for productType in an already resolved region.
func Get(productType models.ProductType, region Region) (*Product, bool) {
	p, ok := products[productType][region]
	return p, ok
}
