package models

import "fmt"

// ProductType is the closed set of products a customer can buy.
type ProductType string

const (
	ProductDigital         ProductType = "digital"
	ProductArtPrint        ProductType = "art_print"
	ProductCanvasStretched ProductType = "canvas_stretched"
	ProductCanvasFramed    ProductType = "canvas_framed"
)

func ParseProductType(s string) (ProductType, error) {
	switch p := ProductType(s); p {
	case ProductDigital, ProductArtPrint, ProductCanvasStretched, ProductCanvasFramed:
		return p, nil
	default:
		return "", fmt.Errorf("unknown product type %q", s)
	}
}

// IsPhysical reports whether the product is printed and shipped.
func (p ProductType) IsPhysical() bool {
	switch p {
	case ProductDigital:
		return false
	case ProductArtPrint, ProductCanvasStretched, ProductCanvasFramed:
		return true
	default:
		return false
	}
}

func (p ProductType) IsCanvas() bool {
	switch p {
	case ProductCanvasStretched, ProductCanvasFramed:
		return true
	default:
		return false
	}
}

func (p ProductType) DisplayName() string {
	switch p {
	case ProductDigital:
		return "Digital Download"
	case ProductArtPrint:
		return "Art Print"
	case ProductCanvasStretched:
		return "Canvas (Stretched)"
	case ProductCanvasFramed:
		return "Canvas (Framed)"
	default:
		return string(p)
	}
}

// WithFrameUpgrade returns the product actually fulfilled when the customer
// bought the frame upgrade.
func (p ProductType) WithFrameUpgrade(upgrade bool) ProductType {
	if upgrade && p == ProductCanvasStretched {
		return ProductCanvasFramed
	}
	return p
}

// DeliveryBusinessDays is the estimate shown on the order page.
func (p ProductType) DeliveryBusinessDays() int {
	switch p {
	case ProductDigital:
		return 0
	case ProductArtPrint:
		return 7
	case ProductCanvasStretched, ProductCanvasFramed:
		return 10
	default:
		return 10
	}
}
