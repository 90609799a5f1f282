package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"pawpop-backend/internal/catalog"
	"pawpop-backend/internal/models"
	"pawpop-backend/internal/printify"
)

type FulfillmentProvider interface {
	CreateCatalogEntry(ctx context.Context, req printify.CatalogEntryRequest) (*printify.CatalogEntry, error)
	SubmitOrder(ctx context.Context, req printify.OrderRequest) (*printify.SubmittedOrder, error)
	GetShippingMethods(ctx context.Context, productType models.ProductType, region catalog.Region) ([]printify.ShippingMethod, error)
}

// CatalogCache remembers provider products so a reorder of the same image
// does not create a second product.
type CatalogCache interface {
	Get(ctx context.Context, key string) (*printify.CatalogEntry, bool, error)
	Set(ctx context.Context, key string, entry *printify.CatalogEntry) error
}

type FulfillmentRequest struct {
	ExternalID       string
	ProductType      models.ProductType
	Size             string
	ImageURL         string
	ShippingAddress  *models.ShippingAddress
	CustomerName     string
	PetName          string
	Quantity         int
	ShippingMethodID int
}

type FulfillmentResult struct {
	ExternalOrderID  string
	Status           string
	ProductID        string
	VariantID        int
	ShippingMethodID int
}

// FulfillmentBuilder validates an order and submits it to the print
// provider. It makes a single attempt.
type FulfillmentBuilder struct {
	provider FulfillmentProvider
	cache    CatalogCache
	logger   *slog.Logger
}

func NewFulfillmentBuilder(provider FulfillmentProvider, cache CatalogCache, logger *slog.Logger) *FulfillmentBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &FulfillmentBuilder{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

// Validate checks the request against the catalog without side effects.
func (b *FulfillmentBuilder) Validate(req FulfillmentRequest) (*catalog.Product, error) {
	productType, err := models.ParseProductType(string(req.ProductType))
	if err != nil {
		return nil, &ValidationError{Field: "product_type", Reason: err.Error()}
	}
	if !productType.IsPhysical() {
		return nil, &ValidationError{Field: "product_type", Reason: "digital products are not printed"}
	}

	if missing := req.ShippingAddress.MissingFields(); len(missing) > 0 {
		return nil, &ValidationError{Field: "shipping_address", Reason: "missing " + strings.Join(missing, ", ")}
	}
	country := strings.ToUpper(strings.TrimSpace(req.ShippingAddress.Country))
	if len(country) != 2 {
		return nil, &ValidationError{Field: "shipping_address", Reason: fmt.Sprintf("country %q is not a 2-letter code", req.ShippingAddress.Country)}
	}

	product, err := catalog.Lookup(productType, country)
	if err != nil {
		return nil, &ValidationError{Field: "country", Reason: err.Error()}
	}
	if _, ok := product.Variant(req.Size); !ok {
		return nil, &ValidationError{
			Field:  "size",
			Reason: fmt.Sprintf("%s is not available for %s in %s (available: %s)", req.Size, productType, product.Region, strings.Join(product.Sizes(), ", ")),
		}
	}

	if err := validateImageURL(req.ImageURL); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	return product, nil
}

func (b *FulfillmentBuilder) BuildAndSubmit(ctx context.Context, req FulfillmentRequest) (*FulfillmentResult, error) {
	product, err := b.Validate(req)
	if err != nil {
		return nil, err
	}

	entry, err := b.catalogEntry(ctx, req, product)
	if err != nil {
		return nil, err
	}

	methodID := b.shippingMethod(ctx, req, product)

	address := *req.ShippingAddress
	address.Country = strings.ToUpper(strings.TrimSpace(address.Country))

	submitted, err := b.provider.SubmitOrder(ctx, printify.OrderRequest{
		ExternalID:       req.ExternalID,
		Label:            OrderLabel(req.CustomerName, req.PetName),
		ProductID:        entry.ProductID,
		VariantID:        entry.VariantID,
		Quantity:         req.Quantity,
		ShippingMethodID: methodID,
		Address:          address,
	})
	if err != nil {
		return nil, err
	}

	return &FulfillmentResult{
		ExternalOrderID:  submitted.ID,
		Status:           submitted.Status,
		ProductID:        entry.ProductID,
		VariantID:        entry.VariantID,
		ShippingMethodID: methodID,
	}, nil
}

func (b *FulfillmentBuilder) catalogEntry(ctx context.Context, req FulfillmentRequest, product *catalog.Product) (*printify.CatalogEntry, error) {
	key := CatalogKey(product.Type, req.Size, product.Region, req.ImageURL)

	if b.cache != nil {
		entry, ok, err := b.cache.Get(ctx, key)
		if err != nil {
			b.logger.Warn("catalog cache read failed", "key", key, "error", err)
		} else if ok {
			return entry, nil
		}
	}

	entry, err := b.provider.CreateCatalogEntry(ctx, printify.CatalogEntryRequest{
		ProductType: product.Type,
		Size:        req.Size,
		ImageURL:    req.ImageURL,
		Region:      product.Region,
		Title:       productTitle(product.Type, req.CustomerName, req.PetName),
		Description: productDescription(product.Type, req.PetName, req.Size),
	})
	if err != nil {
		return nil, err
	}

	if b.cache != nil {
		if err := b.cache.Set(ctx, key, entry); err != nil {
			b.logger.Warn("catalog cache write failed", "key", key, "error", err)
		}
	}
	return entry, nil
}

// shippingMethod prefers the customer's choice, then the provider's first
// option, then standard shipping.
func (b *FulfillmentBuilder) shippingMethod(ctx context.Context, req FulfillmentRequest, product *catalog.Product) int {
	if req.ShippingMethodID > 0 {
		return req.ShippingMethodID
	}
	methods, err := b.provider.GetShippingMethods(ctx, product.Type, product.Region)
	if err != nil {
		b.logger.Warn("shipping methods lookup failed, using standard", "product_type", product.Type, "error", err)
		return printify.StandardShippingMethod
	}
	if len(methods) > 0 && methods[0].ID > 0 {
		return methods[0].ID
	}
	return printify.StandardShippingMethod
}

// CatalogKey identifies a provider product by what is printed and where.
func CatalogKey(productType models.ProductType, size string, region catalog.Region, imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return fmt.Sprintf("%s|%s|%s|%s", productType, size, region, hex.EncodeToString(sum[:])[:16])
}

// OrderLabel is shown in the provider dashboard so support can find orders.
func OrderLabel(customerName, petName string) string {
	label := "PawPop Order - " + customerName
	if petName != "" {
		label += " (" + petName + ")"
	}
	return label
}

func productTitle(productType models.ProductType, customerName, petName string) string {
	title := fmt.Sprintf("PawPop %s - %s", productType.DisplayName(), customerName)
	if petName != "" {
		title += " (" + petName + ")"
	}
	return title
}

func productDescription(productType models.ProductType, petName, size string) string {
	if petName == "" {
		petName = "your pet"
	}
	return fmt.Sprintf("Custom %s featuring %s in the style of the Mona Lisa. Size: %s", productType.DisplayName(), petName, size)
}

func validateImageURL(raw string) error {
	if raw == "" {
		return &ValidationError{Field: "image_url", Reason: "is empty"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "image_url", Reason: err.Error()}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "image_url", Reason: "must be an absolute http(s) URL"}
	}
	return nil
}

