package printify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pawpop-backend/internal/catalog"
	"pawpop-backend/internal/models"
)

const DefaultBaseURL = "https://api.printify.com/v1"

// StandardShippingMethod is Printify's standard shipping method id.
const StandardShippingMethod = 1

type Client struct {
	baseURL    string
	apiToken   string
	shopID     string
	httpClient *http.Client
}

// CatalogEntryRequest asks for a shop product built from one image.
type CatalogEntryRequest struct {
	ProductType models.ProductType
	Size        string
	ImageURL    string
	Region      catalog.Region
	Title       string
	Description string
}

// CatalogEntry is a created shop product and the variant to order.
type CatalogEntry struct {
	ProductID string `json:"product_id"`
	VariantID int    `json:"variant_id"`
}

type OrderRequest struct {
	ExternalID       string
	Label            string
	ProductID        string
	VariantID        int
	Quantity         int
	ShippingMethodID int
	Address          models.ShippingAddress
}

type SubmittedOrder struct {
	ID     string
	Status string
}

type ShippingMethod struct {
	ID            int
	Name          string
	CostCents     int
	EstimatedDays string
}

type uploadImageIn struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

type uploadImageOut struct {
	ID string `json:"id"`
}

type productImage struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
	Angle int     `json:"angle"`
}

type placeholder struct {
	Position string         `json:"position"`
	Images   []productImage `json:"images"`
}

type printArea struct {
	VariantIDs   []int         `json:"variant_ids"`
	Placeholders []placeholder `json:"placeholders"`
}

type productVariantIn struct {
	ID        int   `json:"id"`
	Price     int64 `json:"price"`
	IsEnabled bool  `json:"is_enabled"`
}

type productIn struct {
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	BlueprintID     int                `json:"blueprint_id"`
	PrintProviderID int                `json:"print_provider_id"`
	Variants        []productVariantIn `json:"variants"`
	PrintAreas      []printArea        `json:"print_areas"`
}

type productOut struct {
	ID string `json:"id"`
}

type lineItem struct {
	ProductID string `json:"product_id"`
	VariantID int    `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type orderIn struct {
	ExternalID               string                 `json:"external_id"`
	Label                    string                 `json:"label,omitempty"`
	LineItems                []lineItem             `json:"line_items"`
	ShippingMethod           int                    `json:"shipping_method"`
	SendShippingNotification bool                   `json:"send_shipping_notification"`
	AddressTo                models.ShippingAddress `json:"address_to"`
}

type orderOut struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

type shippingOut struct {
	HandlingTime struct {
		Value int    `json:"value"`
		Unit  string `json:"unit"`
	} `json:"handling_time"`
	Profiles []struct {
		VariantIDs []int `json:"variant_ids"`
		FirstItem  struct {
			Cost     int    `json:"cost"`
			Currency string `json:"currency"`
		} `json:"first_item"`
		Countries []string `json:"countries"`
	} `json:"profiles"`
}

func NewClient(baseURL, apiToken, shopID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiToken: apiToken,
		shopID:   shopID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateCatalogEntry uploads the image and creates a single-variant product.
func (c *Client) CreateCatalogEntry(ctx context.Context, req CatalogEntryRequest) (*CatalogEntry, error) {
	product, ok := catalog.Get(req.ProductType, req.Region)
	if !ok {
		return nil, fmt.Errorf("no catalog product for %s in %s", req.ProductType, req.Region)
	}
	variant, ok := product.Variant(req.Size)
	if !ok {
		return nil, fmt.Errorf("no variant for size %s", req.Size)
	}

	var image uploadImageOut
	if err := c.do(ctx, http.MethodPost, "/uploads/images.json", uploadImageIn{
		FileName: fmt.Sprintf("pawpop_%s_%s.png", req.ProductType, req.Size),
		URL:      req.ImageURL,
	}, &image); err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	body := productIn{
		Title:           req.Title,
		Description:     req.Description,
		BlueprintID:     product.BlueprintID,
		PrintProviderID: product.PrintProviderID,
		Variants: []productVariantIn{
			{ID: variant.ID, Price: variant.PriceCents, IsEnabled: true},
		},
		PrintAreas: []printArea{{
			VariantIDs: []int{variant.ID},
			Placeholders: []placeholder{{
				Position: "front",
				Images:   []productImage{{ID: image.ID, X: 0.5, Y: 0.5, Scale: 1}},
			}},
		}},
	}

	var created productOut
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/shops/%s/products.json", c.shopID), body, &created); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return &CatalogEntry{ProductID: created.ID, VariantID: variant.ID}, nil
}

func (c *Client) SubmitOrder(ctx context.Context, req OrderRequest) (*SubmittedOrder, error) {
	body := orderIn{
		ExternalID: req.ExternalID,
		Label:      req.Label,
		LineItems: []lineItem{
			{ProductID: req.ProductID, VariantID: req.VariantID, Quantity: req.Quantity},
		},
		ShippingMethod:           req.ShippingMethodID,
		SendShippingNotification: true,
		AddressTo:                req.Address,
	}

	var out orderOut
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/shops/%s/orders.json", c.shopID), body, &out); err != nil {
		return nil, fmt.Errorf("failed to submit order: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("failed to submit order: response has no order id")
	}

	status := out.Status
	if status == "" {
		status = "pending"
	}
	return &SubmittedOrder{ID: out.ID, Status: status}, nil
}

// GetShippingMethods lists the shipping options Printify offers for the
// product's blueprint in region.
func (c *Client) GetShippingMethods(ctx context.Context, productType models.ProductType, region catalog.Region) ([]ShippingMethod, error) {
	product, ok := catalog.Get(productType, region)
	if !ok {
		return nil, fmt.Errorf("no catalog product for %s in %s", productType, region)
	}

	var out shippingOut
	path := fmt.Sprintf("/catalog/blueprints/%d/print_providers/%d/shipping.json", product.BlueprintID, product.PrintProviderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get shipping methods: %w", err)
	}

	estimate := ""
	if out.HandlingTime.Value > 0 {
		estimate = fmt.Sprintf("%d %s", out.HandlingTime.Value, out.HandlingTime.Unit)
	}

	cost := 0
	for _, p := range out.Profiles {
		if p.FirstItem.Cost > cost {
			cost = p.FirstItem.Cost
		}
	}

	return []ShippingMethod{{
		ID:            StandardShippingMethod,
		Name:          "Standard",
		CostCents:     cost,
		EstimatedDays: estimate,
	}}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reqBody io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying the same request could succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
