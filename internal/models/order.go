package models

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID                    uuid.UUID
	StripeSessionID       string
	StripePaymentIntentID sql.NullString
	ArtworkID             uuid.NullUUID
	PrintifyOrderID       sql.NullString
	PrintifyStatus        sql.NullString
	Status                OrderStatus
	ProductType           ProductType
	ProductSize           string
	PriceCents            int64
	Quantity              int
	CustomerEmail         string
	CustomerName          string
	PetName               sql.NullString
	FrameUpgrade          bool
	ShippingMethodID      sql.NullInt64
	ShippingAddress       *ShippingAddress
	SourceImageURL        sql.NullString
	FulfillmentImageURL   sql.NullString
	RetryCount            int
	NextRetryAt           sql.NullTime
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasFulfillment reports whether a provider order already exists.
func (o *Order) HasFulfillment() bool {
	return o.PrintifyOrderID.Valid && o.PrintifyOrderID.String != ""
}

// OrderNumber is the short reference shown to customers.
func (o *Order) OrderNumber() string {
	id := o.ID.String()
	return "PP-" + strings.ToUpper(id[len(id)-5:])
}

// Metadata rebuilds checkout metadata from the persisted order fields.
// ok is false when the fields needed to fulfil the order were never stored.
func (o *Order) Metadata() (meta *OrderMetadata, ok bool) {
	if o.ProductType == "" || o.ProductSize == "" {
		return nil, false
	}
	if o.ProductType.IsPhysical() && !o.SourceImageURL.Valid {
		return nil, false
	}
	meta = &OrderMetadata{
		ProductType:  o.ProductType,
		ImageURL:     o.SourceImageURL.String,
		Size:         o.ProductSize,
		CustomerName: o.CustomerName,
		PetName:      o.PetName.String,
		FrameUpgrade: o.FrameUpgrade,
		Quantity:     o.Quantity,
	}
	if o.ShippingMethodID.Valid {
		meta.ShippingMethodID = int(o.ShippingMethodID.Int64)
	}
	if o.ArtworkID.Valid {
		meta.ArtworkID = o.ArtworkID.UUID
	}
	if meta.Quantity < 1 {
		meta.Quantity = 1
	}
	return meta, true
}

type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Country   string `json:"country"`
	Region    string `json:"region,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
}

// MissingFields lists the required address fields that are empty.
func (a *ShippingAddress) MissingFields() []string {
	if a == nil {
		return []string{"address"}
	}
	var missing []string
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	if strings.TrimSpace(a.Address1) == "" {
		missing = append(missing, "address1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.Zip) == "" {
		missing = append(missing, "zip")
	}
	return missing
}

// SplitName splits a full name into first and last name.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// OrderMetadata is what checkout stores on the payment session.
type OrderMetadata struct {
	ProductType      ProductType
	ImageURL         string
	Size             string
	CustomerName     string
	PetName          string
	FrameUpgrade     bool
	ShippingMethodID int
	Quantity         int
	ArtworkID        uuid.UUID
}

// Metadata keys written by checkout.
const (
	MetaProductType      = "productType"
	MetaImageURL         = "imageUrl"
	MetaSize             = "size"
	MetaCustomerName     = "customerName"
	MetaPetName          = "petName"
	MetaFrameUpgrade     = "frameUpgrade"
	MetaShippingMethodID = "shippingMethodId"
	MetaQuantity         = "quantity"
	MetaArtworkID        = "artworkId"
)

// ParseOrderMetadata reads checkout metadata. It returns an error when a
// field needed to fulfil the order is absent or malformed.
func ParseOrderMetadata(m map[string]string) (*OrderMetadata, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("metadata is empty")
	}

	productType, err := ParseProductType(m[MetaProductType])
	if err != nil {
		return nil, err
	}

	meta := &OrderMetadata{
		ProductType:  productType,
		ImageURL:     m[MetaImageURL],
		Size:         m[MetaSize],
		CustomerName: m[MetaCustomerName],
		PetName:      m[MetaPetName],
		FrameUpgrade: m[MetaFrameUpgrade] == "true",
		Quantity:     1,
	}

	if meta.Size == "" {
		return nil, fmt.Errorf("size is missing")
	}
	if productType.IsPhysical() && meta.ImageURL == "" {
		return nil, fmt.Errorf("imageUrl is missing")
	}

	if v := m[MetaShippingMethodID]; v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid shippingMethodId %q", v)
		}
		meta.ShippingMethodID = id
	}
	if v := m[MetaQuantity]; v != "" {
		q, err := strconv.Atoi(v)
		if err != nil || q < 1 {
			return nil, fmt.Errorf("invalid quantity %q", v)
		}
		meta.Quantity = q
	}
	if v := m[MetaArtworkID]; v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid artworkId %q", v)
		}
		meta.ArtworkID = id
	}

	return meta, nil
}

type StatusHistory struct {
	ID        int64
	OrderID   uuid.UUID
	Status    OrderStatus
	Notes     string
	CreatedAt time.Time
}

// EstimatedDelivery adds the product's delivery estimate in business days
// to the order date. Cancelled and unpaid orders have none.
func (o *Order) EstimatedDelivery() *time.Time {
	if o.Status == OrderStatusPending || o.Status == OrderStatusCancelled {
		return nil
	}
	t := AddBusinessDays(o.CreatedAt, o.ProductType.DeliveryBusinessDays())
	return &t
}

// AddBusinessDays moves t forward by n weekdays.
func AddBusinessDays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return t
}
