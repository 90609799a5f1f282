package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pawpop-backend/internal/catalog"
	"pawpop-backend/internal/models"
	"pawpop-backend/internal/printify"
	"pawpop-backend/internal/services"
)

func validRequest() services.FulfillmentRequest {
	return services.FulfillmentRequest{
		ExternalID:      "cs_test_1",
		ProductType:     models.ProductArtPrint,
		Size:            "16x20",
		ImageURL:        "https://cdn.example.com/a.png",
		ShippingAddress: testAddress(),
		CustomerName:    "Jane Doe",
		PetName:         "Rex",
		Quantity:        1,
	}
}

func TestFulfillmentBuilder_Validate(t *testing.T) {
	builder := services.NewFulfillmentBuilder(&fakeProvider{}, nil, nil)

	tests := []struct {
		name   string
		modify func(*services.FulfillmentRequest)
		field  string
	}{
		{"digital product", func(r *services.FulfillmentRequest) { r.ProductType = models.ProductDigital }, "product_type"},
		{"unknown product", func(r *services.FulfillmentRequest) { r.ProductType = "poster" }, "product_type"},
		{"no address", func(r *services.FulfillmentRequest) { r.ShippingAddress = nil }, "shipping_address"},
		{"missing city", func(r *services.FulfillmentRequest) { r.ShippingAddress.City = "" }, "shipping_address"},
		{"three letter country", func(r *services.FulfillmentRequest) { r.ShippingAddress.Country = "USA" }, "shipping_address"},
		{"art print outside sales regions", func(r *services.FulfillmentRequest) { r.ShippingAddress.Country = "AU" }, "country"},
		{"size not sold in region", func(r *services.FulfillmentRequest) {
			r.ShippingAddress.Country = "DE"
			r.Size = "20x30"
		}, "size"},
		{"relative image url", func(r *services.FulfillmentRequest) { r.ImageURL = "/tmp/a.png" }, "image_url"},
		{"zero quantity", func(r *services.FulfillmentRequest) { r.Quantity = 0 }, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)

			_, err := builder.Validate(req)
			require.Error(t, err)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestFulfillmentBuilder_ValidateCanvasShipsAnywhere(t *testing.T) {
	builder := services.NewFulfillmentBuilder(&fakeProvider{}, nil, nil)
	req := validRequest()
	req.ProductType = models.ProductCanvasStretched
	req.ShippingAddress.Country = "au"

	product, err := builder.Validate(req)
	require.NoError(t, err)
	assert.Equal(t, catalog.RegionGlobal, product.Region)
}

func TestFulfillmentBuilder_ShippingMethodPrecedence(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit method wins", func(t *testing.T) {
		provider := &fakeProvider{methods: []printify.ShippingMethod{{ID: 3}}}
		req := validRequest()
		req.ShippingMethodID = 2

		result, err := services.NewFulfillmentBuilder(provider, nil, nil).BuildAndSubmit(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 2, result.ShippingMethodID)
	})

	t.Run("provider first method", func(t *testing.T) {
		provider := &fakeProvider{methods: []printify.ShippingMethod{{ID: 3}, {ID: 1}}}

		result, err := services.NewFulfillmentBuilder(provider, nil, nil).BuildAndSubmit(ctx, validRequest())
		require.NoError(t, err)
		assert.Equal(t, 3, result.ShippingMethodID)
	})

	t.Run("standard fallback", func(t *testing.T) {
		result, err := services.NewFulfillmentBuilder(&fakeProvider{}, nil, nil).BuildAndSubmit(ctx, validRequest())
		require.NoError(t, err)
		assert.Equal(t, printify.StandardShippingMethod, result.ShippingMethodID)
	})
}

func TestFulfillmentBuilder_CatalogCache(t *testing.T) {
	provider := &fakeProvider{}
	builder := services.NewFulfillmentBuilder(provider, &mapCache{}, nil)
	ctx := context.Background()

	first, err := builder.BuildAndSubmit(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.ExternalID = "cs_test_2"
	second, err := builder.BuildAndSubmit(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.catalogs)
	assert.Equal(t, first.ProductID, second.ProductID)

	req.ImageURL = "https://cdn.example.com/b.png"
	_, err = builder.BuildAndSubmit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.catalogs)
}

func TestFulfillmentBuilder_NormalizesCountry(t *testing.T) {
	provider := &fakeProvider{}
	req := validRequest()
	req.ShippingAddress.Country = " us"

	_, err := services.NewFulfillmentBuilder(provider, nil, nil).BuildAndSubmit(context.Background(), req)
	require.NoError(t, err)

	submitted := provider.submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, "US", submitted[0].Address.Country)
	assert.Equal(t, " us", req.ShippingAddress.Country, "caller's address is not modified")
}

func TestCatalogKey(t *testing.T) {
	a := services.CatalogKey(models.ProductArtPrint, "12x18", catalog.RegionNorthAmerica, "https://x/a.png")
	b := services.CatalogKey(models.ProductArtPrint, "12x18", catalog.RegionNorthAmerica, "https://x/a.png")
	c := services.CatalogKey(models.ProductArtPrint, "12x18", catalog.RegionNorthAmerica, "https://x/b.png")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "art_print|12x18|")
}

func TestOrderLabel(t *testing.T) {
	assert.Equal(t, "PawPop Order - Jane Doe (Rex)", services.OrderLabel("Jane Doe", "Rex"))
	assert.Equal(t, "PawPop Order - Jane Doe", services.OrderLabel("Jane Doe", ""))
}
