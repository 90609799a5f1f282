package models

type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusPaid          OrderStatus = "paid"
	OrderStatusPendingReview OrderStatus = "pending_review"
	OrderStatusProcessing    OrderStatus = "processing"
	OrderStatusShipped       OrderStatus = "shipped"
	OrderStatusDelivered     OrderStatus = "delivered"
	OrderStatusCancelled     OrderStatus = "cancelled"
	OrderStatusFailed        OrderStatus = "failed"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:       {OrderStatusPaid, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusPaid:          {OrderStatusProcessing, OrderStatusPendingReview, OrderStatusFailed},
	OrderStatusPendingReview: {OrderStatusProcessing, OrderStatusFailed},
	OrderStatusFailed:        {OrderStatusProcessing, OrderStatusPendingReview},
	OrderStatusProcessing:    {OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusShipped:       {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusPendingReview, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a forward move.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal is true for statuses no workflow step will move on from.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CustomerMessage is the text rendered on the customer order page.
func (s OrderStatus) CustomerMessage() string {
	switch s {
	case OrderStatusPending:
		return "Awaiting payment confirmation"
	case OrderStatusPaid:
		return "Payment received, preparing your order"
	case OrderStatusPendingReview:
		return "Quality check in progress"
	case OrderStatusProcessing:
		return "Your order is being produced"
	case OrderStatusShipped:
		return "Your order has shipped"
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusCancelled:
		return "Order cancelled"
	case OrderStatusFailed:
		return "Processing. Please contact support if this persists."
	default:
		return "Processing"
	}
}

// ProviderStatusToOrderStatus maps a Printify order status onto ours.
func ProviderStatusToOrderStatus(providerStatus string) OrderStatus {
	switch providerStatus {
	case "pending", "on-hold", "in-production", "sending-to-production":
		return OrderStatusProcessing
	case "fulfilled", "shipped", "partially-fulfilled":
		return OrderStatusShipped
	case "delivered":
		return OrderStatusDelivered
	case "cancelled", "canceled":
		return OrderStatusCancelled
	default:
		return OrderStatusProcessing
	}
}

type UpscaleStatus string

const (
	UpscaleNotStarted  UpscaleStatus = "not_started"
	UpscalePending     UpscaleStatus = "pending"
	UpscaleProcessing  UpscaleStatus = "processing"
	UpscaleCompleted   UpscaleStatus = "completed"
	UpscaleFailed      UpscaleStatus = "failed"
	UpscaleNotRequired UpscaleStatus = "not_required"
)

type GenerationStep string

const (
	GenerationPending        GenerationStep = "pending"
	GenerationMonalisa       GenerationStep = "monalisa_generation"
	GenerationPetIntegration GenerationStep = "pet_integration"
	GenerationUpscaling      GenerationStep = "upscaling"
	GenerationMockup         GenerationStep = "mockup_generation"
	GenerationCompleted      GenerationStep = "completed"
	GenerationFailed         GenerationStep = "failed"
)

type ReviewType string

const (
	ReviewTypeArtworkProof ReviewType = "artwork_proof"
	ReviewTypeHighresFile  ReviewType = "highres_file"
)

func ParseReviewType(s string) (ReviewType, bool) {
	switch t := ReviewType(s); t {
	case ReviewTypeArtworkProof, ReviewTypeHighresFile:
		return t, true
	}
	return "", false
}

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)
