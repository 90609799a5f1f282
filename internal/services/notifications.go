package services

// Notification events written to the email outbox.
const (
	EventAdminReviewCreated   = "admin_review_created"
	EventAdminReviewRejected  = "admin_review_rejected"
	EventAdminReviewEscalated = "admin_review_escalated"
	EventImageReplaced        = "admin_image_replaced"
	EventDigitalOrderReady    = "digital_order_ready"
	EventOrderShipped         = "order_shipped"
	EventOrderDelivered       = "order_delivered"
	EventFulfillmentFailed    = "fulfillment_failed"
	EventCancelledOrderPaid   = "cancelled_order_paid"
)
