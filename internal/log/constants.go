package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyProcess            = "process"
	KeyToken              = "token"
	KeyAuthToken          = "authToken"
	KeyEmail              = "email"
	KeyTag                = "tag"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyConfig             = "config"
	KeyDbURL              = "dbUrl"
	KeyCacheKey           = "cacheKey"
	KeyJsonCache          = "jsonCache"
	KeyPathValues         = "pathValues"
	KeyChannel            = "channel"
	KeyAttempt            = "attempt"

	KeyUserID        = "userId"
	KeySessionID     = "sessionId"
	KeyCart          = "cart"
	KeyCartID        = "cartId"
	KeyCartItemID    = "cartItemId"
	KeyCartItems     = "cartItems"
	KeyCartResponse  = "cartResponse"
	KeyCartTotals    = "cartTotals"
	KeyCartVersion   = "cartVersion"
	KeyQuantity      = "quantity"
	KeyProductID     = "productId"
	KeyProduct       = "product"
	KeyCoupon        = "coupon"
	KeyCouponCode    = "couponCode"
	KeyCouponID      = "couponId"
	KeyRejectReason  = "rejectReason"
	KeyDiscount      = "discount"
	KeyEvent         = "event"
	KeyNotifyAddress = "notifyAddress"
)
