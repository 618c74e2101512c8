package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/payroll-mx/internal/handler/http/response"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits requests per client IP. format follows limiter's
// "<limit>-<period>" notation, e.g. "120-M".
func RateLimit(format string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(format)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", format, err)
	}

	store := memory.NewStore()
	instance := limiter.New(store, rate)

	limiterMiddleware := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			response.TooManyRequests(w, "Rate limit exceeded")
		}),
	)

	return limiterMiddleware.Handler, nil
}
