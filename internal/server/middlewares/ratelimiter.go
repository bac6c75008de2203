package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"

	"github.com/urpagin/wallsync/internal/server/handlers/api"
)

var rateLimitStore = memory.NewStore()

func RateLimiter(formattedRate string) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		panic(err)
	}
	limiter := limiter.New(rateLimitStore, rate)
	return mgin.NewMiddleware(
		limiter,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.PureJSON(http.StatusTooManyRequests, api.Error{
				Code:    api.CodeRateLimited,
				Message: "rate limit exceeded",
			})
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			c.PureJSON(http.StatusInternalServerError, api.Error{
				Code:    api.CodeInternalError,
				Message: err.Error(),
			})
		}),
	)
}
