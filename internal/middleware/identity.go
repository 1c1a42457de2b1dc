package middleware

// identity.go holds the helper shared by the rate limiter and the cache to
// identify the caller.  JWTAuth stores the token subject under "user_id";
// numeric subjects come back from the claims as float64.

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

// userKey returns the caller's user id as a string, or "anon" when the
// request is not authenticated.
func userKey(c echo.Context) string {
	switch v := c.Get(CtxUserID).(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case nil:
	default:
		return fmt.Sprint(v)
	}
	return "anon"
}
