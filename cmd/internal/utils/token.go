package utils

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// TokenDataKey is the echo context key the auth middleware stores the
// verified token data under.
const TokenDataKey = "token_data"

var ErrNoTokenData = errors.New("no token data in request context")

type TokenData struct {
	Sub   string
	Email string
}

func ParseTokenDataCtx(c echo.Context) (*TokenData, error) {
	data, ok := c.Get(TokenDataKey).(*TokenData)
	if !ok || data == nil || data.Sub == "" {
		return nil, ErrNoTokenData
	}
	return data, nil
}
