package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/ougirez/shoplist/internal/pkg/constants"
)

// Binder decodes the JSON body with sonic and then applies path params, so a
// path param always wins over a body field.
type Binder struct {
	defaultBinder *echo.DefaultBinder
}

func NewBinder() *Binder {
	return &Binder{defaultBinder: new(echo.DefaultBinder)}
}

func (b *Binder) Bind(i interface{}, c echo.Context) error {
	req := c.Request()

	if req.Method == http.MethodGet || req.Method == http.MethodDelete {
		if err := b.defaultBinder.BindQueryParams(c, i); err != nil {
			return fmt.Errorf("%w: %v", constants.ErrValidation, err)
		}
	} else if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return fmt.Errorf("%w: read body: %v", constants.ErrValidation, err)
		}
		if len(bytes.TrimSpace(body)) > 0 {
			if err := sonic.Unmarshal(body, i); err != nil {
				return fmt.Errorf("%w: malformed json: %v", constants.ErrValidation, err)
			}
		}
	}

	if err := b.defaultBinder.BindPathParams(c, i); err != nil {
		return fmt.Errorf("%w: %v", constants.ErrValidation, err)
	}

	return nil
}

type JSONSerializer struct{}

func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (s *JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return fmt.Errorf("%w: malformed json: %v", constants.ErrValidation, err)
	}
	return nil
}
