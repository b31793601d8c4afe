package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/vaultmesh/checkout/apperrors"
)

// handleFunc is any of the shapes (*Server).handle accepts:
//
//	func(*gin.Context) error
//	func(*gin.Context) (*Resp, error)
//	func(*gin.Context, *Req) error
//	func(*gin.Context, *Req) (*Resp, error)
type handleFunc interface{}

var (
	ginContextType = reflect.TypeOf((*gin.Context)(nil))
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
	validate       = validator.New()
)

// validateFunc checks fn against the handleFunc contract via
// reflection, once, at route-registration time.
func validateFunc(fn handleFunc) error {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a function, got %T", fn)
	}

	if t.NumIn() < 1 || t.NumIn() > 2 {
		return fmt.Errorf("handler must take 1 or 2 parameters, got %d", t.NumIn())
	}
	if t.In(0) != ginContextType {
		return fmt.Errorf("handler's first parameter must be *gin.Context")
	}
	if t.NumIn() == 2 && t.In(1).Kind() != reflect.Ptr {
		return fmt.Errorf("handler's second parameter must be a pointer type")
	}

	if t.NumOut() < 1 || t.NumOut() > 2 {
		return fmt.Errorf("handler must return 1 or 2 values, got %d", t.NumOut())
	}
	if !t.Out(t.NumOut() - 1).Implements(errorType) {
		return fmt.Errorf("handler's last return value must implement error")
	}
	if t.NumOut() == 2 && t.Out(0).Kind() != reflect.Ptr {
		return fmt.Errorf("handler's first return value must be a pointer type")
	}

	return nil
}

// handle adapts fn into a gin.HandlerFunc: it binds a JSON body into
// the second parameter (if any), then writes the handler's return
// value as the response body. fn's shape is checked once at
// registration time; a mismatched fn panics on startup rather than
// failing per-request.
func (s *Server) handle(fn handleFunc) gin.HandlerFunc {
	if err := validateFunc(fn); err != nil {
		panic(fmt.Sprintf("server: invalid handler: %v", err))
	}

	v := reflect.ValueOf(fn)
	t := v.Type()

	return func(c *gin.Context) {
		args := make([]reflect.Value, 0, t.NumIn())
		args = append(args, reflect.ValueOf(c))

		if t.NumIn() == 2 {
			reqPtr := reflect.New(t.In(1).Elem())
			if err := c.ShouldBindJSON(reqPtr.Interface()); err != nil && !errors.Is(err, io.EOF) {
				c.Error(apperrors.Wrap(apperrors.KindValidation, err, "invalid request body"))
				return
			}
			if err := validate.Struct(reqPtr.Interface()); err != nil {
				var invalid *validator.InvalidValidationError
				if !errors.As(err, &invalid) {
					c.Error(apperrors.Wrap(apperrors.KindValidation, err, "request validation failed"))
					return
				}
			}
			args = append(args, reqPtr)
		}

		out := v.Call(args)
		errOut := out[len(out)-1]
		if !errOut.IsNil() {
			c.Error(errOut.Interface().(error))
			return
		}

		if len(out) == 2 {
			c.JSON(http.StatusOK, out[0].Interface())
			return
		}

		// An error-only handler may already have written its own body.
		if c.Writer.Written() {
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// handleError is the last-registered middleware; it inspects errors
// attached via c.Error and maps them to the appropriate HTTP status
// using the apperrors taxonomy.
func handleError() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := apperrors.As(err)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(appErr.HTTPStatus(), gin.H{
			"error":   string(appErr.Kind),
			"message": appErr.Message,
			"details": appErr.Details,
		})
	}
}
