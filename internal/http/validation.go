package http

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// tickerPattern acepta AAPL, $tsla o BRK.B.
var tickerPattern = regexp.MustCompile(`^\$?[A-Za-z]{1,5}([.-][A-Za-z]{1,2})?$`)

var registerOnce sync.Once

// RegisterValidators agrega el tag "ticker" al validador de gin y hace que
// los errores usen el nombre JSON del campo.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("ticker", validateTicker)
	})
}

func validateTicker(fl validator.FieldLevel) bool {
	return tickerPattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// validationDetails traduce el error de binding a algo que el cliente pueda mostrar.
func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, fieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		return out
	}
	return err.Error()
}

func respondInvalid(c *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Warn(msg, zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": validationDetails(err)})
}
