package dto

import (
	"github.com/go-playground/validator/v10"

	"shortmark/pkg/utils"
)

// RegisterValidators 注册自定义校验标签
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("shortcode", func(fl validator.FieldLevel) bool {
		return utils.ValidateShortCode(fl.Field().String()) == nil
	})
}
