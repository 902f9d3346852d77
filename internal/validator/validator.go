package validator

import (
	"errors"
	"lan_exam_backend/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// OptionTag 选项字母 A-D
const OptionTag = "option"

// RegisterBindingRules 把自定义规则注册到 gin 的绑定校验器上
func RegisterBindingRules() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return RegisterRules(v)
}

func RegisterRules(v *validator.Validate) error {
	return v.RegisterValidation(OptionTag, func(fl validator.FieldLevel) bool {
		return model.IsOptionLetter(fl.Field().String())
	})
}

// HasTag 绑定错误中是否包含指定规则的失败
func HasTag(err error, tag string) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}
