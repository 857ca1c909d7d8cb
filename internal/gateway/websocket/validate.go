// Package websocket 实现传输层网关
// validate.go
// 入站帧负载的结构校验：json 解码 + validator 规则
package websocket

import (
	"encoding/json"
	"reflect"
	"strings"

	"roleplay_chat_server/pkg/errorx"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// validate 帧负载校验器
var validate *validator.Validate

// trans 校验错误翻译器
var trans ut.Translator

func init() {
	validate = validator.New()

	// 报错按 json tag 字段名，和 wire 对齐
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enT := en.New()
	uni := ut.New(enT, enT)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)
}

// decode 解码并校验帧负载
// 形状错误统一转为 Invalid，消息可直接下发
func decode(raw []byte, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return errorx.Wrap(err, errorx.CodeInvalid, "无法解析的消息")
	}
	if err := validate.Struct(v); err != nil {
		var validationErrs validator.ValidationErrors
		if ok := errorsAs(err, &validationErrs); ok {
			msgs := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				msgs = append(msgs, fe.Translate(trans))
			}
			return errorx.New(errorx.CodeInvalid, strings.Join(msgs, "; "))
		}
		return errorx.Wrap(err, errorx.CodeInvalid, "请求参数错误")
	}
	return nil
}

// errorsAs errors.As 的薄封装，保持 decode 主体整洁
func errorsAs(err error, target *validator.ValidationErrors) bool {
	if e, ok := err.(validator.ValidationErrors); ok {
		*target = e
		return true
	}
	return false
}
