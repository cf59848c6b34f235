// Package validator ozzo-validation 错误到 LayeredError 的转换
package validator

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/KOMKZ/go-yogan-throttle/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrValidation 通用校验失败
var ErrValidation = errcode.Register(errcode.New(
	errcode.ModuleCommon, 1010, "common",
	"error.common.validation_failed", "validation failed", http.StatusBadRequest,
))

// Validatable 可校验对象
type Validatable interface {
	Validate() error
}

// Validate 执行校验并把 ozzo 错误转换为 base（为 nil 时使用 ErrValidation）
func Validate(v Validatable, base *errcode.LayeredError) error {
	return Convert(v.Validate(), base)
}

// ValidateAll 依次校验，返回第一个错误
func ValidateAll(base *errcode.LayeredError, validators ...Validatable) error {
	for _, v := range validators {
		if err := Validate(v, base); err != nil {
			return err
		}
	}
	return nil
}

// Convert 转换 ozzo 错误
// 字段级错误放入 data["fields"]，消息按字段名排序拼接；非 ozzo 错误原样返回
func Convert(err error, base *errcode.LayeredError) error {
	if err == nil {
		return nil
	}
	if base == nil {
		base = ErrValidation
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	names := make([]string, 0, len(verrs))
	for field, fieldErr := range verrs {
		if fieldErr == nil {
			continue
		}
		fields[field] = fieldErr.Error()
		names = append(names, field)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+fields[name])
	}

	return base.
		WithMsgf("%s: %s", base.Message(), strings.Join(parts, "; ")).
		WithData("fields", fields)
}

// FieldCode 取 ozzo 错误中指定字段的错误码（validation.Error.Code()），没有则返回空
func FieldCode(err error, field string) string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return ""
	}
	var coded validation.Error
	if errors.As(verrs[field], &coded) {
		return coded.Code()
	}
	return ""
}
