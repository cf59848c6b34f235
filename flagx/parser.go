// Package flagx 按结构体 tag 注册和解析 cobra flag
//
//	type SimulateFlags struct {
//	    Calls   int           `flag:"calls,n" usage:"调用次数" default:"100"`
//	    Timeout time.Duration `flag:"timeout" default:"5s"`
//	}
package flagx

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var durationType = reflect.TypeOf(time.Duration(0))

// BindFlags 为带 flag tag 的字段注册 flag
// 支持 tag：flag（名称[,短名]）、usage、default、required
func BindFlags(cmd *cobra.Command, target any) error {
	t, err := structType(target)
	if err != nil {
		return err
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, short, ok := flagName(f)
		if !ok {
			continue
		}
		if err := register(cmd, f, name, short, f.Tag.Get("usage"), f.Tag.Get("default")); err != nil {
			return fmt.Errorf("bind field %s: %w", f.Name, err)
		}
		if f.Tag.Get("required") == "true" {
			_ = cmd.MarkFlagRequired(name)
		}
	}
	return nil
}

// ParseFlags 将 flag 值写回结构体
func ParseFlags(cmd *cobra.Command, target any) error {
	t, err := structType(target)
	if err != nil {
		return err
	}
	v := reflect.ValueOf(target).Elem()

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, ok := flagName(f)
		if !ok || !v.Field(i).CanSet() {
			continue
		}
		if err := assign(cmd, v.Field(i), name); err != nil {
			return fmt.Errorf("parse field %s: %w", f.Name, err)
		}
	}
	return nil
}

func structType(target any) (reflect.Type, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("target must be a pointer to struct")
	}
	return v.Elem().Type(), nil
}

func flagName(f reflect.StructField) (name, short string, ok bool) {
	tag := f.Tag.Get("flag")
	if tag == "" {
		return "", "", false
	}
	parts := strings.SplitN(tag, ",", 2)
	if len(parts) == 2 {
		short = parts[1]
	}
	return parts[0], short, true
}

func register(cmd *cobra.Command, f reflect.StructField, name, short, usage, def string) error {
	fs := cmd.Flags()
	if f.Type == durationType {
		d := time.Duration(0)
		if def != "" {
			var err error
			if d, err = time.ParseDuration(def); err != nil {
				return err
			}
		}
		fs.DurationP(name, short, d, usage)
		return nil
	}

	switch f.Type.Kind() {
	case reflect.String:
		fs.StringP(name, short, def, usage)
	case reflect.Int:
		n, err := parseDefault(def, strconv.Atoi)
		if err != nil {
			return err
		}
		fs.IntP(name, short, n, usage)
	case reflect.Int64:
		n, err := parseDefault(def, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
		if err != nil {
			return err
		}
		fs.Int64P(name, short, n, usage)
	case reflect.Bool:
		b, err := parseDefault(def, strconv.ParseBool)
		if err != nil {
			return err
		}
		fs.BoolP(name, short, b, usage)
	case reflect.Slice:
		if f.Type.Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type: %s", f.Type.Elem().Kind())
		}
		var vals []string
		if def != "" {
			vals = strings.Split(def, ",")
		}
		fs.StringSliceP(name, short, vals, usage)
	default:
		return fmt.Errorf("unsupported field type: %s", f.Type.Kind())
	}
	return nil
}

func parseDefault[T any](def string, parse func(string) (T, error)) (T, error) {
	var zero T
	if def == "" {
		return zero, nil
	}
	return parse(def)
}

func assign(cmd *cobra.Command, field reflect.Value, name string) error {
	fs := cmd.Flags()
	if field.Type() == durationType {
		d, err := fs.GetDuration(name)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		s, err := fs.GetString(name)
		if err != nil {
			return err
		}
		field.SetString(s)
	case reflect.Int:
		n, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Int64:
		n, err := fs.GetInt64(name)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		vals, err := fs.GetStringSlice(name)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(vals))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
