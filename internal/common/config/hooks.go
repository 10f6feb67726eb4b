package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		DecimalDecodeHook(),
	)),
}

// DecimalDecodeHook lets money values be written either as strings ("10.50") or as numbers.
func DecimalDecodeHook() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != reflect.TypeOf(decimal.Decimal{}) {
			return data, nil
		}
		switch v := data.(type) {
		case decimal.Decimal:
			return v, nil
		case string:
			return decimal.NewFromString(strings.TrimSpace(v))
		case float64:
			return decimal.NewFromFloat(v), nil
		case float32:
			return decimal.NewFromFloat32(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		default:
			return decimal.NewFromString(fmt.Sprintf("%v", v))
		}
	}
}

// Keys lists the dotted mapstructure keys of every leaf field of a (pointer to a) config struct,
// e.g. "ingest.batchSize". Fields of type decimal.Decimal and time.Duration count as leaves.
func Keys(config interface{}) []string {
	t := reflect.TypeOf(config)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return appendKeys(nil, "", t)
}

func appendKeys(keys []string, prefix string, t reflect.Type) []string {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("mapstructure")
		if name == "" || name == "-" {
			name = field.Name
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		ft := field.Type
		if ft.Kind() == reflect.Struct && ft != reflect.TypeOf(decimal.Decimal{}) && ft.PkgPath() != "time" {
			keys = appendKeys(keys, key, ft)
			continue
		}
		keys = append(keys, strings.ToLower(key))
	}
	return keys
}
