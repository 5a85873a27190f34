package patchtools

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	iso8601date "github.com/jecitDev/jec-salesgrid/pkg/ISO8601date"
)

// Data is one field/value pair of a partial update, keyed by json tag name
type Data struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// PopulateStruct sets the pointer fields of reg whose json tag matches a
// Data.Field. Unknown fields are skipped; unparsable values are errors.
func PopulateStruct(dataSlice []Data, reg interface{}) error {
	regVal := reflect.ValueOf(reg)
	if regVal.Kind() != reflect.Ptr || regVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("populate target must be a pointer to struct, got %T", reg)
	}
	regVal = regVal.Elem()
	regType := regVal.Type()

	// Precompute tag-to-field mapping
	tagFieldMap := make(map[string]int)
	for i := 0; i < regType.NumField(); i++ {
		jsonTag := strings.Split(regType.Field(i).Tag.Get("json"), ",")[0]
		if jsonTag != "" && jsonTag != "-" {
			tagFieldMap[jsonTag] = i
		}
	}

	for _, data := range dataSlice {
		fieldIndex, exists := tagFieldMap[data.Field]
		if !exists {
			continue
		}

		fieldVal := regVal.Field(fieldIndex)
		if !fieldVal.CanSet() || fieldVal.Kind() != reflect.Ptr {
			continue
		}

		elemType := fieldVal.Type().Elem()
		val := reflect.New(elemType).Elem()

		switch elemType.Kind() {
		case reflect.String:
			val.SetString(data.Value)

		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			intValue, err := strconv.ParseInt(strings.TrimSpace(data.Value), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int value for field %s: %v", data.Field, err)
			}
			val.SetInt(intValue)

		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			uintValue, err := strconv.ParseUint(strings.TrimSpace(data.Value), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid uint value for field %s: %v", data.Field, err)
			}
			val.SetUint(uintValue)

		case reflect.Float32, reflect.Float64:
			floatValue, err := strconv.ParseFloat(strings.TrimSpace(data.Value), 64)
			if err != nil {
				return fmt.Errorf("invalid float value for field %s: %v", data.Field, err)
			}
			val.SetFloat(floatValue)

		case reflect.Bool:
			boolValue, err := strconv.ParseBool(data.Value)
			if err != nil {
				return fmt.Errorf("invalid bool value for field %s: %v", data.Field, err)
			}
			val.SetBool(boolValue)

		case reflect.Struct:
			if elemType != reflect.TypeOf(time.Time{}) {
				return fmt.Errorf("unsupported struct type for field %s", data.Field)
			}
			timeValue, err := parseTime(data.Value)
			if err != nil {
				return fmt.Errorf("invalid time value for field %s: %v", data.Field, err)
			}
			val.Set(reflect.ValueOf(timeValue))

		default:
			return fmt.Errorf("unsupported field type: %s", elemType.Kind())
		}

		fieldVal.Set(val.Addr())
	}

	return nil
}

// parseTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := iso8601date.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time(), nil
}
