package sendparcel

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// APIKeyField is the form field carrying the credential.
const APIKeyField = "api_key"

// Params is a form payload keyed by field name.
type Params map[string]any

// ToParams normalizes a caller payload into Params.
// Structs are decoded through their mapstructure tags and any map with
// string keys is copied entry by entry. A url.Values key with several
// values becomes a list, so it is encoded as key[0], key[1], ...
func ToParams(v any) (Params, error) {
	switch p := v.(type) {
	case nil:
		return Params{}, nil
	case Params:
		return copyParams(p), nil
	case map[string]any:
		return copyParams(p), nil
	case map[string]string:
		out := make(Params, len(p))
		for k, s := range p {
			out[k] = s
		}
		return out, nil
	case url.Values:
		out := make(Params, len(p))
		for k, vs := range p {
			if len(vs) == 1 {
				out[k] = vs[0]
			} else {
				out[k] = append([]string(nil), vs...)
			}
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return Params{}, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		out := make(Params, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, nil
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("sendparcel: unsupported payload type %T", v)
	}

	out := Params{}
	if err := mapstructure.Decode(rv.Interface(), &out); err != nil {
		return nil, fmt.Errorf("sendparcel: decoding payload %T: %w", v, err)
	}
	return out, nil
}

func copyParams(in map[string]any) Params {
	out := make(Params, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// EncodeForm builds an application/x-www-form-urlencoded body from the
// payload with the credential merged in as api_key. The credential always
// replaces a caller-supplied api_key. Keys are emitted in sorted order.
func EncodeForm(payload Params, apiKey string) (string, error) {
	values := url.Values{}
	for k, v := range payload {
		if k == APIKeyField {
			continue
		}
		if err := flatten(values, k, v); err != nil {
			return "", err
		}
	}
	values.Set(APIKeyField, apiKey)
	return values.Encode(), nil
}

// flatten writes v under key, expanding slices as key[i] and maps or
// structs as key[field].
func flatten(values url.Values, key string, v any) error {
	if v == nil {
		return nil
	}
	if rv := reflect.ValueOf(v); (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return nil
	}

	switch s := v.(type) {
	case string:
		values.Set(key, s)
		return nil
	case bool:
		values.Set(key, strconv.FormatBool(s))
		return nil
	case float64:
		values.Set(key, strconv.FormatFloat(s, 'f', -1, 64))
		return nil
	case float32:
		values.Set(key, strconv.FormatFloat(float64(s), 'f', -1, 32))
		return nil
	case []byte:
		values.Set(key, string(s))
		return nil
	case fmt.Stringer:
		values.Set(key, s.String())
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return flatten(values, key, rv.Elem().Interface())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		values.Set(key, strconv.FormatInt(rv.Int(), 10))
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		values.Set(key, strconv.FormatUint(rv.Uint(), 10))
		return nil

	case reflect.String:
		values.Set(key, rv.String())
		return nil

	case reflect.Bool:
		values.Set(key, strconv.FormatBool(rv.Bool()))
		return nil

	case reflect.Float32, reflect.Float64:
		values.Set(key, strconv.FormatFloat(rv.Float(), 'f', -1, 64))
		return nil

	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := flatten(values, fmt.Sprintf("%s[%d]", key, i), rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			sub := fmt.Sprintf("%s[%v]", key, iter.Key().Interface())
			if err := flatten(values, sub, iter.Value().Interface()); err != nil {
				return err
			}
		}
		return nil

	case reflect.Struct:
		nested, err := ToParams(v)
		if err != nil {
			return err
		}
		for k, nv := range nested {
			if err := flatten(values, key+"["+k+"]", nv); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("sendparcel: cannot encode field %q of type %T", key, v)
}
