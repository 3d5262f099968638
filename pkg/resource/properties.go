// Package resource holds the property bag exchanged with providers, argument
// validation and the provider contract.
package resource

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// PropertyMap is a bag of camelCase resource properties
type PropertyMap map[string]any

// SecretMask replaces secret values in printed output
const SecretMask = "[secret]"

// Encode converts an argument struct into a PropertyMap using its json tags
func Encode(args any) (PropertyMap, error) {
	if args == nil {
		return PropertyMap{}, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode properties: %w", err)
	}
	props := PropertyMap{}
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to encode properties: %w", err)
	}
	return props, nil
}

// Decode fills out from props. Input is weakly typed so values read back
// from JSON state (float64 numbers, string booleans) still decode.
func Decode(props PropertyMap, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create property decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(props)); err != nil {
		return fmt.Errorf("failed to decode properties: %w", err)
	}
	return nil
}

// Copy returns a deep copy of the map
func (m PropertyMap) Copy() PropertyMap {
	if m == nil {
		return nil
	}
	out := make(PropertyMap, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case PropertyMap:
		return val.Copy()
	case map[string]any:
		return PropertyMap(val).Copy()
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = copyValue(val[i])
		}
		return out
	default:
		return v
	}
}

// Merge returns a copy of m overlaid with the non-nil values of other
func (m PropertyMap) Merge(other PropertyMap) PropertyMap {
	out := m.Copy()
	if out == nil {
		out = PropertyMap{}
	}
	for k, v := range other {
		if v == nil {
			continue
		}
		out[k] = copyValue(v)
	}
	return out
}

// Equal compares two maps by their JSON form, so 1 and 1.0 are equal
func (m PropertyMap) Equal(other PropertyMap) bool {
	a, errA := json.Marshal(normalize(m))
	b, errB := json.Marshal(normalize(other))
	return errA == nil && errB == nil && string(a) == string(b)
}

func normalize(m PropertyMap) PropertyMap {
	if len(m) == 0 {
		return PropertyMap{}
	}
	return m
}

// Keys returns the sorted property names
func (m PropertyMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetString returns a string property or ""
func (m PropertyMap) GetString(key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// GetBool returns a boolean property or false
func (m PropertyMap) GetBool(key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// GetPath walks a dotted path such as "aad.clientSecret"
func (m PropertyMap) GetPath(path string) (any, bool) {
	var current any = map[string]any(m)
	for _, part := range strings.Split(path, ".") {
		node, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Mask returns a copy with the values at the given dotted paths replaced by SecretMask
func (m PropertyMap) Mask(paths []string) PropertyMap {
	out := m.Copy()
	for _, path := range paths {
		parts := strings.Split(path, ".")
		var node map[string]any = out
		for i, part := range parts {
			if i == len(parts)-1 {
				if v, ok := node[part]; ok && v != nil && v != "" {
					node[part] = SecretMask
				}
				break
			}
			next, ok := asMap(node[part])
			if !ok {
				break
			}
			node = next
		}
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case PropertyMap:
		return val, true
	case map[string]any:
		return val, true
	default:
		return nil, false
	}
}
