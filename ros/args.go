package ros

import (
	"strings"

	"github.com/buger/jsonparser"
)

// processArguments sorts command line arguments into remappings
// ("from:=to"), private parameters ("_name:=value"), special keys
// ("__name:=value") and everything else.
func processArguments(args []string) (NameMap, map[string]interface{}, NameMap, []string) {
	mapping := make(NameMap)
	params := make(map[string]interface{})
	specials := make(NameMap)
	rest := make([]string, 0)
	for _, arg := range args {
		components := strings.Split(arg, Remap)
		if len(components) != 2 {
			rest = append(rest, arg)
			continue
		}
		key := components[0]
		value := components[1]
		switch {
		case strings.HasPrefix(key, "__"):
			specials[key] = value
		case strings.HasPrefix(key, "_"):
			params[PrivateNS+key[1:]] = parseParamValue(value)
		default:
			mapping[key] = value
		}
	}
	return mapping, params, specials, rest
}

// parseParamValue types a parameter given on the command line. Values that
// are complete JSON scalars, arrays or objects are decoded; anything else is
// kept as a plain string.
func parseParamValue(s string) interface{} {
	trimmed := strings.TrimSpace(s)
	value, dataType, _, err := jsonparser.Get([]byte(trimmed))
	if err != nil {
		return s
	}
	switch dataType {
	case jsonparser.String:
		if len(value)+2 != len(trimmed) {
			return s
		}
	default:
		if string(value) != trimmed {
			return s
		}
	}
	v, err := decodeJSONValue(value, dataType)
	if err != nil {
		return s
	}
	return v
}

func decodeJSONValue(value []byte, dataType jsonparser.ValueType) (interface{}, error) {
	switch dataType {
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Number:
		if i, err := jsonparser.ParseInt(value); err == nil && i >= -1<<31 && i < 1<<31 {
			return int32(i), nil
		}
		return jsonparser.ParseFloat(value)
	case jsonparser.Array:
		items := make([]interface{}, 0)
		var itemErr error
		_, err := jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
			item, err := decodeJSONValue(v, t)
			if err != nil && itemErr == nil {
				itemErr = err
			}
			items = append(items, item)
		})
		if err != nil {
			return nil, err
		}
		return items, itemErr
	case jsonparser.Object:
		members := make(map[string]interface{})
		err := jsonparser.ObjectEach(value, func(k []byte, v []byte, t jsonparser.ValueType, _ int) error {
			item, err := decodeJSONValue(v, t)
			if err != nil {
				return err
			}
			members[string(k)] = item
			return nil
		})
		return members, err
	}
	return string(value), nil
}
