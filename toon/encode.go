package toon

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type encoder struct {
	opts         EncodeOptions
	lines        []string
	indentCache  []string
	escapeBuffer strings.Builder
}

var (
	numericRegex     = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:e[+-]?\d+)?$`)
	leadingZeroRegex = regexp.MustCompile(`^0\d+$`)
	identifierRegex  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func newEncoder(opts EncodeOptions) *encoder {
	return &encoder{opts: opts}
}

func normalizeValue(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", n.String())
		}
		return f, nil
	}

	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Ptr:
		if val.IsNil() {
			return nil, nil
		}
		return normalizeValue(val.Elem().Interface())
	case reflect.Interface:
		return normalizeValue(val.Elem().Interface())
	case reflect.Map:
		if val.IsNil() {
			return nil, nil
		}
		result := make(map[string]interface{}, val.Len())
		for _, key := range val.MapKeys() {
			keyStr := fmt.Sprintf("%v", key.Interface())
			normVal, err := normalizeValue(val.MapIndex(key).Interface())
			if err != nil {
				return nil, err
			}
			result[keyStr] = normVal
		}
		return result, nil
	case reflect.Slice, reflect.Array:
		if val.Kind() == reflect.Slice && val.IsNil() {
			return nil, nil
		}
		result := make([]interface{}, val.Len())
		for i := 0; i < val.Len(); i++ {
			normVal, err := normalizeValue(val.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			result[i] = normVal
		}
		return result, nil
	case reflect.Struct:
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var result interface{}
		if err := json.Unmarshal(jsonBytes, &result); err != nil {
			return nil, err
		}
		return result, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return val.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return val.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return val.Float(), nil
	case reflect.String:
		return val.String(), nil
	case reflect.Bool:
		return val.Bool(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func (e *encoder) String() string {
	return strings.Join(e.lines, "\n")
}

func (e *encoder) push(depth int, text string) {
	e.lines = append(e.lines, e.getIndent(depth)+text)
}

func (e *encoder) getIndent(depth int) string {
	needed := depth + 1
	for len(e.indentCache) < needed {
		level := len(e.indentCache)
		e.indentCache = append(e.indentCache, strings.Repeat(" ", level*e.opts.Indent))
	}
	return e.indentCache[depth]
}

func (e *encoder) encodeRoot(v interface{}) error {
	switch val := v.(type) {
	case map[string]interface{}:
		return e.writeObject(val, 0)
	case []interface{}:
		return e.writeArray("", val, 0, 1)
	default:
		s, err := e.primitive(v)
		if err != nil {
			return err
		}
		e.push(0, s)
		return nil
	}
}

func (e *encoder) primitive(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return formatNumber(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case string:
		return e.encodeString(val), nil
	default:
		return "", fmt.Errorf("unsupported type: %T", v)
	}
}

func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	if f == 0 {
		return "0"
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

func (e *encoder) encodeString(s string) string {
	if needsQuoting(s) {
		return e.quoteString(s)
	}
	return s
}

func needsQuoting(s string) bool {
	if len(s) == 0 {
		return true
	}

	switch s {
	case "true", "false", "null":
		return true
	}

	if s[0] == ' ' || s[len(s)-1] == ' ' {
		return true
	}

	for _, c := range s {
		switch c {
		case ':', '"', '\\', '\n', '\r', '\t', '[', ']', '{', '}', ',', '|':
			return true
		}
	}

	if s[0] == '-' {
		return true
	}

	if numericRegex.MatchString(strings.ToLower(s)) || leadingZeroRegex.MatchString(s) {
		return true
	}
	return false
}

func (e *encoder) quoteString(s string) string {
	e.escapeBuffer.Reset()
	e.escapeBuffer.WriteByte('"')

	for _, c := range s {
		switch c {
		case '\\':
			e.escapeBuffer.WriteString("\\\\")
		case '"':
			e.escapeBuffer.WriteString("\\\"")
		case '\n':
			e.escapeBuffer.WriteString("\\n")
		case '\r':
			e.escapeBuffer.WriteString("\\r")
		case '\t':
			e.escapeBuffer.WriteString("\\t")
		default:
			e.escapeBuffer.WriteRune(c)
		}
	}

	e.escapeBuffer.WriteByte('"')
	return e.escapeBuffer.String()
}

// encodeKey quotes anything that is not a plain identifier, including dotted
// keys, so path expansion never splits a literal key.
func (e *encoder) encodeKey(key string) string {
	if identifierRegex.MatchString(key) {
		return key
	}
	return e.quoteString(key)
}

func sortedKeys(obj map[string]interface{}) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *encoder) writeObject(obj map[string]interface{}, depth int) error {
	for _, key := range sortedKeys(obj) {
		if err := e.writeField("", key, obj[key], depth, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// writeField emits one key and its value. The first line is written at depth
// after prefix; nested content goes to childDepth.
func (e *encoder) writeField(prefix, key string, value interface{}, depth, childDepth int) error {
	keyText := e.encodeKey(key)
	if folded, leaf, ok := e.fold(key, value); ok {
		keyText = folded
		value = leaf
	}

	switch v := value.(type) {
	case map[string]interface{}:
		e.push(depth, prefix+keyText+":")
		return e.writeObject(v, childDepth)
	case []interface{}:
		return e.writeArray(prefix+keyText, v, depth, childDepth)
	default:
		s, err := e.primitive(v)
		if err != nil {
			return err
		}
		e.push(depth, prefix+keyText+": "+s)
		return nil
	}
}

// fold collapses a chain of single-key objects into a dotted key.
func (e *encoder) fold(key string, value interface{}) (string, interface{}, bool) {
	if !e.opts.KeyFolding || !identifierRegex.MatchString(key) {
		return "", nil, false
	}

	segments := []string{key}
	leaf := value
	for {
		obj, ok := leaf.(map[string]interface{})
		if !ok || len(obj) != 1 {
			break
		}
		if e.opts.FlattenDepth > 0 && len(segments) >= e.opts.FlattenDepth {
			break
		}
		var next string
		for k := range obj {
			next = k
		}
		if !identifierRegex.MatchString(next) {
			break
		}
		segments = append(segments, next)
		leaf = obj[next]
	}

	if len(segments) < 2 {
		return "", nil, false
	}
	return strings.Join(segments, "."), leaf, true
}

func (e *encoder) header(length int) string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(strconv.Itoa(length))
	if e.opts.Delimiter != DelimiterComma {
		b.WriteString(e.opts.Delimiter)
	}
	b.WriteByte(']')
	return b.String()
}

func (e *encoder) writeArray(head string, arr []interface{}, depth, childDepth int) error {
	if len(arr) == 0 {
		e.push(depth, head+e.header(0)+":")
		return nil
	}

	if fields, ok := tabularFields(arr); ok {
		return e.writeTabular(head, arr, fields, depth, childDepth)
	}

	if isPrimitiveArray(arr) {
		values := make([]string, len(arr))
		for i, item := range arr {
			s, err := e.primitive(item)
			if err != nil {
				return err
			}
			values[i] = s
		}
		e.push(depth, head+e.header(len(arr))+": "+strings.Join(values, e.opts.Delimiter))
		return nil
	}

	e.push(depth, head+e.header(len(arr))+":")
	for _, item := range arr {
		if err := e.writeListItem(item, childDepth); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeTabular(head string, arr []interface{}, fields []string, depth, childDepth int) error {
	encodedFields := make([]string, len(fields))
	for i, f := range fields {
		encodedFields[i] = e.encodeKey(f)
	}
	e.push(depth, head+e.header(len(arr))+"{"+strings.Join(encodedFields, e.opts.Delimiter)+"}:")

	row := make([]string, len(fields))
	for _, item := range arr {
		obj := item.(map[string]interface{})
		for i, field := range fields {
			s, err := e.primitive(obj[field])
			if err != nil {
				return err
			}
			row[i] = s
		}
		e.push(childDepth, strings.Join(row, e.opts.Delimiter))
	}
	return nil
}

func (e *encoder) writeListItem(item interface{}, depth int) error {
	switch v := item.(type) {
	case map[string]interface{}:
		if len(v) == 0 {
			e.push(depth, "-")
			return nil
		}
		keys := sortedKeys(v)
		if err := e.writeField("- ", keys[0], v[keys[0]], depth, depth+2); err != nil {
			return err
		}
		for _, k := range keys[1:] {
			if err := e.writeField("", k, v[k], depth+1, depth+2); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		return e.writeArray("- ", v, depth, depth+1)
	default:
		s, err := e.primitive(item)
		if err != nil {
			return err
		}
		e.push(depth, "- "+s)
		return nil
	}
}

// tabularFields reports whether arr is a non-empty list of objects sharing
// one non-empty key set with only primitive values.
func tabularFields(arr []interface{}) ([]string, bool) {
	first, ok := arr[0].(map[string]interface{})
	if !ok || len(first) == 0 {
		return nil, false
	}
	fields := sortedKeys(first)

	for _, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok || len(obj) != len(fields) {
			return nil, false
		}
		for _, f := range fields {
			v, exists := obj[f]
			if !exists || !isPrimitive(v) {
				return nil, false
			}
		}
	}
	return fields, true
}

func isPrimitive(v interface{}) bool {
	switch v.(type) {
	case nil, bool, float64, int64, uint64, string:
		return true
	default:
		return false
	}
}

func isPrimitiveArray(arr []interface{}) bool {
	for _, item := range arr {
		if !isPrimitive(item) {
			return false
		}
	}
	return true
}
