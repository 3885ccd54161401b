package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type line struct {
	num    int // 1-based line number
	indent int // leading spaces
	depth  int
	text   string // content with indentation removed
}

type decoder struct {
	opts  DecodeOptions
	lines []line
	pos   int
	width int
}

var (
	headerRegex = regexp.MustCompile(`^\[(\d+)([,\t|])?\](?:\{([^}]*)\})?:(.*)$`)
	numberRegex = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?(?:[eE][+-]?\d+)?$`)
)

const headerSuggestion = "array headers look like key[N]: a,b or key[N]{field1,field2}:"

type arrayHeader struct {
	length    int
	delimiter string
	fields    []string
	inline    string
	hasFields bool
}

func newDecoder(data string, opts DecodeOptions) (*decoder, error) {
	d := &decoder{opts: opts}
	raw := strings.Split(data, "\n")

	for i, text := range raw {
		text = strings.TrimRight(text, "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		ln := line{num: i + 1}
		for ln.indent < len(text) && (text[ln.indent] == ' ' || text[ln.indent] == '\t') {
			if text[ln.indent] == '\t' && opts.Strict {
				return nil, newParseError(&ln, ln.indent+1, "tab character in indentation", "indent with spaces only")
			}
			ln.indent++
		}
		ln.text = strings.TrimRight(text[ln.indent:], " ")
		d.lines = append(d.lines, ln)
	}

	d.width = DefaultIndent
	for _, ln := range d.lines {
		if ln.indent > 0 {
			d.width = ln.indent
			break
		}
	}

	for i := range d.lines {
		ln := &d.lines[i]
		if opts.Strict && ln.indent%d.width != 0 {
			return nil, newParseError(ln, ln.indent+1,
				fmt.Sprintf("indentation of %d spaces is not a multiple of %d", ln.indent, d.width),
				fmt.Sprintf("indent each level with exactly %d spaces", d.width))
		}
		ln.depth = ln.indent / d.width
	}
	return d, nil
}

func (d *decoder) decode() (interface{}, error) {
	if len(d.lines) == 0 {
		return map[string]interface{}{}, nil
	}

	first := &d.lines[0]
	if first.depth != 0 && d.opts.Strict {
		return nil, newParseError(first, first.indent+1, "unexpected indentation on first line", "start the document at column 1")
	}

	if strings.HasPrefix(first.text, "[") {
		h, err := d.parseHeader(first, first.text, first.indent+1)
		if err != nil {
			return nil, err
		}
		d.pos++
		arr, err := d.parseArray(first, h, first.depth+1)
		if err != nil {
			return nil, err
		}
		if d.pos < len(d.lines) && d.opts.Strict {
			ln := &d.lines[d.pos]
			return nil, newParseError(ln, ln.indent+1, "unexpected content after root array", "")
		}
		return arr, nil
	}

	if len(d.lines) == 1 && !d.looksLikeField(first.text) {
		return d.parseScalar(first, first.text, first.indent+1)
	}

	obj := make(map[string]interface{})
	if err := d.parseFields(obj, first.depth); err != nil {
		return nil, err
	}
	return obj, nil
}

// looksLikeField reports whether text starts with a key followed by ':' or an
// array header.
func (d *decoder) looksLikeField(text string) bool {
	if strings.HasPrefix(text, "\"") {
		end := closingQuote(text)
		if end < 0 {
			return false
		}
		rest := text[end+1:]
		return strings.HasPrefix(rest, ":") || headerRegex.MatchString(rest)
	}
	return strings.Contains(text, ":")
}

// parseFields reads key lines at depth into obj until a shallower line.
func (d *decoder) parseFields(obj map[string]interface{}, depth int) error {
	for d.pos < len(d.lines) {
		ln := &d.lines[d.pos]
		if ln.depth < depth {
			return nil
		}
		if ln.depth > depth {
			if d.opts.Strict {
				return newParseError(ln, ln.indent+1, "unexpected indentation",
					"nested content must follow a 'key:' line or an array header")
			}
			d.pos++
			continue
		}
		if strings.HasPrefix(ln.text, "- ") || ln.text == "-" {
			return newParseError(ln, ln.indent+1, "list item outside of an array",
				"declare the list with a header such as key[N]:")
		}
		if err := d.parseField(obj, ln, ln.text, ln.indent, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// parseField parses one "key: value" or "key[N]...:" entry starting at text.
// offset is the column offset of text within the line; nested content is read
// at childDepth.
func (d *decoder) parseField(obj map[string]interface{}, ln *line, text string, offset, childDepth int) error {
	key, quoted, rest, err := d.parseKey(ln, text, offset)
	if err != nil {
		return err
	}
	restCol := offset + len(text) - len(rest) + 1

	var value interface{}
	switch {
	case strings.HasPrefix(rest, "["):
		h, err := d.parseHeader(ln, rest, restCol)
		if err != nil {
			return err
		}
		d.pos++
		value, err = d.parseArray(ln, h, childDepth)
		if err != nil {
			return err
		}
	case strings.HasPrefix(rest, ":"):
		valueText := strings.TrimSpace(rest[1:])
		d.pos++
		if valueText == "" {
			nested := make(map[string]interface{})
			if d.pos < len(d.lines) && d.lines[d.pos].depth >= childDepth {
				if err := d.parseFields(nested, childDepth); err != nil {
					return err
				}
			}
			value = nested
		} else {
			valueCol := restCol + 1 + strings.Index(rest[1:], valueText)
			value, err = d.parseScalar(ln, valueText, valueCol)
			if err != nil {
				return err
			}
		}
	default:
		return newParseError(ln, restCol, fmt.Sprintf("missing colon after key %q", key), "use 'key: value' syntax")
	}

	return d.assign(obj, key, quoted, value)
}

func (d *decoder) parseKey(ln *line, text string, offset int) (key string, quoted bool, rest string, err error) {
	if strings.HasPrefix(text, "\"") {
		end := closingQuote(text)
		if end < 0 {
			return "", false, "", newParseError(ln, offset+1, "unterminated quoted key", "close the key with a double quote")
		}
		key, err = d.unescape(ln, text[1:end], offset+2)
		if err != nil {
			return "", false, "", err
		}
		return key, true, text[end+1:], nil
	}

	idx := strings.IndexAny(text, ":[")
	if idx < 0 {
		return "", false, "", newParseError(ln, offset+len(text)+1,
			fmt.Sprintf("missing colon after key %q", text), "use 'key: value' syntax")
	}
	key = strings.TrimSpace(text[:idx])
	if key == "" {
		return "", false, "", newParseError(ln, offset+1, "missing key", "add a key before the colon")
	}
	return key, false, text[idx:], nil
}

func (d *decoder) parseHeader(ln *line, text string, col int) (*arrayHeader, error) {
	m := headerRegex.FindStringSubmatch(text)
	if m == nil {
		return nil, newParseError(ln, col, "invalid array header", headerSuggestion)
	}
	length, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, newParseError(ln, col+1, "invalid array length", headerSuggestion)
	}

	h := &arrayHeader{
		length:    length,
		delimiter: DelimiterComma,
		inline:    strings.TrimSpace(m[4]),
		hasFields: m[3] != "",
	}
	if m[2] != "" {
		h.delimiter = m[2]
	}
	if h.hasFields {
		for _, f := range splitDelimited(m[3], h.delimiter) {
			name := f.text
			if strings.HasPrefix(name, "\"") {
				end := closingQuote(name)
				if end != len(name)-1 {
					return nil, newParseError(ln, col, "malformed field name", headerSuggestion)
				}
				if name, err = d.unescape(ln, name[1:end], col); err != nil {
					return nil, err
				}
			}
			h.fields = append(h.fields, name)
		}
	}
	return h, nil
}

// parseArray reads the body of an array whose header line is ln. Rows and
// list items are expected at childDepth. d.pos points past the header.
func (d *decoder) parseArray(ln *line, h *arrayHeader, childDepth int) (interface{}, error) {
	if h.inline != "" {
		if h.hasFields {
			return nil, newParseError(ln, ln.indent+1, "tabular header cannot carry inline values", headerSuggestion)
		}
		values := splitDelimited(h.inline, h.delimiter)
		result := make([]interface{}, 0, len(values))
		inlineCol := ln.indent + strings.LastIndex(ln.text, h.inline) + 1
		for _, v := range values {
			parsed, err := d.parseScalar(ln, v.text, inlineCol+v.offset)
			if err != nil {
				return nil, err
			}
			result = append(result, parsed)
		}
		if err := d.checkLength(h.length, len(result)); err != nil {
			return nil, err
		}
		return result, nil
	}

	if h.hasFields {
		return d.parseTabular(h, childDepth)
	}
	return d.parseList(h, childDepth)
}

// rowCapacity bounds a declared length by the lines left to read, so a
// hostile header cannot force a huge allocation.
func (d *decoder) rowCapacity(declared int) int {
	return max(0, min(declared, len(d.lines)-d.pos))
}

func (d *decoder) checkLength(expected, found int) error {
	if d.opts.Strict && expected != found {
		return &LengthMismatchError{Expected: expected, Found: found}
	}
	return nil
}

func (d *decoder) parseTabular(h *arrayHeader, depth int) (interface{}, error) {
	result := make([]interface{}, 0, d.rowCapacity(h.length))

	for d.pos < len(d.lines) {
		ln := &d.lines[d.pos]
		if ln.depth < depth {
			break
		}
		if ln.depth > depth {
			if d.opts.Strict {
				return nil, newParseError(ln, ln.indent+1, "unexpected indentation in table row", "")
			}
			d.pos++
			continue
		}

		values := splitDelimited(ln.text, h.delimiter)
		if err := d.checkLength(len(h.fields), len(values)); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(h.fields))
		for i, field := range h.fields {
			if i >= len(values) {
				break
			}
			parsed, err := d.parseScalar(ln, values[i].text, ln.indent+values[i].offset+1)
			if err != nil {
				return nil, err
			}
			row[field] = parsed
		}
		result = append(result, row)
		d.pos++
	}

	if err := d.checkLength(h.length, len(result)); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *decoder) parseList(h *arrayHeader, depth int) (interface{}, error) {
	result := make([]interface{}, 0, d.rowCapacity(h.length))

	for d.pos < len(d.lines) {
		ln := &d.lines[d.pos]
		if ln.depth < depth {
			break
		}
		if ln.depth > depth {
			if d.opts.Strict {
				return nil, newParseError(ln, ln.indent+1, "unexpected indentation in list", "")
			}
			d.pos++
			continue
		}
		if ln.text != "-" && !strings.HasPrefix(ln.text, "- ") {
			return nil, newParseError(ln, ln.indent+1, "expected list item starting with '- '",
				"prefix each array element with '- '")
		}

		item, err := d.parseListItem(ln, depth)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := d.checkLength(h.length, len(result)); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *decoder) parseListItem(ln *line, depth int) (interface{}, error) {
	if ln.text == "-" {
		d.pos++
		return map[string]interface{}{}, nil
	}

	content := strings.TrimSpace(ln.text[2:])
	offset := ln.indent + strings.Index(ln.text, content)

	if strings.HasPrefix(content, "[") {
		h, err := d.parseHeader(ln, content, offset+1)
		if err != nil {
			return nil, err
		}
		d.pos++
		return d.parseArray(ln, h, depth+1)
	}

	if !d.looksLikeField(content) {
		d.pos++
		return d.parseScalar(ln, content, offset+1)
	}

	obj := make(map[string]interface{})
	if err := d.parseField(obj, ln, content, offset, depth+2); err != nil {
		return nil, err
	}
	if err := d.parseFields(obj, depth+1); err != nil {
		return nil, err
	}
	return obj, nil
}

func (d *decoder) parseScalar(ln *line, text string, col int) (interface{}, error) {
	if strings.HasPrefix(text, "\"") {
		end := closingQuote(text)
		if end < 0 {
			return nil, newParseError(ln, col, "unterminated string", "close the string with a double quote")
		}
		if end != len(text)-1 {
			return nil, newParseError(ln, col+end+1, "unexpected characters after closing quote",
				"quote the whole value or escape inner quotes with \\\"")
		}
		return d.unescape(ln, text[1:end], col+1)
	}

	if !d.opts.CoerceTypes {
		return text, nil
	}

	switch text {
	case "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	if numberRegex.MatchString(text) {
		if n, ok := parseWideInteger(text); ok {
			return n, nil
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			if f == 0 {
				return float64(0), nil
			}
			return f, nil
		}
	}
	return text, nil
}

// maxExactFloat is the largest integer magnitude float64 holds exactly.
const maxExactFloat = 1 << 53

// parseWideInteger keeps integer literals that float64 would round as int64
// or uint64. Smaller integers stay float64 like every other number.
func parseWideInteger(text string) (interface{}, bool) {
	if strings.ContainsAny(text, ".eE") {
		return nil, false
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		if i > maxExactFloat || i < -maxExactFloat {
			return i, true
		}
		return nil, false
	}
	if u, err := strconv.ParseUint(text, 10, 64); err == nil {
		return u, true
	}
	return nil, false
}

func (d *decoder) unescape(ln *line, s string, col int) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			result.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '\\':
			result.WriteByte('\\')
		case '"':
			result.WriteByte('"')
		case 'n':
			result.WriteByte('\n')
		case 'r':
			result.WriteByte('\r')
		case 't':
			result.WriteByte('\t')
		default:
			if d.opts.Strict {
				return "", newParseError(ln, col+i, fmt.Sprintf("invalid escape sequence \\%c", s[i+1]),
					`valid escapes are \\, \", \n, \r and \t`)
			}
			result.WriteByte(s[i])
			result.WriteByte(s[i+1])
		}
		i++
	}

	return result.String(), nil
}

func (d *decoder) assign(obj map[string]interface{}, key string, quoted bool, value interface{}) error {
	if !d.opts.ExpandPaths {
		obj[key] = value
		return nil
	}
	segments := []string{key}
	if !quoted && strings.Contains(key, ".") {
		if split := strings.Split(key, "."); allIdentifiers(split) {
			segments = split
		}
	}
	return setPath(obj, segments, value, d.opts.Strict)
}

func allIdentifiers(segments []string) bool {
	for _, s := range segments {
		if !identifierRegex.MatchString(s) {
			return false
		}
	}
	return true
}

// setPath stores value under the nested path, merging objects on the way.
// Conflicting non-object values are an error in strict mode and are replaced
// otherwise.
func setPath(obj map[string]interface{}, segments []string, value interface{}, strict bool) error {
	cur := obj
	for i, seg := range segments[:len(segments)-1] {
		existing, ok := cur[seg]
		if !ok {
			next := make(map[string]interface{})
			cur[seg] = next
			cur = next
			continue
		}
		next, isObj := existing.(map[string]interface{})
		if !isObj {
			if strict {
				return fmt.Errorf("path expansion conflict at %q: existing value is not an object",
					strings.Join(segments[:i+1], "."))
			}
			next = make(map[string]interface{})
			cur[seg] = next
		}
		cur = next
	}

	last := segments[len(segments)-1]
	if existing, ok := cur[last]; ok {
		dst, dstObj := existing.(map[string]interface{})
		src, srcObj := value.(map[string]interface{})
		if dstObj && srcObj {
			return mergeObjects(dst, src, strings.Join(segments, "."), strict)
		}
		if strict {
			return fmt.Errorf("path expansion conflict at %q: duplicate key", strings.Join(segments, "."))
		}
	}
	cur[last] = value
	return nil
}

func mergeObjects(dst, src map[string]interface{}, path string, strict bool) error {
	for k, v := range src {
		existing, ok := dst[k]
		if !ok {
			dst[k] = v
			continue
		}
		dstChild, dstObj := existing.(map[string]interface{})
		srcChild, srcObj := v.(map[string]interface{})
		if dstObj && srcObj {
			if err := mergeObjects(dstChild, srcChild, path+"."+k, strict); err != nil {
				return err
			}
			continue
		}
		if strict {
			return fmt.Errorf("path expansion conflict at %q: duplicate key", path+"."+k)
		}
		dst[k] = v
	}
	return nil
}

// closingQuote returns the index of the quote closing the string that opens
// at s[0], or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

type field struct {
	text   string
	offset int // byte offset of text in the split input
}

// splitDelimited splits s on delim outside of quoted strings and trims
// surrounding spaces from each piece.
func splitDelimited(s, delim string) []field {
	var fields []field
	start := 0
	inQuotes := false

	flush := func(end int) {
		raw := s[start:end]
		trimmed := strings.TrimLeft(raw, " ")
		offset := start + len(raw) - len(trimmed)
		fields = append(fields, field{text: strings.TrimRight(trimmed, " "), offset: offset})
	}

	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && inQuotes:
			i++
		case s[i] == '"':
			inQuotes = !inQuotes
		case !inQuotes && strings.HasPrefix(s[i:], delim):
			flush(i)
			start = i + len(delim)
		}
	}
	flush(len(s))
	return fields
}
