package dynamic

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mesh-intelligence/engn/pkg/types"
)

// violation is one failed constraint: a stable machine code plus the human
// message surfaced in FieldValidationError.
type violation struct {
	code    string
	message string
}

// checkFunc runs one compiled constraint against a kind-checked raw value.
// nil means the constraint holds.
type checkFunc func(v any) *violation

// reachableTimeout bounds the HEAD request behind url_reachable.
const reachableTimeout = 5 * time.Second

// compileChecks turns a property's declared constraint attributes into
// check functions. Constraints that cannot apply to the property's resolved
// kind fail generation immediately rather than silently never firing.
func compileChecks(typeName string, p types.Property, ft *FieldType) ([]checkFunc, error) {
	var checks []checkFunc

	inapplicable := func(constraint string) error {
		return fmt.Errorf("type '%s' property '%s': constraint '%s' not applicable to type '%s'",
			typeName, p.Name, constraint, p.Type)
	}
	numericKind := ft.Kind == KindInt || ft.Kind == KindFloat ||
		ft.Kind == KindPositiveInt || ft.Kind == KindQuantity
	stringKind := ft.Kind == KindString || ft.Kind == KindPath

	for _, b := range []struct {
		name  string
		bound any
		code  string
		tmpl  string
		holds func(cmp int) bool
	}{
		{"gt", p.GT, types.CodeGreaterThan, "Input should be greater than %s", func(c int) bool { return c > 0 }},
		{"ge", p.GE, types.CodeGreaterThanEqual, "Input should be greater than or equal to %s", func(c int) bool { return c >= 0 }},
		{"lt", p.LT, types.CodeLessThan, "Input should be less than %s", func(c int) bool { return c < 0 }},
		{"le", p.LE, types.CodeLessThanEqual, "Input should be less than or equal to %s", func(c int) bool { return c <= 0 }},
	} {
		if b.bound == nil {
			continue
		}
		if !numericKind {
			return nil, inapplicable(b.name)
		}
		chk, err := compileBound(ft, b.bound, b.code, b.tmpl, b.holds)
		if err != nil {
			return nil, fmt.Errorf("type '%s' property '%s': %s: %w", typeName, p.Name, b.name, err)
		}
		checks = append(checks, chk)
	}

	if p.MultipleOf != nil {
		if !numericKind || ft.Kind == KindQuantity {
			return nil, inapplicable("multiple_of")
		}
		m := *p.MultipleOf
		msg := fmt.Sprintf("Input should be a multiple of %s", displayFloat(m))
		checks = append(checks, func(v any) *violation {
			f, ok := asNumber(v)
			if !ok {
				return nil
			}
			if math.Abs(math.Remainder(f, m)) > 1e-9 {
				return &violation{types.CodeMultipleOf, msg}
			}
			return nil
		})
	}

	if p.WholeNumber {
		if !numericKind || ft.Kind == KindQuantity {
			return nil, inapplicable("whole_number")
		}
		checks = append(checks, func(v any) *violation {
			f, ok := asNumber(v)
			if !ok {
				return nil
			}
			if f != math.Trunc(f) {
				return &violation{types.CodeWholeNumber, "Value must be a whole number"}
			}
			return nil
		})
	}

	if len(p.Exclude) > 0 {
		excluded := make(map[string]bool, len(p.Exclude))
		for _, ev := range p.Exclude {
			excluded[CanonicalKey(ev)] = true
		}
		checks = append(checks, func(v any) *violation {
			if excluded[CanonicalKey(v)] {
				return &violation{types.CodeExcluded, "Value is excluded"}
			}
			return nil
		})
	}

	if p.StrMin != nil {
		if !stringKind {
			return nil, inapplicable("str_min")
		}
		n := *p.StrMin
		msg := fmt.Sprintf("String should have at least %d characters", n)
		checks = append(checks, func(v any) *violation {
			if s, ok := v.(string); ok && utf8.RuneCountInString(s) < n {
				return &violation{types.CodeStringTooShort, msg}
			}
			return nil
		})
	}
	if p.StrMax != nil {
		if !stringKind {
			return nil, inapplicable("str_max")
		}
		n := *p.StrMax
		msg := fmt.Sprintf("String should have at most %d characters", n)
		checks = append(checks, func(v any) *violation {
			if s, ok := v.(string); ok && utf8.RuneCountInString(s) > n {
				return &violation{types.CodeStringTooLong, msg}
			}
			return nil
		})
	}
	if p.StrRegex != "" {
		if !stringKind {
			return nil, inapplicable("str_regex")
		}
		re, err := regexp.Compile(p.StrRegex)
		if err != nil {
			return nil, fmt.Errorf("type '%s' property '%s': str_regex: %w", typeName, p.Name, err)
		}
		msg := fmt.Sprintf("String should match pattern '%s'", p.StrRegex)
		checks = append(checks, func(v any) *violation {
			if s, ok := v.(string); ok && !re.MatchString(s) {
				return &violation{types.CodePatternMismatch, msg}
			}
			return nil
		})
	}

	if p.ListMin != nil {
		if ft.Kind != KindList {
			return nil, inapplicable("list_min")
		}
		n := *p.ListMin
		msg := fmt.Sprintf("List should have at least %d %s", n, pluralItems(n))
		checks = append(checks, func(v any) *violation {
			if l, ok := v.([]any); ok && len(l) < n {
				return &violation{types.CodeListTooShort, msg}
			}
			return nil
		})
	}
	if p.ListMax != nil {
		if ft.Kind != KindList {
			return nil, inapplicable("list_max")
		}
		n := *p.ListMax
		msg := fmt.Sprintf("List should have at most %d %s", n, pluralItems(n))
		checks = append(checks, func(v any) *violation {
			if l, ok := v.([]any); ok && len(l) > n {
				return &violation{types.CodeListTooLong, msg}
			}
			return nil
		})
	}

	if p.Before != nil {
		if ft.Kind != KindDatetime {
			return nil, inapplicable("before")
		}
		limit := *p.Before
		msg := fmt.Sprintf("Value must be before %s", limit.Format(time.RFC3339))
		checks = append(checks, func(v any) *violation {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			if t, ok := parseDatetime(s); ok && !t.Before(limit) {
				return &violation{types.CodeBefore, msg}
			}
			return nil
		})
	}
	if p.After != nil {
		if ft.Kind != KindDatetime {
			return nil, inapplicable("after")
		}
		limit := *p.After
		msg := fmt.Sprintf("Value must be after %s", limit.Format(time.RFC3339))
		checks = append(checks, func(v any) *violation {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			if t, ok := parseDatetime(s); ok && !t.After(limit) {
				return &violation{types.CodeAfter, msg}
			}
			return nil
		})
	}

	if p.PathExists || p.IsDir || p.IsFile || len(p.FileExt) > 0 {
		if ft.Kind != KindPath {
			return nil, inapplicable("path constraint")
		}
		checks = append(checks, compilePathChecks(p)...)
	}

	if p.URLBase != "" || len(p.URLProtocols) > 0 || p.URLReachable {
		if ft.Kind != KindURL {
			return nil, inapplicable("url constraint")
		}
		checks = append(checks, compileURLChecks(p)...)
	}

	return checks, nil
}

// compileBound builds one gt/ge/lt/le check. For quantity fields the bound
// is a quantity string converted to the base unit; the message keeps the
// declared spelling, so gt "5 m" rejects "1 m" with "greater than 5 m" even
// when the input was written in another unit.
func compileBound(ft *FieldType, bound any, code, tmpl string, holds func(int) bool) (checkFunc, error) {
	if ft.Kind == KindQuantity {
		bs, ok := bound.(string)
		if !ok {
			return nil, fmt.Errorf("quantity bound must be a string, got %T", bound)
		}
		q, err := ParseQuantityAs(bs, ft.Dim)
		if err != nil {
			return nil, err
		}
		limit := q.Magnitude
		msg := fmt.Sprintf(tmpl, q.Raw)
		dim := ft.Dim
		return func(v any) *violation {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			qv, err := ParseQuantityAs(s, dim)
			if err != nil {
				return nil // kind check already reported
			}
			if !holds(compareFloat(qv.Magnitude, limit)) {
				return &violation{code, msg}
			}
			return nil
		}, nil
	}

	limit, ok := asNumber(bound)
	if !ok {
		return nil, fmt.Errorf("numeric bound must be a number, got %T", bound)
	}
	msg := fmt.Sprintf(tmpl, displayBound(bound))
	return func(v any) *violation {
		f, ok := asNumber(v)
		if !ok {
			return nil
		}
		if !holds(compareFloat(f, limit)) {
			return &violation{code, msg}
		}
		return nil
	}, nil
}

func compilePathChecks(p types.Property) []checkFunc {
	var checks []checkFunc
	if p.PathExists {
		checks = append(checks, func(v any) *violation {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			if _, err := os.Stat(s); err != nil {
				return &violation{types.CodePathExists, fmt.Sprintf("Path '%s' does not exist", s)}
			}
			return nil
		})
	}
	if p.IsDir {
		checks = append(checks, func(v any) *violation {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			if info, err := os.Stat(s); err == nil && !info.IsDir() {
				return &violation{types.CodeIsDir, fmt.Sprintf("Path '%s' is not a directory", s)}
			}
			return nil
		})
	}
	if p.IsFile {
		checks = append(checks, func(v any) *violation {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			if info, err := os.Stat(s); err == nil && info.IsDir() {
				return &violation{types.CodeIsFile, fmt.Sprintf("Path '%s' is not a file", s)}
			}
			return nil
		})
	}
	if len(p.FileExt) > 0 {
		allowed := make(map[string]bool, len(p.FileExt))
		for _, ext := range p.FileExt {
			allowed[ext] = true
		}
		exts := make([]string, len(p.FileExt))
		copy(exts, p.FileExt)
		checks = append(checks, func(v any) *violation {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			if ext := filepath.Ext(s); !allowed[ext] {
				return &violation{types.CodeFileExt,
					fmt.Sprintf("File extension '%s' not allowed. Must be one of %v", ext, exts)}
			}
			return nil
		})
	}
	return checks
}

func compileURLChecks(p types.Property) []checkFunc {
	var checks []checkFunc
	if len(p.URLProtocols) > 0 {
		allowed := make(map[string]bool, len(p.URLProtocols))
		for _, proto := range p.URLProtocols {
			allowed[proto] = true
		}
		protos := make([]string, len(p.URLProtocols))
		copy(protos, p.URLProtocols)
		checks = append(checks, func(v any) *violation {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			proto, _, found := strings.Cut(s, "://")
			if !found {
				return &violation{types.CodeURLFormat, "Invalid URL format (missing protocol)"}
			}
			if !allowed[proto] {
				return &violation{types.CodeURLProtocol,
					fmt.Sprintf("Protocol '%s' not allowed. Must be one of %v", proto, protos)}
			}
			return nil
		})
	}
	if p.URLBase != "" {
		base := p.URLBase
		checks = append(checks, func(v any) *violation {
			if s, ok := v.(string); ok && !strings.HasPrefix(s, base) {
				return &violation{types.CodeURLBase, fmt.Sprintf("URL must start with '%s'", base)}
			}
			return nil
		})
	}
	if p.URLReachable {
		client := &http.Client{Timeout: reachableTimeout}
		checks = append(checks, func(v any) *violation {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			resp, err := client.Head(s)
			if err != nil {
				return &violation{types.CodeURLUnreachable, fmt.Sprintf("URL '%s' is not reachable", s)}
			}
			resp.Body.Close()
			if resp.StatusCode >= 400 {
				return &violation{types.CodeURLUnreachable, fmt.Sprintf("URL '%s' is not reachable", s)}
			}
			return nil
		})
	}
	return checks
}

// CanonicalKey returns a stable comparison key for a scalar JSON value.
// Numeric spellings collapse ("999" and "999.0" compare equal); strings,
// booleans and numbers never collide with each other.
func CanonicalKey(v any) string {
	switch x := v.(type) {
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "n:" + x.String()
	case float64:
		return "n:" + strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return "n:" + strconv.FormatFloat(float64(x), 'g', -1, 64)
	case int64:
		return "n:" + strconv.FormatFloat(float64(x), 'g', -1, 64)
	case string:
		return "s:" + x
	case bool:
		return "b:" + strconv.FormatBool(x)
	case nil:
		return "z:"
	}
	return fmt.Sprintf("x:%v", v)
}

// asNumber extracts a float64 from any JSON-decoded or Go-literal numeric.
func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

// asInteger extracts an integral numeric; fractional values are rejected.
func asInteger(v any) (float64, bool) {
	f, ok := asNumber(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return f, true
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func pluralItems(n int) string {
	if n == 1 {
		return "item"
	}
	return "items"
}

// displayBound renders a declared numeric bound the way it was written:
// json.Number keeps its source text, Go numerics trim trailing zeros.
func displayBound(bound any) string {
	if n, ok := bound.(json.Number); ok {
		return n.String()
	}
	if f, ok := asNumber(bound); ok {
		return displayFloat(f)
	}
	return fmt.Sprintf("%v", bound)
}

func displayFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// parseDatetime accepts RFC 3339, a naive timestamp, or a bare date.
func parseDatetime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
