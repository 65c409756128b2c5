package parser

import (
	"encoding/xml"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Schema errors
// ============================================================

type SchemaErrorKind string

const (
	MissingAttribute SchemaErrorKind = "missing_attribute"
	InvalidEnum      SchemaErrorKind = "invalid_enum"
	InvalidNumber    SchemaErrorKind = "invalid_number"
)

// SchemaError: нарушение грамматики у конкретного элемента
type SchemaError struct {
	Kind      SchemaErrorKind
	Element   string
	Attribute string
	Value     string
	Line      int
}

func (e *SchemaError) Error() string {
	switch e.Kind {
	case MissingAttribute:
		return fmt.Sprintf("<%s> line %d: missing required attribute %q", e.Element, e.Line, e.Attribute)
	case InvalidEnum:
		return fmt.Sprintf("<%s> line %d: attribute %q has invalid value %q", e.Element, e.Line, e.Attribute, e.Value)
	default:
		return fmt.Sprintf("<%s> line %d: attribute %q is not a valid number: %q", e.Element, e.Line, e.Attribute, e.Value)
	}
}

// Code переводит вид ошибки в код предупреждения
func (e *SchemaError) Code() models.WarningCode {
	switch e.Kind {
	case MissingAttribute:
		return models.WarnMissingAttribute
	case InvalidEnum:
		return models.WarnInvalidEnum
	default:
		return models.WarnInvalidNumber
	}
}

// ============================================================
// Attribute reader
// ============================================================

// attrs читает атрибуты элемента с умолчаниями и копит ошибки схемы
type attrs struct {
	elem   string
	line   int
	values map[string]string
	order  []string
	used   map[string]bool
	errs   []*SchemaError
}

func newAttrs(n *node) *attrs {
	a := &attrs{
		elem:   n.name,
		line:   n.line,
		values: make(map[string]string, len(n.attrs)),
		used:   make(map[string]bool, len(n.attrs)),
	}
	for _, at := range n.attrs {
		if at.Name.Space != "" && at.Name.Space != "xmlns" {
			continue
		}
		if at.Name.Space == "xmlns" || at.Name.Local == "xmlns" {
			continue
		}
		a.values[at.Name.Local] = at.Value
		a.order = append(a.order, at.Name.Local)
	}
	return a
}

func (a *attrs) fail(kind SchemaErrorKind, name, value string) {
	a.errs = append(a.errs, &SchemaError{Kind: kind, Element: a.elem, Attribute: name, Value: value, Line: a.line})
}

func (a *attrs) lookup(name string) (string, bool) {
	a.used[name] = true
	v, ok := a.values[name]
	return v, ok
}

// has сообщает о наличии атрибута и помечает его прочитанным
func (a *attrs) has(name string) bool {
	_, ok := a.lookup(name)
	return ok
}

func (a *attrs) str(name, def string) string {
	if v, ok := a.lookup(name); ok {
		return v
	}
	return def
}

func (a *attrs) reqStr(name string) string {
	v, ok := a.lookup(name)
	if !ok {
		a.fail(MissingAttribute, name, "")
	}
	return v
}

func (a *attrs) float(name string, def float64) float64 {
	v, ok := a.lookup(name)
	if !ok {
		return def
	}
	f, err := parseFloat(v)
	if err != nil {
		a.fail(InvalidNumber, name, v)
		return def
	}
	return f
}

func (a *attrs) reqFloat(name string) float64 {
	v, ok := a.lookup(name)
	if !ok {
		a.fail(MissingAttribute, name, "")
		return 0
	}
	f, err := parseFloat(v)
	if err != nil {
		a.fail(InvalidNumber, name, v)
		return 0
	}
	return f
}

func (a *attrs) int(name string, def int) int {
	v, ok := a.lookup(name)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		a.fail(InvalidNumber, name, v)
		return def
	}
	return i
}

func (a *attrs) int64(name string, def int64) int64 {
	v, ok := a.lookup(name)
	if !ok {
		return def
	}
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		a.fail(InvalidNumber, name, v)
		return def
	}
	return i
}

func (a *attrs) bool(name string, def bool) bool {
	v, ok := a.lookup(name)
	if !ok {
		return def
	}
	switch strings.TrimSpace(v) {
	case "true":
		return true
	case "false":
		return false
	}
	a.fail(InvalidEnum, name, v)
	return def
}

func (a *attrs) enum(name, def string, allowed ...string) string {
	v, ok := a.lookup(name)
	if !ok {
		return def
	}
	for _, candidate := range allowed {
		if v == candidate {
			return v
		}
	}
	a.fail(InvalidEnum, name, v)
	return def
}

func (a *attrs) reqEnum(name string, allowed ...string) string {
	if _, ok := a.values[name]; !ok {
		a.used[name] = true
		a.fail(MissingAttribute, name, "")
		return ""
	}
	return a.enum(name, "", allowed...)
}

func (a *attrs) color(name string, def string) *models.Color {
	v, ok := a.lookup(name)
	if !ok {
		if def == "" {
			return nil
		}
		v = def
	}
	c, err := models.ParseColor(v)
	if err != nil {
		a.fail(InvalidNumber, name, v)
		return nil
	}
	return &c
}

// floats читает список чисел через пробел или запятую
func (a *attrs) floats(name string) []float64 {
	v, ok := a.lookup(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
	out := make([]float64, 0, len(fields))
	for _, field := range fields {
		f, err := parseFloat(field)
		if err != nil {
			a.fail(InvalidNumber, name, v)
			return nil
		}
		out = append(out, f)
	}
	return out
}

// resource читает путь ресурса внутри архива
func (a *attrs) resource(name string) models.ResourceRef {
	return models.ResourceRef{Path: a.str(name, "")}
}

func (a *attrs) reqResource(name string) models.ResourceRef {
	return models.ResourceRef{Path: a.reqStr(name)}
}

// ignore помечает известные, но не моделируемые атрибуты
func (a *attrs) ignore(names ...string) {
	for _, name := range names {
		a.used[name] = true
	}
}

// all возвращает все атрибуты как карту (для сквозных элементов)
func (a *attrs) all() map[string]string {
	out := make(map[string]string, len(a.values))
	for k, v := range a.values {
		a.used[k] = true
		out[k] = v
	}
	return out
}

func (a *attrs) failed() bool { return len(a.errs) > 0 }

// unknown возвращает непрочитанные атрибуты в порядке документа
func (a *attrs) unknown() []string {
	var out []string
	for _, name := range a.order {
		if !a.used[name] {
			out = append(out, name)
		}
	}
	return out
}

// decimalNumber: десятичная запись числа; NaN, Inf, шестнадцатеричная форма
// и разделители "_" не допускаются
var decimalNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !decimalNumber.MatchString(s) {
		return 0, errors.Errorf("not a decimal number: %q", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Errorf("number out of range: %q", s)
	}
	return f, nil
}

// ============================================================
// Generic element tree
// ============================================================

// node: поддерево одного элемента верхнего уровня
type node struct {
	name     string
	attrs    []xml.Attr
	children []*node
	text     string
	line     int
}

func (n *node) childrenNamed(name string) []*node {
	var out []*node
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
