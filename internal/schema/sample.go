package schema

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/parser"
)

// maxRefChain stops recursive schemas that keep requiring content. Only
// $ref follows count, so plain nesting may go arbitrarily deep.
const maxRefChain = 256

// patternAttempts bounds how many strings are drawn for a pattern.
const patternAttempts = 8

// SampleOptions tune GenerateSample.
type SampleOptions struct {
	// Seed makes generation repeatable. Zero picks a random seed.
	Seed int64
	// MinItems and MaxItems bound array lengths where the schema does not.
	MinItems int
	MaxItems int
	// MaxDepth is the depth past which optional properties are left out
	// and arrays get their minimum length.
	MaxDepth int
}

// DefaultSampleOptions returns the options used when none are configured.
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{MinItems: 1, MaxItems: 3, MaxDepth: 8}
}

// GenerateSample fabricates a tree that validates against s.
func GenerateSample(ctx context.Context, s *Schema, opts SampleOptions) (*models.Value, error) {
	if s == nil {
		return nil, errors.NewGenerateError("no schema to generate from", errors.ErrUnsatisfiable)
	}
	if opts.MaxItems < opts.MinItems {
		return nil, errors.NewGenerateError(
			fmt.Sprintf("min items %d exceeds max items %d", opts.MinItems, opts.MaxItems), errors.ErrUnsatisfiable)
	}
	g := &generator{
		ctx:   ctx,
		faker: gofakeit.New(uint64(opts.Seed)),
		opts:  opts,
		root:  s,
		defs:  s.definitions(),
	}
	v, err := g.generate(s, "", 0, 0)
	if err != nil {
		return nil, err
	}
	return v, nil
}

type generator struct {
	ctx   context.Context
	faker *gofakeit.Faker
	opts  SampleOptions
	root  *Schema
	defs  map[string]*Schema
}

// intn returns a value in [0, n).
func (g *generator) intn(n int) int {
	return g.faker.IntRange(0, n-1)
}

func (g *generator) fail(at, msg string) error {
	if at == "" {
		at = "root"
	}
	return errors.NewGenerateError(fmt.Sprintf("%s: %s", at, msg), errors.ErrUnsatisfiable)
}

// generate fabricates a value for s. depth counts nesting and drives
// MaxDepth; refs counts the $ref follows on the way here.
func (g *generator) generate(s *Schema, at string, depth, refs int) (*models.Value, error) {
	if err := g.ctx.Err(); err != nil {
		return nil, errors.NewGenerateError("sample generation cancelled", fmt.Errorf("%w: %v", errors.ErrCancelled, err))
	}

	if s.Ref != "" {
		if refs >= maxRefChain {
			return nil, g.fail(at, "schema recursion too deep")
		}
		target, ok := resolveRef(g.root, g.defs, s.Ref)
		if !ok {
			return nil, g.fail(at, fmt.Sprintf("unresolvable $ref %q", s.Ref))
		}
		return g.generate(target, at, depth+1, refs+1)
	}
	if len(s.AllOf) > 0 {
		flat, err := g.flatten(s, at, refs)
		if err != nil {
			return nil, err
		}
		s = flat
	}

	if s.Const != nil {
		v, err := parser.ParseLiteral(string(s.Const))
		if err != nil {
			return nil, g.fail(at, fmt.Sprintf("bad const: %v", err))
		}
		return v, nil
	}
	if s.Enum != nil {
		if len(s.Enum) == 0 {
			return nil, g.fail(at, "enum has no values")
		}
		v, err := models.FromInterface(s.Enum[g.intn(len(s.Enum))])
		if err != nil {
			return nil, g.fail(at, fmt.Sprintf("bad enum value: %v", err))
		}
		return v, nil
	}

	if len(s.AnyOf) > 0 {
		return g.generate(s.AnyOf[g.intn(len(s.AnyOf))], at, depth+1, refs)
	}
	if len(s.OneOf) > 0 {
		return g.oneOf(s, at, depth, refs)
	}

	switch g.pickType(s) {
	case "null":
		return models.Null(), nil
	case "boolean":
		return models.Bool(g.faker.Bool()), nil
	case "integer":
		return g.integer(s, at)
	case "number":
		return g.number(s, at)
	case "string":
		return g.string(s, at)
	case "array":
		return g.array(s, at, depth, refs)
	default:
		return g.object(s, at, depth, refs)
	}
}

// pickType chooses a non-null type when one is allowed.
func (g *generator) pickType(s *Schema) string {
	var choices []string
	for _, t := range s.Type.Types {
		if t != "null" {
			choices = append(choices, t)
		}
	}
	switch {
	case len(choices) > 0:
		return choices[g.intn(len(choices))]
	case len(s.Type.Types) > 0:
		return "null"
	case s.Properties != nil || len(s.Required) > 0:
		return "object"
	case s.Items != nil:
		return "array"
	default:
		return "string"
	}
}

func (g *generator) oneOf(s *Schema, at string, depth, refs int) (*models.Value, error) {
	order := make([]int, len(s.OneOf))
	for i := range order {
		order[i] = i
	}
	g.faker.ShuffleInts(order)

	var lastErr error
	for _, i := range order {
		v, err := g.generate(s.OneOf[i], at, depth+1, refs)
		if err != nil {
			lastErr = err
			continue
		}
		matches := 0
		for _, alt := range s.OneOf {
			if len(g.check(v, alt)) == 0 {
				matches++
			}
		}
		if matches == 1 {
			return v, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, g.fail(at, "no oneOf alternative can be matched exclusively")
}

// check validates v against a subschema, carrying the root's definitions
// so that references still resolve.
func (g *generator) check(v *models.Value, s *Schema) []Violation {
	sub := *s
	sub.Schema = g.root.Schema
	sub.Definitions = g.root.Definitions
	sub.Defs = g.root.Defs
	return Validate(v, &sub)
}

func (g *generator) integer(s *Schema, at string) (*models.Value, error) {
	lo, hi := math.Inf(-1), math.Inf(1)
	if s.Minimum != nil {
		lo = math.Ceil(*s.Minimum)
	}
	if s.ExclusiveMinimum != nil {
		lo = math.Max(lo, math.Floor(*s.ExclusiveMinimum)+1)
	}
	if s.Maximum != nil {
		hi = math.Floor(*s.Maximum)
	}
	if s.ExclusiveMaximum != nil {
		hi = math.Min(hi, math.Ceil(*s.ExclusiveMaximum)-1)
	}
	lo, hi = window(lo, hi, 100)
	if lo > hi {
		return nil, g.fail(at, "no integer fits the bounds")
	}
	step := 1.0
	if s.MultipleOf != nil && *s.MultipleOf > 0 {
		step = integralStep(*s.MultipleOf)
	}
	first := math.Ceil(lo/step) * step
	if first > hi {
		return nil, g.fail(at, fmt.Sprintf("no multiple of %v fits the bounds", step))
	}
	count := int((hi-first)/step) + 1
	n := first + float64(g.intn(count))*step
	return models.Int(int64(n)), nil
}

func (g *generator) number(s *Schema, at string) (*models.Value, error) {
	lo, hi := math.Inf(-1), math.Inf(1)
	if s.Minimum != nil {
		lo = *s.Minimum
	}
	if s.Maximum != nil {
		hi = *s.Maximum
	}
	if s.ExclusiveMinimum != nil && *s.ExclusiveMinimum >= lo {
		lo = math.Nextafter(*s.ExclusiveMinimum, math.Inf(1))
	}
	if s.ExclusiveMaximum != nil && *s.ExclusiveMaximum <= hi {
		hi = math.Nextafter(*s.ExclusiveMaximum, math.Inf(-1))
	}
	lo, hi = window(lo, hi, 100)
	if lo > hi {
		return nil, g.fail(at, "no number fits the bounds")
	}
	if s.MultipleOf != nil && *s.MultipleOf > 0 {
		m := *s.MultipleOf
		first, last := math.Ceil(lo/m), math.Floor(hi/m)
		if first > last {
			return nil, g.fail(at, fmt.Sprintf("no multiple of %v fits the bounds", m))
		}
		k := first + float64(g.intn(int(last-first)+1))
		return models.Float(k * m), nil
	}
	// two decimals keep the literal readable
	x := g.faker.Float64Range(lo, hi)
	if r := math.Round(x*100) / 100; r >= lo && r <= hi {
		x = r
	}
	return models.Float(x), nil
}

// window closes open bounds to a range of the given width.
func window(lo, hi, width float64) (float64, float64) {
	switch {
	case math.IsInf(lo, -1) && math.IsInf(hi, 1):
		return 0, width
	case math.IsInf(lo, -1):
		return hi - width, hi
	case math.IsInf(hi, 1):
		return lo, lo + width
	}
	return lo, hi
}

func (g *generator) string(s *Schema, at string) (*models.Value, error) {
	minLen, maxLen := 0, -1
	if s.MinLength != nil {
		minLen = *s.MinLength
	}
	if s.MaxLength != nil {
		maxLen = *s.MaxLength
	}
	if maxLen >= 0 && minLen > maxLen {
		return nil, g.fail(at, fmt.Sprintf("minLength %d exceeds maxLength %d", minLen, maxLen))
	}

	if s.Pattern != "" {
		return g.matching(s, at)
	}

	// faker output is checked against the format before it is used
	str := g.formatted(s.Format)
	for try := 1; s.Format != "" && try < patternAttempts; try++ {
		if Valid(models.String(str), &Schema{Format: s.Format}) {
			break
		}
		str = g.formatted(s.Format)
	}

	n := utf8.RuneCountInString(str)
	if n >= minLen && (maxLen < 0 || n <= maxLen) {
		return models.String(str), nil
	}
	if s.Format != "" {
		return nil, g.fail(at, fmt.Sprintf("format %q does not fit the length bounds", s.Format))
	}
	return models.String(g.fill(str, minLen, maxLen)), nil
}

func (g *generator) formatted(format string) string {
	switch format {
	case "date-time":
		return g.moment().Format(time.RFC3339)
	case "date":
		return g.moment().Format(time.DateOnly)
	case "time":
		return g.moment().Format("15:04:05Z07:00")
	case "email":
		return g.faker.Email()
	case "uuid":
		return g.faker.UUID()
	case "hostname":
		return g.faker.DomainName()
	case "ipv4":
		return g.faker.IPv4Address()
	case "ipv6":
		return g.faker.IPv6Address()
	case "uri":
		return g.faker.URL()
	default:
		return strings.ToLower(g.faker.Word())
	}
}

// fill pads or trims str into the length bounds.
func (g *generator) fill(str string, minLen, maxLen int) string {
	runes := []rune(str)
	for len(runes) < minLen {
		runes = append(runes, []rune(strings.ToLower(g.faker.Letter()))...)
	}
	if maxLen >= 0 && len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	return string(runes)
}

func (g *generator) moment() time.Time {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return g.faker.DateRange(start, start.AddDate(5, 0, 0)).Truncate(time.Second)
}

// matching picks a listed value that fits s, then falls back to strings
// drawn from the pattern itself.
func (g *generator) matching(s *Schema, at string) (*models.Value, error) {
	var candidates []any
	if s.Default != nil {
		candidates = append(candidates, s.Default)
	}
	candidates = append(candidates, s.Examples...)
	for _, c := range candidates {
		v, err := models.FromInterface(c)
		if err == nil && len(g.check(v, s)) == 0 {
			return v, nil
		}
	}

	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return nil, g.fail(at, fmt.Sprintf("cannot generate a string for pattern %q: %v", s.Pattern, err))
	}
	for try := 0; try < patternAttempts; try++ {
		str := g.faker.Regex(s.Pattern)
		if !re.MatchString(str) {
			continue
		}
		if v := models.String(str); len(g.check(v, s)) == 0 {
			return v, nil
		}
	}
	return nil, g.fail(at, fmt.Sprintf("no string for pattern %q fits the schema", s.Pattern))
}

func (g *generator) array(s *Schema, at string, depth, refs int) (*models.Value, error) {
	lo, hi := g.opts.MinItems, g.opts.MaxItems
	if s.MinItems != nil {
		lo = *s.MinItems
		if hi < lo {
			hi = lo
		}
	}
	if s.MaxItems != nil {
		hi = min(hi, *s.MaxItems)
		if s.MinItems == nil {
			lo = min(lo, hi)
		}
	}
	if lo > hi {
		return nil, g.fail(at, fmt.Sprintf("minItems %d exceeds maxItems %d", lo, hi))
	}

	arr := models.Array()
	if s.Items == nil {
		if lo > 0 {
			// anything goes
			for i := 0; i < lo; i++ {
				arr.Items = append(arr.Items, models.Int(int64(i)))
			}
		}
		return arr, nil
	}

	n := lo
	if depth < g.opts.MaxDepth && hi > lo {
		n += g.intn(hi - lo + 1)
	}
	for i := 0; i < n; i++ {
		item, err := g.uniqueItem(s, arr, fmt.Sprintf("%s/%d", at, i), depth+1, refs)
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, item)
	}
	return arr, nil
}

func (g *generator) uniqueItem(s *Schema, arr *models.Value, at string, depth, refs int) (*models.Value, error) {
	const attempts = 16
	for try := 0; ; try++ {
		item, err := g.generate(s.Items, at, depth, refs)
		if err != nil {
			return nil, err
		}
		if !s.UniqueItems || !contains(arr.Items, item) {
			return item, nil
		}
		if try == attempts {
			return nil, g.fail(at, "cannot produce enough unique items")
		}
	}
}

func contains(items []*models.Value, v *models.Value) bool {
	for _, it := range items {
		if sameValue(it, v) {
			return true
		}
	}
	return false
}

func (g *generator) object(s *Schema, at string, depth, refs int) (*models.Value, error) {
	obj := models.Object()
	for _, name := range s.OrderedProperties() {
		if !s.IsRequired(name) && (depth >= g.opts.MaxDepth || !g.faker.Bool()) {
			continue
		}
		v, err := g.generate(s.Properties[name], at+"/"+name, depth+1, refs)
		if err != nil {
			return nil, err
		}
		obj.Set(name, v)
	}
	for _, name := range s.Required {
		if obj.Index(name) >= 0 {
			continue
		}
		prop := &Schema{}
		if ap := s.AdditionalProperties; ap != nil && ap.Schema != nil {
			prop = ap.Schema
		} else if ap != nil && !ap.Allowed {
			return nil, g.fail(at, fmt.Sprintf("required property %q is not allowed", name))
		}
		v, err := g.generate(prop, at+"/"+name, depth+1, refs)
		if err != nil {
			return nil, err
		}
		obj.Set(name, v)
	}
	return obj, nil
}

// flatten folds allOf into a single schema, keeping the tightest bounds.
func (g *generator) flatten(s *Schema, at string, refs int) (*Schema, error) {
	out := *s
	out.AllOf = nil
	out.Properties = make(map[string]*Schema, len(s.Properties))
	out.PropertyOrder = nil
	out.Required = nil
	parts := append([]*Schema{s}, s.AllOf...)
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		for hops := refs; part.Ref != ""; hops++ {
			if hops >= maxRefChain {
				return nil, g.fail(at, "schema recursion too deep")
			}
			target, ok := resolveRef(g.root, g.defs, part.Ref)
			if !ok {
				return nil, g.fail(at, fmt.Sprintf("unresolvable $ref %q", part.Ref))
			}
			part = target
		}
		if part != s {
			parts = append(parts, part.AllOf...)
		}
		if len(out.Type.Types) == 0 {
			out.Type = part.Type
		} else if len(part.Type.Types) > 0 {
			out.Type = intersect(out.Type, part.Type)
			if len(out.Type.Types) == 0 {
				return nil, g.fail(at, "allOf types do not overlap")
			}
		}
		for _, name := range part.OrderedProperties() {
			if _, ok := out.Properties[name]; !ok {
				out.PropertyOrder = append(out.PropertyOrder, name)
			}
			out.Properties[name] = part.Properties[name]
		}
		for _, name := range part.Required {
			if !out.IsRequired(name) {
				out.Required = append(out.Required, name)
			}
		}
		if out.Items == nil {
			out.Items = part.Items
		}
		if out.Format == "" {
			out.Format = part.Format
		}
		if out.Pattern == "" {
			out.Pattern = part.Pattern
		}
		if out.Enum == nil {
			out.Enum = part.Enum
		}
		if out.Const == nil {
			out.Const = part.Const
		}
		if out.AdditionalProperties == nil {
			out.AdditionalProperties = part.AdditionalProperties
		}
		out.MinLength = tighterInt(out.MinLength, part.MinLength, maxInt)
		out.MaxLength = tighterInt(out.MaxLength, part.MaxLength, minInt)
		out.MinItems = tighterInt(out.MinItems, part.MinItems, maxInt)
		out.MaxItems = tighterInt(out.MaxItems, part.MaxItems, minInt)
		out.Minimum = tighterFloat(out.Minimum, part.Minimum, math.Max)
		out.Maximum = tighterFloat(out.Maximum, part.Maximum, math.Min)
		out.ExclusiveMinimum = tighterFloat(out.ExclusiveMinimum, part.ExclusiveMinimum, math.Max)
		out.ExclusiveMaximum = tighterFloat(out.ExclusiveMaximum, part.ExclusiveMaximum, math.Min)
		out.UniqueItems = out.UniqueItems || part.UniqueItems
		if out.MultipleOf == nil {
			out.MultipleOf = part.MultipleOf
		}
	}
	if len(out.Properties) == 0 {
		out.Properties = nil
	}
	return &out, nil
}

func intersect(a, b SchemaType) SchemaType {
	var out SchemaType
	for _, t := range a.Types {
		switch {
		case b.Has(t):
			out.Types = append(out.Types, t)
		case t == "number" && b.Has("integer"):
			out.Types = append(out.Types, "integer")
		case t == "integer" && b.Has("number"):
			out.Types = append(out.Types, "integer")
		}
	}
	return out
}

func tighterInt(a, b *int, pick func(x, y int) int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	v := pick(*a, *b)
	return &v
}

func tighterFloat(a, b *float64, pick func(x, y float64) float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	v := pick(*a, *b)
	return &v
}

func minInt(a, b int) int { return min(a, b) }

func maxInt(a, b int) int { return max(a, b) }

// integralStep scales a fractional multipleOf to its smallest integer
// multiple.
func integralStep(m float64) float64 {
	for n := 1; n <= 1000; n++ {
		x := m * float64(n)
		if math.Abs(x-math.Round(x)) < 1e-9 {
			return math.Round(x)
		}
	}
	return math.Ceil(m)
}
