package css

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// KV is a single key/value pair of an ordered mapping
type KV struct {
	Key   string
	Value any
}

// Map is an ordered mapping from keys to values. Keys containing '&'
// denote nested selector patterns, all other keys are property names.
type Map []KV

// Decoder converts untyped descriptions into the typed model.
// In lenient mode unrecognized shapes are coerced to empty fallbacks,
// in strict mode they fail with ErrInvalidDescriptionShape.
type Decoder struct {
	log    *zap.Logger
	strict bool
}

// NewDecoder creates a new description decoder
func NewDecoder(log *zap.Logger, strict bool) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Decoder{log: log.Named("css-decoder"), strict: strict}
}

// FromValue converts v into a Description.
//
// Accepted shapes: string or RawText (raw text), Map, map[string]any (keys
// sorted since Go maps are unordered), RuleSet, and nil (empty rule set).
// Property values may be a scalar (string, number, bool), Value, or a slice
// of those; false and nil contribute no declarations.
func (d *Decoder) FromValue(v any) (Description, error) {
	return d.description(v, "")
}

// Entries classifies ordered key/value pairs into a RuleSet
func (d *Decoder) Entries(m Map) (RuleSet, error) {
	return d.ruleSet(m, "")
}

// DecodeYAML decodes a YAML (or JSON) document into a Description, keeping
// mapping order. A scalar document is raw text.
func (d *Decoder) DecodeYAML(data []byte) (Description, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse description: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return RuleSet{}, nil
	}
	return d.description(fromNode(doc.Content[0]), "")
}

func (d *Decoder) description(v any, path string) (Description, error) {
	switch t := v.(type) {
	case nil:
		return RuleSet{}, nil
	case string:
		return RawText(t), nil
	case RawText:
		return t, nil
	case RuleSet:
		return t, nil
	case Map:
		return d.ruleSet(t, path)
	case map[string]any:
		return d.ruleSet(sortedMap(t), path)
	}
	if err := d.invalid(path, v); err != nil {
		return nil, err
	}
	return RuleSet{}, nil
}

func (d *Decoder) ruleSet(m Map, path string) (RuleSet, error) {
	rules := make(RuleSet, 0, len(m))
	for _, kv := range m {
		key := strings.TrimSpace(kv.Key)
		keyPath := joinPath(path, key)

		if IsNestedKey(key) {
			child, err := d.description(kv.Value, keyPath)
			if err != nil {
				return nil, err
			}
			rules = append(rules, Nested{Pattern: key, Rules: child})
			continue
		}

		values, err := d.values(kv.Value, keyPath)
		if err != nil {
			return nil, err
		}
		rules = append(rules, Property{Name: key, Values: values})
	}
	return rules, nil
}

func (d *Decoder) values(v any, path string) ([]Value, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []Value:
		return t, nil
	case []string:
		values := make([]Value, len(t))
		for i, s := range t {
			values[i] = Str(s)
		}
		return values, nil
	case []any:
		values := make([]Value, 0, len(t))
		for i, item := range t {
			if item == nil {
				continue
			}
			val, ok, err := d.scalar(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			if ok {
				values = append(values, val)
			}
		}
		return values, nil
	}

	val, ok, err := d.scalar(v, path)
	if err != nil || !ok {
		return nil, err
	}
	return []Value{val}, nil
}

func (d *Decoder) scalar(v any, path string) (Value, bool, error) {
	switch t := v.(type) {
	case Value:
		return t, true, nil
	case string:
		return Str(t), true, nil
	case bool:
		if !t {
			return Discard(), true, nil
		}
		// only false has a meaning, true prints as 1
		if err := d.invalid(path, v); err != nil {
			return Value{}, false, err
		}
		return Str("1"), true, nil
	case int:
		return Int(t), true, nil
	case int32:
		return Str(strconv.FormatInt(int64(t), 10)), true, nil
	case int64:
		return Str(strconv.FormatInt(t, 10)), true, nil
	case uint:
		return Str(strconv.FormatUint(uint64(t), 10)), true, nil
	case uint32:
		return Str(strconv.FormatUint(uint64(t), 10)), true, nil
	case uint64:
		return Str(strconv.FormatUint(t, 10)), true, nil
	case float32:
		return Str(strconv.FormatFloat(float64(t), 'f', -1, 32)), true, nil
	case float64:
		return Float(t), true, nil
	}
	if err := d.invalid(path, v); err != nil {
		return Value{}, false, err
	}
	return Value{}, false, nil
}

// invalid reports an unrecognized shape: an error in strict mode, a logged
// coercion otherwise.
func (d *Decoder) invalid(path string, v any) error {
	if d.strict {
		return fmt.Errorf("%w at %q: %T", ErrInvalidDescriptionShape, path, v)
	}
	d.log.Debug("Coercing unrecognized value", zap.String("path", path), zap.String("type", fmt.Sprintf("%T", v)))
	return nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + " > " + key
}

func sortedMap(m map[string]any) Map {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make(Map, len(keys))
	for i, k := range keys {
		out[i] = KV{Key: k, Value: m[k]}
	}
	return out
}

// fromNode converts a YAML node into the untyped shapes understood by the
// decoder. Scalars keep their source text, except booleans and nulls.
func fromNode(n *yaml.Node) any {
	switch n.Kind {
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		m := make(Map, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m = append(m, KV{Key: n.Content[i].Value, Value: fromNode(n.Content[i+1])})
		}
		return m
	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		for i, c := range n.Content {
			items[i] = fromNode(c)
		}
		return items
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err == nil {
				return b
			}
		}
		return n.Value
	}
	return nil
}
