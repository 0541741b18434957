// Package policy implements the guardrail rule language: a condition tree
// of field comparisons combined with AND/OR/NOT. Rule documents are parsed
// once into a typed AST so evaluation cannot silently mis-read unknown
// shapes; any malformed tree or unrecognized operator surfaces as an error,
// which callers must treat as a blocking match.
package policy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Op is a leaf comparison operator.
type Op string

const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpIn       Op = "in"
	OpContains Op = "contains"
)

// Condition is one node of a parsed rule tree.
type Condition interface {
	// Eval evaluates the node against an action payload. Evaluation is
	// pure and deterministic; errors indicate a comparison that cannot be
	// decided (e.g. non-numeric operand for a numeric operator).
	Eval(payload map[string]interface{}) (bool, error)
}

// Comparison is a leaf comparing a named payload field against a value.
type Comparison struct {
	Field string
	Op    Op
	Value interface{}
}

// And matches when every child matches.
type And struct {
	Children []Condition
}

// Or matches when at least one child matches.
type Or struct {
	Children []Condition
}

// Not inverts its child.
type Not struct {
	Child Condition
}

// Parse builds a Condition from a rule document. Combinator nodes use
// {"op": "and"|"or", "conditions": [...]} or {"op": "not", "condition": {...}};
// leaves use {"field": ..., "op": ..., "value": ...}.
func Parse(doc map[string]interface{}) (Condition, error) {
	if len(doc) == 0 {
		return nil, fmt.Errorf("empty rule document")
	}

	rawOp, ok := doc["op"].(string)
	if !ok {
		return nil, fmt.Errorf("rule node missing op")
	}
	op := Op(strings.ToLower(rawOp))

	switch op {
	case "and", "or":
		raw, ok := doc["conditions"].([]interface{})
		if !ok || len(raw) == 0 {
			return nil, fmt.Errorf("%s node requires a non-empty conditions array", op)
		}
		children := make([]Condition, 0, len(raw))
		for _, c := range raw {
			childDoc, ok := c.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s node child is not an object", op)
			}
			child, err := Parse(childDoc)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if op == "and" {
			return &And{Children: children}, nil
		}
		return &Or{Children: children}, nil

	case "not":
		childDoc, ok := doc["condition"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("not node requires a condition object")
		}
		child, err := Parse(childDoc)
		if err != nil {
			return nil, err
		}
		return &Not{Child: child}, nil

	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpContains:
		field, ok := doc["field"].(string)
		if !ok || field == "" {
			return nil, fmt.Errorf("comparison node requires a field name")
		}
		value, ok := doc["value"]
		if !ok {
			return nil, fmt.Errorf("comparison node requires a value")
		}
		return &Comparison{Field: field, Op: op, Value: value}, nil

	default:
		return nil, fmt.Errorf("unrecognized operator %q", rawOp)
	}
}

// Eval implements Condition.
func (c *And) Eval(payload map[string]interface{}) (bool, error) {
	for _, child := range c.Children {
		ok, err := child.Eval(payload)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Eval implements Condition.
func (c *Or) Eval(payload map[string]interface{}) (bool, error) {
	for _, child := range c.Children {
		ok, err := child.Eval(payload)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Eval implements Condition.
func (c *Not) Eval(payload map[string]interface{}) (bool, error) {
	ok, err := c.Child.Eval(payload)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Eval implements Condition. A field absent from the payload never matches.
func (c *Comparison) Eval(payload map[string]interface{}) (bool, error) {
	actual, present := payload[c.Field]
	if !present {
		return false, nil
	}

	switch c.Op {
	case OpEq:
		return equalValues(actual, c.Value), nil
	case OpNe:
		return !equalValues(actual, c.Value), nil
	case OpGt, OpGte, OpLt, OpLte:
		left, err := toDecimal(actual)
		if err != nil {
			return false, fmt.Errorf("field %q: %w", c.Field, err)
		}
		right, err := toDecimal(c.Value)
		if err != nil {
			return false, fmt.Errorf("comparison value for field %q: %w", c.Field, err)
		}
		cmp := left.Cmp(right)
		switch c.Op {
		case OpGt:
			return cmp > 0, nil
		case OpGte:
			return cmp >= 0, nil
		case OpLt:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case OpIn:
		list, ok := c.Value.([]interface{})
		if !ok {
			return false, fmt.Errorf("in operator for field %q requires an array value", c.Field)
		}
		for _, candidate := range list {
			if equalValues(actual, candidate) {
				return true, nil
			}
		}
		return false, nil
	case OpContains:
		switch v := actual.(type) {
		case string:
			needle, ok := c.Value.(string)
			if !ok {
				return false, fmt.Errorf("contains on string field %q requires a string value", c.Field)
			}
			return strings.Contains(v, needle), nil
		case []interface{}:
			for _, item := range v {
				if equalValues(item, c.Value) {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, fmt.Errorf("contains operator not applicable to field %q", c.Field)
		}
	default:
		return false, fmt.Errorf("unrecognized operator %q", c.Op)
	}
}

// equalValues compares two JSON values. Numbers compare numerically so that
// 100 and 100.0 (and "100" from a rule document) are equal.
func equalValues(a, b interface{}) bool {
	da, errA := toDecimal(a)
	db, errB := toDecimal(b)
	if errA == nil && errB == nil {
		return da.Equal(db)
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// toDecimal converts JSON number representations to a decimal.
func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint:
		return decimal.NewFromInt(int64(n)), nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Zero, fmt.Errorf("value %v is not numeric", v)
	}
}
