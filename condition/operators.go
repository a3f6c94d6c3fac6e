package condition

import (
	"fmt"
	"strconv"
	"strings"
)

// Comparison operators accepted by the attribute condition.
const (
	OpEqual            = "eq"
	OpNotEqual         = "ne"
	OpLessThan         = "lt"
	OpLessThanEqual    = "lte"
	OpGreaterThan      = "gt"
	OpGreaterThanEqual = "gte"
	OpContains         = "contains"
	OpStartsWith       = "starts_with"
	OpEndsWith         = "ends_with"
	OpRegexMatch       = "regex"
)

// OperatorFunc defines the signature for operator implementations
type OperatorFunc func(fieldValue, compareValue any) (bool, error)

var operators = map[string]OperatorFunc{
	OpEqual:            operatorEqual,
	OpNotEqual:         operatorNotEqual,
	OpLessThan:         operatorLessThan,
	OpLessThanEqual:    operatorLessThanEqual,
	OpGreaterThan:      operatorGreaterThan,
	OpGreaterThanEqual: operatorGreaterThanEqual,
	OpContains:         operatorContains,
	OpStartsWith:       operatorStartsWith,
	OpEndsWith:         operatorEndsWith,
	OpRegexMatch:       operatorRegex,
}

// ValidOperator reports whether op names a supported operator.
func ValidOperator(op string) bool {
	_, ok := operators[op]
	return ok
}

func operatorEqual(fieldValue, compareValue any) (bool, error) {
	return compareValues(fieldValue, compareValue) == 0, nil
}

func operatorNotEqual(fieldValue, compareValue any) (bool, error) {
	return compareValues(fieldValue, compareValue) != 0, nil
}

func operatorLessThan(fieldValue, compareValue any) (bool, error) {
	return compareValues(fieldValue, compareValue) < 0, nil
}

func operatorLessThanEqual(fieldValue, compareValue any) (bool, error) {
	return compareValues(fieldValue, compareValue) <= 0, nil
}

func operatorGreaterThan(fieldValue, compareValue any) (bool, error) {
	return compareValues(fieldValue, compareValue) > 0, nil
}

func operatorGreaterThanEqual(fieldValue, compareValue any) (bool, error) {
	return compareValues(fieldValue, compareValue) >= 0, nil
}

func operatorContains(fieldValue, compareValue any) (bool, error) {
	return strings.Contains(asString(fieldValue), asString(compareValue)), nil
}

func operatorStartsWith(fieldValue, compareValue any) (bool, error) {
	return strings.HasPrefix(asString(fieldValue), asString(compareValue)), nil
}

func operatorEndsWith(fieldValue, compareValue any) (bool, error) {
	return strings.HasSuffix(asString(fieldValue), asString(compareValue)), nil
}

func operatorRegex(fieldValue, compareValue any) (bool, error) {
	pattern, ok := compareValue.(string)
	if !ok {
		return false, fmt.Errorf("regex pattern must be a string")
	}

	re, err := compileRegex(pattern)
	if err != nil {
		return false, err
	}

	return re.MatchString(asString(fieldValue)), nil
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// compareValues compares numerically when both sides parse as numbers,
// falling back to string comparison.
func compareValues(a, b any) int {
	aNum, aIsNum := toFloat64(a)
	bNum, bIsNum := toFloat64(b)

	if aIsNum && bIsNum {
		switch {
		case aNum < bNum:
			return -1
		case aNum > bNum:
			return 1
		}
		return 0
	}

	aStr := asString(a)
	bStr := asString(b)
	switch {
	case aStr < bStr:
		return -1
	case aStr > bStr:
		return 1
	}
	return 0
}

func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
