package postgres

import (
	"fmt"
	"strings"

	"loan-feature-engine/internal/pkg/apperrors"
)

// KeyKind is the closed set of primary key column types a table can be created with.
type KeyKind int

const (
	KeyBigInt KeyKind = iota + 1
	KeyInt
	KeySmallInt
	KeyFloat
	KeyString
	KeyText
	KeyBool
	KeyDate
	KeyDateTime
)

var keyKindNames = map[string]KeyKind{
	"b_int":    KeyBigInt,
	"int":      KeyInt,
	"s_int":    KeySmallInt,
	"float":    KeyFloat,
	"str":      KeyString,
	"txt":      KeyText,
	"bool":     KeyBool,
	"date":     KeyDate,
	"datetime": KeyDateTime,
}

func ParseKeyKind(s string) (KeyKind, error) {
	k, ok := keyKindNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: primary key type %q", apperrors.ErrUnsupported, s)
	}
	return k, nil
}

func (k KeyKind) String() string {
	for name, kind := range keyKindNames {
		if kind == k {
			return name
		}
	}
	return fmt.Sprintf("KeyKind(%d)", int(k))
}

func (k KeyKind) SQLType() string {
	switch k {
	case KeyBigInt:
		return "BIGINT"
	case KeyInt:
		return "INTEGER"
	case KeySmallInt:
		return "SMALLINT"
	case KeyFloat:
		return "DOUBLE PRECISION"
	case KeyString:
		return "VARCHAR(255)"
	case KeyBool:
		return "BOOLEAN"
	case KeyDate:
		return "DATE"
	case KeyDateTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
