package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// AttributeDataType types the raw string stored in EAV value rows.
type AttributeDataType string

const (
	AttributeString  AttributeDataType = "String"
	AttributeNumber  AttributeDataType = "Number"
	AttributeBoolean AttributeDataType = "Boolean"
	AttributeDate    AttributeDataType = "Date"
	AttributeDecimal AttributeDataType = "Decimal"
)

// Attribute is an immutable schema definition for EAV values.
type Attribute struct {
	BaseModel
	Name       string            `db:"name" json:"name"`
	DataType   AttributeDataType `db:"data_type" json:"dataType"`
	IsRequired bool              `db:"is_required" json:"isRequired"`
}

// ValidValue reports whether raw parses as this data type. A raw value must
// never be trusted without this check against its definition.
func (t AttributeDataType) ValidValue(raw string) bool {
	switch t {
	case AttributeString:
		return true
	case AttributeNumber:
		_, err := strconv.Atoi(raw)
		return err == nil
	case AttributeDecimal:
		_, err := decimal.NewFromString(raw)
		return err == nil
	case AttributeBoolean:
		_, err := strconv.ParseBool(raw)
		return err == nil
	case AttributeDate:
		if _, err := time.Parse(time.RFC3339, raw); err == nil {
			return true
		}
		_, err := time.Parse("2006-01-02", raw)
		return err == nil
	default:
		return false
	}
}
