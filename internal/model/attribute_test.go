package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributeDataTypeValidValue(t *testing.T) {
	cases := []struct {
		name     string
		dataType AttributeDataType
		raw      string
		want     bool
	}{
		{"string accepts anything", AttributeString, "whatever", true},
		{"string accepts empty", AttributeString, "", true},
		{"number accepts integer", AttributeNumber, "42", true},
		{"number rejects decimal", AttributeNumber, "4.2", false},
		{"number rejects text", AttributeNumber, "abc", false},
		{"decimal accepts fraction", AttributeDecimal, "19.99", true},
		{"decimal accepts integer", AttributeDecimal, "20", true},
		{"decimal rejects text", AttributeDecimal, "cheap", false},
		{"boolean accepts true", AttributeBoolean, "true", true},
		{"boolean accepts 1", AttributeBoolean, "1", true},
		{"boolean rejects yes", AttributeBoolean, "yes", false},
		{"date accepts rfc3339", AttributeDate, "2026-08-27T10:00:00Z", true},
		{"date accepts plain date", AttributeDate, "2026-08-27", true},
		{"date rejects garbage", AttributeDate, "tomorrow", false},
		{"unknown type rejects", AttributeDataType("Blob"), "x", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.dataType.ValidValue(tc.raw))
		})
	}
}
