package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilename(t *testing.T) {
	cases := []struct {
		in     string
		hullNo string
		imo    string
		ok     bool
	}{
		{"H2567_IMO9991862_IOList.xlsx", "H2567", "IMO9991862", true},
		{"H2567_IMO9991862_IOList_20260125.xlsx", "H2567", "IMO9991862", true},
		{"h369_imo1234567.xls", "H369", "IMO1234567", true},
		{"H2567-extra-IMO42.xlsx", "H2567", "IMO42", true},
		{"IOList.xlsx", "", "", false},
		{"H2567_IOList.xlsx", "", "", false},
		{"IMO9991862.xlsx", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		hullNo, imo, ok := ParseFilename(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.hullNo, hullNo, c.in)
		assert.Equal(t, c.imo, imo, c.in)
	}
}

func TestParseID(t *testing.T) {
	id, ok := parseID("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = parseID("abc")
	assert.False(t, ok)
	_, ok = parseID("0")
	assert.False(t, ok)
	_, ok = parseID("-1")
	assert.False(t, ok)
}
