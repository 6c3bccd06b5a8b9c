package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveChannelIDFullPath(t *testing.T) {
	p := NewPayload()
	p.SetString(ColRuleNaming, "hs4sd_v1")
	p.SetString(ColLevel1, "engine")
	p.SetString(ColLevel2, "me1")
	p.SetString(ColLevel3, "cyl1")
	p.SetString(ColLevel4, "exh")
	p.SetString(ColMiscellaneous, "gas")
	p.SetString(ColMeasure, "temperature")

	assert.Equal(t, "/hs4sd_v1/engine/me1/cyl1/exh/gas/temperature", DeriveChannelID(p))
}

func TestDeriveChannelIDSkipsEmptySegments(t *testing.T) {
	p := NewPayload()
	p.SetString(ColRuleNaming, "hs4sd_v1")
	p.SetString(ColLevel1, "engine")
	p.Set(ColLevel2, nil)
	p.SetString(ColLevel3, "  ")
	p.SetString(ColMeasure, "temperature")

	id := DeriveChannelID(p)
	assert.Equal(t, "/hs4sd_v1/engine/temperature", id)
	assert.NotContains(t, id, "//")
}

func TestDeriveChannelIDDeterministic(t *testing.T) {
	p := NewPayload()
	p.SetString(ColRuleNaming, "r")
	p.SetString(ColMeasure, "m")
	first := DeriveChannelID(p)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DeriveChannelID(p))
	}
}

func TestDeriveChannelIDAllEmpty(t *testing.T) {
	assert.Equal(t, "/", DeriveChannelID(NewPayload()))
}

func TestDeriveItemFields(t *testing.T) {
	p := NewPayload()
	p.SetString(ColMQTTTag, "T42")
	p.SetString(ColDescription, "Main engine temp")
	p.SetString(ColDataType, "FLOAT")
	p.SetString(ColRemark, "spare")
	p.SetString(ColMeasure, "temperature")

	d := DeriveItemFields(p)
	assert.Equal(t, "T42", d.IONo)
	assert.Equal(t, "Main engine temp", d.IOName)
	assert.Equal(t, "FLOAT", d.IOType)
	assert.Equal(t, "Main engine temp", d.Description)
	assert.Equal(t, "spare", d.Remarks)
}

func TestDeriveItemFieldsNameFallsBackToMeasure(t *testing.T) {
	p := NewPayload()
	p.SetString(ColMeasure, "alarm_bilge")

	d := DeriveItemFields(p)
	assert.Equal(t, "alarm_bilge", d.IOName)
	assert.Equal(t, "", d.Description)
}

func TestApplyDerivedRederivesAfterRawDataChange(t *testing.T) {
	p := NewPayload()
	p.SetString(ColMQTTTag, "OLD")
	item := &IOListItem{}
	item.ApplyDerived(DeriveItemFields(p))
	assert.Equal(t, "OLD", item.IONo)

	p.SetString(ColMQTTTag, "NEW")
	item.ApplyDerived(DeriveItemFields(p))
	assert.Equal(t, "NEW", item.IONo)
}

func TestParseProtocol(t *testing.T) {
	assert.Equal(t, ProtocolMQTT, ParseProtocol(""))
	assert.Equal(t, ProtocolMQTT, ParseProtocol("mqtt"))
	assert.Equal(t, ProtocolNMEA, ParseProtocol(" nmea "))
	assert.Equal(t, ProtocolModbus, ParseProtocol("Modbus"))
	assert.Equal(t, ProtocolMQTT, ParseProtocol("PROFIBUS"))
}

func TestProtocolIsKnown(t *testing.T) {
	assert.True(t, ProtocolOPCUA.IsKnown())
	assert.False(t, Protocol("PROFIBUS").IsKnown())
}

func TestIsValidationErrorWrapped(t *testing.T) {
	err := NewValidationError("column %s missing", ColMQTTTag)
	assert.True(t, IsValidationError(err))
	assert.True(t, strings.Contains(err.Error(), ColMQTTTag))
	assert.False(t, IsValidationError(ErrNotFound))
}
