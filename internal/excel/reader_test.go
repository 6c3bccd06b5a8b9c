package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yooh1982/HS4v2/internal/domain"
)

// mqttHeader MQTT 协议的完整表头
var mqttHeader = []any{
	domain.ColResource, domain.ColDataType, domain.ColRuleNaming,
	domain.ColLevel1, domain.ColLevel2, domain.ColLevel3, domain.ColLevel4,
	domain.ColMiscellaneous, domain.ColMeasure, domain.ColDescription,
	domain.ColCalculation, domain.ColMQTTTag, domain.ColRemark,
}

func buildWorkbook(t *testing.T, header []any, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", IOListSheetName))
	require.NoError(t, f.SetSheetRow(IOListSheetName, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(IOListSheetName, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func newTestReader() *Reader {
	return NewReader(zap.NewNop())
}

func TestParseIOListKeepsColumnOrder(t *testing.T) {
	data := buildWorkbook(t, mqttHeader, [][]any{
		{"PLC1", "FLOAT", "hs4sd_v1", "engine", "", "", "", "", "temperature", "ME temp", "1.0", "T001", "ok"},
	})

	items, err := newTestReader().ParseIOList(data, domain.ProtocolMQTT)
	require.NoError(t, err)
	require.Len(t, items, 1)

	keys := items[0].Keys()
	assert.Equal(t, domain.ColResource, keys[0])
	assert.Equal(t, domain.ColRemark, keys[len(keys)-1])
	assert.Equal(t, "PLC1", items[0].Get(domain.ColResource))
	assert.Equal(t, "T001", items[0].Get(domain.ColMQTTTag))
}

func TestParseIOListBlankCellBecomesNull(t *testing.T) {
	data := buildWorkbook(t, mqttHeader, [][]any{
		{"PLC1", "FLOAT", "hs4sd_v1", "engine", "  ", "", "", "", "temperature", "", "", "T001", ""},
	})

	items, err := newTestReader().ParseIOList(data, domain.ProtocolMQTT)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// 空白单元格列存在但值为 null
	assert.True(t, items[0].Has(domain.ColLevel2))
	assert.Equal(t, "", items[0].Get(domain.ColLevel2))
}

func TestParseIOListSkipsAllEmptyRows(t *testing.T) {
	data := buildWorkbook(t, mqttHeader, [][]any{
		{"PLC1", "FLOAT", "hs4sd_v1", "engine", "", "", "", "", "temperature", "", "", "T001", ""},
		{"", "", "", "", "", "", "", "", "", "", "", "", ""},
		{"PLC2", "INT", "hs4sd_v1", "engine", "", "", "", "", "status", "", "", "T002", ""},
	})

	items, err := newTestReader().ParseIOList(data, domain.ProtocolMQTT)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestParseIOListMissingRequiredColumn(t *testing.T) {
	// 去掉 MQTT Tag 列
	header := []any{}
	for _, h := range mqttHeader {
		if h == domain.ColMQTTTag {
			continue
		}
		header = append(header, h)
	}
	data := buildWorkbook(t, header, [][]any{
		{"PLC1", "FLOAT", "hs4sd_v1", "engine", "", "", "", "", "temperature", "", "", ""},
	})

	_, err := newTestReader().ParseIOList(data, domain.ProtocolMQTT)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Contains(t, err.Error(), domain.ColMQTTTag)
}

func TestParseIOListMissingSheet(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = newTestReader().ParseIOList(buf.Bytes(), domain.ProtocolMQTT)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestParseIOListUnknownProtocolFallsBackToMQTTColumns(t *testing.T) {
	data := buildWorkbook(t, mqttHeader, [][]any{
		{"PLC1", "FLOAT", "hs4sd_v1", "engine", "", "", "", "", "temperature", "", "", "T001", ""},
	})

	items, err := newTestReader().ParseIOList(data, domain.ProtocolOPCUA)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestParseDeviceSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", DeviceSheetName))
	header := []any{"Device Name", "Protocol Type"}
	require.NoError(t, f.SetSheetRow(DeviceSheetName, "A1", &header))
	rows := [][]any{
		{"PLC1", "MQTT"},
		{"GPS1", "nmea"},
		{"NoProto", ""},
		{"", "MQTT"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(DeviceSheetName, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	devices, err := newTestReader().ParseDeviceSheet(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Protocol{
		"PLC1":    domain.ProtocolMQTT,
		"GPS1":    domain.ProtocolNMEA,
		"NoProto": domain.ProtocolMQTT,
	}, devices)
}

func TestParseDeviceSheetMissingIsSoftFailure(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	devices, err := newTestReader().ParseDeviceSheet(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestProtocolColumnsFallback(t *testing.T) {
	req, reqVal := ProtocolColumns(domain.ProtocolModbus)
	mqttReq, mqttReqVal := ProtocolColumns(domain.ProtocolMQTT)
	assert.Equal(t, mqttReq, req)
	assert.Equal(t, mqttReqVal, reqVal)
	assert.Contains(t, reqVal, domain.ColMQTTTag)
}
