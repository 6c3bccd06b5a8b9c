package excel

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yooh1982/HS4v2/internal/domain"
)

// IOList 数据 sheet 名 / Device sheet 名（上传模板固定）
const (
	IOListSheetName = "IOList"
	DeviceSheetName = "Device"
)

// protocolColumns Protocol 对应的必填列定义
// required: 表头必须出现这些列（值可以为空）
// requiredValue: 其中值也必须非空的子集
// 目前只定义了 MQTT 的完整规则，其它协议后续补充
var protocolColumns = map[domain.Protocol]struct {
	required      []string
	requiredValue []string
}{
	domain.ProtocolMQTT: {
		required: []string{
			domain.ColResource,
			domain.ColDataType,
			domain.ColRuleNaming,
			domain.ColLevel1,
			domain.ColLevel2,
			domain.ColLevel3,
			domain.ColLevel4,
			domain.ColMiscellaneous,
			domain.ColMeasure,
			domain.ColDescription,
			domain.ColCalculation,
			domain.ColMQTTTag,
			domain.ColRemark,
		},
		requiredValue: []string{
			domain.ColResource,
			domain.ColDataType,
			domain.ColRuleNaming,
			domain.ColLevel1,
			domain.ColMeasure,
			domain.ColMQTTTag,
		},
	},
}

// ProtocolColumns 返回协议的必填列；未知协议回退到 MQTT 的列
func ProtocolColumns(p domain.Protocol) (required, requiredValue []string) {
	if cols, ok := protocolColumns[p]; ok {
		return cols.required, cols.requiredValue
	}
	cols := protocolColumns[domain.ProtocolMQTT]
	return cols.required, cols.requiredValue
}

// Reader IOLIST 工作簿解析器
type Reader struct {
	logger *zap.Logger
}

func NewReader(logger *zap.Logger) *Reader {
	return &Reader{logger: logger}
}

// ParseIOList 解析 "IOList" sheet，按协议校验表头后返回每行的 Payload
// 结构性问题（缺 sheet、空表头、缺必填列）返回 ValidationError
func (r *Reader) ParseIOList(data []byte, protocol domain.Protocol) ([]*domain.Payload, error) {
	if _, ok := protocolColumns[protocol]; !ok {
		r.logger.Warn("unknown protocol, falling back to MQTT columns",
			zap.String("protocol", string(protocol)))
	}
	required, _ := ProtocolColumns(protocol)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewValidationError("failed to open workbook: %v", err)
	}
	defer f.Close()

	if !hasSheet(f, IOListSheetName) {
		return nil, domain.NewValidationError("workbook has no %q sheet", IOListSheetName)
	}

	rows, err := f.GetRows(IOListSheetName)
	if err != nil {
		return nil, domain.NewValidationError("failed to read %q sheet: %v", IOListSheetName, err)
	}
	if len(rows) == 0 {
		return nil, domain.NewValidationError("%q sheet has no header row", IOListSheetName)
	}

	// 表头：第 1 行；只有非空表头的列会被采集（保持列顺序）
	type column struct {
		idx  int
		name string
	}
	var columns []column
	headerSet := map[string]bool{}
	for idx, cell := range rows[0] {
		name := strings.TrimSpace(cell)
		if name == "" {
			continue
		}
		columns = append(columns, column{idx: idx, name: name})
		headerSet[name] = true
	}
	if len(columns) == 0 {
		return nil, domain.NewValidationError("%q sheet has no header row", IOListSheetName)
	}

	// 必填列只要求出现在表头，值可以为空
	var missing []string
	for _, col := range required {
		if !headerSet[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError(
			"required columns missing: %s (protocol %s, required: %s)",
			strings.Join(missing, ", "), protocol, strings.Join(required, ", "))
	}

	items := make([]*domain.Payload, 0, len(rows)-1)
	for _, row := range rows[1:] {
		p := domain.NewPayload()
		hasData := false
		for _, col := range columns {
			var value *string
			if col.idx < len(row) {
				if v := strings.TrimSpace(row[col.idx]); v != "" {
					value = &v
					hasData = true
				}
			}
			p.Set(col.name, value)
		}
		// 全空行跳过
		if hasData {
			items = append(items, p)
		}
	}

	r.logger.Info("parsed IOList sheet",
		zap.Int("columns", len(columns)),
		zap.Int("rows", len(items)),
		zap.String("protocol", string(protocol)))
	return items, nil
}

// ParseDeviceSheet 解析可选的 "Device" sheet，返回 device_name -> protocol
// sheet 或列缺失时不报错，返回空 map（上传流程容忍没有 Device sheet）
func (r *Reader) ParseDeviceSheet(data []byte) (map[string]domain.Protocol, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewValidationError("failed to open workbook: %v", err)
	}
	defer f.Close()

	out := map[string]domain.Protocol{}

	if !hasSheet(f, DeviceSheetName) {
		r.logger.Warn("workbook has no Device sheet, returning empty device map")
		return out, nil
	}

	rows, err := f.GetRows(DeviceSheetName)
	if err != nil || len(rows) == 0 {
		r.logger.Warn("Device sheet is empty, returning empty device map")
		return out, nil
	}

	// 表头按子串匹配（大小写不敏感）定位 Device / Protocol 列
	deviceCol, protocolCol := -1, -1
	for idx, cell := range rows[0] {
		lower := strings.ToLower(strings.TrimSpace(cell))
		if deviceCol < 0 && strings.Contains(lower, "device") {
			deviceCol = idx
			continue
		}
		if protocolCol < 0 && strings.Contains(lower, "protocol") {
			protocolCol = idx
		}
	}
	if deviceCol < 0 {
		r.logger.Warn("Device sheet has no Device column")
		return out, nil
	}
	if protocolCol < 0 {
		r.logger.Warn("Device sheet has no Protocol column")
		return out, nil
	}

	for _, row := range rows[1:] {
		var name, protocol string
		if deviceCol < len(row) {
			name = strings.TrimSpace(row[deviceCol])
		}
		if protocolCol < len(row) {
			protocol = strings.TrimSpace(row[protocolCol])
		}
		if name == "" {
			continue
		}
		// Protocol 为空时默认 MQTT
		out[name] = domain.ParseProtocol(protocol)
	}

	r.logger.Info("parsed Device sheet", zap.Int("devices", len(out)))
	return out, nil
}

func hasSheet(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}
