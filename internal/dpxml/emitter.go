package dpxml

import (
	"strconv"
	"strings"

	"github.com/yooh1982/HS4v2/internal/domain"
)

// channelClass 按 Measure 分类的通道类别
type channelClass int

const (
	classData channelClass = iota
	classAlarm
	classStatus
)

// classify Measure 以 "alarm" 开头 -> Alarm；status/run/use -> Status；其余 -> Data
func classify(measure string) channelClass {
	m := strings.ToLower(strings.TrimSpace(measure))
	switch {
	case strings.HasPrefix(m, "alarm"):
		return classAlarm
	case m == "status" || m == "run" || m == "use":
		return classStatus
	default:
		return classData
	}
}

// defaultNamingRule MQTT 通道的默认命名规则
const defaultNamingRule = "hs4sd_v1"

// channelEmitter 协议相关的通道生成规则（MQTT / NMEA 各一个实现）
// 标识构建、格式映射、寻址块的规则都集中在各自的 emitter 里
type channelEmitter interface {
	protocol() domain.Protocol
	// localID 返回通道标识和 NamingRule；err 非空时该行跳过
	localID(item *domain.IOListItem, p *domain.Payload) (localID, namingRule string, err error)
	formatType(class channelClass, p *domain.Payload) string
	channelType(class channelClass) *string
	inoutType(class channelClass, p *domain.Payload) *string
	instCode(p *domain.Payload) string
	quantityName(p *domain.Payload, description string) string
	originTag(item *domain.IOListItem, p *domain.Payload) string
	dataSet(p *domain.Payload, originTag, description string) dataSet
}

// mapFormatType Data type -> Format Type 的固定映射（大小写不敏感）
func mapFormatType(dataType string) string {
	switch strings.ToUpper(strings.TrimSpace(dataType)) {
	case "FLOAT":
		return "Decimal"
	case "INT":
		return "Integer"
	case "STRING":
		return "String"
	case "BOOL", "DIG", "BOOLEAN":
		return "Boolean"
	default:
		return "Decimal"
	}
}

// alarmInout 报警通道的 InoutType：除非明确写了 DO，否则 DI
func alarmInout(p *domain.Payload) string {
	iotype := p.Get("IOType")
	if iotype == "" {
		iotype = p.Get("iotype")
	}
	if strings.ToUpper(iotype) == "DO" {
		return "DO"
	}
	return "DI"
}

// parseScale Scale/Calculation 解析为 float，非数字静默回退 1.0
func parseScale(p *domain.Payload) float64 {
	raw := p.Get("Scale")
	if raw == "" {
		raw = p.Get(domain.ColCalculation)
	}
	if raw == "" {
		return 1.0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 1.0
	}
	return f
}

// formatScale 保持原始输出格式（1 -> "1.0"）
func formatScale(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func strPtr(s string) *string {
	return &s
}
