package dpxml

import (
	"strings"

	"github.com/yooh1982/HS4v2/internal/domain"
)

// mqttEmitter MQTT 通道规则
type mqttEmitter struct{}

func (mqttEmitter) protocol() domain.Protocol {
	return domain.ProtocolMQTT
}

// localID 优先使用预存的 DataChannelId，否则按命名列派生
func (mqttEmitter) localID(item *domain.IOListItem, p *domain.Payload) (string, string, error) {
	localID := strings.TrimSpace(p.Get(domain.ColDataChannelID))
	if localID == "" {
		localID = domain.DeriveChannelID(p)
	}
	namingRule := p.Get(domain.ColRuleNaming)
	if namingRule == "" {
		namingRule = defaultNamingRule
	}
	return localID, namingRule, nil
}

func (mqttEmitter) formatType(class channelClass, p *domain.Payload) string {
	switch class {
	case classAlarm:
		return "Alert"
	case classStatus:
		return "Status"
	default:
		return mapFormatType(p.Get(domain.ColDataType))
	}
}

func (mqttEmitter) channelType(class channelClass) *string {
	if class == classAlarm {
		return strPtr("Alarm")
	}
	return strPtr("Data")
}

func (mqttEmitter) inoutType(class channelClass, p *domain.Payload) *string {
	if class == classAlarm {
		return strPtr(alarmInout(p))
	}
	iotype := p.Get("IOType")
	if iotype == "" {
		iotype = p.Get("iotype")
	}
	if iotype == "" {
		iotype = "AI"
	}
	return strPtr(iotype)
}

func (mqttEmitter) instCode(p *domain.Payload) string {
	if v := p.Get("Inst Code"); v != "" {
		return v
	}
	return "Inst"
}

// quantityName 从 Description 里做尽力而为的单位嗅探（目前只识别 millibar）
func (mqttEmitter) quantityName(_ *domain.Payload, description string) string {
	if strings.Contains(strings.ToLower(description), "millibar") {
		return "millibar"
	}
	return ""
}

func (mqttEmitter) originTag(item *domain.IOListItem, p *domain.Payload) string {
	if v := p.Get(domain.ColMQTTTag); v != "" {
		return v
	}
	return item.IONo
}

func (mqttEmitter) dataSet(p *domain.Payload, originTag, description string) dataSet {
	return dataSet{
		MQTT: &mqttDataSet{
			Name:          originTag,
			MaximumLength: p.Get("Maximum Length"),
			Description:   description,
		},
	}
}
