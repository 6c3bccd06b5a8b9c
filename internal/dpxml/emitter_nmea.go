package dpxml

import (
	"fmt"
	"strings"

	"github.com/yooh1982/HS4v2/internal/domain"
)

// nmeaEmitter NMEA0183 通道规则
type nmeaEmitter struct{}

func (nmeaEmitter) protocol() domain.Protocol {
	return domain.ProtocolNMEA
}

// localID 固定模板 /blueone_tagnative/{Resource}/{InterfaceID}/{OriginTag}
// InterfaceID 缺省用 Resource；OriginTag 缺失时该行跳过
func (nmeaEmitter) localID(item *domain.IOListItem, p *domain.Payload) (string, string, error) {
	resource := p.Get(domain.ColResource)
	interfaceID := p.Get("InterfaceID")
	if interfaceID == "" {
		interfaceID = resource
	}
	originTag := nmeaOriginTag(p)
	if originTag == "" {
		return "", "", fmt.Errorf("NMEA OriginTag is empty")
	}
	localID := fmt.Sprintf("/blueone_tagnative/%s/%s/%s", resource, interfaceID, originTag)
	return localID, "blueone_tagnative", nil
}

func (nmeaEmitter) formatType(class channelClass, p *domain.Payload) string {
	switch class {
	case classAlarm:
		return "Alert"
	case classStatus:
		return "Status"
	default:
		// NMEA 的 String 类型保持 "String"，与通用映射结果一致（文档化的重叠）
		return mapFormatType(p.Get(domain.ColDataType))
	}
}

func (nmeaEmitter) channelType(class channelClass) *string {
	if class == classAlarm {
		return strPtr("Alarm")
	}
	// NMEA 非报警通道省略 ChannelType
	return nil
}

func (nmeaEmitter) inoutType(class channelClass, p *domain.Payload) *string {
	if class == classAlarm {
		return strPtr(alarmInout(p))
	}
	return nil
}

// instCode NMEA 的 InstCode 元素存在但为空
func (nmeaEmitter) instCode(_ *domain.Payload) string {
	return ""
}

func (nmeaEmitter) quantityName(_ *domain.Payload, _ string) string {
	return ""
}

func (nmeaEmitter) originTag(_ *domain.IOListItem, p *domain.Payload) string {
	return nmeaOriginTag(p)
}

func (nmeaEmitter) dataSet(p *domain.Payload, originTag, description string) dataSet {
	talker := p.Get("NMEA Talker")
	sentence := p.Get("NMEA Sentence")

	// 没有显式 talker/sentence 时从 OriginTag 解析
	// 两种格式："FAFIR/alarm_status"（前 2 位是 talker）或 "FA/FIR/alarm_status"
	// 首段恰好 2 个字符时两条启发式规则重叠，按首段>=2 的分支处理（与原始行为一致）
	if talker == "" || sentence == "" {
		parts := strings.Split(originTag, "/")
		if len(parts) >= 2 {
			if len(parts[0]) >= 2 {
				talker = parts[0][:2]
				if len(parts[0]) > 2 {
					sentence = parts[0][2:]
				} else {
					sentence = parts[1]
				}
			} else {
				talker = parts[0]
				sentence = parts[1]
			}
		}
	}

	pos := p.Get("NMEA Position")
	if pos == "" {
		pos = p.Get("NMEA Pos")
	}
	if pos == "" {
		pos = "1"
	}

	return dataSet{
		NMEA: &nmeaDataSet{
			Talker:        talker,
			Sentence:      sentence,
			Pos:           pos,
			ParsingFormat: p.Get("NMEA ParsingFormat"),
			DirectionPos:  p.Get("NMEA DirectionPos"),
			IsRepeatStart: p.Get("NMEA IsRepeatStart"),
			IsRepeatEnd:   p.Get("NMEA IsRepeatEnd"),
			Description:   description,
		},
	}
}

// nmeaOriginTag 显式 OriginTag 或旧列名 NMEA Tag
func nmeaOriginTag(p *domain.Payload) string {
	if v := p.Get("OriginTag"); v != "" {
		return v
	}
	return p.Get("NMEA Tag")
}
