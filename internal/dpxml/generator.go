package dpxml

import (
	"encoding/xml"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yooh1982/HS4v2/internal/domain"
)

// schemaLocation 与下游约定的 schema 位置串，照原样输出
const schemaLocation = "urn:BLUEONE_JSMEA_NAME_OBJECT jsmea_name_object.xsd " +
	"urn:ISO19848:SHIP_DATA_DEFINITION ship_data_definition.xsd " +
	"urn:BLUEONE:DATA_MODEL_DEFINITION blueone_data_model_definition.xsd " +
	"urn:BLUEONE:DEVICE_DATA_MAP blueone_device_data_map.xsd " +
	"urn:BLUEONE_JSMEA_NAME_OBJECT jsmea_name_object.xsd " +
	"urn:BLUEONE_TAGNATIVE_NAME_OBJECT tagnative_name_object.xsd"

// SkipEntry 单行生成失败的记录（批量生成不会因为单行失败而中断）
type SkipEntry struct {
	ItemID int64  `json:"item_id"`
	Reason string `json:"reason"`
}

// Result 一次 DP 生成的结果：XML 正文 + 被跳过的行
type Result struct {
	XML      []byte
	Channels int
	Skipped  []SkipEntry
}

// Generator DP XML 生成器
type Generator struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger, now: time.Now}
}

// Timestamp 生成器的时钟读数（下载文件名和文档时间戳共用一个时钟）
func (g *Generator) Timestamp() time.Time {
	return g.now()
}

// emitters 协议 -> 通道规则；只有 MQTT 和 NMEA 有完整实现
var emitters = map[domain.Protocol]channelEmitter{
	domain.ProtocolMQTT: mqttEmitter{},
	domain.ProtocolNMEA: nmeaEmitter{},
}

// Generate 把一次上传的全部行生成为一个 DP XML 文档
// devices 提供 Resource -> Protocol 的映射；映射里没有的设备默认 MQTT
func (g *Generator) Generate(imo string, items []domain.IOListItem, devices []domain.Device) (*Result, error) {
	now := g.now().UTC()
	timestamp := now.Format("2006-01-02T15:04:05.000") + "Z"

	doc := packageDoc{
		XmlnsDevice:    "urn:BLUEONE:DEVICE_DATA_MAP",
		XmlnsDmd:       "urn:BLUEONE:DATA_MODEL_DEFINITION",
		XmlnsSdd:       "urn:ISO19848:SHIP_DATA_DEFINITION",
		XmlnsTn:        "urn:BLUEONE_TAGNATIVE_NAME_OBJECT",
		XmlnsXsi:       "http://www.w3.org/2001/XMLSchema-instance",
		XmlnsJm:        "urn:BLUEONE_JSMEA_NAME_OBJECT",
		SchemaLocation: schemaLocation,
		Header: headerBlock{
			ShipID: imo,
			DataChannelListID: dataChannelListID{
				ID:        imo,
				TimeStamp: timestamp,
			},
			Author:      "Uangel",
			DateCreated: timestamp,
			Name:        "hs4_profile",
			Version:     "1.0",
		},
	}

	deviceMap := make(map[string]domain.Protocol, len(devices))
	for _, d := range devices {
		deviceMap[d.DeviceName] = d.Protocol
	}

	result := &Result{}
	for i := range items {
		item := &items[i]
		ch, reason := g.buildChannel(item, deviceMap)
		if ch == nil {
			g.logger.Warn("skipping item during DP generation",
				zap.Int64("item_id", item.ID), zap.String("reason", reason))
			result.Skipped = append(result.Skipped, SkipEntry{ItemID: item.ID, Reason: reason})
			continue
		}
		doc.DataChannelList.Channels = append(doc.DataChannelList.Channels, *ch)
	}
	result.Channels = len(doc.DataChannelList.Channels)

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal DP xml: %w", err)
	}
	result.XML = append([]byte(xml.Header), body...)
	return result, nil
}

// buildChannel 单行转换；任何失败只影响这一行（返回 nil + 原因）
func (g *Generator) buildChannel(item *domain.IOListItem, deviceMap map[string]domain.Protocol) (ch *dataChannel, reason string) {
	defer func() {
		if r := recover(); r != nil {
			ch, reason = nil, fmt.Sprintf("panic: %v", r)
		}
	}()

	p, err := domain.ParsePayload(item.RawData)
	if err != nil {
		return nil, fmt.Sprintf("invalid raw_data: %v", err)
	}

	resource := p.Get(domain.ColResource)
	if resource == "" {
		return nil, "Resource is empty"
	}

	// Device 表里找不到的设备按 MQTT 处理
	protocol, ok := deviceMap[resource]
	if !ok {
		protocol = domain.ProtocolMQTT
	}
	em, ok := emitters[protocol]
	if !ok {
		return nil, fmt.Sprintf("protocol %s is not supported yet", protocol)
	}

	localID, namingRule, err := em.localID(item, p)
	if err != nil {
		return nil, err.Error()
	}

	class := classify(p.Get(domain.ColMeasure))

	description := p.Get(domain.ColDescription)
	if description == "" {
		description = item.Description
	}

	interfaceID := p.Get("InterfaceID")
	if interfaceID == "" {
		interfaceID = resource
	}
	originTag := em.originTag(item, p)

	channelID := dataChannelID{LocalID: localID}
	if em.protocol() == domain.ProtocolNMEA || namingRule != defaultNamingRule {
		channelID.NameObject = &nameObject{NamingRule: namingRule}
	}

	channelType := dataChannelType{}
	switch class {
	case classAlarm:
		channelType.Type = "Alert"
	case classStatus:
		channelType.Type = "Status"
	default:
		// 一般数据通道固定 15s 更新周期 / 3600s 计算周期
		channelType.Type = "Inst"
		channelType.UpdateCycle = strPtr("15")
		channelType.CalculationPeriod = strPtr("3600")
	}

	return &dataChannel{
		DataChannelID: channelID,
		Property: channelProperty{
			DataChannelType: channelType,
			Format:          formatBlock{Type: em.formatType(class, p)},
			Range:           rangeBlock{},
			Unit:            unitBlock{QuantityName: em.quantityName(p, description)},
			AlarmThreshold:  alarmThreshold{},
			ChannelType:     em.channelType(class),
			Direction:       "RO",
			InoutType:       em.inoutType(class, p),
			Scale:           formatScale(parseScale(p)),
			InstCode:        em.instCode(p),
			Description:     description,
			Device: deviceProperty{
				ID:          resource,
				InterfaceID: interfaceID,
				OriginTag:   originTag,
				DataSet:     em.dataSet(p, originTag, description),
			},
		},
	}, ""
}
