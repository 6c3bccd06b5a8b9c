package domain

import "strings"

// Protocol 设备通信协议（Device sheet 的 Protocol 列）
// 目前只有 MQTT 和 NMEA 有完整的 DP 生成逻辑
type Protocol string

const (
	ProtocolMQTT   Protocol = "MQTT"
	ProtocolNMEA   Protocol = "NMEA"
	ProtocolOPCUA  Protocol = "OPCUA"
	ProtocolOPCDA  Protocol = "OPCDA"
	ProtocolModbus Protocol = "MODBUS"
)

// KnownProtocols 固定协议集合
var KnownProtocols = []Protocol{
	ProtocolMQTT,
	ProtocolNMEA,
	ProtocolOPCUA,
	ProtocolOPCDA,
	ProtocolModbus,
}

// ParseProtocol 规范化协议字符串；空值和未知值都回退到 MQTT
func ParseProtocol(s string) Protocol {
	p := Protocol(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range KnownProtocols {
		if p == known {
			return p
		}
	}
	return ProtocolMQTT
}

// IsKnown 判断是否为固定协议集合中的值（不做回退）
func (p Protocol) IsKnown() bool {
	for _, known := range KnownProtocols {
		if p == known {
			return true
		}
	}
	return false
}

func (p Protocol) String() string {
	return string(p)
}
