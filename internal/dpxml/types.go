package dpxml

import "encoding/xml"

// DP XML 的元素结构。元素和属性的命名、嵌套是与下游自动化系统的 wire contract，
// 空占位元素（Range/Unit/AlarmThreshold 等）也必须按原样输出

type packageDoc struct {
	XMLName        xml.Name `xml:"sdd:Package"`
	XmlnsDevice    string   `xml:"xmlns:device,attr"`
	XmlnsDmd       string   `xml:"xmlns:dmd,attr"`
	XmlnsSdd       string   `xml:"xmlns:sdd,attr"`
	XmlnsTn        string   `xml:"xmlns:tn,attr"`
	XmlnsXsi       string   `xml:"xmlns:xsi,attr"`
	XmlnsJm        string   `xml:"xmlns:jm,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`

	Header          headerBlock     `xml:"sdd:Header"`
	DataChannelList dataChannelList `xml:"sdd:DataChannelList"`
}

type headerBlock struct {
	ShipID            string            `xml:"sdd:ShipID"`
	DataChannelListID dataChannelListID `xml:"sdd:DataChannelListID"`
	Author            string            `xml:"sdd:Author"`
	DateCreated       string            `xml:"sdd:DateCreated"`
	Name              string            `xml:"dmd:Name"`
	Version           string            `xml:"dmd:Version"`
}

type dataChannelListID struct {
	ID        string `xml:"sdd:ID"`
	TimeStamp string `xml:"sdd:TimeStamp"`
}

type dataChannelList struct {
	Channels []dataChannel `xml:"sdd:DataChannel"`
}

type dataChannel struct {
	DataChannelID dataChannelID   `xml:"sdd:DataChannelID"`
	Property      channelProperty `xml:"sdd:Property"`
}

type dataChannelID struct {
	LocalID string `xml:"sdd:LocalID"`
	// NameObject 只在 NMEA 或非默认 NamingRule 时出现
	NameObject *nameObject `xml:"sdd:NameObject"`
}

type nameObject struct {
	NamingRule string `xml:"sdd:NamingRule"`
}

type channelProperty struct {
	DataChannelType dataChannelType `xml:"sdd:DataChannelType"`
	Format          formatBlock     `xml:"sdd:Format"`
	Range           rangeBlock      `xml:"sdd:Range"`
	Unit            unitBlock       `xml:"sdd:Unit"`
	AlarmThreshold  alarmThreshold  `xml:"dmd:AlarmThreshold"`
	// ChannelType / InoutType 为 nil 时整个元素省略（NMEA 非报警通道）
	ChannelType *string        `xml:"dmd:ChannelType"`
	Direction   string         `xml:"dmd:Direction"`
	InoutType   *string        `xml:"dmd:InoutType"`
	Scale       string         `xml:"dmd:Scale"`
	InstCode    string         `xml:"dmd:InstCode"`
	Description string         `xml:"dmd:Description"`
	Device      deviceProperty `xml:"device:DeviceProperty"`
}

type dataChannelType struct {
	Type string `xml:"sdd:Type"`
	// UpdateCycle / CalculationPeriod 只有 Inst（一般数据）通道才有
	UpdateCycle       *string `xml:"sdd:UpdateCycle"`
	CalculationPeriod *string `xml:"sdd:CalculationPeriod"`
}

type formatBlock struct {
	Type string `xml:"sdd:Type"`
}

// rangeBlock 上下限占位，由下游配置，这里永远为空
type rangeBlock struct {
	High string `xml:"sdd:High"`
	Low  string `xml:"sdd:Low"`
}

type unitBlock struct {
	UnitSymbol   string `xml:"sdd:UnitSymbol"`
	QuantityName string `xml:"sdd:QuantityName"`
}

// alarmThreshold 报警阈值占位，四个子元素永远为空
type alarmThreshold struct {
	LowMinor  string `xml:"dmd:LowMinor"`
	LowMajor  string `xml:"dmd:LowMajor"`
	HighMinor string `xml:"dmd:HighMinor"`
	HighMajor string `xml:"dmd:HighMajor"`
}

type deviceProperty struct {
	ID          string  `xml:"device:ID"`
	InterfaceID string  `xml:"device:InterfaceID"`
	OriginTag   string  `xml:"device:OriginTag"`
	Tag         string  `xml:"device:Tag"`
	DataSet     dataSet `xml:"device:DataSet"`
}

type dataSet struct {
	MQTT *mqttDataSet `xml:"device:MQTT"`
	NMEA *nmeaDataSet `xml:"device:NMEA0183"`
}

type mqttDataSet struct {
	Name          string `xml:"name,attr"`
	MaximumLength string `xml:"maximumLength,attr"`
	Description   string `xml:"description,attr"`
}

type nmeaDataSet struct {
	Talker        string `xml:"talker,attr"`
	Sentence      string `xml:"sentence,attr"`
	Pos           string `xml:"pos,attr"`
	ParsingFormat string `xml:"parsingFormat,attr"`
	DirectionPos  string `xml:"directionPos,attr"`
	IsRepeatStart string `xml:"isRepeatStart,attr"`
	IsRepeatEnd   string `xml:"isRepeatEnd,attr"`
	Description   string `xml:"description,attr"`
}
