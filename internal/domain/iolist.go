package domain

import (
	"strings"
	"time"
)

// IOList Excel 的固定列名（IOList sheet 表头）
const (
	ColResource      = "Resource"
	ColDataType      = "Data type"
	ColRuleNaming    = "RuleNaming"
	ColLevel1        = "Level 1"
	ColLevel2        = "Level 2"
	ColLevel3        = "Level 3"
	ColLevel4        = "Level 4"
	ColMiscellaneous = "Miscellaneous"
	ColMeasure       = "Measure"
	ColDescription   = "Description"
	ColCalculation   = "Calculation"
	ColMQTTTag       = "MQTT Tag"
	ColRemark        = "Remark"

	// ColDataChannelID 预先生成的 channel id（可选，存在时生成器直接使用）
	ColDataChannelID = "DataChannelId"
)

// IOListHeader 一次上传（对应全局 iolist_headers 表）
// (hull_no, imo, date_key) 三元组不要求唯一，UUID 才是真正的身份
type IOListHeader struct {
	ID        int64
	UUID      string
	HullNo    string
	IMO       string
	DateKey   string
	FileName  string
	FilePath  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (h *IOListHeader) ToJSON() map[string]any {
	return map[string]any{
		"id":         h.ID,
		"uuid":       h.UUID,
		"hull_no":    h.HullNo,
		"imo":        h.IMO,
		"date_key":   h.DateKey,
		"file_name":  h.FileName,
		"file_path":  h.FilePath,
		"created_at": h.CreatedAt,
		"updated_at": h.UpdatedAt,
	}
}

// IOListItem 一行上传数据（hull_no schema 内 iolist_{date_key} 表）
// RawData 保存整行原始 JSON；io_no 等字段是派生的兼容字段
type IOListItem struct {
	ID          int64
	RawData     string
	IONo        string
	IOName      string
	IOType      string
	Description string
	Remarks     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (it *IOListItem) ToJSON() map[string]any {
	return map[string]any{
		"id":          it.ID,
		"io_no":       it.IONo,
		"io_name":     it.IOName,
		"io_type":     it.IOType,
		"description": it.Description,
		"remarks":     it.Remarks,
		"raw_data":    it.RawData,
		"created_at":  it.CreatedAt,
		"updated_at":  it.UpdatedAt,
	}
}

// Payload 解析 RawData；失败时返回空 Payload
func (it *IOListItem) Payload() *Payload {
	p, err := ParsePayload(it.RawData)
	if err != nil {
		return NewPayload()
	}
	return p
}

// DerivedFields 从原始行派生的兼容字段
type DerivedFields struct {
	IONo        string
	IOName      string
	IOType      string
	Description string
	Remarks     string
}

// DeriveItemFields 从 Payload 重新派生兼容字段
// raw_data 每次被整体替换时都必须重新调用，保证两份表示不会各自漂移
func DeriveItemFields(p *Payload) DerivedFields {
	desc := p.Get(ColDescription)
	name := desc
	if name == "" {
		name = p.Get(ColMeasure)
	}
	return DerivedFields{
		IONo:        p.Get(ColMQTTTag),
		IOName:      name,
		IOType:      p.Get(ColDataType),
		Description: desc,
		Remarks:     p.Get(ColRemark),
	}
}

// ApplyDerived 把派生字段写回 item
func (it *IOListItem) ApplyDerived(d DerivedFields) {
	it.IONo = d.IONo
	it.IOName = d.IOName
	it.IOType = d.IOType
	it.Description = d.Description
	it.Remarks = d.Remarks
}

// channelIDColumns DataChannelId 的组成列，顺序固定
var channelIDColumns = []string{
	ColRuleNaming,
	ColLevel1,
	ColLevel2,
	ColLevel3,
	ColLevel4,
	ColMiscellaneous,
	ColMeasure,
}

// DeriveChannelID 生成 DataChannelId:
// "/RuleNaming/Level1/Level2/Level3/Level4/Miscellaneous/Measure"
// 空白段被丢弃，不会产生连续的 "/"
func DeriveChannelID(p *Payload) string {
	parts := make([]string, 0, len(channelIDColumns))
	for _, col := range channelIDColumns {
		if v := strings.TrimSpace(p.Get(col)); v != "" {
			parts = append(parts, v)
		}
	}
	return "/" + strings.Join(parts, "/")
}

// Device 一个 Device（hull_no schema 内 device 表）
// device_name 在同一 hull_no 分区内唯一
type Device struct {
	ID         int64
	DeviceName string
	Protocol   Protocol
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (d *Device) ToJSON() map[string]any {
	return map[string]any{
		"id":          d.ID,
		"device_name": d.DeviceName,
		"protocol":    string(d.Protocol),
		"created_at":  d.CreatedAt,
		"updated_at":  d.UpdatedAt,
	}
}
