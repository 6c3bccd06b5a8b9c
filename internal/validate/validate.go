package validate

import (
	"strings"

	"github.com/yooh1982/HS4v2/internal/domain"
)

// MissingValue 一条必填值缺失记录（每行最多一条，取声明顺序中第一个缺的列）
type MissingValue struct {
	ItemID int64  `json:"item_id"`
	Column string `json:"column"`
}

// Report 重复与必填值缺失的检测结果
// 重复 map 的 value 是共享该 key 的全部 item id（含全部成员，不止后来者）
type Report struct {
	DuplicateChannelIDs   map[string][]int64 `json:"duplicate_data_channel_ids"`
	DuplicateDescriptions map[string][]int64 `json:"duplicate_descriptions"`
	DuplicateMQTTTags     map[string][]int64 `json:"duplicate_mqtt_tags"`
	MissingRequired       []MissingValue     `json:"missing_required_values"`
}

// NewReport 返回空报告（map 已初始化，JSON 输出 {} 而不是 null）
func NewReport() *Report {
	return &Report{
		DuplicateChannelIDs:   map[string][]int64{},
		DuplicateDescriptions: map[string][]int64{},
		DuplicateMQTTTags:     map[string][]int64{},
		MissingRequired:       []MissingValue{},
	}
}

// HasMissingRequired 判断某行是否有必填值缺失
func (r *Report) HasMissingRequired(itemID int64) bool {
	for _, m := range r.MissingRequired {
		if m.ItemID == itemID {
			return true
		}
	}
	return false
}

// Detect 对一次上传的全部行做三类重复检测和必填值缺失检测
// requiredValueColumns 是协议的必填值列（按声明顺序；每行只报第一个缺失的列，
// 这个单缺陷上报策略是有意保留的，与重复检测的全量上报不对称）
func Detect(items []domain.IOListItem, requiredValueColumns []string) *Report {
	channelIDs := map[string][]int64{}
	descriptions := map[string][]int64{}
	mqttTags := map[string][]int64{}
	report := NewReport()

	for i := range items {
		item := &items[i]
		payload := item.Payload()

		channelID := domain.DeriveChannelID(payload)
		description := payload.Get(domain.ColDescription)
		if description == "" {
			description = item.Description
		}
		mqttTag := payload.Get(domain.ColMQTTTag)
		if mqttTag == "" {
			mqttTag = item.IONo
		}

		channelIDs[channelID] = append(channelIDs[channelID], item.ID)
		if description != "" {
			descriptions[description] = append(descriptions[description], item.ID)
		}
		if mqttTag != "" {
			mqttTags[mqttTag] = append(mqttTags[mqttTag], item.ID)
		}

		for _, col := range requiredValueColumns {
			if strings.TrimSpace(payload.Get(col)) == "" {
				report.MissingRequired = append(report.MissingRequired, MissingValue{
					ItemID: item.ID,
					Column: col,
				})
				break
			}
		}
	}

	// 只保留出现 >= 2 次的 key
	for k, ids := range channelIDs {
		if len(ids) > 1 {
			report.DuplicateChannelIDs[k] = ids
		}
	}
	for k, ids := range descriptions {
		if len(ids) > 1 {
			report.DuplicateDescriptions[k] = ids
		}
	}
	for k, ids := range mqttTags {
		if len(ids) > 1 {
			report.DuplicateMQTTTags[k] = ids
		}
	}
	return report
}
