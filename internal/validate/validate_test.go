package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yooh1982/HS4v2/internal/domain"
)

func makeItem(t *testing.T, id int64, cols map[string]string) domain.IOListItem {
	t.Helper()
	p := domain.NewPayload()
	for _, col := range []string{
		domain.ColResource, domain.ColDataType, domain.ColRuleNaming,
		domain.ColLevel1, domain.ColMeasure, domain.ColDescription, domain.ColMQTTTag,
	} {
		if v, ok := cols[col]; ok {
			p.SetString(col, v)
		} else {
			p.Set(col, nil)
		}
	}
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	item := domain.IOListItem{ID: id, RawData: string(raw)}
	item.ApplyDerived(domain.DeriveItemFields(p))
	return item
}

var requiredValue = []string{
	domain.ColResource, domain.ColDataType, domain.ColRuleNaming,
	domain.ColLevel1, domain.ColMeasure, domain.ColMQTTTag,
}

func fullRow(overrides map[string]string) map[string]string {
	cols := map[string]string{
		domain.ColResource:   "PLC1",
		domain.ColDataType:   "FLOAT",
		domain.ColRuleNaming: "hs4sd_v1",
		domain.ColLevel1:     "engine",
		domain.ColMeasure:    "temperature",
		domain.ColMQTTTag:    "T001",
	}
	for k, v := range overrides {
		cols[k] = v
	}
	return cols
}

func TestDetectDuplicateChannelIDsContainsAllMembers(t *testing.T) {
	items := []domain.IOListItem{
		makeItem(t, 1, fullRow(map[string]string{domain.ColMQTTTag: "T001"})),
		makeItem(t, 2, fullRow(map[string]string{domain.ColMQTTTag: "T002"})),
		makeItem(t, 3, fullRow(map[string]string{domain.ColMQTTTag: "T003", domain.ColMeasure: "pressure"})),
	}
	report := Detect(items, requiredValue)

	// 1 和 2 的命名列一致 -> 同一个派生 channel id，两个 id 都要在场
	id := "/hs4sd_v1/engine/temperature"
	require.Contains(t, report.DuplicateChannelIDs, id)
	assert.ElementsMatch(t, []int64{1, 2}, report.DuplicateChannelIDs[id])
	assert.Len(t, report.DuplicateChannelIDs, 1)
}

func TestDetectDuplicateMQTTTagsAndDescriptions(t *testing.T) {
	items := []domain.IOListItem{
		makeItem(t, 1, fullRow(map[string]string{domain.ColDescription: "same", domain.ColMeasure: "a"})),
		makeItem(t, 2, fullRow(map[string]string{domain.ColDescription: "same", domain.ColMeasure: "b"})),
		makeItem(t, 3, fullRow(map[string]string{domain.ColMeasure: "c"})),
	}
	report := Detect(items, requiredValue)

	assert.ElementsMatch(t, []int64{1, 2}, report.DuplicateDescriptions["same"])
	// 三行共用 T001
	assert.ElementsMatch(t, []int64{1, 2, 3}, report.DuplicateMQTTTags["T001"])
}

func TestDetectEmptyValuesNotCountedAsDuplicates(t *testing.T) {
	items := []domain.IOListItem{
		makeItem(t, 1, fullRow(map[string]string{domain.ColMQTTTag: "", domain.ColMeasure: "a"})),
		makeItem(t, 2, fullRow(map[string]string{domain.ColMQTTTag: "", domain.ColMeasure: "b"})),
	}
	report := Detect(items, requiredValue)

	// 空 description / 空 mqtt tag 不参与重复统计
	assert.Empty(t, report.DuplicateDescriptions)
	assert.Empty(t, report.DuplicateMQTTTags)
}

func TestDetectMissingRequiredReportsFirstColumnOnly(t *testing.T) {
	items := []domain.IOListItem{
		makeItem(t, 7, fullRow(map[string]string{domain.ColDataType: "", domain.ColMQTTTag: ""})),
	}
	report := Detect(items, requiredValue)

	// 每行只报声明顺序里第一个缺失的列
	require.Len(t, report.MissingRequired, 1)
	assert.Equal(t, int64(7), report.MissingRequired[0].ItemID)
	assert.Equal(t, domain.ColDataType, report.MissingRequired[0].Column)
	assert.True(t, report.HasMissingRequired(7))
	assert.False(t, report.HasMissingRequired(8))
}

func TestDetectCleanInput(t *testing.T) {
	items := []domain.IOListItem{
		makeItem(t, 1, fullRow(map[string]string{domain.ColMeasure: "a", domain.ColMQTTTag: "T1", domain.ColDescription: "d1"})),
		makeItem(t, 2, fullRow(map[string]string{domain.ColMeasure: "b", domain.ColMQTTTag: "T2", domain.ColDescription: "d2"})),
	}
	report := Detect(items, requiredValue)

	assert.Empty(t, report.DuplicateChannelIDs)
	assert.Empty(t, report.DuplicateDescriptions)
	assert.Empty(t, report.DuplicateMQTTTags)
	assert.Empty(t, report.MissingRequired)
}

func TestReportJSONShape(t *testing.T) {
	data, err := json.Marshal(NewReport())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"duplicate_data_channel_ids": {},
		"duplicate_descriptions": {},
		"duplicate_mqtt_tags": {},
		"missing_required_values": []
	}`, string(data))
}
