package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yooh1982/HS4v2/internal/domain"
	"github.com/yooh1982/HS4v2/internal/dpxml"
	"github.com/yooh1982/HS4v2/internal/excel"
	"github.com/yooh1982/HS4v2/internal/repository"
	"github.com/yooh1982/HS4v2/internal/storage"
	"github.com/yooh1982/HS4v2/internal/validate"
)

// IOListService 上传 / 校验 / 生成的编排层
// repository 只管单表读写，跨表和跨资源的流程都在这里
type IOListService struct {
	headers    *repository.HeadersRepo
	items      *repository.ItemsRepo
	devices    *repository.DevicesRepo
	namespaces *repository.Namespaces
	store      *storage.Store
	reader     *excel.Reader
	generator  *dpxml.Generator
	logger     *zap.Logger
}

func NewIOListService(
	headers *repository.HeadersRepo,
	items *repository.ItemsRepo,
	devices *repository.DevicesRepo,
	namespaces *repository.Namespaces,
	store *storage.Store,
	reader *excel.Reader,
	generator *dpxml.Generator,
	logger *zap.Logger,
) *IOListService {
	return &IOListService{
		headers:    headers,
		items:      items,
		devices:    devices,
		namespaces: namespaces,
		store:      store,
		reader:     reader,
		generator:  generator,
		logger:     logger,
	}
}

// HeaderView header + 行数（列表接口要显示 item_count）
type HeaderView struct {
	Header    domain.IOListHeader
	ItemCount int
}

// CreateFromExcel 处理一次 IOLIST 上传：
// 解析 Device sheet -> 选多数协议做表头校验 -> 解析 IOList sheet ->
// 落盘 -> 建 header -> 建 schema / device / iolist 表 -> 逐行入库
// 解析失败不会留下任何落库痕迹；入库阶段失败时尽力回收文件
func (s *IOListService) CreateFromExcel(ctx context.Context, hullNo, imo, dateKey, fileName string, content []byte) (*HeaderView, error) {
	deviceMap, err := s.reader.ParseDeviceSheet(content)
	if err != nil {
		return nil, err
	}
	protocol := dominantProtocol(deviceMap)

	payloads, err := s.reader.ParseIOList(content, protocol)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, domain.NewValidationError("IOList sheet has no data rows")
	}

	id := uuid.NewString()
	filePath, err := s.store.Save(id, fileName, content)
	if err != nil {
		return nil, err
	}

	header := &domain.IOListHeader{
		UUID:     id,
		HullNo:   hullNo,
		IMO:      imo,
		DateKey:  dateKey,
		FileName: fileName,
		FilePath: filePath,
	}
	if err := s.headers.Create(ctx, header); err != nil {
		s.store.Remove(id)
		return nil, err
	}

	if err := s.namespaces.EnsureDeviceTable(ctx, hullNo); err != nil {
		return nil, err
	}
	// Device sheet 里的设备逐个补进 device 表，已存在的跳过
	for name, proto := range deviceMap {
		exists, err := s.devices.ExistsByName(ctx, hullNo, name, 0)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		if _, err := s.devices.Insert(ctx, hullNo, name, proto); err != nil {
			return nil, err
		}
	}

	if _, err := s.namespaces.EnsureIOListTable(ctx, hullNo, dateKey); err != nil {
		return nil, err
	}
	for _, p := range payloads {
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal row: %w", err)
		}
		item := &domain.IOListItem{RawData: string(raw)}
		item.ApplyDerived(domain.DeriveItemFields(p))
		if err := s.items.Insert(ctx, hullNo, dateKey, item); err != nil {
			return nil, err
		}
	}

	s.logger.Info("iolist upload stored",
		zap.String("uuid", id),
		zap.String("hull_no", hullNo),
		zap.String("imo", imo),
		zap.String("date_key", dateKey),
		zap.Int("items", len(payloads)))
	return &HeaderView{Header: *header, ItemCount: len(payloads)}, nil
}

// dominantProtocol Device sheet 中出现次数最多的协议；空 sheet 默认 MQTT
// 平票按 KnownProtocols 的固定顺序取（MQTT 最优先），不依赖 map 遍历顺序
func dominantProtocol(devices map[string]domain.Protocol) domain.Protocol {
	counts := map[domain.Protocol]int{}
	for _, p := range devices {
		counts[p]++
	}
	best, bestN := domain.ProtocolMQTT, 0
	for _, p := range domain.KnownProtocols {
		if counts[p] > bestN {
			best, bestN = p, counts[p]
		}
	}
	return best
}

// ListHeaders 按过滤条件列 header，附带每个上传的行数
func (s *IOListService) ListHeaders(ctx context.Context, f repository.HeaderFilters) ([]HeaderView, error) {
	headers, err := s.headers.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]HeaderView, 0, len(headers))
	for _, h := range headers {
		count := 0
		exists, err := s.namespaces.TableExists(ctx, h.HullNo, repository.IOListTableName(h.DateKey))
		if err != nil {
			return nil, err
		}
		if exists {
			count, err = s.items.Count(ctx, h.HullNo, h.DateKey)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, HeaderView{Header: h, ItemCount: count})
	}
	return out, nil
}

// GetHeader 按 id 取 header
func (s *IOListService) GetHeader(ctx context.Context, id int64) (*domain.IOListHeader, error) {
	return s.headers.Get(ctx, id)
}

// DeleteHeader 删除一次上传：先丢数据表，再删文件，最后删 header 行
// 文件删除是尽力而为，失败不阻塞
func (s *IOListService) DeleteHeader(ctx context.Context, id int64) error {
	h, err := s.headers.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.namespaces.DropIOListTable(ctx, h.HullNo, h.DateKey); err != nil {
		return err
	}
	s.store.Remove(h.UUID)
	s.store.RemovePath(h.FilePath)
	hit, err := s.headers.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !hit {
		return domain.ErrNotFound
	}
	s.logger.Info("iolist upload deleted", zap.Int64("header_id", id), zap.String("uuid", h.UUID))
	return nil
}

// AvailableFilters header 列表的可用过滤选项
func (s *IOListService) AvailableFilters(ctx context.Context) (*repository.Filters, error) {
	return s.headers.DistinctFilters(ctx)
}

// ItemView 行 + 校验注记（列表接口直接给前端高亮用）
type ItemView struct {
	Item                   domain.IOListItem
	DataChannelID          string
	IsDuplicateChannelID   bool
	IsDuplicateDescription bool
	IsDuplicateMQTTTag     bool
	HasMissingRequired     bool
}

// ListItems 列一次上传的全部行，带重复 / 缺失注记
// onlyDuplicates / onlyMissingRequired 是服务端过滤
func (s *IOListService) ListItems(ctx context.Context, headerID int64, onlyDuplicates, onlyMissingRequired bool) ([]ItemView, error) {
	h, err := s.headers.Get(ctx, headerID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.List(ctx, h.HullNo, h.DateKey)
	if err != nil {
		return nil, err
	}

	_, requiredValue := excel.ProtocolColumns(s.headerProtocol(ctx, h))
	report := validate.Detect(items, requiredValue)

	dupID := idSet(report.DuplicateChannelIDs)
	dupDesc := idSet(report.DuplicateDescriptions)
	dupTag := idSet(report.DuplicateMQTTTags)

	out := make([]ItemView, 0, len(items))
	for i := range items {
		item := items[i]
		v := ItemView{
			Item:                   item,
			DataChannelID:          domain.DeriveChannelID(item.Payload()),
			IsDuplicateChannelID:   dupID[item.ID],
			IsDuplicateDescription: dupDesc[item.ID],
			IsDuplicateMQTTTag:     dupTag[item.ID],
			HasMissingRequired:     report.HasMissingRequired(item.ID),
		}
		if onlyDuplicates && !(v.IsDuplicateChannelID || v.IsDuplicateDescription || v.IsDuplicateMQTTTag) {
			continue
		}
		if onlyMissingRequired && !v.HasMissingRequired {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// headerProtocol 上传对应的校验协议：device 表的多数协议，查不到默认 MQTT
func (s *IOListService) headerProtocol(ctx context.Context, h *domain.IOListHeader) domain.Protocol {
	devices, err := s.devices.List(ctx, h.HullNo)
	if err != nil {
		return domain.ProtocolMQTT
	}
	m := make(map[string]domain.Protocol, len(devices))
	for _, d := range devices {
		m[d.DeviceName] = d.Protocol
	}
	return dominantProtocol(m)
}

func idSet(m map[string][]int64) map[int64]bool {
	set := map[int64]bool{}
	for _, ids := range m {
		for _, id := range ids {
			set[id] = true
		}
	}
	return set
}

// CreateItem 在一次上传里新增一行（raw_data 即 payload 序列化结果）
func (s *IOListService) CreateItem(ctx context.Context, headerID int64, p *domain.Payload) (*domain.IOListItem, error) {
	h, err := s.headers.Get(ctx, headerID)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal row: %w", err)
	}
	item := &domain.IOListItem{RawData: string(raw)}
	item.ApplyDerived(domain.DeriveItemFields(p))
	if err := s.items.Insert(ctx, h.HullNo, h.DateKey, item); err != nil {
		return nil, err
	}
	return item, nil
}

// findItemHeader item id 只在自己的表里唯一，跨 header 定位要逐个表找
func (s *IOListService) findItemHeader(ctx context.Context, itemID int64) (*domain.IOListHeader, *domain.IOListItem, error) {
	headers, err := s.headers.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	for i := range headers {
		h := &headers[i]
		exists, err := s.namespaces.TableExists(ctx, h.HullNo, repository.IOListTableName(h.DateKey))
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			continue
		}
		item, err := s.items.Get(ctx, h.HullNo, h.DateKey, itemID)
		if err == domain.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return h, item, nil
	}
	return nil, nil, domain.ErrNotFound
}

// UpdateItem 整体替换一行的 raw_data 并重新派生兼容字段
// 第二个返回值是这行所属的 header id
func (s *IOListService) UpdateItem(ctx context.Context, itemID int64, p *domain.Payload) (*domain.IOListItem, int64, error) {
	h, item, err := s.findItemHeader(ctx, itemID)
	if err != nil {
		return nil, 0, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal row: %w", err)
	}
	item.RawData = string(raw)
	item.ApplyDerived(domain.DeriveItemFields(p))
	hit, err := s.items.Update(ctx, h.HullNo, h.DateKey, item)
	if err != nil {
		return nil, 0, err
	}
	if !hit {
		return nil, 0, domain.ErrNotFound
	}
	updated, err := s.items.Get(ctx, h.HullNo, h.DateKey, itemID)
	if err != nil {
		return nil, 0, err
	}
	return updated, h.ID, nil
}

// DeleteItem 删除一行
func (s *IOListService) DeleteItem(ctx context.Context, itemID int64) error {
	h, _, err := s.findItemHeader(ctx, itemID)
	if err != nil {
		return err
	}
	hit, err := s.items.Delete(ctx, h.HullNo, h.DateKey, itemID)
	if err != nil {
		return err
	}
	if !hit {
		return domain.ErrNotFound
	}
	return nil
}

// Validation 对一次上传跑完整校验报告
func (s *IOListService) Validation(ctx context.Context, headerID int64) (*validate.Report, error) {
	h, err := s.headers.Get(ctx, headerID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.List(ctx, h.HullNo, h.DateKey)
	if err != nil {
		return nil, err
	}
	_, requiredValue := excel.ProtocolColumns(s.headerProtocol(ctx, h))
	return validate.Detect(items, requiredValue), nil
}

// DPResult DP 生成结果：XML 正文 + 下载文件名 + 跳过的行
type DPResult struct {
	XML      []byte
	FileName string
	Channels int
	Skipped  []dpxml.SkipEntry
}

// GenerateDP 生成一次上传的 DP XML
// 文件名 DP_{imo}_{生成时刻 YYYYMMDDHHMMSS}.xml
func (s *IOListService) GenerateDP(ctx context.Context, headerID int64) (*DPResult, error) {
	h, err := s.headers.Get(ctx, headerID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.List(ctx, h.HullNo, h.DateKey)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("upload %d has no items", headerID)
	}
	devices, err := s.devices.List(ctx, h.HullNo)
	if err != nil {
		return nil, err
	}

	res, err := s.generator.Generate(h.IMO, items, devices)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("DP_%s_%s.xml", h.IMO, s.generator.Timestamp().Format("20060102150405"))
	s.logger.Info("DP xml generated",
		zap.Int64("header_id", headerID),
		zap.Int("channels", res.Channels),
		zap.Int("skipped", len(res.Skipped)))
	return &DPResult{XML: res.XML, FileName: name, Channels: res.Channels, Skipped: res.Skipped}, nil
}

// ListDevices hull_no 分区内的全部 device；分区还没建表时返回空列表
func (s *IOListService) ListDevices(ctx context.Context, hullNo string) ([]domain.Device, error) {
	exists, err := s.namespaces.TableExists(ctx, hullNo, repository.DeviceTableName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []domain.Device{}, nil
	}
	return s.devices.List(ctx, hullNo)
}

// CreateDevice 新建 device；同名返回 ValidationError
func (s *IOListService) CreateDevice(ctx context.Context, hullNo, name string, protocol domain.Protocol) (*domain.Device, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("device_name is required")
	}
	if err := s.namespaces.EnsureDeviceTable(ctx, hullNo); err != nil {
		return nil, err
	}
	exists, err := s.devices.ExistsByName(ctx, hullNo, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.NewValidationError("device %q already exists", name)
	}
	return s.devices.Insert(ctx, hullNo, name, protocol)
}

// UpdateDevice 修改 device；改名时检查同名冲突
func (s *IOListService) UpdateDevice(ctx context.Context, hullNo string, id int64, name *string, protocol *domain.Protocol) (*domain.Device, error) {
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, domain.NewValidationError("device_name must not be empty")
		}
		exists, err := s.devices.ExistsByName(ctx, hullNo, *name, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.NewValidationError("device %q already exists", *name)
		}
	}
	return s.devices.Update(ctx, hullNo, id, name, protocol)
}

// DeleteDevice 删除 device
func (s *IOListService) DeleteDevice(ctx context.Context, hullNo string, id int64) error {
	hit, err := s.devices.Delete(ctx, hullNo, id)
	if err != nil {
		return err
	}
	if !hit {
		return domain.ErrNotFound
	}
	return nil
}
