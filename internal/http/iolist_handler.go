package httpapi

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yooh1982/HS4v2/internal/domain"
	"github.com/yooh1982/HS4v2/internal/repository"
	"github.com/yooh1982/HS4v2/internal/service"
)

// maxUploadBytes 上传文件上限 50MB
const maxUploadBytes = 50 << 20

// IOListHandler IOLIST 上传 / 管理 / 生成 API
type IOListHandler struct {
	svc    *service.IOListService
	db     *sql.DB
	logger *zap.Logger
}

func NewIOListHandler(svc *service.IOListService, db *sql.DB, logger *zap.Logger) *IOListHandler {
	return &IOListHandler{svc: svc, db: db, logger: logger}
}

// Health GET /health：进程活着 + 数据库可达
func (h *IOListHandler) Health(w http.ResponseWriter, req *http.Request) {
	dbOK := h.db.PingContext(req.Context()) == nil
	h.logger.Info("health check", zap.Bool("db", dbOK))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": dbOK})
}

// Upload POST /upload/iolist
// hull_no / imo / date_key 先取 query，取不到再从文件名提取
func (h *IOListHandler) Upload(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, domain.NewValidationError("invalid multipart form: %v", err))
		return
	}
	file, fh, err := req.FormFile("file")
	if err != nil {
		writeError(w, domain.NewValidationError("file field is required"))
		return
	}
	defer file.Close()

	fileName := fh.Filename
	if fileName == "" {
		writeError(w, domain.NewValidationError("filename is required"))
		return
	}
	lower := strings.ToLower(fileName)
	if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xls") {
		writeError(w, domain.NewValidationError("only .xlsx / .xls files are accepted"))
		return
	}

	q := req.URL.Query()
	hullNo := q.Get("hull_no")
	imo := q.Get("imo")
	dateKey := q.Get("date_key")
	if fileHull, fileIMO, ok := ParseFilename(fileName); ok {
		if hullNo == "" {
			hullNo = fileHull
		}
		if imo == "" {
			imo = fileIMO
		}
	}
	if hullNo == "" {
		writeError(w, domain.NewValidationError(
			"hull_no is required (pass it or encode it in the filename, e.g. H2567_IMO9991862_IOList.xlsx)"))
		return
	}
	if imo == "" {
		writeError(w, domain.NewValidationError(
			"imo is required (pass it or encode it in the filename, e.g. H2567_IMO9991862_IOList.xlsx)"))
		return
	}
	if dateKey == "" {
		dateKey = time.Now().UTC().Format("20060102_150405")
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, fmt.Errorf("read upload: %w", err))
		return
	}
	h.logger.Info("iolist upload received",
		zap.String("file", fileName),
		zap.String("hull_no", hullNo),
		zap.String("imo", imo),
		zap.String("date_key", dateKey),
		zap.Int("size", len(content)))

	view, err := h.svc.CreateFromExcel(req.Context(), hullNo, imo, dateKey, fileName, content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, headerJSON(&view.Header, view.ItemCount))
}

func headerJSON(hdr *domain.IOListHeader, itemCount int) map[string]any {
	out := hdr.ToJSON()
	out["item_count"] = itemCount
	return out
}

// ListHeaders GET /iolist/headers?hull_no=&imo=&date_key=&skip=&limit=
func (h *IOListHandler) ListHeaders(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	f := repository.HeaderFilters{
		HullNo:  q.Get("hull_no"),
		IMO:     q.Get("imo"),
		DateKey: q.Get("date_key"),
		Skip:    parseInt(q.Get("skip"), 0),
		Limit:   parseInt(q.Get("limit"), 100),
	}
	views, err := h.svc.ListHeaders(req.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(views))
	for i := range views {
		out = append(out, headerJSON(&views[i].Header, views[i].ItemCount))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetHeader GET /iolist/headers/{id}
func (h *IOListHandler) GetHeader(w http.ResponseWriter, req *http.Request, headerID int64) {
	hdr, err := h.svc.GetHeader(req.Context(), headerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hdr.ToJSON())
}

// DeleteHeader DELETE /iolist/headers/{id}
func (h *IOListHandler) DeleteHeader(w http.ResponseWriter, req *http.Request, headerID int64) {
	if err := h.svc.DeleteHeader(req.Context(), headerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "iolist deleted"})
}

// Filters GET /iolist/filters
func (h *IOListHandler) Filters(w http.ResponseWriter, req *http.Request) {
	f, err := h.svc.AvailableFilters(req.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func itemJSON(headerID int64, v *service.ItemView) map[string]any {
	out := v.Item.ToJSON()
	out["header_id"] = headerID
	out["data_channel_id"] = v.DataChannelID
	out["is_duplicate_data_channel_id"] = v.IsDuplicateChannelID
	out["is_duplicate_description"] = v.IsDuplicateDescription
	out["is_duplicate_mqtt_tag"] = v.IsDuplicateMQTTTag
	out["has_missing_required"] = v.HasMissingRequired
	return out
}

// ListItems GET /iolist/headers/{id}/items?show_duplicates=&show_missing_required=
func (h *IOListHandler) ListItems(w http.ResponseWriter, req *http.Request, headerID int64) {
	q := req.URL.Query()
	onlyDup := q.Get("show_duplicates") == "true"
	onlyMissing := q.Get("show_missing_required") == "true"

	views, err := h.svc.ListItems(req.Context(), headerID, onlyDup, onlyMissing)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(views))
	for i := range views {
		out = append(out, itemJSON(headerID, &views[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// itemBody item 创建 / 更新请求体：raw_data 是整行的列名 -> 值对象
type itemBody struct {
	RawData json.RawMessage `json:"raw_data"`
}

func (b *itemBody) payload() (*domain.Payload, error) {
	if len(b.RawData) == 0 {
		return nil, domain.NewValidationError("raw_data is required")
	}
	p, err := domain.ParsePayload(string(b.RawData))
	if err != nil {
		return nil, domain.NewValidationError("invalid raw_data: %v", err)
	}
	return p, nil
}

// CreateItem POST /iolist/headers/{id}/items
func (h *IOListHandler) CreateItem(w http.ResponseWriter, req *http.Request, headerID int64) {
	var body itemBody
	if err := readBodyJSON(req, 1<<20, &body); err != nil {
		writeError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}
	p, err := body.payload()
	if err != nil {
		writeError(w, err)
		return
	}
	item, err := h.svc.CreateItem(req.Context(), headerID, p)
	if err != nil {
		writeError(w, err)
		return
	}
	v := service.ItemView{Item: *item, DataChannelID: domain.DeriveChannelID(p)}
	writeJSON(w, http.StatusOK, itemJSON(headerID, &v))
}

// UpdateItem PUT /iolist/items/{item_id}（跨 header 定位）
func (h *IOListHandler) UpdateItem(w http.ResponseWriter, req *http.Request, itemID int64) {
	var body itemBody
	if err := readBodyJSON(req, 1<<20, &body); err != nil {
		writeError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}
	p, err := body.payload()
	if err != nil {
		writeError(w, err)
		return
	}
	item, headerID, err := h.svc.UpdateItem(req.Context(), itemID, p)
	if err != nil {
		writeError(w, err)
		return
	}
	v := service.ItemView{Item: *item, DataChannelID: domain.DeriveChannelID(p)}
	writeJSON(w, http.StatusOK, itemJSON(headerID, &v))
}

// DeleteItem DELETE /iolist/items/{item_id}
func (h *IOListHandler) DeleteItem(w http.ResponseWriter, req *http.Request, itemID int64) {
	if err := h.svc.DeleteItem(req.Context(), itemID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "item deleted"})
}

// Validation GET /iolist/headers/{id}/validation
func (h *IOListHandler) Validation(w http.ResponseWriter, req *http.Request, headerID int64) {
	report, err := h.svc.Validation(req.Context(), headerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// DownloadDP GET /iolist/headers/{id}/download-dp
// 以附件形式返回生成的 DP XML；跳过的行通过响应头 X-Skipped-Items 数量提示
func (h *IOListHandler) DownloadDP(w http.ResponseWriter, req *http.Request, headerID int64) {
	res, err := h.svc.GenerateDP(req.Context(), headerID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	w.Header().Set("X-Skipped-Items", fmt.Sprintf("%d", len(res.Skipped)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.XML)
}
