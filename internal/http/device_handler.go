package httpapi

import (
	"net/http"

	"github.com/yooh1982/HS4v2/internal/domain"
)

// device 路由挂在 header 下（前端按上传操作），实际按 header 的 hull_no 分区存取

func deviceJSON(headerID int64, d *domain.Device) map[string]any {
	out := d.ToJSON()
	out["header_id"] = headerID
	return out
}

// ListDevices GET /iolist/headers/{id}/devices
func (h *IOListHandler) ListDevices(w http.ResponseWriter, req *http.Request, headerID int64) {
	hdr, err := h.svc.GetHeader(req.Context(), headerID)
	if err != nil {
		writeError(w, err)
		return
	}
	devices, err := h.svc.ListDevices(req.Context(), hdr.HullNo)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(devices))
	for i := range devices {
		out = append(out, deviceJSON(headerID, &devices[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type deviceBody struct {
	DeviceName *string `json:"device_name"`
	Protocol   *string `json:"protocol"`
}

// CreateDevice POST /iolist/headers/{id}/devices
func (h *IOListHandler) CreateDevice(w http.ResponseWriter, req *http.Request, headerID int64) {
	hdr, err := h.svc.GetHeader(req.Context(), headerID)
	if err != nil {
		writeError(w, err)
		return
	}
	var body deviceBody
	if err := readBodyJSON(req, 1<<20, &body); err != nil {
		writeError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}
	if body.DeviceName == nil {
		writeError(w, domain.NewValidationError("device_name is required"))
		return
	}
	protocol := domain.ProtocolMQTT
	if body.Protocol != nil {
		protocol = domain.ParseProtocol(*body.Protocol)
	}
	d, err := h.svc.CreateDevice(req.Context(), hdr.HullNo, *body.DeviceName, protocol)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deviceJSON(headerID, d))
}

// UpdateDevice PUT /iolist/headers/{id}/devices/{device_id}
func (h *IOListHandler) UpdateDevice(w http.ResponseWriter, req *http.Request, headerID, deviceID int64) {
	hdr, err := h.svc.GetHeader(req.Context(), headerID)
	if err != nil {
		writeError(w, err)
		return
	}
	var body deviceBody
	if err := readBodyJSON(req, 1<<20, &body); err != nil {
		writeError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}
	var protocol *domain.Protocol
	if body.Protocol != nil {
		p := domain.ParseProtocol(*body.Protocol)
		protocol = &p
	}
	d, err := h.svc.UpdateDevice(req.Context(), hdr.HullNo, deviceID, body.DeviceName, protocol)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deviceJSON(headerID, d))
}

// DeleteDevice DELETE /iolist/headers/{id}/devices/{device_id}
func (h *IOListHandler) DeleteDevice(w http.ResponseWriter, req *http.Request, headerID, deviceID int64) {
	hdr, err := h.svc.GetHeader(req.Context(), headerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.DeleteDevice(req.Context(), hdr.HullNo, deviceID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "device deleted"})
}
