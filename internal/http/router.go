package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterIOListRoutes 上传 / header / item / device / 生成 全部路由
func (r *Router) RegisterIOListRoutes(h *IOListHandler) {
	r.Handle("/health", h.Health)

	r.Handle("/upload/iolist", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Upload(w, req)
	})

	r.Handle("/iolist/filters", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Filters(w, req)
	})

	r.Handle("/iolist/headers", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListHeaders(w, req)
	})

	// /iolist/headers/{id}
	// /iolist/headers/{id}/items
	// /iolist/headers/{id}/validation
	// /iolist/headers/{id}/devices[/{device_id}]
	// /iolist/headers/{id}/download-dp
	r.Handle("/iolist/headers/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/iolist/headers/")
		parts := strings.Split(strings.Trim(rest, "/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		headerID, ok := parseID(parts[0])
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		switch {
		case len(parts) == 1:
			switch req.Method {
			case http.MethodGet:
				h.GetHeader(w, req, headerID)
			case http.MethodDelete:
				h.DeleteHeader(w, req, headerID)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		case len(parts) == 2 && parts[1] == "items":
			switch req.Method {
			case http.MethodGet:
				h.ListItems(w, req, headerID)
			case http.MethodPost:
				h.CreateItem(w, req, headerID)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		case len(parts) == 2 && parts[1] == "validation":
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.Validation(w, req, headerID)
		case len(parts) == 2 && parts[1] == "download-dp":
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.DownloadDP(w, req, headerID)
		case len(parts) == 2 && parts[1] == "devices":
			switch req.Method {
			case http.MethodGet:
				h.ListDevices(w, req, headerID)
			case http.MethodPost:
				h.CreateDevice(w, req, headerID)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		case len(parts) == 3 && parts[1] == "devices":
			deviceID, ok := parseID(parts[2])
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			switch req.Method {
			case http.MethodPut:
				h.UpdateDevice(w, req, headerID, deviceID)
			case http.MethodDelete:
				h.DeleteDevice(w, req, headerID, deviceID)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	// /iolist/items/{item_id}
	r.Handle("/iolist/items/", func(w http.ResponseWriter, req *http.Request) {
		id, ok := parseID(strings.TrimPrefix(req.URL.Path, "/iolist/items/"))
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodPut:
			h.UpdateItem(w, req, id)
		case http.MethodDelete:
			h.DeleteItem(w, req, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// WithCORS 允许配置的前端来源跨域访问；OPTIONS 预检直接放行
func WithCORS(origins []string, next http.Handler) http.Handler {
	allowed := map[string]bool{}
	allowAll := false
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		if o != "" {
			allowed[o] = true
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}
