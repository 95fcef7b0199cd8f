// 包 api：集中注册控制面 HTTP 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"loc-sim/internal/bookmarks"
	"loc-sim/internal/extract"
	"loc-sim/internal/geo"
	"loc-sim/internal/geocode"
	"loc-sim/internal/logger"
	"loc-sim/internal/notify"
	"loc-sim/internal/persist"
	"loc-sim/internal/realloc"
	"loc-sim/internal/spoof"
)

// Deps：路由依赖集合
// 约束：Bookmarks/Geocoder/Notifier 允许为空，对应端点返回 503；
// Real 是带兜底的展示来源，只服务 /real-location 查询；
// 恢复校验一律只喂 Manual 的传感器读数，兜底来源报的是真实位置，
// 对照它会把仍在生效的覆盖误判为已撤销
type Deps struct {
	Engine    *spoof.Engine
	Store     persist.Adapter
	Notifier  notify.Notifier
	Bookmarks *bookmarks.Store
	Manual    *realloc.Manual
	Real      realloc.Source
	Geocoder  *geocode.Client
}

// startRequest：启动请求体；NeedsTransform 缺省为真（地图选点的默认来源假设）
type startRequest struct {
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
	Altitude       float64  `json:"altitude"`
	Label          string   `json:"label"`
	Note           string   `json:"note"`
	NeedsTransform *bool    `json:"needsTransform"`
}

type statusResponse struct {
	Active    bool                 `json:"active"`
	Point     *spoof.LocationPoint `json:"point,omitempty"`
	LastError string               `json:"lastError,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func sessionResponse(sess spoof.Session) statusResponse {
	res := statusResponse{Active: sess.IsActive(), Point: sess.ActivePoint()}
	if k := sess.LastError(); k != nil {
		res.LastError = string(*k)
	}
	return res
}

// BuildRoutes：构建并返回控制面路由，独立 ServeMux 便于在主入口挂载前缀
func BuildRoutes(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	var inflight geocode.Latest

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionResponse(d.Engine.Session()))
	})

	mux.HandleFunc("/spoof/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		// 书签直达：坐标已解析，政策上不再换算
		if s := r.URL.Query().Get("bookmark"); s != "" {
			if d.Bookmarks == nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad bookmark id"})
				return
			}
			b, err := d.Bookmarks.Get(r.Context(), id)
			if err != nil {
				logger.L().Error("bookmark_get_error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			if b == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			d.Engine.Start(r.Context(), b.Point())
			writeJSON(w, http.StatusOK, sessionResponse(d.Engine.Session()))
			return
		}
		var req startRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Lat == nil || req.Lon == nil {
			// 未选定落点就请求启动：记录会话错误并提示先选位置
			d.Engine.RecordError(spoof.ErrInvalidCoordinate)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "请先选择一个位置"})
			return
		}
		p := spoof.LocationPoint{
			Coordinate:               geo.Coordinate{Lat: *req.Lat, Lon: *req.Lon},
			Altitude:                 req.Altitude,
			Label:                    req.Label,
			Note:                     req.Note,
			NeedsCoordinateTransform: req.NeedsTransform == nil || *req.NeedsTransform,
		}
		d.Engine.Start(r.Context(), p)
		writeJSON(w, http.StatusOK, sessionResponse(d.Engine.Session()))
	})

	mux.HandleFunc("/spoof/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		d.Engine.Stop(r.Context())
		writeJSON(w, http.StatusOK, sessionResponse(d.Engine.Session()))
	})

	// 搜索框裸坐标解析；失败即无结果，不碰任何状态
	mux.HandleFunc("/parse", func(w http.ResponseWriter, r *http.Request) {
		c, ok := extract.ParseFreeText(r.URL.Query().Get("q"))
		if !ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "no coordinate"})
			return
		}
		writeJSON(w, http.StatusOK, c)
	})

	// 深链入口：提取成功即发起覆盖；提取产物按政策视为 WGS-84
	mux.HandleFunc("/deeplink", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing url"})
			return
		}
		c, ok := extract.FromDeepLink(body.URL)
		if !ok {
			// 提取失败是静默无操作，引擎状态保持原样
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "no coordinate"})
			return
		}
		d.Engine.Start(r.Context(), spoof.LocationPoint{Coordinate: c})
		writeJSON(w, http.StatusOK, sessionResponse(d.Engine.Session()))
	})

	// 分享扩展进程入口：先写共享存储，再发零载荷信号，收信方读存储
	mux.HandleFunc("/share", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing url"})
			return
		}
		if err := d.Store.Set(r.Context(), persist.KeySharedURL, body.URL); err != nil {
			logger.L().Error("share_store_error", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if d.Notifier != nil {
			if err := d.Notifier.Publish(r.Context(), notify.TopicSharedURL); err != nil {
				logger.L().Error("share_signal_error", "err", err)
			}
		}
		w.WriteHeader(http.StatusAccepted)
	})

	// 回前台事件：广播 resume 信号，订阅方延时取读数后做恢复校验
	mux.HandleFunc("/resume", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if d.Notifier != nil {
			if err := d.Notifier.Publish(r.Context(), notify.TopicResume); err != nil {
				logger.L().Error("resume_signal_error", "err", err)
			}
			w.WriteHeader(http.StatusAccepted)
			return
		}
		// 请求上下文随应答结束，延时校验要挂在独立上下文上
		go spoof.ReconcileOnResume(context.Background(), d.Engine, d.Manual)
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("/real-location", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			c, err := d.Real.Current(r.Context())
			if err != nil {
				logger.L().Error("realloc_current_error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			if c == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no reading"})
				return
			}
			writeJSON(w, http.StatusOK, c)
		case http.MethodPost:
			var c geo.Coordinate
			if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad reading"})
				return
			}
			d.Manual.Report(c)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/geocode", func(w http.ResponseWriter, r *http.Request) {
		if d.Geocoder == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
		if err1 != nil || err2 != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad coordinate"})
			return
		}
		// 新查询作废上一个在途查询，慢结果不允许覆盖新结果
		ctx, cancel := inflight.Begin(r.Context())
		defer cancel()
		label, err := d.Geocoder.ReverseGeocode(ctx, geo.Coordinate{Lat: lat, Lon: lon})
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "geocode failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"label": label})
	})

	mux.HandleFunc("/bookmarks", func(w http.ResponseWriter, r *http.Request) {
		if d.Bookmarks == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		switch r.Method {
		case http.MethodGet:
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			list, err := d.Bookmarks.List(r.Context(), limit)
			if err != nil {
				logger.L().Error("bookmark_list_error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, list)
		case http.MethodPost:
			var b bookmarks.Bookmark
			if err := json.NewDecoder(r.Body).Decode(&b); err != nil || b.Label == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad bookmark"})
				return
			}
			id, err := d.Bookmarks.Save(r.Context(), b)
			if err != nil {
				logger.L().Error("bookmark_save_error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
		case http.MethodDelete:
			id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad id"})
				return
			}
			if err := d.Bookmarks.Delete(r.Context(), id); err != nil {
				logger.L().Error("bookmark_delete_error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	return mux
}
