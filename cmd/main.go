// 程序入口：仅负责读取配置、初始化依赖并启动控制面；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"loc-sim/internal/api"
	"loc-sim/internal/bookmarks"
	"loc-sim/internal/extract"
	"loc-sim/internal/geocode"
	"loc-sim/internal/logger"
	"loc-sim/internal/metrics"
	"loc-sim/internal/middleware"
	"loc-sim/internal/migrate"
	"loc-sim/internal/notify"
	"loc-sim/internal/persist"
	"loc-sim/internal/realloc"
	"loc-sim/internal/sim"
	"loc-sim/internal/spoof"
	"loc-sim/internal/utils"
	"loc-sim/internal/version"

	"github.com/joho/godotenv"
)

// handleSharedURL：收到“共享链接已写入”信号后的读取与消费
// 约束：键读完即删，避免重复消费；提取失败静默放弃，不改变引擎状态
func handleSharedURL(ctx context.Context, eng *spoof.Engine, ad persist.Adapter) {
	raw, ok, err := ad.Get(ctx, persist.KeySharedURL)
	if err != nil {
		logger.L().Error("shared_url_read_error", "err", err)
		return
	}
	if !ok || raw == "" {
		logger.L().Debug("shared_url_empty")
		return
	}
	_ = ad.Remove(ctx, persist.KeySharedURL)
	c, ok := extract.FromDeepLink(raw)
	if !ok {
		logger.L().Info("shared_url_no_coordinate", "url", raw)
		return
	}
	// 分享链接的提取产物按政策视为 WGS-84
	eng.Start(ctx, spoof.LocationPoint{Coordinate: c})
}

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Info("locsim_start", "commit", version.Commit)
	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	l.Debug("config_api_base", "base", apiBase)

	ctx := context.Background()

	// 共享存储域：有 Redis 走跨进程共享，否则退化为进程内存储
	rc := utils.OpenRedisFromEnv()
	var ad persist.Adapter
	var nf notify.Notifier
	if rc == nil {
		l.Info("redis_disabled", "fallback", "memory")
		ad = persist.NewMemory()
	} else {
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		ad = persist.NewRedisAdapter(rc)
		nf = notify.NewRedis(rc)
	}

	// 书签库：可选，打不开只损失书签功能，不影响覆盖核心
	var bm *bookmarks.Store
	if os.Getenv("PG_DISABLE") != "true" {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
		} else if err := db.Ping(); err != nil {
			l.Error("db_ping_error", "err", err)
			_ = db.Close()
		} else if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			_ = db.Close()
		} else {
			bm = bookmarks.AttachDB(db)
			defer bm.Close()
			l.Info("db_open_ok")
		}
	}

	// 真实位置来源：传感器上报优先，配置了 mmdb 时用公网 IP 粗定位兜底
	// 约束：兜底链只服务展示查询；恢复校验只认传感器读数——覆盖生效时
	// 传感器报的是被覆盖的坐标，IP 定位报的永远是真实位置，混进校验
	// 会把仍然有效的记录误判为已撤销
	ttl := 2 * time.Minute
	if v := os.Getenv("REAL_READING_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ttl = d
		}
	}
	man := realloc.NewManual(ttl)
	srcs := []realloc.Source{man}
	if mmdb := os.Getenv("MMDB_PATH"); mmdb != "" {
		g, err := realloc.NewGeoIP(mmdb, os.Getenv("PUBLIC_IP"))
		if err != nil {
			l.Error("mmdb_open_error", "err", err)
		} else if g != nil {
			defer g.Close()
			srcs = append(srcs, g)
			l.Info("geoip_ready", "path", mmdb)
		}
	}
	real := realloc.NewChain(srcs...)

	// 模拟代理桥接
	simEndpoint := os.Getenv("SIM_BRIDGE_ENDPOINT")
	if simEndpoint == "" {
		simEndpoint = "http://127.0.0.1:9090"
	}
	l.Debug("config_sim_endpoint", "endpoint", simEndpoint)
	eng := spoof.New(sim.NewBridge(simEndpoint, nil), ad, man)

	// 逆地理编码：需要服务端密钥
	var gc *geocode.Client
	if key := os.Getenv("AMAP_SERVER_KEY"); key != "" {
		gc = geocode.NewClient(key, &http.Client{Timeout: 4 * time.Second})
		l.Info("geocoder_ready")
	}

	// 启动恢复校验：等一拍让读数先到；只喂传感器读数
	go spoof.ReconcileOnResume(ctx, eng, man)

	// 跨进程信号订阅：回前台重新校验；共享链接写入后去读存储
	if nf != nil {
		nf.Subscribe(ctx, notify.TopicResume, func() {
			spoof.ReconcileOnResume(ctx, eng, man)
		})
		nf.Subscribe(ctx, notify.TopicSharedURL, func() {
			handleSharedURL(ctx, eng, ad)
		})
	}

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(api.Deps{
		Engine:    eng,
		Store:     ad,
		Notifier:  nf,
		Bookmarks: bm,
		Manual:    man,
		Real:      real,
		Geocoder:  gc,
	})
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler}
	if os.Getenv("TLS_ENABLE") == "true" {
		certPath := os.Getenv("TLS_CERT_PATH")
		keyPath := os.Getenv("TLS_KEY_PATH")
		if certPath == "" {
			certPath = filepath.Join("data", "certs", "server.crt")
		}
		if keyPath == "" {
			keyPath = filepath.Join("data", "certs", "server.key")
		}
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "loc-sim.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listen_tls", "addr", addr)
		if err := s.ListenAndServeTLS(certPath, keyPath); err != nil {
			l.Error("server_error", "err", err)
			os.Exit(1)
		}
		return
	}
	l.Info("listen", "addr", addr)
	if err := s.ListenAndServe(); err != nil {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
}
