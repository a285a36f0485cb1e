package service

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jeremymatt/photo-manager/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Config struct {
	Catalog *catalog.Catalog
	Logger  *zap.Logger
	// Registry receives the service metrics.  A new registry is created
	// when it is nil.
	Registry *prometheus.Registry
	Version  string
	// CORSAllowedOrigins defaults to allowing any origin.
	CORSAllowedOrigins []string
}

type Core struct {
	catalog  *catalog.Catalog
	conf     Config
	handler  http.Handler
	logger   *zap.Logger
	metrics  *metrics
	registry *prometheus.Registry
	router   *mux.Router
}

func NewCore(ctx context.Context, conf Config) (*Core, error) {
	if conf.Logger == nil {
		conf.Logger = zap.NewNop()
	}
	if conf.Version == "" {
		conf.Version = "unknown"
	}
	registry := conf.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m, err := newMetrics(registry)
	if err != nil {
		return nil, err
	}
	router := mux.NewRouter()
	router.Use(withRequestID())
	router.Use(logRequests(conf.Logger))
	router.Use(recoverPanics(conf.Logger))
	c := &Core{
		catalog:  conf.Catalog,
		conf:     conf,
		logger:   conf.Logger.Named("core"),
		metrics:  m,
		registry: registry,
		router:   router,
	}
	c.addRoutes()
	origins := conf.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler(router)
	c.logger.Info("Started",
		zap.String("dialect", conf.Catalog.Dialect().Name()),
		zap.String("version", conf.Version),
	)
	return c, nil
}

func (c *Core) addRoutes() {
	c.handle("/query", handleQuery).Methods("POST")
	c.handle("/ast", handleAST).Methods("POST")
	c.handle("/tags", handleTagsGet).Methods("GET")
	c.handle("/tags", handleTagPost).Methods("POST")
	c.handle("/fields", handleFieldsGet).Methods("GET")
	c.handle("/images", handleImagePost).Methods("POST")
	c.handle("/images/{id}", handleImageGet).Methods("GET")
	c.handle("/images/{id}/tags", handleImageTagPost).Methods("POST")
	c.handle("/images/{id}/tags/{tag}", handleImageTagDelete).Methods("DELETE")
	c.handle("/status", handleStatus).Methods("GET")
	c.handle("/version", handleVersion).Methods("GET")
	c.router.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})).Methods("GET")
}

type handlerFunc func(*Core, *ResponseWriter, *Request)

func (c *Core) handle(path string, f handlerFunc) *mux.Route {
	return c.router.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, req := newRequest(w, r, c)
		f(c, res, req)
	}))
}

func (c *Core) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.handler.ServeHTTP(w, r)
}
