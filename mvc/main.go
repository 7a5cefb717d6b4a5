package mvc

import (
	"net/http"

	"denovo/pipeline/contexts"
	gam "denovo/pipeline/middleware"
	"denovo/pipeline/models"
	serviceInfo "denovo/pipeline/models/constants/service-info"
	resultsMvc "denovo/pipeline/mvc/results"
	serviceInfoMvc "denovo/pipeline/mvc/service-info"
	"denovo/pipeline/repositories/results"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
)

// NewServer wires the read-only results API over a store.
// es may be nil; when set, ids missing on disk are looked up in the index.
func NewServer(cfg *models.Config, store *results.FileStore, es *elasticsearch.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Configure Server
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET},
	}))

	// -- Override handlers with the pipeline context
	//		to be able to provide variables and global singletons
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &contexts.PipelineContext{
				Context:   c,
				Config:    cfg,
				Store:     store,
				Es7Client: es,
			}
			return h(cc)
		}
	})

	// Begin MVC Routes
	// -- Root
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, serviceInfo.SERVICE_WELCOME)
	})

	// -- Service Info
	e.GET("/service-info", serviceInfoMvc.GetServiceInfo)

	// -- Results
	e.GET("/summary", resultsMvc.GetSummary)
	e.GET("/results", resultsMvc.GetResults,
		// middleware
		gam.ValidateOptionalChromosomeAttribute,
		gam.ValidateOptionalStatusAttribute,
		gam.ValidateOptionalClassificationAttribute)
	e.GET("/results/:id", resultsMvc.GetResultById)

	return e
}
