package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/destinpq/destinpq-lms-sub000/docs"
)

// SetupSwagger serves the generated API docs under /swagger and redirects
// /docs there. The bearer token typed into the UI survives reloads.
func SetupSwagger(router *gin.Engine) {
	handler := ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.DocExpansion("none"),
		ginSwagger.PersistAuthorization(true),
		ginSwagger.DefaultModelsExpandDepth(-1),
	)
	router.GET("/swagger/*any", handler)
	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
