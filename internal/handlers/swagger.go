package handlers

// @title Viswords API
// @version 1.0
// @description Image upload shell served behind API Gateway or as a standalone server

// @host localhost:8081
// @BasePath /api

// @tag.name system
// @tag.description Health and public configuration

// @tag.name uploads
// @tag.description Session scoped image uploads

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "viswords-api/docs"
)

// registerSwagger serves the API documentation UI under /swagger
func registerSwagger(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
