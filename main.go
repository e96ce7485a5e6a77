package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/0lekW/oleks-closet/closet"
	"github.com/0lekW/oleks-closet/storage"
)

func mustLoadEnv() {
	_ = godotenv.Load()
}

func main() {
	mustLoadEnv()

	r := gin.Default()
	r.Use(cors.Default())

	files, err := storage.NewFileStoreFromEnv()
	if err != nil {
		log.Fatalf("init file storage: %v", err)
	}
	r.Static("/static/uploads", files.BaseDir())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Closet Fit Maker")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if _, err := closet.RegisterRoutes(r, closet.Options{Files: files}); err != nil {
		log.Fatalf("register item routes: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("start server: %v", err)
	}
}
