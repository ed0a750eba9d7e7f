package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/gallerygate/gallerygate-go/internal/config"
	"github.com/gallerygate/gallerygate-go/internal/handler"
	"github.com/gallerygate/gallerygate-go/internal/middleware"
	"github.com/gallerygate/gallerygate-go/internal/repository"
	"github.com/gallerygate/gallerygate-go/internal/service"
	"github.com/gallerygate/gallerygate-go/internal/thumb"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	galleryRepo := repository.NewGalleryRepository(db)
	producer := thumb.NewProducer(cfg.ThumbMaxWidth, cfg.WatermarkText)

	accessService := service.NewAccessService(cfg.UnlockSecret, cfg.UnlockTTL)
	fileService := service.NewFileService(cfg.StorageRoot, producer)
	archiveService := service.NewArchiveService(fileService)

	mediaHandler := handler.NewMediaHandler(galleryRepo, accessService, fileService, archiveService, cfg.PrivateNoticeURL)
	unlockHandler := handler.NewUnlockHandler(galleryRepo, accessService)
	galleryHandler := handler.NewGalleryHandler(galleryRepo, accessService, fileService)
	adminHandler := handler.NewAdminHandler(galleryRepo, fileService, archiveService,
		cfg.AdminUser, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.JWTExpiry)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// File-emitting endpoints.
	r.Get("/thumb", mediaHandler.HandleThumb)
	r.Get("/cover", mediaHandler.HandleCoverThumb)
	r.Get("/download", mediaHandler.HandleDownload)
	r.Get("/download-all", mediaHandler.HandleDownloadAll)

	// Password submissions are throttled per IP.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(5, 10))
		r.Post("/unlock/view", unlockHandler.HandleUnlockView)
		r.Post("/unlock/download", unlockHandler.HandleUnlockDownload)
		r.Post("/api/v1/admin/login", adminHandler.HandleLogin)
	})

	r.Get("/api/v1/galleries/{gallery_id}", galleryHandler.HandleGetGallery)
	r.Get("/api/v1/galleries/{gallery_id}/files", galleryHandler.HandleListFiles)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.JWTSecret))
		r.Post("/api/v1/admin/galleries", adminHandler.HandleCreateGallery)
		r.Put("/api/v1/admin/galleries/{gallery_id}/access", adminHandler.HandleUpdateAccess)
		r.Post("/api/v1/admin/galleries/{gallery_id}/files", adminHandler.HandleUpload)
		r.Post("/api/v1/admin/galleries/{gallery_id}/sync", adminHandler.HandleSync)
		r.Post("/api/v1/admin/galleries/{gallery_id}/archive", adminHandler.HandleRebuildArchive)
		r.Put("/api/v1/admin/galleries/{gallery_id}/cover", adminHandler.HandleSetCover)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.StorageRoot)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
