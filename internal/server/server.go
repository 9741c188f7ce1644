package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"anoa.com/yamdb/internal/config"
	"anoa.com/yamdb/internal/jobs"
	"anoa.com/yamdb/internal/middleware"
	"anoa.com/yamdb/internal/policy"
	"anoa.com/yamdb/pkg/apperror"
	"anoa.com/yamdb/pkg/mailer"
	"anoa.com/yamdb/pkg/ratelimiter"
	"anoa.com/yamdb/pkg/response"
	"anoa.com/yamdb/pkg/token"

	categoryHttp "anoa.com/yamdb/internal/modules/category/delivery/http"
	categoryRepo "anoa.com/yamdb/internal/modules/category/repository"
	categoryService "anoa.com/yamdb/internal/modules/category/service"

	commentHttp "anoa.com/yamdb/internal/modules/comment/delivery/http"
	commentRepo "anoa.com/yamdb/internal/modules/comment/repository"
	commentService "anoa.com/yamdb/internal/modules/comment/service"

	genreHttp "anoa.com/yamdb/internal/modules/genre/delivery/http"
	genreRepo "anoa.com/yamdb/internal/modules/genre/repository"
	genreService "anoa.com/yamdb/internal/modules/genre/service"

	reviewHttp "anoa.com/yamdb/internal/modules/review/delivery/http"
	reviewRepo "anoa.com/yamdb/internal/modules/review/repository"
	reviewService "anoa.com/yamdb/internal/modules/review/service"

	searchService "anoa.com/yamdb/internal/modules/search/service"

	titleHttp "anoa.com/yamdb/internal/modules/title/delivery/http"
	titleRepo "anoa.com/yamdb/internal/modules/title/repository"
	titleService "anoa.com/yamdb/internal/modules/title/service"

	userHttp "anoa.com/yamdb/internal/modules/user/delivery/http"
	userRepo "anoa.com/yamdb/internal/modules/user/repository"
	userService "anoa.com/yamdb/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

// Dependencies are the external resources the API runs on. Redis and
// Meilisearch are optional: without Redis there is no posting cooldown, and
// without Meilisearch title search runs against the database.
type Dependencies struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Meili  meilisearch.ServiceManager
	Mailer mailer.Sender
}

type Server struct {
	engine    *gin.Engine
	cfg       *config.Config
	deps      Dependencies
	scheduler *jobs.Scheduler
}

func NewServer(cfg *config.Config, deps Dependencies) (*Server, error) {
	enforcer, err := policy.New()
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(cfg.SecretKey, cfg.JWTTTL, cfg.ConfirmationCodeTTL)
	if err != nil {
		return nil, err
	}

	if deps.Mailer == nil {
		deps.Mailer = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			UseTLS:   cfg.SMTPUseTLS,
		})
	}

	var index searchService.TitleIndex
	if deps.Meili != nil {
		index = searchService.NewMeiliSearchService(deps.Meili)
	}
	cooldown := ratelimiter.NewCooldown(deps.Redis)

	userRepository := userRepo.NewUserRepository(deps.DB)
	categoryRepository := categoryRepo.NewCategoryRepository(deps.DB)
	genreRepository := genreRepo.NewGenreRepository(deps.DB)

	authHandler := userHttp.NewAuthHandler(userService.NewAuthService(userRepository, tokens, deps.Mailer))
	userHandler := userHttp.NewUserHandler(userService.NewUserService(userRepository, enforcer))

	categoryHandler := categoryHttp.NewCategoryHandler(categoryService.NewCategoryService(categoryRepository, enforcer))
	genreHandler := genreHttp.NewGenreHandler(genreService.NewGenreService(genreRepository, enforcer))

	titleRepository := titleRepo.NewTitleRepository(deps.DB)
	titleSvc := titleService.NewTitleService(
		titleRepository,
		categoryRepository,
		genreRepository,
		index,
		enforcer,
	)
	titleHandler := titleHttp.NewTitleHandler(titleSvc)

	reviewSvc := reviewService.NewReviewService(reviewRepo.NewReviewRepository(deps.DB), enforcer, cooldown, cfg.RateLimitReview)
	reviewHandler := reviewHttp.NewReviewHandler(reviewSvc)

	commentSvc := commentService.NewCommentService(commentRepo.NewCommentRepository(deps.DB), enforcer, cooldown, cfg.RateLimitComment)
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(response.MethodNotAllowed)
	router.NoRoute(func(c *gin.Context) {
		response.ResponseError(c, apperror.ErrNotFound)
	})

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger("/healthz", "/metrics"))
	router.Use(middleware.Metrics())

	authMiddleware := middleware.NewAuthMiddleware(userRepository, tokens)

	s := &Server{engine: router, cfg: cfg, deps: deps}

	if index != nil && cfg.ReindexSchedule != "" {
		s.scheduler = jobs.NewScheduler(time.Hour)
		if err := s.scheduler.Register(jobs.NewReindexTitles(titleRepository, index, cfg.ReindexSchedule)); err != nil {
			return nil, err
		}
	}

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/token", authHandler.Token)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", categoryHandler.GetAllCategories)
		categories.POST("", categoryHandler.CreateCategory)
		categories.DELETE("/:slug", categoryHandler.DeleteCategory)
	}

	genres := api.Group("/genres")
	{
		genres.GET("", genreHandler.GetAllGenres)
		genres.POST("", genreHandler.CreateGenre)
		genres.DELETE("/:slug", genreHandler.DeleteGenre)
	}

	titles := api.Group("/titles")
	{
		titles.GET("", titleHandler.GetAllTitles)
		titles.POST("", titleHandler.CreateTitle)
		titles.GET("/search", titleHandler.SearchTitles)
		titles.GET("/:title_id", titleHandler.GetTitle)
		titles.PATCH("/:title_id", titleHandler.UpdateTitle)
		titles.DELETE("/:title_id", titleHandler.DeleteTitle)

		reviews := titles.Group("/:title_id/reviews")
		reviews.GET("", reviewHandler.ListReviews)
		reviews.POST("", reviewHandler.CreateReview)
		reviews.GET("/:review_id", reviewHandler.GetReview)
		reviews.PATCH("/:review_id", reviewHandler.UpdateReview)
		reviews.DELETE("/:review_id", reviewHandler.DeleteReview)

		comments := reviews.Group("/:review_id/comments")
		comments.GET("", commentHandler.ListComments)
		comments.POST("", commentHandler.CreateComment)
		comments.GET("/:comment_id", commentHandler.GetComment)
		comments.PATCH("/:comment_id", commentHandler.UpdateComment)
		comments.DELETE("/:comment_id", commentHandler.DeleteComment)
	}

	users := api.Group("/users")
	users.Use(authMiddleware.RequireAuth())
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)
		users.GET("/me", userHandler.GetMe)
		users.PATCH("/me", userHandler.UpdateMe)
		// /users/me is not a deletable account.
		users.DELETE("/me", response.MethodNotAllowed)
		users.GET("/:username", userHandler.GetUser)
		users.PATCH("/:username", userHandler.UpdateUser)
		users.DELETE("/:username", userHandler.DeleteUser)
	}

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.scheduler != nil {
		s.scheduler.Start()
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if s.scheduler != nil {
			s.scheduler.Stop(context.Background())
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.scheduler != nil {
		s.scheduler.Stop(shutdownCtx)
	}
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"database": "ok"}
	code := http.StatusOK

	sqlDB, err := s.deps.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("database health check failed")
		status["database"] = "unavailable"
		code = http.StatusServiceUnavailable
	}

	if s.deps.Redis != nil {
		status["redis"] = "ok"
		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			log.Ctx(c.Request.Context()).Warn().Err(err).Msg("redis health check failed")
			status["redis"] = "unavailable"
		}
	}

	c.JSON(code, status)
}

func setupCORS(router *gin.Engine, origins []string) {
	corsConfig := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		// Bearer tokens do not need cookies, so an open API drops credentials.
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))
}
