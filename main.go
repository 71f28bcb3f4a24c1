package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luminchurch/chms_end/config"
	"github.com/luminchurch/chms_end/controllers"
	"github.com/luminchurch/chms_end/middleware"
	"github.com/luminchurch/chms_end/repository"
	"github.com/luminchurch/chms_end/routes"
	"github.com/luminchurch/chms_end/service"
	"github.com/luminchurch/chms_end/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// 初始化日志
	utils.InitLogger()

	// 加载配置
	cfg := config.LoadConfig()

	// 设置Gin模式
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	if err := repository.InitMongoDB(cfg.MongoURI, cfg.MongoDB); err != nil {
		utils.Logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}

	defer repository.CloseMongoDB()

	// 组装生命周期服务
	lifecycle := service.NewLifecycleService(
		repository.NewMongoVisitorStore(),
		repository.NewMongoMemberDirectory(),
		repository.NewMongoNotifier(),
	)
	controllers.InitControllers(lifecycle)

	// 创建Gin实例
	router := gin.New()

	// 应用中间件
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.OperationLoggerMiddleware())

	// 注册路由
	routes.RegisterRoutes(router)

	// 初始化系统数据
	utils.Logger.Info().Msg("开始系统初始化...")
	if err := repository.InitializeCollections(); err != nil {
		utils.Logger.Error().Err(err).Msg("初始化数据库集合失败")
	}
	if err := repository.InitializeAdminAccount(); err != nil {
		utils.Logger.Error().Err(err).Msg("初始化管理员账户失败")
	}
	utils.Logger.Info().Msg("系统初始化完成")

	// 每天早上8点执行跟进提醒扫描
	service.ScheduleDailyTaskAt(8, 0, 0, func() {
		lifecycle.ProcessDueFollowUpReminders(context.Background())
	})

	// 设置HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 启动服务器
	go func() {
		utils.Logger.Info().Msgf("服务器启动，监听端口: %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Logger.Fatal().Err(err).Msg("启动服务器失败")
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Fatal().Err(err).Msg("服务器关闭异常")
	}

	utils.Logger.Info().Msg("服务器已优雅关闭")
}
