package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/cafe-next/internal/app"
	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
	ansiBrown = "\033[33m"
)

func main() {
	// 解析命令行参数
	var mode, configPath string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.StringVar(&configPath, "config", "", "配置文件路径（默认查找 ./config.yml）")
	flag.Parse()

	parsedMode, err := app.ParseMode(mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	mode = parsedMode
	printStartupBanner(mode)

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	for name, secret := range map[string]string{
		"user_jwt":  cfg.UserJWT.SecretKey,
		"admin_jwt": cfg.AdminJWT.SecretKey,
	} {
		if !isWeakSecret(secret) {
			continue
		}
		if cfg.Server.Mode == "release" && mode != app.ModeWorker {
			stdLog.Fatalf("%s secret 过弱或仍为默认值，请在生产环境中配置强随机密钥", name)
		}
		stdLog.Printf("警告: %s secret 过弱或仍为默认值，建议在生产环境中更换", name)
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogLevel, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner(mode string) {
	fmt.Println(ansiBrown + "   ( (" + ansiReset)
	fmt.Println(ansiBrown + "    ) )" + ansiReset)
	fmt.Println(ansiBrown + "  ........" + ansiReset)
	fmt.Println(ansiBrown + "  |      |]" + ansiReset)
	fmt.Println(ansiBrown + "  \\      /" + ansiReset)
	fmt.Println(ansiBrown + "   `----'" + ansiReset)
	fmt.Println(ansiCyan + ansiBold + "Cafe-Next 订单服务启动中" + ansiReset)
	fmt.Println(ansiDim + "mode: " + mode + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
