package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cafe-next/internal/cache"
	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/constants"
	adminhandlers "github.com/cafe-next/internal/http/handlers/admin"
	publichandlers "github.com/cafe-next/internal/http/handlers/public"
	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cafe"
	}
	redisClient := cache.Client()
	checkoutRule := NewRateLimitRule(
		fmt.Sprintf("%s:%s", redisPrefix, constants.RateLimitKeyPrefixOrder),
		cfg.Security.RateLimit.Checkout,
	)
	previewRule := NewRateLimitRule(
		fmt.Sprintf("%s:%s", redisPrefix, constants.RateLimitKeyPrefixVoucher),
		cfg.Security.RateLimit.VoucherPreview,
	)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 登录用户接口
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT))
		{
			user.GET("/orders", publicHandler.ListOrders)
			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.PUT("/orders/:id", publicHandler.UpdateOrder)
			user.DELETE("/orders/:id", publicHandler.DeleteOrder)
			user.POST("/orders/:id/items", publicHandler.AddOrderItem)
			user.PUT("/orders/:id/items/:item_id", publicHandler.UpdateOrderItem)
			user.DELETE("/orders/:id/items/:item_id", publicHandler.RemoveOrderItem)
			user.POST("/orders/:id/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByUser), publicHandler.CheckoutOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)

			user.GET("/vouchers/available", publicHandler.ListAvailableVouchers)
			user.POST("/vouchers/preview", RateLimitMiddleware(redisClient, previewRule, KeyByIPAndJSONField("code")), publicHandler.PreviewVoucher)
		}

		// 管理端接口
		admin := apiV1.Group("/admin")
		admin.Use(AdminJWTAuthMiddleware(cfg.AdminJWT))
		{
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.GET("/orders/:id", adminHandler.AdminGetOrder)
			admin.GET("/orders/:id/history", adminHandler.AdminGetOrderHistory)
			admin.POST("/orders/:id/confirm", adminHandler.AdminConfirmOrder)
			admin.POST("/orders/:id/deliver", adminHandler.AdminDeliverOrder)
			admin.POST("/orders/:id/mark-paid", adminHandler.AdminMarkOrderPaid)
			admin.POST("/orders/:id/complete", adminHandler.AdminCompleteOrder)
			admin.POST("/orders/:id/cancel", adminHandler.AdminCancelOrder)

			admin.GET("/vouchers", adminHandler.ListVouchers)
			admin.POST("/vouchers", adminHandler.CreateVoucher)
			admin.POST("/vouchers/sweep", adminHandler.TriggerVoucherSweep)
			admin.GET("/vouchers/:id/ledger", adminHandler.GetVoucherLedger)
			admin.PUT("/vouchers/:id/active", adminHandler.SetVoucherActive)
			admin.POST("/vouchers/:id/assign", adminHandler.AssignVoucher)

			admin.GET("/routes", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminRouteCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminRouteCatalogItem struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// buildAdminRouteCatalog 列出管理端路由，按模块排序
func buildAdminRouteCatalog(engine *gin.Engine) []adminRouteCatalogItem {
	if engine == nil {
		return []adminRouteCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminRouteCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		key := method + ":" + item.Path
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, adminRouteCatalogItem{
			Module: deriveAdminRouteModule(item.Path),
			Method: method,
			Path:   item.Path,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Path == items[j].Path {
				return items[i].Method < items[j].Method
			}
			return items[i].Path < items[j].Path
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminRouteModule(path string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(path), "/api/v1/admin/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	return segments[0]
}
