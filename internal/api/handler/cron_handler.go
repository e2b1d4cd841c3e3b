package handler

import (
	"crypto/subtle"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/croak-backend/pkg/response"
)

// verifyCronSecret 校验定时任务密钥（X-Cron-Secret 头或 secret 参数）
// 未配置密钥时一律拒绝（fail closed）
func (h *Handler) verifyCronSecret(c *gin.Context) bool {
	expected := h.cfg.Mailer.CronSecret
	if expected == "" {
		return false
	}
	secret := c.GetHeader("X-Cron-Secret")
	if secret == "" {
		secret = c.Query("secret")
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(expected)) == 1
}

// ProcessEmails 排空待发邮件
// @Summary 处理邮件队列
// @Tags 定时任务
// @Param limit query int false "单次最多处理条数" default(100)
// @Param secret query string false "任务密钥（也可用 X-Cron-Secret 头）"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/cron/process-emails [post]
func (h *Handler) ProcessEmails(c *gin.Context) {
	if !h.verifyCronSecret(c) {
		response.Forbidden(c, "unauthorized")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	result, err := h.dispatcher.ProcessQueue(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	h.statsCache.Invalidate(c.Request.Context())
	response.Success(c, gin.H{
		"total_processed": result.Total,
		"sent":            result.Sent,
		"failed":          result.Failed,
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

// DailyDigest 聚合昨日活动并生成摘要邮件
// @Summary 生成每日摘要
// @Tags 定时任务
// @Param secret query string false "任务密钥"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/cron/daily-digest [post]
func (h *Handler) DailyDigest(c *gin.Context) {
	if !h.verifyCronSecret(c) {
		response.Forbidden(c, "unauthorized")
		return
	}
	result, err := h.digestSvc.RunDaily(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{
		"total_users": result.TotalUsers,
		"queued":      result.Queued,
		"skipped":     result.Skipped,
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

// QueueStats 队列快照
// @Summary 查询队列统计
// @Tags 定时任务
// @Param secret query string false "任务密钥"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/cron/stats [get]
func (h *Handler) QueueStats(c *gin.Context) {
	if !h.verifyCronSecret(c) {
		response.Forbidden(c, "unauthorized")
		return
	}
	stats, err := h.statsCache.Get(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{
		"pending":    stats.Pending,
		"processing": stats.Processing,
		"failed":     stats.Failed,
		"sent_today": stats.SentToday,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

// Cleanup 删除超过保留期的已发送记录
// @Summary 清理历史邮件
// @Tags 定时任务
// @Param days query int false "保留天数" default(30)
// @Param secret query string false "任务密钥"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/cron/cleanup [post]
func (h *Handler) Cleanup(c *gin.Context) {
	if !h.verifyCronSecret(c) {
		response.Forbidden(c, "unauthorized")
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(h.cfg.Mailer.RetentionDays)))
	if err != nil || days <= 0 {
		response.BadRequest(c, "invalid days")
		return
	}
	deleted, err := h.queueRepo.Cleanup(c.Request.Context(), days)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	h.statsCache.Invalidate(c.Request.Context())
	response.Success(c, gin.H{"deleted": deleted})
}
