package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/croak-backend/internal/api/middleware"
	"github.com/d60-Lab/croak-backend/pkg/response"
)

type updatePreferencesRequest struct {
	EmailOnLike    *bool   `json:"email_on_like"`
	EmailOnComment *bool   `json:"email_on_comment"`
	EmailOnFollow  *bool   `json:"email_on_follow"`
	EmailOnMention *bool   `json:"email_on_mention"`
	EmailOnReply   *bool   `json:"email_on_reply"`
	DailyDigest    *bool   `json:"daily_digest"`
	WeeklySummary  *bool   `json:"weekly_summary"`
	DigestTime     *string `json:"digest_time" binding:"omitempty,hhmm"`
	Timezone       *string `json:"timezone"`
	EmailEnabled   *bool   `json:"email_enabled"`
}

// GetPreferences 查询当前用户邮件偏好（首次访问自动创建默认档）
// @Summary 查询邮件偏好
// @Tags 邮件偏好
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/preferences [get]
func (h *Handler) GetPreferences(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	prefs, err := h.prefRepo.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, prefs)
}

// UpdatePreferences 局部更新当前用户邮件偏好
// @Summary 更新邮件偏好
// @Tags 邮件偏好
// @Security BearerAuth
// @Accept json
// @Param request body updatePreferencesRequest true "要更新的字段"
// @Success 200 {object} response.Response
// @Router /api/v1/preferences [put]
func (h *Handler) UpdatePreferences(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	var req updatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// 保证档案存在后再做局部更新
	if _, err := h.prefRepo.GetOrCreate(c.Request.Context(), userID); err != nil {
		response.InternalError(c, err)
		return
	}

	fields := map[string]interface{}{}
	setBool := func(col string, v *bool) {
		if v != nil {
			fields[col] = *v
		}
	}
	setBool("email_on_like", req.EmailOnLike)
	setBool("email_on_comment", req.EmailOnComment)
	setBool("email_on_follow", req.EmailOnFollow)
	setBool("email_on_mention", req.EmailOnMention)
	setBool("email_on_reply", req.EmailOnReply)
	setBool("daily_digest", req.DailyDigest)
	setBool("weekly_summary", req.WeeklySummary)
	setBool("email_enabled", req.EmailEnabled)
	if req.DigestTime != nil {
		fields["digest_time"] = *req.DigestTime
	}
	if req.Timezone != nil {
		fields["timezone"] = *req.Timezone
	}
	if len(fields) == 0 {
		response.BadRequest(c, "no fields to update")
		return
	}

	if err := h.prefRepo.Update(c.Request.Context(), userID, fields); err != nil {
		response.InternalError(c, err)
		return
	}
	prefs, err := h.prefRepo.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, prefs)
}
