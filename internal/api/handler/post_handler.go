package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/croak-backend/internal/api/middleware"
	"github.com/d60-Lab/croak-backend/internal/service"
	"github.com/d60-Lab/croak-backend/pkg/response"
)

type createPostRequest struct {
	Text     string  `json:"text" binding:"required,max=500"`
	ParentID *string `json:"parent_id"`
}

type createCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// CreatePost 发帖（回复帖触发 reply 邮件，@提及触发 mention 邮件）
// @Summary 发布帖子
// @Tags 内容
// @Security BearerAuth
// @Accept json
// @Param request body createPostRequest true "帖子内容"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	userID := c.GetString(middleware.ContextUserID)
	post, err := h.postService.CreatePost(c.Request.Context(), userID, req.Text, req.ParentID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, post)
}

// LikePost 点赞（触发 like 邮件；重复点赞幂等）
// @Summary 点赞
// @Tags 内容
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id}/like [post]
func (h *Handler) LikePost(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	err := h.postService.LikePost(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// AddComment 评论（触发 comment 邮件）
// @Summary 发表评论
// @Tags 内容
// @Security BearerAuth
// @Accept json
// @Param id path string true "帖子ID"
// @Param request body createCommentRequest true "评论内容"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	userID := c.GetString(middleware.ContextUserID)
	comment, err := h.postService.AddComment(c.Request.Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, comment)
}
