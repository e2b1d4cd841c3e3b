package service

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/d60-Lab/croak-backend/internal/mailer"
	"github.com/d60-Lab/croak-backend/internal/model"
	"github.com/d60-Lab/croak-backend/internal/repository"
	"github.com/d60-Lab/croak-backend/pkg/logger"
)

const siteBaseURL = "https://croak.com"

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// NotifyService 社交事件钩子：写站内通知并触发即时邮件入队
// 邮件入队失败只记日志，绝不把失败传导回社交操作本身
type NotifyService interface {
	OnLike(ctx context.Context, actor *model.User, post *model.Post, author *model.User)
	OnComment(ctx context.Context, actor *model.User, post *model.Post, author *model.User, commentText string)
	OnReply(ctx context.Context, actor *model.User, parent *model.Post, parentAuthor *model.User, replyText string)
	OnFollow(ctx context.Context, follower, followee *model.User)
	// NotifyMentions 扫描正文中的 @username 并逐个触发 mention 钩子
	NotifyMentions(ctx context.Context, actor *model.User, post *model.Post)
}

type notifyService struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
	mailSvc   MailService
}

func NewNotifyService(notifRepo repository.NotificationRepository, userRepo repository.UserRepository, mailSvc MailService) NotifyService {
	return &notifyService{notifRepo: notifRepo, userRepo: userRepo, mailSvc: mailSvc}
}

func (s *notifyService) OnLike(ctx context.Context, actor *model.User, post *model.Post, author *model.User) {
	if actor.ID == author.ID {
		return
	}
	s.record(ctx, &model.Notification{
		SenderID: actor.ID, ReceiverID: author.ID, NotifType: "like", PostID: &post.ID,
		Message: fmt.Sprintf("%s liked your post", actor.Username),
	})
	s.enqueue(ctx, author, mailer.EventLike, mailer.NotificationContext{
		Sender:        actor.Username,
		RecipientName: author.RecipientName(),
		PostText:      post.Text,
		PostURL:       postURL(post.ID),
	})
}

func (s *notifyService) OnComment(ctx context.Context, actor *model.User, post *model.Post, author *model.User, commentText string) {
	if actor.ID == author.ID {
		return
	}
	s.record(ctx, &model.Notification{
		SenderID: actor.ID, ReceiverID: author.ID, NotifType: "comment", PostID: &post.ID,
		Message: fmt.Sprintf("%s commented on your post.", actor.Username),
	})
	s.enqueue(ctx, author, mailer.EventComment, mailer.NotificationContext{
		Sender:        actor.Username,
		RecipientName: author.RecipientName(),
		PostText:      post.Text,
		PostURL:       postURL(post.ID),
		CommentText:   commentText,
	})
}

func (s *notifyService) OnReply(ctx context.Context, actor *model.User, parent *model.Post, parentAuthor *model.User, replyText string) {
	if actor.ID == parentAuthor.ID {
		return
	}
	s.record(ctx, &model.Notification{
		SenderID: actor.ID, ReceiverID: parentAuthor.ID, NotifType: "reply", PostID: &parent.ID,
		Message: fmt.Sprintf("%s replied to you.", actor.Username),
	})
	s.enqueue(ctx, parentAuthor, mailer.EventReply, mailer.NotificationContext{
		Sender:        actor.Username,
		RecipientName: parentAuthor.RecipientName(),
		YourComment:   parent.Text,
		ReplyText:     replyText,
		PostURL:       postURL(parent.ID),
	})
}

func (s *notifyService) OnFollow(ctx context.Context, follower, followee *model.User) {
	if follower.ID == followee.ID {
		return
	}
	// 同一对用户只提醒一次
	exists, err := s.notifRepo.ExistsFollow(ctx, follower.ID, followee.ID)
	if err != nil {
		logger.Error("check follow notification", zap.Error(err))
		return
	}
	if exists {
		return
	}
	s.record(ctx, &model.Notification{
		SenderID: follower.ID, ReceiverID: followee.ID, NotifType: "follow",
		Message: fmt.Sprintf("%s started following you.", follower.Username),
	})
	s.enqueue(ctx, followee, mailer.EventFollow, mailer.NotificationContext{
		Sender:        follower.Username,
		RecipientName: followee.RecipientName(),
		SenderBio:     follower.Bio,
		ProfileURL:    fmt.Sprintf("%s/users/%s", siteBaseURL, follower.Username),
	})
}

func (s *notifyService) NotifyMentions(ctx context.Context, actor *model.User, post *model.Post) {
	seen := map[string]bool{}
	for _, m := range mentionPattern.FindAllStringSubmatch(post.Text, -1) {
		username := m[1]
		if seen[username] || username == actor.Username {
			continue
		}
		seen[username] = true
		mentioned, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			continue // 提到的不是真实用户
		}
		s.record(ctx, &model.Notification{
			SenderID: actor.ID, ReceiverID: mentioned.ID, NotifType: "mention", PostID: &post.ID,
			Message: fmt.Sprintf("%s mentioned you in a post.", actor.Username),
		})
		s.enqueue(ctx, mentioned, mailer.EventMention, mailer.NotificationContext{
			Sender:        actor.Username,
			RecipientName: mentioned.RecipientName(),
			PostText:      post.Text,
			PostURL:       postURL(post.ID),
		})
	}
}

func (s *notifyService) record(ctx context.Context, n *model.Notification) {
	if err := s.notifRepo.Create(ctx, n); err != nil {
		logger.Error("create notification", zap.String("type", n.NotifType), zap.Error(err))
	}
}

func (s *notifyService) enqueue(ctx context.Context, recipient *model.User, event mailer.EventType, nctx mailer.NotificationContext) {
	if _, err := s.mailSvc.EnqueueInstant(ctx, recipient, event, nctx); err != nil {
		logger.Error("enqueue instant email",
			zap.String("recipient", recipient.ID), zap.String("event", string(event)), zap.Error(err))
	}
}

func postURL(id string) string { return fmt.Sprintf("%s/posts/%s", siteBaseURL, id) }
