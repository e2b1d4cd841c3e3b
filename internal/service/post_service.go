package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/croak-backend/internal/model"
	"github.com/d60-Lab/croak-backend/internal/repository"
)

var ErrPostNotFound = errors.New("post not found")

// PostService 内容触发面：发帖/点赞/评论，成功后触发对应的通知钩子
type PostService interface {
	CreatePost(ctx context.Context, authorID, text string, parentID *string) (*model.Post, error)
	LikePost(ctx context.Context, userID, postID string) error
	AddComment(ctx context.Context, authorID, postID, text string) (*model.Comment, error)
}

type postService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	notify   NotifyService
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, notify NotifyService) PostService {
	return &postService{postRepo: postRepo, userRepo: userRepo, notify: notify}
}

func (s *postService) CreatePost(ctx context.Context, authorID, text string, parentID *string) (*model.Post, error) {
	author, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	post := &model.Post{AuthorID: authorID, Text: text, ParentID: parentID}
	if err := s.postRepo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	// 回复帖：通知父帖作者
	if parentID != nil {
		if parent, err := s.postRepo.GetPost(ctx, *parentID); err == nil {
			if parentAuthor, err := s.userRepo.GetByID(ctx, parent.AuthorID); err == nil {
				s.notify.OnReply(ctx, author, parent, parentAuthor, text)
			}
		}
	}
	s.notify.NotifyMentions(ctx, author, post)
	return post, nil
}

func (s *postService) LikePost(ctx context.Context, userID, postID string) error {
	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	actor, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	created, err := s.postRepo.CreateLike(ctx, postID, userID)
	if err != nil {
		return err
	}
	// 重复点赞不再重复提醒
	if !created {
		return nil
	}

	if author, err := s.userRepo.GetByID(ctx, post.AuthorID); err == nil {
		s.notify.OnLike(ctx, actor, post, author)
	}
	return nil
}

func (s *postService) AddComment(ctx context.Context, authorID, postID, text string) (*model.Comment, error) {
	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	actor, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{PostID: postID, AuthorID: authorID, Text: text}
	if err := s.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if author, err := s.userRepo.GetByID(ctx, post.AuthorID); err == nil {
		s.notify.OnComment(ctx, actor, post, author, text)
	}
	return comment, nil
}
