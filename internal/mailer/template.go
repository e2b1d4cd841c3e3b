package mailer

import (
	"fmt"
	"html"
	"strings"
)

// EventType is the closed set of social events that can trigger an instant email.
// Anything outside the set renders through the generic fallback.
type EventType string

const (
	EventLike    EventType = "like"
	EventComment EventType = "comment"
	EventFollow  EventType = "follow"
	EventMention EventType = "mention"
	EventReply   EventType = "reply"
)

// ParseEventType reports whether s names a known event.
func ParseEventType(s string) (EventType, bool) {
	switch EventType(s) {
	case EventLike, EventComment, EventFollow, EventMention, EventReply:
		return EventType(s), true
	}
	return EventType(s), false
}

// NotificationContext carries the details a single social event renders from.
type NotificationContext struct {
	Sender        string
	RecipientName string
	PostText      string
	PostURL       string
	CommentText   string
	ReplyText     string
	YourComment   string
	SenderBio     string
	ProfileURL    string
}

// TrendingPost is one entry of the digest's trending block.
type TrendingPost struct {
	Author   string `json:"author"`
	Text     string `json:"text"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
}

// DigestData is the aggregated activity summary a digest email renders from.
type DigestData struct {
	NewFollowers  int64          `json:"new_followers"`
	TotalLikes    int64          `json:"total_likes"`
	TotalComments int64          `json:"total_comments"`
	TrendingPosts []TrendingPost `json:"trending_posts"`
}

// HasActivity reports whether the digest is worth sending at all.
func (d DigestData) HasActivity() bool {
	return d.NewFollowers > 0 || d.TotalLikes > 0 || d.TotalComments > 0 || len(d.TrendingPosts) > 0
}

// RenderNotification maps an event to its dedicated renderer, falling back to a
// generic subject/body for unrecognized types.
func RenderNotification(eventType EventType, ctx NotificationContext) (subject, htmlBody, textBody string) {
	switch eventType {
	case EventLike:
		return renderLike(ctx)
	case EventComment:
		return renderComment(ctx)
	case EventFollow:
		return renderFollow(ctx)
	case EventMention:
		return renderMention(ctx)
	case EventReply:
		return renderReply(ctx)
	}
	subject = fmt.Sprintf("New %s on Croak", eventType)
	body := fmt.Sprintf("You have a new %s!", eventType)
	return subject, baseTemplate("<p>"+html.EscapeString(body)+"</p>", ctx.RecipientName), body
}

func renderLike(ctx NotificationContext) (string, string, string) {
	sender := orSomeone(ctx.Sender)
	preview := truncate(ctx.PostText, 100)
	subject := fmt.Sprintf("👍 %s liked your post", sender)

	content := fmt.Sprintf(`
        <h2>👍 New Like!</h2>
        <p><strong>%s</strong> liked your post:</p>
        <blockquote style="background-color: #f9fafb; padding: 15px; border-left: 4px solid #10b981; margin: 20px 0;">
            %s...
        </blockquote>
        <a href="%s" class="button">View Post</a>
    `, html.EscapeString(sender), html.EscapeString(preview), ctx.PostURL)

	text := fmt.Sprintf(`Hey %s,

%s liked your post:
"%s..."

View it here: %s

---
Croak - Free Voices. Real Connections.
`, orThere(ctx.RecipientName), sender, preview, ctx.PostURL)

	return subject, baseTemplate(content, ctx.RecipientName), text
}

func renderComment(ctx NotificationContext) (string, string, string) {
	sender := orSomeone(ctx.Sender)
	preview := truncate(ctx.PostText, 100)
	subject := fmt.Sprintf("💬 %s commented on your post", sender)

	content := fmt.Sprintf(`
        <h2>💬 New Comment!</h2>
        <p><strong>%s</strong> commented on your post:</p>
        <div style="background-color: #f9fafb; padding: 15px; border-radius: 6px; margin: 20px 0;">
            <p style="margin: 0; color: #6b7280; font-size: 14px;">Your post:</p>
            <p style="margin: 5px 0;">%s...</p>
            <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 10px 0;">
            <p style="margin: 0; color: #6b7280; font-size: 14px;">%s's comment:</p>
            <p style="margin: 5px 0; font-weight: 500;">%s</p>
        </div>
        <a href="%s" class="button">Reply</a>
    `, html.EscapeString(sender), html.EscapeString(preview), html.EscapeString(sender),
		html.EscapeString(ctx.CommentText), ctx.PostURL)

	text := fmt.Sprintf(`Hey %s,

%s commented on your post:

Your post: "%s..."

%s's comment: "%s"

Reply here: %s

---
Croak - Free Voices. Real Connections.
`, orThere(ctx.RecipientName), sender, preview, sender, ctx.CommentText, ctx.PostURL)

	return subject, baseTemplate(content, ctx.RecipientName), text
}

func renderFollow(ctx NotificationContext) (string, string, string) {
	sender := orSomeone(ctx.Sender)
	subject := fmt.Sprintf("👤 %s started following you", sender)

	bioHTML := ""
	if ctx.SenderBio != "" {
		bioHTML = fmt.Sprintf(`<p style="color: #6b7280;">%s</p>`, html.EscapeString(ctx.SenderBio))
	}
	content := fmt.Sprintf(`
        <h2>👤 New Follower!</h2>
        <p><strong>%s</strong> started following you on Croak.</p>
        %s
        <a href="%s" class="button">View Profile</a>
    `, html.EscapeString(sender), bioHTML, ctx.ProfileURL)

	text := fmt.Sprintf(`Hey %s,

%s started following you on Croak!

%s

Check out their profile: %s

---
Croak - Free Voices. Real Connections.
`, orThere(ctx.RecipientName), sender, ctx.SenderBio, ctx.ProfileURL)

	return subject, baseTemplate(content, ctx.RecipientName), text
}

func renderMention(ctx NotificationContext) (string, string, string) {
	sender := orSomeone(ctx.Sender)
	subject := fmt.Sprintf("📢 %s mentioned you", sender)

	content := fmt.Sprintf(`
        <h2>📢 You were mentioned!</h2>
        <p><strong>%s</strong> mentioned you in a post:</p>
        <blockquote style="background-color: #f9fafb; padding: 15px; border-left: 4px solid #10b981; margin: 20px 0;">
            %s
        </blockquote>
        <a href="%s" class="button">View Post</a>
    `, html.EscapeString(sender), html.EscapeString(ctx.PostText), ctx.PostURL)

	text := fmt.Sprintf(`Hey %s,

%s mentioned you in a post:

"%s"

View it here: %s

---
Croak - Free Voices. Real Connections.
`, orThere(ctx.RecipientName), sender, ctx.PostText, ctx.PostURL)

	return subject, baseTemplate(content, ctx.RecipientName), text
}

func renderReply(ctx NotificationContext) (string, string, string) {
	sender := orSomeone(ctx.Sender)
	subject := fmt.Sprintf("💬 %s replied to your comment", sender)

	content := fmt.Sprintf(`
        <h2>💬 New Reply!</h2>
        <p><strong>%s</strong> replied to your comment:</p>
        <div style="background-color: #f9fafb; padding: 15px; border-radius: 6px; margin: 20px 0;">
            <p style="margin: 0; color: #6b7280; font-size: 14px;">Your comment:</p>
            <p style="margin: 5px 0;">%s</p>
            <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 10px 0;">
            <p style="margin: 0; color: #6b7280; font-size: 14px;">%s's reply:</p>
            <p style="margin: 5px 0; font-weight: 500;">%s</p>
        </div>
        <a href="%s" class="button">View Conversation</a>
    `, html.EscapeString(sender), html.EscapeString(ctx.YourComment), html.EscapeString(sender),
		html.EscapeString(ctx.ReplyText), ctx.PostURL)

	text := fmt.Sprintf(`Hey %s,

%s replied to your comment:

Your comment: "%s"

%s's reply: "%s"

View the conversation: %s

---
Croak - Free Voices. Real Connections.
`, orThere(ctx.RecipientName), sender, ctx.YourComment, sender, ctx.ReplyText, ctx.PostURL)

	return subject, baseTemplate(content, ctx.RecipientName), text
}

// RenderDigest renders the daily activity summary email.
func RenderDigest(data DigestData, recipientName string) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("🐸 Your Daily Croak Digest - %d new followers!", data.NewFollowers)

	statsHTML := fmt.Sprintf(`
        <div style="background-color: #f0fdf4; padding: 20px; border-radius: 6px; margin: 20px 0;">
            <h3 style="margin-top: 0;">📊 Your Stats Today</h3>
            <ul style="list-style: none; padding: 0;">
                <li style="padding: 8px 0;">👥 <strong>%d</strong> new followers</li>
                <li style="padding: 8px 0;">❤️ <strong>%d</strong> likes received</li>
                <li style="padding: 8px 0;">💬 <strong>%d</strong> comments received</li>
            </ul>
        </div>
    `, data.NewFollowers, data.TotalLikes, data.TotalComments)

	trendingHTML := ""
	var trendingText strings.Builder
	if len(data.TrendingPosts) > 0 {
		trendingHTML = "<h3>🔥 Trending on Croak</h3>"
		for i, p := range data.TrendingPosts {
			if i >= 3 {
				break
			}
			trendingHTML += fmt.Sprintf(`
            <div style="background-color: #f9fafb; padding: 15px; border-radius: 6px; margin: 10px 0;">
                <p style="margin: 0; font-weight: 500;">@%s</p>
                <p style="margin: 5px 0;">%s...</p>
                <p style="margin: 5px 0; color: #6b7280; font-size: 14px;">
                    ❤️ %d · 💬 %d
                </p>
            </div>
            `, html.EscapeString(p.Author), html.EscapeString(truncate(p.Text, 150)), p.Likes, p.Comments)
			fmt.Fprintf(&trendingText, "@%s: %s...\n", p.Author, truncate(p.Text, 100))
		}
	}

	content := fmt.Sprintf(`
        <h2>🌅 Good morning!</h2>
        <p>Here's what happened on Croak while you were away:</p>
        %s
        %s
        <a href="https://croak.com" class="button">Open Croak</a>
    `, statsHTML, trendingHTML)

	text := fmt.Sprintf(`Hey %s,

Here's your daily Croak digest:

📊 Your Stats Today:
- %d new followers
- %d likes received
- %d comments received

🔥 Trending on Croak:
%s
Open Croak: https://croak.com

---
Croak - Free Voices. Real Connections.
`, orThere(recipientName), data.NewFollowers, data.TotalLikes, data.TotalComments, trendingText.String())

	return subject, baseTemplate(content, recipientName), text
}

// baseTemplate wraps rendered content in the shared Croak email chrome.
func baseTemplate(content, recipientName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5; }
        .container { background-color: #ffffff; border-radius: 8px; padding: 30px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .header { text-align: center; padding-bottom: 20px; border-bottom: 2px solid #10b981; }
        .logo { font-size: 32px; font-weight: bold; color: #10b981; }
        .content { padding: 20px 0; }
        .button { display: inline-block; padding: 12px 24px; background-color: #10b981; color: #ffffff !important; text-decoration: none; border-radius: 6px; margin: 20px 0; }
        .footer { text-align: center; padding-top: 20px; border-top: 1px solid #e5e7eb; color: #6b7280; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <div class="logo">🐸 Croak</div>
        </div>
        <div class="content">
            <p>Hey %s,</p>
            %s
        </div>
        <div class="footer">
            <p>You're receiving this because you have notifications enabled on Croak.</p>
            <p><a href="https://croak.com/settings/notifications" style="color: #10b981;">Manage your email preferences</a></p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(orThere(recipientName)), content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orSomeone(s string) string {
	if s == "" {
		return "Someone"
	}
	return s
}

func orThere(s string) string {
	if s == "" {
		return "there"
	}
	return s
}
