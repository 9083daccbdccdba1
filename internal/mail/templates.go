package mail

import (
	"fmt"
	"html"
	"time"

	"github.com/tribithub/portal/backend/internal/models"
)

const codeEmailHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f8f9fa; margin: 0; padding: 20px; }
  .container { max-width: 500px; margin: auto; background: #ffffff; border: 1px solid #e9ecef; border-radius: 8px; overflow: hidden; }
  .content { padding: 30px; text-align: center; }
  .code { font-size: 36px; font-weight: bold; letter-spacing: 8px; background-color: #f1f3f5; padding: 15px 20px; border-radius: 5px; display: inline-block; margin: 20px 0; }
  .footer { padding: 20px; text-align: center; font-size: 12px; color: #6c757d; }
</style>
</head>
<body>
  <div class="container">
    <div class="content">
      <p>%s</p>
      <div class="code"><strong>%s</strong></div>
      <p>验证码将在 %d 分钟后失效。如果这不是您本人的操作，请忽略此邮件。</p>
    </div>
    <div class="footer">© %d %s</div>
  </div>
</body>
</html>`

const ticketEmailHTML = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
  <p>你好 %s, 您的工单已提交成功。</p>
  <p>主题：%s</p>
  <p>我们会尽快处理并回复您。</p>
  <p style="font-size:12px;color:#6c757d">© %d %s</p>
</body>
</html>`

const magicLinkEmailHTML = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
  <div style="font-family: Arial, sans-serif; line-height: 1.6;">
    <h2>欢迎登录 %s</h2>
    <p>请点击下面的按钮以安全登录。该链接将在 %d 分钟后失效。</p>
    <a href="%s" style="display: inline-block; padding: 12px 24px; font-size: 16px; color: white; background-color: #007bff; text-decoration: none; border-radius: 5px;">安全登录</a>
    <p>如果您没有请求登录，请忽略此邮件。</p>
    <p style="font-size:12px;color:#6c757d">© %d <a href="%s">%s</a></p>
  </div>
</body>
</html>`

// VerificationCodeEmail builds the mail carrying a one-time code.
func VerificationCodeEmail(brand, to, code string, purpose models.CodePurpose, ttl time.Duration) models.Email {
	minutes := int(ttl / time.Minute)
	year := time.Now().Year()
	if purpose == models.PurposePasswordReset {
		return models.Email{
			To:       to,
			FromName: brand + " 安全中心",
			Subject:  fmt.Sprintf("您的密码重置验证码是 %s", code),
			HTML:     fmt.Sprintf(codeEmailHTML, "你好, 这是您的密码重置验证码:", code, minutes, year, html.EscapeString(brand)),
			Text:     fmt.Sprintf("你好, 这是您的密码重置验证码: %s", code),
			Kind:     models.EmailResetCode,
		}
	}
	return models.Email{
		To:       to,
		FromName: brand,
		Subject:  fmt.Sprintf("您的 %s 注册验证码是 %s", brand, code),
		HTML:     fmt.Sprintf(codeEmailHTML, "你好, 这是您的验证码:", code, minutes, year, html.EscapeString(brand)),
		Text:     fmt.Sprintf("你好, 这是您的验证码: %s", code),
		Kind:     models.EmailSignupCode,
	}
}

// TicketReceivedEmail confirms a submitted ticket to its owner.
func TicketReceivedEmail(brand, to, username string, t *models.Ticket) models.Email {
	return models.Email{
		To:       to,
		FromName: brand + " 支持",
		Subject:  fmt.Sprintf("您的工单 #%d 已收到", t.ID),
		HTML: fmt.Sprintf(ticketEmailHTML,
			html.EscapeString(username), html.EscapeString(t.Subject), time.Now().Year(), html.EscapeString(brand)),
		Text: fmt.Sprintf("你好 %s, 您的工单 #%d 已提交成功。", username, t.ID),
		Kind: models.EmailTicket,
	}
}

// MagicLinkEmail carries a one-time sign-in link. siteURL is linked in the
// footer.
func MagicLinkEmail(brand, to, link, siteURL string, ttl time.Duration) models.Email {
	return models.Email{
		To:       to,
		FromName: brand,
		Subject:  fmt.Sprintf("您的 %s 登录链接", brand),
		HTML: fmt.Sprintf(magicLinkEmailHTML,
			html.EscapeString(brand), int(ttl/time.Minute), html.EscapeString(link),
			time.Now().Year(), html.EscapeString(siteURL), html.EscapeString(brand)),
		Text: fmt.Sprintf("请打开以下链接登录 %s: %s", brand, link),
		Kind: models.EmailMagicLink,
	}
}
