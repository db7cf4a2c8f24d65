package mailtemplate

import "github.com/xzajyb/MXacc-sub002/internal/domain"

type source struct {
	html string // defines "content", wrapped by layoutHTML
	text string
}

const layoutHTML = `{{define "layout"}}<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
{{template "content" .}}
<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
<p style="color: #888; font-size: 12px;">This is an automated message, please do not reply.</p>
</body>
</html>{{end}}`

var sources = map[domain.TemplateKind]source{
	domain.KindVerification: {
		html: `{{define "content"}}<h1>Verify your email address</h1>
<p>Hi {{.username}},</p>
<p>Your verification code is:</p>
<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.code}}</p>
<p>The code expires in {{.expiresInMinutes}} minutes. If you did not request it, you can ignore this email.</p>{{end}}`,
		text: `Hi {{.username}},

Your verification code is: {{.code}}

The code expires in {{.expiresInMinutes}} minutes. If you did not request it, you can ignore this email.
`,
	},
	domain.KindWelcome: {
		html: `{{define "content"}}<h1>Welcome, {{.username}}!</h1>
<p>Your email address is verified and your account is ready to use.</p>
{{if .loginURL}}<p><a href="{{.loginURL}}">Sign in to your account</a></p>{{end}}{{end}}`,
		text: `Welcome, {{.username}}!

Your email address is verified and your account is ready to use.
{{if .loginURL}}
Sign in: {{.loginURL}}
{{end}}`,
	},
	domain.KindPasswordReset: {
		html: `{{define "content"}}<h1>Reset your password</h1>
<p>Hi {{.username}},</p>
<p>Use the link below to choose a new password. It expires in {{.expiresInMinutes}} minutes.</p>
<p><a href="{{.resetLink}}">Reset password</a></p>
<p style="word-break: break-all; color: #666;">{{.resetLink}}</p>{{end}}`,
		text: `Hi {{.username}},

Use the link below to choose a new password. It expires in {{.expiresInMinutes}} minutes.

{{.resetLink}}
`,
	},
	domain.KindPasswordResetNotification: {
		html: `{{define "content"}}<h1>Your password was reset</h1>
<p>Hi {{.username}},</p>
<p>The password of your account was reset at {{.timestamp}} from {{.ip}} ({{.deviceInfo}}).</p>
<p>If this was not you, contact support immediately.</p>{{end}}`,
		text: `Hi {{.username}},

The password of your account was reset at {{.timestamp}} from {{.ip}} ({{.deviceInfo}}).

If this was not you, contact support immediately.
`,
	},
	domain.KindPasswordChangeNotification: {
		html: `{{define "content"}}<h1>Your password was changed</h1>
<p>Hi {{.username}},</p>
<table>
<tr><td>Time</td><td>{{.timestamp}}</td></tr>
<tr><td>IP address</td><td>{{.ip}}</td></tr>
<tr><td>Device</td><td>{{.deviceInfo}}</td></tr>
</table>
<p>If you did not make this change, reset your password right away.</p>{{end}}`,
		text: `Hi {{.username}},

Your password was changed.

Time:       {{.timestamp}}
IP address: {{.ip}}
Device:     {{.deviceInfo}}

If you did not make this change, reset your password right away.
`,
	},
	domain.KindSecurityAlert: {
		html: `{{define "content"}}<h1>Security alert</h1>
<p>Hi {{.username}},</p>
<p>We noticed the following activity on your account: <strong>{{.event}}</strong></p>
<p>{{.timestamp}} from {{.ip}} ({{.location}})</p>
<p>If this was not you, change your password and review your sessions.</p>{{end}}`,
		text: `Hi {{.username}},

We noticed the following activity on your account: {{.event}}
{{.timestamp}} from {{.ip}} ({{.location}})

If this was not you, change your password and review your sessions.
`,
	},
	domain.KindAdminNotification: {
		html: `{{define "content"}}<h1>{{.title}}</h1>
{{if .username}}<p>Hi {{.username}},</p>{{end}}
<p>{{.message}}</p>{{end}}`,
		text: `{{.title}}
{{if .username}}
Hi {{.username}},
{{end}}
{{.message}}
`,
	},
}
