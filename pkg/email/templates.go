package email

import "html/template"

// Template names known to Render.
const (
	TemplateSignup         = "signup"
	TemplateForgotPassword = "forgot-password"
)

var templates = template.Must(template.New(TemplateSignup).Option("missingkey=zero").Parse(`<!DOCTYPE html>
<html>
<body style="font-family:Arial,Helvetica,sans-serif;">
  <h2>Welcome, {{.first_name}}!</h2>
  <p>Your account has been created. You can sign in at any time:</p>
  <p><a href="{{.login_url}}">Sign in</a></p>
</body>
</html>`))

func init() {
	template.Must(templates.New(TemplateForgotPassword).Parse(`<!DOCTYPE html>
<html>
<body style="font-family:Arial,Helvetica,sans-serif;">
  <h2>Password reset</h2>
  <p>Hello {{.first_name}}, we received a request to reset your password.</p>
  <p><a href="{{.reset_url}}">Choose a new password</a></p>
  <p>The link expires in {{.expires_in}}. If you did not ask for a reset you can ignore this email.</p>
</body>
</html>`))
}
