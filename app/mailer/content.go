package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Content is the body of a transactional email: a greeting, a short intro,
// one call-to-action link and a closing line.
type Content struct {
	Product      string
	Name         string
	Intro        string
	Instructions string
	ButtonText   string
	ButtonColor  string
	Link         string
	Outro        string
}

const textBody = `Hi {{.Name}},

{{.Intro}}

{{.Instructions}}
{{.ButtonText}}: {{.Link}}

{{.Outro}}

{{.Product}}
`

const htmlBody = `<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #51545e;">
  <p>Hi {{.Name}},</p>
  <p>{{.Intro}}</p>
  <p>{{.Instructions}}</p>
  <p>
    <a href="{{.Link}}" style="background-color: {{.ButtonColor}}; color: #ffffff; padding: 10px 18px; border-radius: 3px; text-decoration: none;">{{.ButtonText}}</a>
  </p>
  <p style="font-size: 12px;">{{.Link}}</p>
  <p>{{.Outro}}</p>
  <p>{{.Product}}</p>
</body>
</html>
`

var (
	textTemplate = texttemplate.Must(texttemplate.New("text").Parse(textBody))
	htmlTemplate = htmltemplate.Must(htmltemplate.New("html").Parse(htmlBody))
)

// Render produces the plain-text and HTML bodies.
func (c Content) Render() (string, string, error) {
	var text bytes.Buffer
	if err := textTemplate.Execute(&text, c); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}

	var html bytes.Buffer
	if err := htmlTemplate.Execute(&html, c); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}

	return text.String(), html.String(), nil
}

func VerificationEmail(product, name, verifyURL string) Content {
	return Content{
		Product:      product,
		Name:         name,
		Intro:        fmt.Sprintf("Welcome to %s! We're very excited to have you on board.", product),
		Instructions: fmt.Sprintf("To get started with %s, please click here:", product),
		ButtonText:   "Verify your account",
		ButtonColor:  "#22BC66",
		Link:         verifyURL,
		Outro:        "Need help, or have questions? Just reply to this email, we'd love to help.",
	}
}

func PasswordResetEmail(product, name, resetURL string) Content {
	return Content{
		Product:      product,
		Name:         name,
		Intro:        "You have requested to reset your password.",
		Instructions: "To reset your password, please click here:",
		ButtonText:   "Reset your password",
		ButtonColor:  "#DC4D2F",
		Link:         resetURL,
		Outro:        "If you did not request a password reset, please ignore this email.",
	}
}
