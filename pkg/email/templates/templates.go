package templates

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
	"unicode"
	"unicode/utf8"
)

// Rendered is a subject plus both bodies, ready for a Sender.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Brand identifies the agency in message copy.
type Brand struct {
	Name      string // e.g. "Nexulsly"
	SiteURL   string
	Location  string
	FromEmail string
}

// ConfirmationData personalizes the thank-you message sent to the submitter.
type ConfirmationData struct {
	Brand       Brand
	Name        string
	ProjectType string
}

// NoticeData is everything the team sees about a new lead.
type NoticeData struct {
	Brand       Brand
	FirstName   string
	LastName    string
	Email       string
	ProjectType string
	Message     string
	ReceivedAt  time.Time
}

const receivedAtLayout = "January 2, 2006 at 3:04 PM MST"

var knownProjectLabels = map[string]string{
	"web-development":          "Web Development",
	"ui-ux-design":             "UI/UX Design",
	"performance-optimization": "Performance Optimization",
	"consulting":               "Consulting",
}

// ProjectLabel turns a project type slug into display text. Unknown slugs are
// title-cased word by word.
func ProjectLabel(projectType string) string {
	if label, ok := knownProjectLabels[projectType]; ok {
		return label
	}
	words := strings.FieldsFunc(projectType, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	if len(words) == 0 {
		return projectType
	}
	return strings.Join(words, " ")
}

// RenderConfirmation builds the thank-you message addressed to the submitter.
func RenderConfirmation(data ConfirmationData) (Rendered, error) {
	view := confirmationView{
		ConfirmationData: data,
		ProjectLabel:     ProjectLabel(data.ProjectType),
	}

	html, err := executeHTML(confirmationHTML, view)
	if err != nil {
		return Rendered{}, fmt.Errorf("failed to execute confirmation template: %w", err)
	}
	text, err := executeText(confirmationText, view)
	if err != nil {
		return Rendered{}, fmt.Errorf("failed to execute confirmation text template: %w", err)
	}

	return Rendered{
		Subject: fmt.Sprintf("Thank you for your %s inquiry - We'll be in touch soon!", view.ProjectLabel),
		HTML:    html,
		Text:    text,
	}, nil
}

// RenderInternalNotice builds the new-lead notification for the team.
func RenderInternalNotice(data NoticeData) (Rendered, error) {
	view := noticeView{
		NoticeData:   data,
		FullName:     strings.TrimSpace(data.FirstName + " " + data.LastName),
		ProjectLabel: ProjectLabel(data.ProjectType),
		Received:     data.ReceivedAt.Format(receivedAtLayout),
	}

	html, err := executeHTML(noticeHTML, view)
	if err != nil {
		return Rendered{}, fmt.Errorf("failed to execute notice template: %w", err)
	}
	text, err := executeText(noticeText, view)
	if err != nil {
		return Rendered{}, fmt.Errorf("failed to execute notice text template: %w", err)
	}

	return Rendered{
		Subject: fmt.Sprintf("🚨 New %s Inquiry: %s", view.ProjectLabel, view.FullName),
		HTML:    html,
		Text:    text,
	}, nil
}

type confirmationView struct {
	ConfirmationData
	ProjectLabel string
}

type noticeView struct {
	NoticeData
	FullName     string
	ProjectLabel string
	Received     string
}

func executeHTML(tmpl *htmltemplate.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func executeText(tmpl *texttemplate.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var confirmationHTML = htmltemplate.Must(htmltemplate.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Thank You for Contacting {{.Brand.Name}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; background-color: #f8fafc; }
        .container { max-width: 600px; margin: 0 auto; background: white; border-radius: 12px; overflow: hidden; }
        .header { background: linear-gradient(135deg, #3b82f6 0%, #8b5cf6 100%); color: white; padding: 40px 30px; text-align: center; }
        .content { padding: 40px 30px; }
        .button { display: inline-block; background: #3b82f6; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold; }
        .footer { background: #f8fafc; padding: 30px; text-align: center; border-top: 1px solid #e2e8f0; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Thank You, {{.Name}}!</h1>
            <p>We've received your {{.ProjectLabel}} inquiry and will get back to you soon.</p>
        </div>
        <div class="content">
            <h2>What happens next?</h2>
            <ul>
                <li><strong>Review:</strong> Our team will review your {{.ProjectLabel}} requirements within 24 hours</li>
                <li><strong>Response:</strong> We'll get back to you within 1-2 business days</li>
                <li><strong>Follow-up:</strong> If needed, we'll schedule a call to discuss your project</li>
            </ul>
            <p>If you have any urgent questions, feel free to reply to this email.</p>
            {{if .Brand.SiteURL}}<a href="{{.Brand.SiteURL}}" class="button">Visit Our Website</a>{{end}}
        </div>
        <div class="footer">
            <p><strong>{{.Brand.Name}} Digital Solutions</strong><br>
            {{if .Brand.Location}}{{.Brand.Location}}<br>{{end}}
            Email: {{.Brand.FromEmail}}</p>
            <p style="font-size: 12px; color: #64748b;">This email was sent because you contacted us through our website. If you didn't expect this email, please ignore it.</p>
        </div>
    </div>
</body>
</html>`))

var confirmationText = texttemplate.Must(texttemplate.New("confirmation").Parse(`Hi {{.Name}},

Thank you for reaching out to {{.Brand.Name}}! We've received your {{.ProjectLabel}} inquiry and our team will review it within 24 hours.

We'll get back to you within 1-2 business days to discuss how we can help.

Best regards,
The {{.Brand.Name}} Team

{{.Brand.Name}} Digital Solutions
{{if .Brand.Location}}{{.Brand.Location}}
{{end}}Email: {{.Brand.FromEmail}}
`))

var noticeHTML = htmltemplate.Must(htmltemplate.New("notice").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>New Contact Form Submission</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; background-color: #f8fafc; }
        .container { max-width: 600px; margin: 0 auto; background: white; border-radius: 12px; overflow: hidden; }
        .header { background: linear-gradient(135deg, #ef4444 0%, #f97316 100%); color: white; padding: 30px; text-align: center; }
        .content { padding: 30px; }
        .field { margin: 15px 0; padding: 15px; background: #f8fafc; border-radius: 8px; border-left: 3px solid #3b82f6; }
        .message-content { white-space: pre-wrap; }
        .metadata { background: #fef3c7; padding: 15px; border-radius: 8px; margin: 20px 0; font-size: 14px; }
        .action { margin-top: 30px; padding: 20px; background: #dcfce7; border-radius: 8px; border-left: 4px solid #16a34a; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>New Contact Form Submission</h1>
            <p>A potential client has reached out through the website</p>
        </div>
        <div class="content">
            <div class="field"><strong>Name:</strong> {{.FullName}}</div>
            <div class="field"><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></div>
            <div class="field"><strong>Project Type:</strong> {{.ProjectLabel}}</div>
            <div class="field"><strong>Message:</strong><div class="message-content">{{.Message}}</div></div>
            <div class="metadata">
                <strong>Received:</strong> {{.Received}}<br>
                <strong>Source:</strong> Contact Form{{if .Brand.SiteURL}} ({{.Brand.SiteURL}}){{end}}
            </div>
            <p class="action"><strong>Action Required:</strong> Please respond to this inquiry within 24 hours.</p>
        </div>
    </div>
</body>
</html>`))

var noticeText = texttemplate.Must(texttemplate.New("notice").Parse(`New contact form submission:

Name: {{.FullName}}
Email: {{.Email}}
Project Type: {{.ProjectLabel}}

Message:
{{.Message}}

Received: {{.Received}}
Source: Contact Form{{if .Brand.SiteURL}} ({{.Brand.SiteURL}}){{end}}

Please respond within 24 hours.
`))
