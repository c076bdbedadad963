package templates

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBrand = Brand{
	Name:      "Nexulsly",
	SiteURL:   "https://nexulsly.com",
	Location:  "Toronto, ON",
	FromEmail: "hello@nexulsly.ca",
}

func TestProjectLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"web-development", "Web Development"},
		{"ui-ux-design", "UI/UX Design"},
		{"performance-optimization", "Performance Optimization"},
		{"consulting", "Consulting"},
		{"mobile-app", "Mobile App"},
		{"ecommerce", "Ecommerce"},
		{"éclairage-intérieur", "Éclairage Intérieur"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectLabel(tt.in))
		})
	}
}

func TestRenderConfirmation(t *testing.T) {
	out, err := RenderConfirmation(ConfirmationData{
		Brand:       testBrand,
		Name:        "Ada Lovelace",
		ProjectType: "web-development",
	})
	require.NoError(t, err)

	assert.Equal(t, "Thank you for your Web Development inquiry - We'll be in touch soon!", out.Subject)
	assert.Contains(t, out.HTML, "Thank You, Ada Lovelace!")
	assert.Contains(t, out.HTML, `href="https://nexulsly.com"`)
	assert.Contains(t, out.Text, "Hi Ada Lovelace,")
	assert.Contains(t, out.Text, "Web Development inquiry")
	assert.Contains(t, out.Text, "Email: hello@nexulsly.ca")
}

func TestRenderConfirmation_EscapesName(t *testing.T) {
	out, err := RenderConfirmation(ConfirmationData{
		Brand:       testBrand,
		Name:        `<script>alert("x")</script>`,
		ProjectType: "consulting",
	})
	require.NoError(t, err)

	assert.NotContains(t, out.HTML, "<script>")
	assert.Contains(t, out.HTML, "&lt;script&gt;")
}

func TestRenderInternalNotice(t *testing.T) {
	receivedAt := time.Date(2026, time.March, 4, 15, 30, 0, 0, time.UTC)
	data := NoticeData{
		Brand:       testBrand,
		FirstName:   "Grace",
		LastName:    "Hopper",
		Email:       "grace@example.com",
		ProjectType: "ui-ux-design",
		Message:     "We need a redesign.\nBudget is flexible & timeline is short.",
		ReceivedAt:  receivedAt,
	}

	out, err := RenderInternalNotice(data)
	require.NoError(t, err)

	assert.Equal(t, "🚨 New UI/UX Design Inquiry: Grace Hopper", out.Subject)
	assert.Contains(t, out.HTML, `href="mailto:grace@example.com"`)
	assert.Contains(t, out.HTML, "Budget is flexible &amp; timeline is short.")
	assert.Contains(t, out.HTML, "March 4, 2026 at 3:30 PM UTC")
	assert.Contains(t, out.Text, "Name: Grace Hopper")
	assert.Contains(t, out.Text, "We need a redesign.\nBudget is flexible & timeline is short.")
	assert.Contains(t, out.Text, "Received: March 4, 2026 at 3:30 PM UTC")

	again, err := RenderInternalNotice(data)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestRenderInternalNotice_EscapesMessage(t *testing.T) {
	out, err := RenderInternalNotice(NoticeData{
		Brand:       testBrand,
		FirstName:   "Mallory",
		LastName:    "<b>Evil</b>",
		Email:       "mallory@example.com",
		ProjectType: "consulting",
		Message:     `<img src=x onerror="alert(1)">`,
		ReceivedAt:  time.Unix(0, 0).UTC(),
	})
	require.NoError(t, err)

	assert.NotContains(t, out.HTML, "<img")
	assert.NotContains(t, out.HTML, "<b>Evil</b>")
	assert.Contains(t, out.HTML, "&lt;img")
}

func TestRenderInternalNotice_NonASCIIProjectType(t *testing.T) {
	out, err := RenderInternalNotice(NoticeData{
		Brand:       testBrand,
		FirstName:   "Zoë",
		LastName:    "Ñ",
		Email:       "zoe@example.com",
		ProjectType: "été",
		Message:     "Bonjour, nous avons un projet.",
		ReceivedAt:  time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(out.Subject))
	assert.True(t, utf8.ValidString(out.HTML))
	assert.True(t, utf8.ValidString(out.Text))
	assert.Contains(t, out.Subject, "New Été Inquiry: Zoë Ñ")
}
