package models

import (
	"testing"

	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/stretchr/testify/assert"
)

func TestContentPayload(t *testing.T) {
	t.Run("IsEmpty", func(t *testing.T) {
		assert.True(t, ContentPayload(nil).IsEmpty())
		assert.True(t, ContentPayload(``).IsEmpty())
		assert.True(t, ContentPayload(`null`).IsEmpty())
		assert.True(t, ContentPayload(`""`).IsEmpty())
		assert.True(t, ContentPayload(`{}`).IsEmpty())
		assert.True(t, ContentPayload(`not json`).IsEmpty())

		assert.False(t, ContentPayload(`"https://x.example.com"`).IsEmpty())
		assert.False(t, ContentPayload(`{"url":"https://x.example.com"}`).IsEmpty())
		assert.False(t, ContentPayload(`[1,2]`).IsEmpty())
		assert.False(t, ContentPayload(`42`).IsEmpty())
	})

	t.Run("AsString", func(t *testing.T) {
		s, ok := ContentPayload(`"hello"`).AsString()
		assert.True(t, ok)
		assert.Equal(t, "hello", s)

		_, ok = ContentPayload(`{"a":1}`).AsString()
		assert.False(t, ok)
	})

	t.Run("StringField", func(t *testing.T) {
		p := ContentPayload(`{"url":"https://x.example.com","count":3}`)
		s, ok := p.StringField("url")
		assert.True(t, ok)
		assert.Equal(t, "https://x.example.com", s)

		_, ok = p.StringField("count")
		assert.False(t, ok)
		_, ok = p.StringField("missing")
		assert.False(t, ok)
	})
}

func TestDefaultRedirect(t *testing.T) {
	const fallback = "https://fallback.example.com"

	t.Run("ExplicitURLWins", func(t *testing.T) {
		v := &ContentVersion{
			RedirectURL: utils.ToPtr("https://explicit.example.com"),
			Content:     ContentPayload(`"https://payload.example.com"`),
		}
		assert.Equal(t, "https://explicit.example.com", v.DefaultRedirect(fallback))
	})

	t.Run("PlainStringPayload", func(t *testing.T) {
		v := &ContentVersion{Content: ContentPayload(`"https://payload.example.com"`)}
		assert.Equal(t, "https://payload.example.com", v.DefaultRedirect(fallback))
	})

	t.Run("URLField", func(t *testing.T) {
		v := &ContentVersion{Content: ContentPayload(`{"url":"https://field.example.com"}`)}
		assert.Equal(t, "https://field.example.com", v.DefaultRedirect(fallback))
	})

	t.Run("RedirectURLField", func(t *testing.T) {
		v := &ContentVersion{Content: ContentPayload(`{"redirect_url":"https://snake.example.com"}`)}
		assert.Equal(t, "https://snake.example.com", v.DefaultRedirect(fallback))

		v = &ContentVersion{Content: ContentPayload(`{"redirectUrl":"https://camel.example.com"}`)}
		assert.Equal(t, "https://camel.example.com", v.DefaultRedirect(fallback))
	})

	t.Run("Fallback", func(t *testing.T) {
		v := &ContentVersion{Content: ContentPayload(`{"headline":"hello"}`)}
		assert.Equal(t, fallback, v.DefaultRedirect(fallback))

		v = &ContentVersion{RedirectURL: utils.ToPtr("")}
		assert.Equal(t, fallback, v.DefaultRedirect(fallback))
	})
}
