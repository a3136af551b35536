// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/olegiv/ocms-community/internal/model"
)

// ErrBodyInvalid is returned for bodies that are not a list of valid blocks.
var ErrBodyInvalid = errors.New("invalid page body")

// richTextElements are the only elements kept in rich text blocks.
var richTextElements = []string{
	"h1", "h2", "h3", "ol", "ul", "li", "hr", "blockquote",
	"sup", "sub", "s", "strong", "b", "em", "i", "p", "br",
}

// BodyRenderer normalizes page bodies on save and renders them to HTML.
type BodyRenderer struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewBodyRenderer creates a renderer with the rich text policy.
func NewBodyRenderer() *BodyRenderer {
	p := bluemonday.NewPolicy()
	p.AllowElements(richTextElements...)
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnFullyQualifiedLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &BodyRenderer{
		policy:   p,
		markdown: goldmark.New(goldmark.WithExtensions(extension.Strikethrough)),
	}
}

// SanitizeRichText applies the rich text policy.
func (r *BodyRenderer) SanitizeRichText(s string) string {
	return r.policy.Sanitize(s)
}

// Prepare parses a submitted body, converts markdown blocks to rich text,
// sanitizes rich text and checks embed URLs. It returns the blocks ready to
// store and the ids of referenced images.
func (r *BodyRenderer) Prepare(raw string) ([]model.Block, []int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, nil
	}
	blocks, err := model.ParseBody(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBodyInvalid, err)
	}

	out := make([]model.Block, 0, len(blocks))
	var imageIDs []int64
	for i, b := range blocks {
		switch b.Type {
		case model.BlockRichText, model.BlockMarkdown:
			text, err := b.TextValue()
			if err != nil {
				return nil, nil, fmt.Errorf("%w: block %d: %v", ErrBodyInvalid, i, err)
			}
			if b.Type == model.BlockMarkdown {
				var buf bytes.Buffer
				if err := r.markdown.Convert([]byte(text), &buf); err != nil {
					return nil, nil, fmt.Errorf("%w: block %d: %v", ErrBodyInvalid, i, err)
				}
				text = buf.String()
			}
			text = strings.TrimSpace(r.SanitizeRichText(text))
			if text == "" {
				continue
			}
			out = append(out, model.NewTextBlock(model.BlockRichText, text))
		case model.BlockImage:
			id, err := b.ImageID()
			if err != nil || id <= 0 {
				return nil, nil, fmt.Errorf("%w: block %d: bad image id", ErrBodyInvalid, i)
			}
			imageIDs = append(imageIDs, id)
			out = append(out, model.NewImageBlock(id))
		case model.BlockEmbed:
			text, err := b.TextValue()
			if err != nil {
				return nil, nil, fmt.Errorf("%w: block %d: %v", ErrBodyInvalid, i, err)
			}
			text = strings.TrimSpace(text)
			if !isHTTPURL(text) {
				return nil, nil, fmt.Errorf("%w: block %d: embed needs an http(s) URL", ErrBodyInvalid, i)
			}
			out = append(out, model.NewTextBlock(model.BlockEmbed, text))
		}
	}
	return out, imageIDs, nil
}

// ImageResolver returns the display URL and alt text of an image, or false
// when it no longer exists.
type ImageResolver func(id int64) (src, alt string, ok bool)

// Render turns stored blocks into HTML. Image blocks whose image is gone
// are skipped.
func (r *BodyRenderer) Render(blocks []model.Block, images ImageResolver) template.HTML {
	var sb strings.Builder
	for _, b := range blocks {
		switch b.Type {
		case model.BlockRichText:
			text, err := b.TextValue()
			if err != nil {
				continue
			}
			sb.WriteString(`<div class="block-rich-text">`)
			sb.WriteString(r.SanitizeRichText(text))
			sb.WriteString("</div>\n")
		case model.BlockImage:
			id, err := b.ImageID()
			if err != nil || images == nil {
				continue
			}
			src, alt, ok := images(id)
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, `<figure class="block-image"><img src="%s" alt="%s" loading="lazy"></figure>`+"\n",
				html.EscapeString(src), html.EscapeString(alt))
		case model.BlockEmbed:
			text, err := b.TextValue()
			if err != nil {
				continue
			}
			sb.WriteString(renderEmbed(text))
		}
	}
	// All user content above passed the sanitizer or html.EscapeString.
	return template.HTML(sb.String()) //nolint:gosec
}

var (
	youtubeID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)
	vimeoID   = regexp.MustCompile(`^\d{3,12}$`)
)

// EmbedURL returns the player URL for a YouTube or Vimeo link, or "" for
// other providers.
func EmbedURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.Trim(u.Path, "/")

	switch host {
	case "youtube.com", "m.youtube.com":
		id := u.Query().Get("v")
		if id == "" {
			if rest, ok := strings.CutPrefix(path, "embed/"); ok {
				id = rest
			} else if rest, ok := strings.CutPrefix(path, "shorts/"); ok {
				id = rest
			}
		}
		if youtubeID.MatchString(id) {
			return "https://www.youtube-nocookie.com/embed/" + id
		}
	case "youtu.be":
		if youtubeID.MatchString(path) {
			return "https://www.youtube-nocookie.com/embed/" + path
		}
	case "vimeo.com", "player.vimeo.com":
		id := strings.TrimPrefix(path, "video/")
		if vimeoID.MatchString(id) {
			return "https://player.vimeo.com/video/" + id
		}
	}
	return ""
}

func renderEmbed(raw string) string {
	if player := EmbedURL(raw); player != "" {
		return fmt.Sprintf(`<div class="block-embed"><iframe src="%s" title="video" loading="lazy" `+
			`allow="fullscreen; picture-in-picture" allowfullscreen></iframe></div>`+"\n", html.EscapeString(player))
	}
	if !isHTTPURL(raw) {
		return ""
	}
	esc := html.EscapeString(raw)
	return fmt.Sprintf(`<p class="block-embed"><a href="%s" rel="nofollow noopener" target="_blank">%s</a></p>`+"\n", esc, esc)
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
