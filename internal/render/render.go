// Package render печатает ветку комментариев в терминал.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/UkralStul/threaducate/internal/domain"
	"github.com/UkralStul/threaducate/internal/presentation"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const indentWidth = 4

// Options управляет выводом.
type Options struct {
	Width int
	// Markdown включает рендеринг тел через glamour. Иначе тело печатается как есть.
	Markdown bool
	// Style - стандартный стиль glamour ("auto", "dark", "light", "notty").
	Style string
}

// Renderer печатает треды в out. Стили lipgloss подбираются под out.
type Renderer struct {
	out   io.Writer
	width int
	md    *glamour.TermRenderer

	title  lipgloss.Style
	author lipgloss.Style
	muted  lipgloss.Style
	marker lipgloss.Style
	accent lipgloss.Style
	lg     *lipgloss.Renderer
}

// New создает Renderer. Ошибка возможна только при неизвестном стиле glamour.
func New(out io.Writer, opts Options) (*Renderer, error) {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	lg := lipgloss.NewRenderer(out)
	r := &Renderer{
		out:    out,
		width:  opts.Width,
		title:  lg.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#f5f5f5"}),
		author: lg.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#0b5394", Dark: "#6fa8dc"}),
		muted:  lg.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#777777", Dark: "#999999"}),
		marker: lg.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#38761d", Dark: "#93c47d"}),
		accent: lg.NewStyle().Italic(true).Foreground(lipgloss.AdaptiveColor{Light: "#b45f06", Dark: "#f6b26b"}),
		lg:     lg,
	}

	if opts.Markdown {
		style := opts.Style
		if style == "" {
			style = "auto"
		}
		var styleOpt glamour.TermRendererOption
		if style == "auto" {
			styleOpt = glamour.WithAutoStyle()
		} else {
			styleOpt = glamour.WithStandardStyle(style)
		}
		md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(opts.Width))
		if err != nil {
			return nil, fmt.Errorf("markdown renderer: %w", err)
		}
		r.md = md
	}
	return r, nil
}

// Thread печатает пост и видимые строки дерева.
func (r *Renderer) Thread(post *domain.Post, rows []presentation.Row) error {
	var sb strings.Builder

	sb.WriteString(r.title.Render(post.Title))
	sb.WriteString("\n")
	sb.WriteString(r.muted.Render(fmt.Sprintf("by %s · %d views · %d likes · %d comments",
		displayName(post.Author, post.AuthorID), post.ViewCount, post.LikeCount, post.CommentCount)))
	sb.WriteString("\n\n")

	body := post.MarkdownContent
	if body == "" {
		body = post.Content
	}
	text, err := r.markdown(body, r.width)
	if err != nil {
		return err
	}
	sb.WriteString(text)
	sb.WriteString("\n")

	if len(rows) == 0 {
		sb.WriteString("\n")
		sb.WriteString(r.muted.Render("No comments yet."))
		sb.WriteString("\n")
	}

	var replying *domain.Comment
	for _, row := range rows {
		s, err := r.row(row)
		if err != nil {
			return err
		}
		sb.WriteString("\n")
		sb.WriteString(s)
		sb.WriteString("\n")
		if row.Replying {
			replying = row.Comment
		}
	}

	if replying != nil {
		sb.WriteString("\n")
		sb.WriteString(r.accent.Render("Replying to @" + displayName(replying.Author, replying.AuthorID)))
		sb.WriteString("\n")
	}

	_, err = io.WriteString(r.out, sb.String())
	return err
}

func (r *Renderer) row(row presentation.Row) (string, error) {
	c := row.Comment
	var head strings.Builder

	head.WriteString(r.marker.Render(indicator(row)))
	head.WriteString(" ")
	head.WriteString(r.author.Render(displayName(c.Author, c.AuthorID)))
	head.WriteString(" ")
	head.WriteString(r.muted.Render(fmt.Sprintf("%s · %d likes", c.CreatedAt.Format("2006-01-02 15:04"), c.LikeCount)))
	if row.Replying {
		head.WriteString(" ")
		head.WriteString(r.accent.Render("[replying]"))
	}

	width := r.width - row.Depth*indentWidth
	if width < 20 {
		width = 20
	}
	text, err := r.markdown(c.Body(), width)
	if err != nil {
		return "", err
	}

	lines := []string{head.String(), text}
	if row.Expansion == presentation.Collapsed && row.ReplyCount > 0 {
		lines = append(lines, r.muted.Render(fmt.Sprintf("(%d %s hidden)", row.ReplyCount, plural(row.ReplyCount, "reply", "replies"))))
	}
	return r.lg.NewStyle().PaddingLeft(row.Depth * indentWidth).Render(strings.Join(lines, "\n")), nil
}

func (r *Renderer) markdown(src string, width int) (string, error) {
	if r.md == nil {
		return r.lg.NewStyle().Width(width).Render(strings.TrimSpace(src)), nil
	}
	out, err := r.md.Render(src)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}

func indicator(row presentation.Row) string {
	switch {
	case row.ReplyCount == 0:
		return "•"
	case row.Expansion == presentation.Collapsed:
		return "▶"
	default:
		return "▼"
	}
}

func displayName(p *domain.Profile, fallback string) string {
	if p == nil {
		return fallback
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
