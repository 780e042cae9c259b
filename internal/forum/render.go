package forum

import (
	"bytes"
	"html/template"
	"sort"
)

// Empty is rendered when the forum opened but held no usable comment.
const Empty = `<div style="padding: 20px; text-align: center; color: #999; font-style: italic;">🔭 Nenhum comentário disponível no fórum</div>`

// Separator sits between the explanation and the forum on the back field.
const Separator = `<div style="margin: 30px 0; text-align: center;">` +
	`<hr style="border: none; border-top: 3px solid #2196F3; width: 80%; margin: 20px auto;"></div>`

// Vote colour bands.
const (
	colorPopular  = "#4CAF50"
	colorUseful   = "#2196F3"
	colorNeutral  = "#757575"
	colorNegative = "#F44336"
)

// VoteColor returns the accent colour for a vote count.
func VoteColor(votes int) string {
	switch {
	case votes > 100:
		return colorPopular
	case votes > 20:
		return colorUseful
	case votes >= 0:
		return colorNeutral
	default:
		return colorNegative
	}
}

var sectionTemplate = template.Must(template.New("forum").Parse(
	`<div class="forum-comentarios" style="font-family: Arial, sans-serif; margin-top: 20px;">` +
		`<h2 style="color: #2196F3; border-bottom: 3px solid #2196F3; padding-bottom: 8px; margin-bottom: 20px;">` +
		`💬 Comentários do Fórum ({{len .}} comentários)</h2>` +
		`{{range .}}` +
		`<div class="comentario" style="border-left: 4px solid {{.Color}}; padding: 15px; margin: 15px 0; background: #fafafa; border-radius: 6px; box-shadow: 0 1px 3px rgba(0,0,0,0.1);">` +
		`<div style="display: flex; align-items: center; margin-bottom: 12px;">` +
		`<img src="{{.Avatar}}" style="width: 40px; height: 40px; border-radius: 50%; margin-right: 12px; border: 2px solid #ddd;">` +
		`<div style="flex: 1;">` +
		`<div><strong style="color: #333; font-size: 15px;">{{.Name}}</strong>` +
		`{{if .Date}}<span style="color: #999; font-size: 12px; margin-left: 8px;">• {{.Date}}</span>{{end}}</div>` +
		`<div style="color: #666; font-size: 12px;">{{.Points}}</div>` +
		`</div>` +
		`<div style="background: {{.Color}}; color: white; padding: 6px 14px; border-radius: 20px; font-weight: bold; font-size: 13px; min-width: 50px; text-align: center;">⬆ {{.Votes}}</div>` +
		`</div>` +
		`<div style="line-height: 1.7; color: #333; font-size: 15px; word-wrap: break-word;">{{.Body}}</div>` +
		`</div>` +
		`{{end}}` +
		`</div>`))

// view is one comment as the template sees it.
type view struct {
	Color  template.CSS
	Avatar template.URL
	Name   string
	Date   string
	Points string
	Votes  string
	Body   template.HTML
}

// Render formats comments sorted by vote count, highest first. Ties keep
// page order. No comments renders Empty.
func Render(comments []Comment) (string, error) {
	if len(comments) == 0 {
		return Empty, nil
	}

	sorted := append([]Comment(nil), comments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score() > sorted[j].Score()
	})

	views := make([]view, 0, len(sorted))
	for _, c := range sorted {
		views = append(views, view{
			Color:  template.CSS(VoteColor(c.Score())),
			Avatar: template.URL(c.Author.Avatar),
			Name:   c.Author.Name,
			Date:   c.Date,
			Points: c.Author.Points,
			Votes:  c.Votes,
			Body:   template.HTML(c.Body),
		})
	}

	var buf bytes.Buffer
	if err := sectionTemplate.Execute(&buf, views); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// IsCaptured reports whether back-field forum content holds comments
// rather than the unavailable sentinel or the empty notice.
func IsCaptured(content string) bool {
	return content != "" && content != Unavailable && content != Empty
}
