package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"support-bot/model"
)

// DefaultSupportLabel names staff in transcripts when no label is configured.
const DefaultSupportLabel = "Chillaxy Support"

type transcriptLine struct {
	Staff    bool
	Author   string
	AuthorID string
	Initials string
	Avatar   string
	Time     string
	Content  string
}

type transcriptPage struct {
	ID        string
	Number    int
	OpenedBy  string
	ClaimedBy string
	ClosedBy  string
	OpenedAt  string
	ClosedAt  string
	Lines     []transcriptLine
}

var transcriptTemplate = template.Must(template.New("transcript").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Ticket {{.ID}}</title>
    <style>
      :root { color-scheme: dark; }
      body { margin: 0; font-family: "gg sans", "Segoe UI", Arial, sans-serif; background: #2b2d31; color: #f2f3f5; }
      .header { padding: 24px; background: #1e1f22; border-bottom: 1px solid #111214; }
      .header h1 { margin: 0 0 8px 0; font-size: 20px; font-weight: 700; }
      .meta-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 12px; font-size: 13px; }
      .meta-grid span { display: block; color: #b5bac1; margin-bottom: 4px; }
      .meta-grid strong { color: #f2f3f5; }
      .chat { padding: 16px 24px 32px 24px; display: flex; flex-direction: column; gap: 12px; }
      .msg { display: flex; gap: 12px; }
      .avatar { width: 36px; height: 36px; border-radius: 50%; background: #3b3f45; display: flex; align-items: center; justify-content: center; font-size: 12px; color: #b5bac1; overflow: hidden; }
      .avatar img { width: 100%; height: 100%; object-fit: cover; }
      .msg.staff .avatar { background: #3a4b7a; color: #dbe0ff; }
      .content { max-width: 900px; }
      .meta { display: flex; align-items: baseline; gap: 8px; margin-bottom: 4px; }
      .author { font-weight: 600; }
      .author-id { font-size: 12px; color: #b5bac1; }
      .timestamp { color: #949ba4; font-size: 12px; }
      .bubble { background: #313338; border: 1px solid #1f2023; border-radius: 10px; padding: 10px 12px; line-height: 1.5; white-space: pre-wrap; }
      .msg.staff .bubble { background: #2f3b57; border-color: #242c40; }
    </style>
  </head>
  <body>
    <div class="header">
      <h1>Ticket Transcript</h1>
      <div class="meta-grid">
        <div><span>Ticket ID</span><strong>#{{.Number}}</strong></div>
        <div><span>Opened By</span><strong>{{.OpenedBy}}</strong></div>
        <div><span>Claimed By</span><strong>{{.ClaimedBy}}</strong></div>
        <div><span>Closed By</span><strong>{{.ClosedBy}}</strong></div>
        <div><span>Opened At</span><strong>{{.OpenedAt}}</strong></div>
        <div><span>Closed At</span><strong>{{.ClosedAt}}</strong></div>
      </div>
    </div>
    <div class="chat">
{{- range .Lines}}
      <div class="msg {{if .Staff}}staff{{else}}user{{end}}">
        <div class="avatar">{{if .Avatar}}<img src="{{.Avatar}}" alt="avatar">{{else}}<span>{{.Initials}}</span>{{end}}</div>
        <div class="content">
          <div class="meta">
            <span class="author">{{.Author}}</span>
            <span class="author-id">{{.AuthorID}}</span>
            <span class="timestamp">{{.Time}}</span>
          </div>
          <div class="bubble">{{.Content}}</div>
        </div>
      </div>
{{- else}}
      <div class="bubble">No messages logged.</div>
{{- end}}
    </div>
  </body>
</html>
`))

func transcriptTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return model.FromMillis(ms).UTC().Format(time.DateTime + " MST")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func initials(name string) string {
	r := []rune(name)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

// TranscriptFileName is the attachment name of a ticket's transcript.
func TranscriptFileName(t model.Ticket) string {
	return "ticket-" + t.ID + ".html"
}

// TranscriptHTML renders the conversation of t as a standalone page. Message
// content is escaped by the template.
func TranscriptHTML(t model.Ticket, cfg model.GuildConfig) ([]byte, error) {
	supportName := cfg.SupportLabel
	if supportName == "" {
		supportName = DefaultSupportLabel
	}
	page := transcriptPage{
		ID:        t.ID,
		Number:    t.Number,
		OpenedBy:  fmt.Sprintf("%s (%s)", t.UserTag, t.UserID),
		ClaimedBy: orDash(t.ClaimedByTag),
		ClosedBy:  orDash(t.ClosedByTag),
		OpenedAt:  transcriptTime(t.OpenedAt),
		ClosedAt:  transcriptTime(t.ClosedAt),
	}
	for _, m := range t.Messages {
		line := transcriptLine{
			Staff:   m.From == model.FromStaff,
			Avatar:  m.AuthorAvatar,
			Time:    transcriptTime(m.Timestamp),
			Content: m.Content,
		}
		if line.Staff {
			line.Author = m.AuthorTag
			if line.Author == "" {
				line.Author = supportName
			}
			line.AuthorID = "Support"
			if m.AuthorID != "" && m.AuthorID != "support" {
				line.AuthorID = m.AuthorID
			}
		} else {
			line.Author = m.AuthorTag
			if line.Author == "" {
				line.Author = t.UserTag
			}
			line.AuthorID = m.AuthorID
			if line.AuthorID == "" {
				line.AuthorID = t.UserID
			}
		}
		line.Initials = initials(line.Author)
		page.Lines = append(page.Lines, line)
	}

	var buf bytes.Buffer
	if err := transcriptTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render transcript %s: %w", t.ID, err)
	}
	return buf.Bytes(), nil
}
