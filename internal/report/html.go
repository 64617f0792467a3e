// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const reportCSS = `body{font-family:-apple-system,"Segoe UI",Helvetica,Arial,sans-serif;color:#1f2933;line-height:1.5;margin:0;padding:1.5rem;}
.report{max-width:960px;margin:0 auto;}
h1{border-bottom:2px solid #1d4ed8;padding-bottom:0.3rem;}
h2{margin-top:2rem;color:#1e3a8a;}
h3{margin-top:1.5rem;}
a{color:#1d4ed8;}
table{border-collapse:collapse;margin:0.75rem 0;font-size:0.85rem;}
th,td{border:1px solid #cbd5e1;padding:0.3rem 0.6rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;}
hr{border:0;border-top:1px solid #e2e8f0;margin:1.5rem 0;}
html,body,*{-webkit-print-color-adjust:exact;print-color-adjust:exact;}
@media print{@page{size:A4;margin:12mm;} body{padding:0;} h2{break-after:avoid;}}`

// HTML converts a Markdown report into a standalone HTML document. The
// converted body is sanitized since disease names and trial titles come
// from user input and the registry.
func HTML(title, markdown string) (string, error) {
	var body bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	safe := bluemonday.UGCPolicy().SanitizeBytes(body.Bytes())

	return "<!doctype html><html><head><meta charset='utf-8'>" +
		"<title>" + html.EscapeString(title) + "</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<main class='report'>" + string(safe) + "</main>" +
		"</body></html>", nil
}
