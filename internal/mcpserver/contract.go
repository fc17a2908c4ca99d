package mcpserver

// VaultFormatContract describes how synced content appears in the vault so
// LLM consumers can read daily notes and add syncable todos by hand.
const VaultFormatContract = `# Echovault Vault Format

Captures and todos are written into Markdown daily notes under
` + "`" + `{daily_folder}/{yyyy}/{yyyy-mm-dd}.md` + "`" + `.

## Daily note skeleton

` + "```" + `markdown
---
type: daily
status: active
date: 2025-01-20
---

# 2025-01-20

## 🎙️ Captures

## ✅ Todos

## 🤖 Automation
` + "```" + `

The headers are configurable. Content under the todo header is replaced on
every sync; never edit it by hand.

## Captures

Each capture is appended under the capture header and ends with a marker:

` + "```" + `markdown
- **09:15** Buy milk #shopping
  📍 Main St
  #📼 42
` + "```" + `

The marker ` + "`" + `#📼 <id>` + "`" + ` ties the text to the server capture. Older notes
may carry ` + "`" + `<!-- echo-id:<id> -->` + "`" + ` instead. A capture is never written twice.

Meeting captures get their own note under ` + "`" + `{meeting_folder}` + "`" + ` and a
wikilink from the daily note.

## Todos

Any checklist line that contains the 🎤 emblem is synced with the server:

` + "```" + `markdown
- [ ] Review PR 🎤
- [x] 🎤 Call mom #📼t 7
` + "```" + `

- A line with the emblem and no marker is created on the server, then the
  marker ` + "`" + `#📼t <id>` + "`" + ` is appended to the line.
- Checking or unchecking a linked emblem line pushes the new state on the next sync.
- Lines in the todo section carry no emblem and are never pushed back; check
  the original emblem line or complete the todo on the server.
- Open server todos are listed under today's todo header.
- Do not edit or remove markers.
`
