package generator

import (
	"strings"

	"github.com/deskpilot/deskpilot/api/schemas"
	"github.com/deskpilot/deskpilot/internal/desktop"
)

// clauseSeparators split a multi-intent task ("play X and search for Y")
// into independently routed clauses.
var clauseSeparators = []string{" and ", " then ", " , ", " & "}

// playbackKeywords signal a YouTube playback or search intent.
var playbackKeywords = []string{"play", "song", "music", "youtube", "video"}

// intentPhrases, in priority order, are stripped from a clause to isolate
// the actual search term. Longer compounds come before the bare "play" so
// "play song despacito" loses "play song", not just "play".
var intentPhrases = []string{
	"play song",
	"play music",
	"search for",
	"find song",
	"listen to",
	"watch video",
	"play video",
	"play",
}

// Fallback is the deterministic rule-based generator used when the model is
// unavailable or returns garbage. The task is split into clauses and each
// clause is routed through a fixed priority of rules; an empty result means
// no rule matched anywhere.
func Fallback(task string) schemas.Sequence {
	var seq schemas.Sequence
	seenQueries := make(map[string]bool)

	// Autoplay is a property of the whole task, not of the clause that
	// happens to name the song: "listen to jazz and play despacito"
	// autoplays both searches.
	autoPlay := strings.Contains(strings.ToLower(task), "play")

	for _, clause := range splitClauses(task) {
		lower := strings.ToLower(clause)

		switch {
		case containsAny(lower, playbackKeywords):
			for _, term := range extractSearchTerms(clause) {
				if seenQueries[term] {
					continue
				}
				seenQueries[term] = true
				seq = append(seq, schemas.Instruction{
					Action: schemas.ActionWebSearch,
					Params: schemas.Params{
						"site":      "youtube",
						"query":     term,
						"auto_play": autoPlay,
					},
				})
			}

		case strings.Contains(lower, "google") && strings.Contains(lower, "search"):
			seq = append(seq, schemas.Instruction{
				Action: schemas.ActionWebSearch,
				Params: schemas.Params{
					"site":      "google",
					"query":     stripSearchKeywords(lower),
					"auto_play": false,
				},
			})

		case matchKnownApp(lower) != "":
			seq = append(seq, schemas.Instruction{
				Action: schemas.ActionOpenApp,
				Params: schemas.Params{
					"app":       matchKnownApp(lower),
					"wait_time": 3,
				},
			})

		case strings.Contains(lower, "screenshot"):
			seq = append(seq, schemas.Instruction{
				Action: schemas.ActionScreenshot,
				Params: schemas.Params{"filename": "screenshot.png"},
			})
		}
	}

	return seq
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// splitClauses breaks the task on the fixed separator set, preserving order.
func splitClauses(task string) []string {
	clauses := []string{strings.TrimSpace(task)}
	for _, sep := range clauseSeparators {
		var next []string
		for _, c := range clauses {
			if strings.Contains(strings.ToLower(c), sep) {
				for _, part := range splitInsensitive(c, sep) {
					if trimmed := strings.TrimSpace(part); trimmed != "" {
						next = append(next, trimmed)
					}
				}
			} else {
				next = append(next, c)
			}
		}
		clauses = next
	}
	return clauses
}

// splitInsensitive splits s on sep, matching case-insensitively while
// returning the original casing of each piece.
func splitInsensitive(s, sep string) []string {
	var parts []string
	lower := strings.ToLower(s)
	for {
		idx := strings.Index(lower, sep)
		if idx < 0 {
			parts = append(parts, s)
			return parts
		}
		parts = append(parts, s[:idx])
		s = s[idx+len(sep):]
		lower = lower[idx+len(sep):]
	}
}

// extractSearchTerms isolates what the user actually wants to search for
// inside one clause. The first matching intent phrase and any "on youtube"
// suffix are stripped; a clause yielding nothing falls back to the literal
// term "music".
func extractSearchTerms(clause string) []string {
	lower := strings.ToLower(clause)
	term := strings.TrimSpace(clause)

	for _, phrase := range intentPhrases {
		if strings.Contains(lower, phrase) {
			term = strings.Replace(lower, phrase, "", 1)
			term = strings.ReplaceAll(term, "on youtube", "")
			term = strings.ReplaceAll(term, "youtube", "")
			break
		}
	}

	term = strings.Join(strings.Fields(term), " ")
	if term == "" {
		return []string{"music"}
	}
	return []string{term}
}

// stripSearchKeywords removes the engine name, the "search" keyword, and
// connectives from a google-search clause, leaving the residual query.
func stripSearchKeywords(lower string) string {
	q := strings.ReplaceAll(lower, "on google", "")
	q = strings.ReplaceAll(q, "google", "")
	q = strings.ReplaceAll(q, "search", "")
	// Only the connective "for", not "for" inside a word.
	fields := strings.Fields(q)
	out := fields[:0]
	for _, f := range fields {
		if f == "for" && len(out) == 0 {
			// Leading connective from "search for X".
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// matchKnownApp returns the canonical app alias referenced by the clause, or
// "" when none is.
func matchKnownApp(lower string) string {
	for _, alias := range []string{"calculator", "calc", "notepad", "editor", "paint", "files", "explorer"} {
		if strings.Contains(lower, alias) && desktop.KnownApp(alias) {
			return alias
		}
	}
	return ""
}
