package detect

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"subsweep/internal/model"
)

// Match is the result of a successful link extraction.
type Match struct {
	Link string // URL, or a bare address when the match was a mailto
	Rule string // name of the rule that produced it
}

type anchor struct {
	href string
	text string
}

// linkInput carries what the rules look at. Anchors are parsed once, on
// first use.
type linkInput struct {
	msg     model.RawMessage
	body    string
	parsed  bool
	anchors []anchor
}

func (in *linkInput) links() []anchor {
	if in.parsed {
		return in.anchors
	}
	in.parsed = true
	if !strings.Contains(strings.ToLower(in.body), "<a") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in.body))
	if err != nil {
		return nil
	}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		in.anchors = append(in.anchors, anchor{href: href, text: s.Text()})
	})
	return in.anchors
}

type linkRule struct {
	name  string
	match func(in *linkInput) string
}

var (
	headerURL      = regexp.MustCompile(`(?i)<(https?://[^>]+)>`)
	labelLink      = regexp.MustCompile(`(?i)unsubscribe\s*link:\s*(https?://[^\s<>"]+)`)
	labelClickHere = regexp.MustCompile(`(?i)click\s*here\s*to\s*unsubscribe:\s*(https?://[^\s<>"]+)`)
	labelGeneric   = regexp.MustCompile(`(?i)(?:unsubscribe|opt-out|manage preferences|email preferences)(?:\s*:\s*|\s+)(https?://[^\s<>"]+)`)
	mailtoUnsub    = regexp.MustCompile(`(?i)mailto:unsubscribe@[^\s<>"'?&]+`)
)

var preferenceKeywords = []string{
	"preferences",
	"email-preferences",
	"manage-subscription",
	"subscription-preferences",
	"pref",
	"manage",
}

// linkRules is evaluated in order; the first non-empty match wins. Header
// signal first, explicit anchor/label text next, broad substrings last.
var linkRules = []linkRule{
	{"list-unsubscribe-header", func(in *linkInput) string {
		v, ok := in.msg.Header("List-Unsubscribe")
		if !ok {
			return ""
		}
		return submatch(headerURL, v)
	}},
	{"anchor-text", func(in *linkInput) string {
		for _, a := range in.links() {
			if strings.Contains(strings.ToLower(a.text), "unsubscribe") {
				return a.href
			}
		}
		return ""
	}},
	{"label-unsubscribe-link", func(in *linkInput) string {
		return submatch(labelLink, in.body)
	}},
	{"label-click-here", func(in *linkInput) string {
		return submatch(labelClickHere, in.body)
	}},
	{"anchor-href-unsubscribe", func(in *linkInput) string {
		return hrefContaining(in.links(), "unsubscribe")
	}},
	{"anchor-href-preferences", func(in *linkInput) string {
		anchors := in.links()
		for _, kw := range preferenceKeywords {
			if href := hrefContaining(anchors, kw); href != "" {
				return href
			}
		}
		return ""
	}},
	{"label-generic", func(in *linkInput) string {
		return submatch(labelGeneric, in.body)
	}},
	{"mailto", func(in *linkInput) string {
		return mailtoUnsub.FindString(in.body)
	}},
}

// ExtractLink runs the rule cascade over msg's headers and its decoded body.
// A mailto: scheme is stripped, leaving a bare address. ok is false when no
// rule matched.
func ExtractLink(msg model.RawMessage, body string) (Match, bool) {
	in := &linkInput{msg: msg, body: body}
	for _, r := range linkRules {
		if v := strings.TrimSpace(r.match(in)); v != "" {
			return Match{Link: stripMailto(v), Rule: r.name}, true
		}
	}
	return Match{}, false
}

func submatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func hrefContaining(anchors []anchor, substr string) string {
	for _, a := range anchors {
		lower := strings.ToLower(a.href)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			continue
		}
		if strings.Contains(lower, substr) {
			return a.href
		}
	}
	return ""
}

func stripMailto(v string) string {
	if len(v) >= len("mailto:") && strings.EqualFold(v[:len("mailto:")], "mailto:") {
		return v[len("mailto:"):]
	}
	return v
}
