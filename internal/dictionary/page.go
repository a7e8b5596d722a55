// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dictionary

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/cefr-vocab/pkg/types"
)

// Selectors for the learner's dictionary entry markup.
const (
	headwordSelector = "h1.headword"
	posSelector      = "span.pos"
	nearbySelector   = ".responsive_row.nearby ul.list-col li"
	senseSelector    = "li.sense"
	defSelector      = "span.def"
	thumbSelector    = "img.thumb"

	primaryLevelAttr   = "cefr"
	secondaryLevelAttr = "fkcefr"
)

// Heading is the headword and part of speech an entry page declares.
type Heading struct {
	Headword     string
	PartOfSpeech string
}

// ParseHeading reads the first headword and part-of-speech label on the
// page. ok is false when either is missing.
func ParseHeading(doc *goquery.Document) (h Heading, ok bool) {
	hw := doc.Find(headwordSelector).First()
	pos := doc.Find(posSelector).First()
	if hw.Length() == 0 || pos.Length() == 0 {
		return Heading{}, false
	}
	return Heading{
		Headword:     strings.TrimSpace(hw.Text()),
		PartOfSpeech: strings.TrimSpace(pos.Text()),
	}, true
}

// Matches reports whether h names word as pos.
func (h Heading) Matches(word, pos string) bool {
	return SameWord(h.Headword, word) && SamePartOfSpeech(h.PartOfSpeech, pos)
}

// NearbyWord is one entry of the "nearby words" list on an entry page.
type NearbyWord struct {
	Word         string
	PartOfSpeech string

	// Href is the link as written in the page, possibly relative.
	Href string
}

// NearbyWords lists the nearby-words entries in page order. Items without a
// headword element or a link are skipped.
func NearbyWords(doc *goquery.Document) []NearbyWord {
	var out []NearbyWord
	doc.Find(nearbySelector).Each(func(_ int, li *goquery.Selection) {
		data := li.Find("data.hwd").First()
		if data.Length() == 0 {
			return
		}
		href, ok := li.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		out = append(out, NearbyWord{
			Word:         joinedText(data, "pos"),
			PartOfSpeech: joinedText(data.Find("pos").First(), ""),
			Href:         strings.TrimSpace(href),
		})
	})
	return out
}

// ExtractSenses reads every sense on the page. Senses without a definition
// are skipped. The level comes from the primary attribute, then the
// secondary one, and is LevelUnspecified when neither is set.
func ExtractSenses(doc *goquery.Document) []types.Sense {
	var out []types.Sense
	doc.Find(senseSelector).Each(func(_ int, s *goquery.Selection) {
		def := s.Find(defSelector).First()
		if def.Length() == 0 {
			return
		}

		sense := types.Sense{Definition: strings.TrimSpace(def.Text())}
		if src, ok := s.Find(thumbSelector).First().Attr("src"); ok {
			sense.ImageURL = &src
		}
		sense.Level, sense.Source = senseLevel(s)
		out = append(out, sense)
	})
	return out
}

func senseLevel(s *goquery.Selection) (types.CEFRLevel, types.LevelSource) {
	if v, ok := s.Attr(primaryLevelAttr); ok && v != "" {
		return types.CEFRLevel(strings.ToUpper(strings.TrimSpace(v))), types.LevelFromPrimary
	}
	if v, ok := s.Attr(secondaryLevelAttr); ok {
		return types.CEFRLevel(strings.ToUpper(strings.TrimSpace(v))), types.LevelFromSecondary
	}
	return types.LevelUnspecified, types.LevelFromNone
}

// joinedText joins the trimmed, non-empty text nodes under sel with single
// spaces, leaving out any element named skip.
func joinedText(sel *goquery.Selection, skip string) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch name := goquery.NodeName(c); {
			case name == "#text":
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
			case skip != "" && name == skip:
			default:
				walk(c)
			}
		})
	}
	walk(sel)
	return strings.Join(parts, " ")
}
