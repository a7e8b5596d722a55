// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dictionary

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cefr-vocab/pkg/types"
)

const bankNounPage = `<html><body>
<div class="webtop">
  <h1 class="headword">bank</h1> <span class="pos">noun</span>
</div>
<ol class="senses_multiple">
  <li class="sense" cefr="a2">
    <span class="def">an organization that provides various financial services</span>
    <img class="thumb" src="https://example.com/media/bank.png">
  </li>
  <li class="sense" fkcefr="b2"><span class="def"> the side of a river </span></li>
  <li class="sense"><span class="def">a row of similar objects</span></li>
  <li class="sense" cefr="c1"><span class="xr">see also</span></li>
  <li class="sense" cefr="" fkcefr="b1"><span class="def">a supply of money</span></li>
</ol>
<div class="responsive_row nearby">
  <ul class="list-col">
    <li><a href="/definition/english/banknote"><data class="hwd">banknote<pos>noun</pos></data></a></li>
    <li><a href="/definition/english/bank_3"><data class="hwd">bank <pos> verb </pos></data></a></li>
    <li><span>no headword here</span></li>
    <li><data class="hwd">unlinked<pos>noun</pos></data></li>
  </ul>
</div>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseHeading(t *testing.T) {
	h, ok := ParseHeading(mustDoc(t, bankNounPage))
	require.True(t, ok)
	assert.Equal(t, Heading{Headword: "bank", PartOfSpeech: "noun"}, h)
	assert.True(t, h.Matches("bank", "noun"))
	assert.True(t, h.Matches("bank", "Noun"))
	assert.False(t, h.Matches("Bank", "noun"))
	assert.False(t, h.Matches("bank", "verb"))
}

func TestParseHeadingMissingMarkup(t *testing.T) {
	_, ok := ParseHeading(mustDoc(t, `<h1 class="headword">bank</h1>`))
	assert.False(t, ok)

	_, ok = ParseHeading(mustDoc(t, `<span class="pos">noun</span>`))
	assert.False(t, ok)
}

func TestNearbyWords(t *testing.T) {
	got := NearbyWords(mustDoc(t, bankNounPage))
	assert.Equal(t, []NearbyWord{
		{Word: "banknote", PartOfSpeech: "noun", Href: "/definition/english/banknote"},
		{Word: "bank", PartOfSpeech: "verb", Href: "/definition/english/bank_3"},
	}, got)
}

func TestExtractSenses(t *testing.T) {
	senses := ExtractSenses(mustDoc(t, bankNounPage))
	require.Len(t, senses, 4)

	assert.Equal(t, "an organization that provides various financial services", senses[0].Definition)
	require.NotNil(t, senses[0].ImageURL)
	assert.Equal(t, "https://example.com/media/bank.png", *senses[0].ImageURL)
	assert.Equal(t, types.LevelA2, senses[0].Level)
	assert.Equal(t, types.LevelFromPrimary, senses[0].Source)

	assert.Equal(t, "the side of a river", senses[1].Definition)
	assert.Nil(t, senses[1].ImageURL)
	assert.Equal(t, types.LevelB2, senses[1].Level)
	assert.Equal(t, types.LevelFromSecondary, senses[1].Source)

	assert.Equal(t, types.LevelUnspecified, senses[2].Level)
	assert.Equal(t, types.LevelFromNone, senses[2].Source)

	// An empty primary attribute falls back to the secondary one.
	assert.Equal(t, types.LevelB1, senses[3].Level)
	assert.Equal(t, types.LevelFromSecondary, senses[3].Source)
}

func TestExtractSensesEmptyPage(t *testing.T) {
	assert.Empty(t, ExtractSenses(mustDoc(t, `<html><body><p>nothing</p></body></html>`)))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"bank", "bank"},
		{"  ice  cream\n", "ice cream"},
		{"\ufb01nance", "finance"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}

	assert.True(t, SameWord("ice\u00a0cream", "ice cream"))
	assert.False(t, SameWord("March", "march"))
	assert.True(t, SamePartOfSpeech(" Noun", "noun"))
}
