package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/lukman83/shopgenie/internal/assistant"
	"github.com/lukman83/shopgenie/internal/models"
	"github.com/lukman83/shopgenie/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStars(t *testing.T) {
	assert.Equal(t, "☆☆☆☆☆", stars(0))
	assert.Equal(t, "★★★★☆", stars(4.4))
	assert.Equal(t, "★★★★★", stars(4.5))
	assert.Equal(t, "★★★★★", stars(9))
}

func TestFormatCount(t *testing.T) {
	tests := map[int]string{
		0:         "-",
		950:       "950",
		9_999:     "9999",
		12_457:    "12.5K",
		40_000:    "40K",
		1_200_000: "1.2M",
		3_000_000: "3M",
	}
	for n, want := range tests {
		assert.Equal(t, want, formatCount(n), n)
	}
}

func sampleReply() assistant.Reply {
	return assistant.Reply{
		Kind:         assistant.KindResults,
		Query:        "bluetooth speaker",
		Platform:     "amazon",
		PlatformName: "Amazon",
		Products: []models.Product{
			{Title: "JBL Flip 6 Portable Speaker", Price: "$99.95", Rating: 4.8, Sales: 12457, URL: "https://www.amazon.com/dp/B09", Platform: "amazon"},
			{Title: "Anker Soundcore 2", Price: "$25.99", URL: "https://www.amazon.com/dp/B01", Platform: "amazon"},
		},
	}
}

func TestPrintReplyCards(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printReply(&buf, sampleReply(), "cards"))

	out := buf.String()
	assert.Contains(t, out, `Top 2 results for "bluetooth speaker" on Amazon`)
	assert.Contains(t, out, " 1. JBL Flip 6 Portable Speaker")
	assert.Contains(t, out, "Price: $99.95  |  ★★★★★ 4.8  |  12.5K sold/reviews")
	assert.Contains(t, out, "    Price: $25.99\n")
	assert.Contains(t, out, "https://www.amazon.com/dp/B01")
}

func TestPrintReplyTableAndJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printReply(&buf, sampleReply(), "table"))
	assert.Contains(t, buf.String(), "JBL Flip 6 Portable Speaker")
	assert.Contains(t, buf.String(), "12.5K")

	buf.Reset()
	require.NoError(t, printReply(&buf, sampleReply(), "json"))
	var got assistant.Reply
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got.Products, 2)
}

func TestPrintReplyMessage(t *testing.T) {
	var buf bytes.Buffer
	reply := assistant.Reply{Kind: assistant.KindNoResults, Products: []models.Product{}, Message: "No results found for: lamp"}
	require.NoError(t, printReply(&buf, reply, "cards"))
	assert.Equal(t, "No results found for: lamp\n", buf.String())
}

func TestPrintCompareTable(t *testing.T) {
	results := []platform.Result{
		{Platform: "amazon", Products: sampleReply().Products},
		{Platform: "ebay", Products: []models.Product{}, Err: errors.New("retries exhausted")},
		{Platform: "aliexpress", Products: []models.Product{}},
	}
	names := map[string]string{"amazon": "Amazon", "ebay": "eBay", "aliexpress": "AliExpress"}

	var buf bytes.Buffer
	printCompareTable(&buf, func(id string) string { return names[id] }, results, 1)

	out := buf.String()
	assert.Contains(t, out, "JBL Flip 6")
	assert.NotContains(t, out, "Anker")
	assert.Contains(t, out, "eBay: retries exhausted")
	assert.Contains(t, out, "AliExpress: no results")
}
