package assistant

import (
	"fmt"
	"strings"

	"github.com/lukman83/shopgenie/internal/query"
)

// Welcome is the greeting shown when a conversation starts.
func (s *Service) Welcome() string {
	var b strings.Builder
	b.WriteString("Welcome to ShopGenie!\n\n")
	b.WriteString("Tell me what you want and where to look, and I'll find the best matches.\n\n")
	b.WriteString(s.formats())
	b.WriteString("\nSend /help for more details.")
	return b.String()
}

// Help describes the accepted message formats and how results are ranked.
func (s *Service) Help() string {
	var b strings.Builder
	b.WriteString("How to search\n\n")
	b.WriteString(s.formats())
	fmt.Fprintf(&b, "\nI return the top %d products, ranked by rating, sales and price.\n", s.opts.TopResults)
	b.WriteString("Results can take a few seconds while the marketplace responds.")
	return b.String()
}

func (s *Service) formats() string {
	var b strings.Builder
	b.WriteString("Examples:\n")
	for _, ex := range query.Examples() {
		fmt.Fprintf(&b, "• %s\n", ex)
	}
	fmt.Fprintf(&b, "\nSupported platforms: %s\n", strings.Join(s.searcher.DisplayNames(), ", "))
	return b.String()
}
