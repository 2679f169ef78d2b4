package websearch

import (
	"net/url"
	"regexp"
	"strings"
)

// Social networks, video hosts and Q&A aggregators rarely answer product
// questions authoritatively.
var deniedDomains = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "tiktok.com",
	"pinterest.com", "reddit.com", "quora.com", "youtube.com", "vimeo.com",
	"dailymotion.com", "linkedin.com", "tumblr.com",
}

var (
	pricingQuery   = regexp.MustCompile(`(?i)\b(price|prices|pricing|cost|costs|quote|quotation|licen[cs]e fee|how much)\b`)
	pricingContent = regexp.MustCompile(`(?i)(\b(price|prices|pricing|cost|costs|fee|fees|subscription|per user|per month|monthly|annually|discount|buy now|purchase|usd|inr)\b|[$€£₹]\s?\d)`)
)

// IsPricingQuery reports whether the user is explicitly asking about money.
func IsPricingQuery(query string) bool {
	return pricingQuery.MatchString(query)
}

// Filter drops insecure links, denied domains and, unless the query itself is
// about pricing, anything quoting commercial terms.
func Filter(raw []RawResult, query string) []RawResult {
	allowPricing := IsPricingQuery(query)

	out := make([]RawResult, 0, len(raw))
	for _, r := range raw {
		u, err := url.Parse(r.Link)
		if err != nil || u.Scheme != "https" || u.Hostname() == "" {
			continue
		}
		if isDenied(u.Hostname()) {
			continue
		}
		if !allowPricing && pricingContent.MatchString(r.Title+" "+r.Snippet) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func isDenied(host string) bool {
	return matchesDomain(host, deniedDomains)
}

func matchesDomain(host string, domains []string) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// domainOf returns the bare host of link, without a www. prefix.
func domainOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
