// Package referrers folds referrer URLs into traffic sources.
package referrers

import (
	"net/url"
	"strings"
)

// Direct is the source of visits without a usable referrer.
const Direct = "Direct"

// knownSources maps registrable hostnames to display names. Subdomains match too.
var knownSources = map[string]string{
	// Search
	"google.com":     "Google",
	"google.co.uk":   "Google",
	"google.de":      "Google",
	"google.fr":      "Google",
	"google.es":      "Google",
	"google.ca":      "Google",
	"google.com.au":  "Google",
	"bing.com":       "Bing",
	"duckduckgo.com": "DuckDuckGo",
	"yahoo.com":      "Yahoo",
	"baidu.com":      "Baidu",
	"yandex.ru":      "Yandex",
	"ecosia.org":     "Ecosia",
	"kagi.com":       "Kagi",

	// Social
	"x.com":           "X/Twitter",
	"twitter.com":     "X/Twitter",
	"t.co":            "X/Twitter",
	"facebook.com":    "Facebook",
	"fb.com":          "Facebook",
	"instagram.com":   "Instagram",
	"linkedin.com":    "LinkedIn",
	"lnkd.in":         "LinkedIn",
	"reddit.com":      "Reddit",
	"mastodon.social": "Mastodon",
	"bsky.app":        "Bluesky",
	"youtube.com":     "YouTube",
	"youtu.be":        "YouTube",
	"tiktok.com":      "TikTok",
	"pinterest.com":   "Pinterest",

	// Communities
	"news.ycombinator.com": "Hacker News",
	"lobste.rs":            "Lobsters",
	"producthunt.com":      "Product Hunt",
	"dev.to":               "DEV",
	"medium.com":           "Medium",
	"github.com":           "GitHub",
	"stackoverflow.com":    "Stack Overflow",
}

// Source returns the display name of a referrer URL. Empty or unparseable
// referrers are Direct; unknown hosts are returned without "www.".
func Source(referrer string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return Direct
	}
	if !strings.Contains(referrer, "://") {
		referrer = "https://" + referrer
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return Direct
	}
	return Host(u.Hostname())
}

// Host returns the display name of a bare hostname.
func Host(hostname string) string {
	hostname = strings.TrimPrefix(strings.ToLower(hostname), "www.")
	if name, ok := knownSources[hostname]; ok {
		return name
	}
	for domain, name := range knownSources {
		if strings.HasSuffix(hostname, "."+domain) {
			return name
		}
	}
	return hostname
}
