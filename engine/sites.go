package engine

import (
	"net/url"
	"strings"
)

// DefaultUserAgent is sent with every request
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// SiteOptions is the per-site option bundle handed to the engine
type SiteOptions struct {
	Retries       int
	Headers       map[string]string
	ExtractorArgs string
}

func withDefaults(o SiteOptions) SiteOptions {
	if o.Headers == nil {
		o.Headers = map[string]string{}
	}
	if _, ok := o.Headers["User-Agent"]; !ok {
		o.Headers["User-Agent"] = DefaultUserAgent
	}
	return o
}

var siteOptions = map[string]SiteOptions{
	"youtube.com":  {Retries: 5, ExtractorArgs: "youtube:player_client=android"},
	"youtu.be":     {Retries: 5, ExtractorArgs: "youtube:player_client=android"},
	"pornhub.com":  {Retries: 10},
	"xhamster.com": {Retries: 8},
	"eporner.com":  {Retries: 6},
}

// OptionsFor returns the option bundle for a URL's host
func OptionsFor(rawURL string) SiteOptions {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	if o, ok := siteOptions[host]; ok {
		return withDefaults(o)
	}
	return withDefaults(SiteOptions{Retries: 3})
}
