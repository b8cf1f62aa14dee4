package engine

import (
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
)

// Re-export stealth types and functions for engine consumers.
type BrowserClient = stealth.BrowserClient

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }

// NewBrowserClient builds a Chrome-fingerprinted client, routed through a
// Webshare proxy pool when webshareKey is set.
func NewBrowserClient(timeoutSecs int, webshareKey string) (*BrowserClient, error) {
	opts := []stealth.ClientOption{stealth.WithTimeout(timeoutSecs)}
	if webshareKey != "" {
		pool, err := proxypool.NewWebshare(webshareKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, stealth.WithProxyPool(pool))
	}
	return stealth.NewClient(opts...)
}
