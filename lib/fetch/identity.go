package fetch

import "math/rand"

// identity is one browser-like header set. Each attempt picks one at random
// to reduce fingerprinting across requests.
type identity struct {
	userAgent      string
	acceptLanguage string
}

var identities = []identity{
	{
		userAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		acceptLanguage: "en-US,en;q=0.9",
	},
	{
		userAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
		acceptLanguage: "en-GB,en;q=0.8",
	},
	{
		userAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
		acceptLanguage: "en-US,en;q=0.9,fr;q=0.5",
	},
	{
		userAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Version/17.5 Safari/605.1.15",
		acceptLanguage: "en-NG,en;q=0.9",
	},
	{
		userAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:131.0) Gecko/20100101 Firefox/131.0",
		acceptLanguage: "en-US,en;q=0.7",
	},
}

func pickIdentity() identity {
	return identities[rand.Intn(len(identities))]
}
