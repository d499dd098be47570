package explorer

import (
	"net/url"
	"strings"

	"github.com/marko911/tx-lookup/pkg/blockchain"
)

// TransactionIDPlaceholder is replaced by the transaction id in service URLs.
const TransactionIDPlaceholder = "{transaction_id}"

// URLSource yields the service URL template for a chain.
type URLSource interface {
	URLFor(chain blockchain.Chain) string
}

// FixedURL is the same template on every chain.
type FixedURL string

func (u FixedURL) URLFor(blockchain.Chain) string { return string(u) }

// NetworkURLs picks Test for test networks and Main otherwise.
type NetworkURLs struct {
	Main string
	Test string
}

func (u NetworkURLs) URLFor(chain blockchain.Chain) string {
	if chain.IsTest() {
		return u.Test
	}
	return u.Main
}

// URLFunc computes the template from the chain.
type URLFunc func(chain blockchain.Chain) string

func (f URLFunc) URLFor(chain blockchain.Chain) string { return f(chain) }

// BuildURL resolves the adapter's template for chain, substitutes the
// transaction id and appends the API key when one is set.
func BuildURL(a Adapter, transactionID string, chain blockchain.Chain) (string, error) {
	if a.URL == nil {
		return "", ErrMissingURL
	}
	template := a.URL.URLFor(chain)
	if template == "" {
		return "", ErrMissingURL
	}
	u := strings.ReplaceAll(template, TransactionIDPlaceholder, transactionID)
	if a.Key != "" {
		if err := a.CheckKey(); err != nil {
			return "", err
		}
		u = AppendURLParameter(u, a.KeyPropertyName, a.Key)
	}
	return u, nil
}

// AppendURLParameter adds name=value using "?" or "&" depending on whether the
// URL already has a query string.
func AppendURLParameter(rawURL, name, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + url.QueryEscape(name) + "=" + url.QueryEscape(value)
}
