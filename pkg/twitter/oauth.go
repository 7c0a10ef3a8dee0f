package twitter

import (
	"net/http"

	"github.com/mrjones/oauth"

	"roost/pkg/auth"
)

// NewOAuthClient returns an HTTP client that signs every request with
// OAuth 1.0a HMAC-SHA1 using creds. Requests are sent through base, so its
// timeout and transport apply. A nil base uses http.DefaultClient.
func NewOAuthClient(creds auth.Credentials, base *http.Client) (*http.Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	consumer := oauth.NewConsumer(creds.ConsumerKey, creds.SecretKey, oauth.ServiceProvider{})
	if base != nil {
		consumer.HttpClient = base
	}

	return consumer.MakeHttpClient(&oauth.AccessToken{
		Token:  creds.OToken,
		Secret: creds.OTokenSecret,
	})
}
