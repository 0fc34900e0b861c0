package oauth2client_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/PSYCHXLAUGH/amocrm-api-middleware/oauth2client"
)

// Example demonstrates the authorization flow from the integration's side.
func Example() {
	cfg := oauth2client.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://example.com/callback",
	}

	tm, err := oauth2client.NewTokenManager(cfg, "example")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(tm.AuthCodeURL("state-123", "post_message"))
	// Output: https://www.amocrm.ru/oauth?client_id=client-id&mode=post_message&state=state-123
}

// ExampleTokenManager_BearerToken demonstrates typed expiry handling.
func ExampleTokenManager_BearerToken() {
	cfg := oauth2client.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://example.com/callback",
	}

	tm, err := oauth2client.NewTokenManager(cfg, "example")
	if err != nil {
		log.Fatal(err)
	}

	_, err = tm.BearerToken()
	switch {
	case errors.Is(err, oauth2client.ErrNoToken):
		fmt.Println("authorize first")
	case errors.Is(err, oauth2client.ErrAccessTokenExpired):
		fmt.Println("call Refresh")
	case errors.Is(err, oauth2client.ErrRefreshTokenExpired):
		fmt.Println("restart the authorization flow")
	}

	// Output: authorize first
}
