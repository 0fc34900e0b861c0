// Package callback runs a one-shot local HTTP listener for the redirect URI
// of the authorization flow. It captures the code, state and referer query
// parameters amoCRM appends to the redirect and hands them to the caller,
// which performs the exchange itself.
//
//	state := oauth2client.NewState()
//	srv, err := callback.New("127.0.0.1:8123", "/callback", state)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//
//	fmt.Println("visit:", tm.AuthCodeURL(state, ""))
//
//	result, err := srv.Wait(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_, err = tm.Exchange(ctx, result.Code)
//
// Requests with a mismatching state are rejected and the listener keeps
// waiting; only the first matching code is delivered.
package callback
