package main

import (
	"fmt"
	"os"

	"imsidesk/internal/auth"
	"imsidesk/internal/config"
)

// Mints a token pair the simulator accepts.
// usage: go run tools/simtoken.go <operator-role> [subject]
func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: go run tools/simtoken.go <operator-role> [subject]")
		os.Exit(1)
	}
	subject := "operator"
	if len(os.Args) > 2 {
		subject = os.Args[2]
	}

	cfg := config.Load() // reads SIM_JWT_SECRET and AUTH_CLIENT_ID from env
	iss := &auth.Issuer{
		Secret:    []byte(cfg.Sim.JWTSecret),
		ClientID:  cfg.Auth.ClientID,
		AccessTTL: cfg.Sim.AccessTTL,
	}
	tok, err := iss.Issue(subject, []string{os.Args[1]})
	if err != nil {
		panic(err)
	}
	fmt.Printf("AUTH_ACCESS_TOKEN=%s\nAUTH_REFRESH_TOKEN=%s\n", tok.AccessToken, tok.RefreshToken)
}
