package main

import (
	"fmt"
	"os"

	"github.com/deploywatch/deploywatch/internal/domain"
)

func main() {
	env := domain.EnvLive
	if len(os.Args) > 1 && os.Args[1] == "test" {
		env = domain.EnvTest
	}

	if len(os.Args) > 1 && os.Args[1] == "secret" {
		secret, err := domain.GenerateWebhookSecret()
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		fmt.Printf("SECRET=%s\n", secret)
		return
	}

	key, hash, prefix, err := domain.GenerateAPIKey(env)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Printf("KEY=%s\nHASH=%s\nPREFIX=%s\n", key, hash, prefix)
}
