// Command token issues a bearer token for a navigation device.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"VisionGuide/internal/entity"
	jwtPkg "VisionGuide/pkg/jwt"
	"VisionGuide/pkg/log"
	"github.com/joho/godotenv"
)

func main() {
	id := flag.String("id", "", "client id (required)")
	name := flag.String("name", "", "client display name")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}

	if *id == "" {
		flag.Usage()
		os.Exit(2)
	}

	token, expiresAt, err := jwtPkg.SignClient(entity.Client{ID: *id, Name: *name}, *ttl)
	if err != nil {
		logger.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Println(token)
	logger.Infof("Token for %s expires at %s", *id, time.Unix(expiresAt, 0).Format(time.RFC3339))
}
