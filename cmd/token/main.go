// Command token mints an access token for local development. The booking API
// trusts the identity claims as given, so this stands in for the real issuer.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"classbook/internal/auth"
	"classbook/internal/schedule"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	userID := flag.Int("user", 1, "user id")
	email := flag.String("email", "", "email address reminders are sent to")
	role := flag.String("role", auth.RoleMember, "member or admin")
	gender := flag.String("gender", string(schedule.GenderFemale), "male or female")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	token, err := mint(auth.Identity{
		UserID: *userID,
		Email:  *email,
		Role:   *role,
		Gender: *gender,
	}, os.Getenv("JWT_SECRET"), *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func mint(id auth.Identity, secret string, ttl time.Duration) (string, error) {
	if id.UserID <= 0 {
		return "", fmt.Errorf("user id must be positive")
	}
	if id.Role != auth.RoleMember && id.Role != auth.RoleAdmin {
		return "", fmt.Errorf("unknown role %q", id.Role)
	}
	if !schedule.Gender(id.Gender).Valid() {
		return "", fmt.Errorf("gender must be male or female")
	}
	return auth.GenerateAccessToken(id, secret, ttl)
}
