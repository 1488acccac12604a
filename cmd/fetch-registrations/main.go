// Command fetch-registrations lists TMS registrations for debugging the
// integration: what the remote side currently holds as the synced baseline.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"enrol-sync/internal/devutil"
	"enrol-sync/internal/providers/tms"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	baseURL := getenv("TMS_BASE_URL", "https://api.trainingmanager.example.com")
	client := tms.New(baseURL)

	basic := os.Getenv("TMS_BASIC_AUTH")
	user := os.Getenv("TMS_USERNAME")
	pass := os.Getenv("TMS_PASSWORD")

	if basic == "" || user == "" || pass == "" {
		log.Fatal("missing env vars: TMS_BASIC_AUTH / TMS_USERNAME / TMS_PASSWORD")
	}

	if err := client.Authenticate(ctx, basic, tms.AuthRequest{
		GrantType: "password",
		Username:  user,
		Password:  pass,
	}); err != nil {
		log.Fatalf("auth error: %v", err)
	}

	fmt.Println("OK: got token (len):", len(client.BearerToken))

	regs, err := client.ListRegistrations(ctx, "", 50)
	if err != nil {
		log.Fatalf("list registrations error: %v", err)
	}

	fmt.Printf("OK: fetched %d registrations\n", len(regs))
	for i, r := range regs {
		fmt.Printf("%d) %v\n", i+1, devutil.Pick(r, "registrationId", "lmsCourseId", "lmsUserId", "progressStatus", "progressPercent", "grade"))
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
