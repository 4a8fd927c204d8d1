// Command loadgen fires a mixed batch of submissions at a running intake
// server: valid requests, a VIP member request, and structurally or
// semantically invalid ones. Useful for populating traces, metrics, and
// audit trails in a demo environment.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

type submission struct {
	MemberID         string `json:"member_id"`
	ProviderNPI      string `json:"provider_npi"`
	DiagnosisCode    string `json:"diagnosis_code"`
	RequestedService string `json:"requested_service"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "base URL of the intake server")
	count := flag.Int("n", 10, "number of valid submissions")
	vip := flag.String("vip", "M99999", "member id routed through the slow path, empty to skip")
	invalid := flag.Bool("invalid", true, "include invalid submissions")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := run(ctx, *addr, *count, *vip, *invalid); err != nil {
		fmt.Fprintln(os.Stderr, "loadgen:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, addr string, count int, vip string, invalid bool) error {
	client := &http.Client{Timeout: 30 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			return submit(ctx, client, addr, submission{
				MemberID:         fmt.Sprintf("M%05d", i+1),
				ProviderNPI:      "1234567890",
				DiagnosisCode:    "M54.5",
				RequestedService: "MRI Lumbar Spine",
			}, http.StatusCreated)
		})
	}

	if vip != "" {
		g.Go(func() error {
			return submit(ctx, client, addr, submission{
				MemberID:         vip,
				ProviderNPI:      "1234567890",
				DiagnosisCode:    "G89.4",
				RequestedService: "Epidural Steroid Injection",
			}, http.StatusCreated)
		})
	}

	if invalid {
		g.Go(func() error {
			// Missing member_id, rejected by the schema stage.
			return submit(ctx, client, addr, submission{
				ProviderNPI:      "1234567890",
				DiagnosisCode:    "M54.5",
				RequestedService: "Physical Therapy",
			}, http.StatusUnprocessableEntity)
		})
		g.Go(func() error {
			// Non-numeric NPI, rejected by the business stage.
			return submit(ctx, client, addr, submission{
				MemberID:         "M00099",
				ProviderNPI:      "12345ABCDE",
				DiagnosisCode:    "M54.5",
				RequestedService: "Physical Therapy",
			}, http.StatusBadRequest)
		})
	}

	return g.Wait()
}

func submit(ctx context.Context, client *http.Client, addr string, sub submission, wantStatus int) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/prior-auth/submit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submit for %s: %w", sub.MemberID, err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(resp.Body)
	fmt.Printf("member=%s status=%d body=%s", sub.MemberID, resp.StatusCode, payload)

	if resp.StatusCode != wantStatus {
		return fmt.Errorf("member %s: got status %d, want %d", sub.MemberID, resp.StatusCode, wantStatus)
	}
	return nil
}
