package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"research2crossref/internal/config"
)

const probeID = "00000000-0000-0000-0000-000000000000"

// CheckCRIS verifies that the CRIS query endpoint answers. It asks for a
// publication id that cannot exist, so a healthy endpoint returns an empty
// result set.
func CheckCRIS(ctx context.Context, apiURL, token string, timeout time.Duration) Result {
	const name = "CRIS API"

	base := strings.TrimSpace(apiURL)
	if base == "" {
		return Result{Name: name, Detail: "missing api_url"}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	values := url.Values{}
	values.Set("query", fmt.Sprintf("Id:%q", probeID))
	values.Set("max", "1")
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"?"+values.Encode(), nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	req.Header.Set("Accept", "application/json")
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (check cris.api_token)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("query failed (%d)", resp.StatusCode)}
	}
}

// CheckDepositConfig verifies that credentials and prefix are present. The
// deposit endpoint is not contacted; a login probe would count as a deposit
// attempt.
func CheckDepositConfig(cfg *config.Config) Result {
	const name = "Crossref deposit"

	if err := cfg.ValidateDeposit(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if strings.TrimSpace(cfg.Crossref.DOIPrefix) == "" {
		return Result{Name: name, Detail: "missing doi_prefix"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s as %s", cfg.Crossref.DOIPrefix, cfg.Crossref.Username)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (endpoint unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (endpoint unreachable)"
	}
	return err.Error()
}
