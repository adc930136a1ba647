package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	smokeBaseURL  string
	smokeUser     string
	smokePassword string
)

// smokeCmd represents the smoke command
var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Run smoke checks against a running server",
	Long: `Runs a short sequence of HTTP checks against a deployed instance:
health probe, login, room listing and the caller's reservations.
The exit code is non-zero only when the health check fails; degraded
checks are reported as warnings.`,
	Run: func(cmd *cobra.Command, args []string) {
		if runSmoke() {
			os.Exit(0)
		}
		os.Exit(1)
	},
}

type smokeClient struct {
	base   string
	client *http.Client
	token  string
}

// runSmoke executes the check sequence and reports each step. It
// returns false only when the health endpoint is broken.
func runSmoke() bool {
	jar, _ := cookiejar.New(nil)
	sc := &smokeClient{
		base: strings.TrimRight(smokeBaseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}

	fmt.Printf("Running smoke checks against %s\n\n", sc.base)

	healthy := sc.checkHealth()
	if !healthy {
		fmt.Println("\nHealth check failed, aborting remaining checks.")
		return false
	}

	if sc.checkLogin() {
		sc.checkMe()
		sc.checkReservations()
	} else {
		warn("me", "skipped, login failed")
		warn("reservations", "skipped, login failed")
	}
	sc.checkRooms()

	fmt.Println("\nSmoke checks complete.")
	return true
}

func (sc *smokeClient) checkHealth() bool {
	status, body, err := sc.get("/api/health")
	if err != nil {
		fail("health", err.Error())
		return false
	}
	if status != http.StatusOK || !strings.Contains(body, `"healthy"`) {
		fail("health", fmt.Sprintf("status %d, body %s", status, body))
		return false
	}
	pass("health", "database connected")
	return true
}

func (sc *smokeClient) checkLogin() bool {
	payload, _ := json.Marshal(map[string]string{
		"name":     smokeUser,
		"password": smokePassword,
	})
	status, body, err := sc.post("/api/auth/login", payload)
	if err != nil {
		warn("login", err.Error())
		return false
	}
	if status != http.StatusOK {
		warn("login", fmt.Sprintf("status %d", status))
		return false
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil || resp.AccessToken == "" {
		warn("login", "no access token in response")
		return false
	}
	sc.token = resp.AccessToken
	pass("login", fmt.Sprintf("authenticated as %s", smokeUser))
	return true
}

func (sc *smokeClient) checkMe() {
	status, body, err := sc.get("/api/auth/me")
	if err != nil {
		warn("me", err.Error())
		return
	}
	if status != http.StatusOK || !strings.Contains(body, `"name"`) {
		warn("me", fmt.Sprintf("status %d", status))
		return
	}
	pass("me", "account resolved")
}

func (sc *smokeClient) checkRooms() {
	status, body, err := sc.get("/api/rooms")
	if err != nil {
		warn("rooms", err.Error())
		return
	}
	if status != http.StatusOK {
		warn("rooms", fmt.Sprintf("status %d", status))
		return
	}
	var rooms []json.RawMessage
	if err := json.Unmarshal([]byte(body), &rooms); err != nil {
		warn("rooms", "response is not a room list")
		return
	}
	pass("rooms", fmt.Sprintf("%d rooms listed", len(rooms)))
}

func (sc *smokeClient) checkReservations() {
	status, _, err := sc.get("/api/reservations/mine")
	if err != nil {
		warn("reservations", err.Error())
		return
	}
	if status != http.StatusOK {
		warn("reservations", fmt.Sprintf("status %d", status))
		return
	}
	pass("reservations", "listing ok")
}

func (sc *smokeClient) get(path string) (int, string, error) {
	req, err := http.NewRequest(http.MethodGet, sc.base+path, nil)
	if err != nil {
		return 0, "", err
	}
	return sc.do(req)
}

func (sc *smokeClient) post(path string, payload []byte) (int, string, error) {
	req, err := http.NewRequest(http.MethodPost, sc.base+path, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	return sc.do(req)
}

func (sc *smokeClient) do(req *http.Request) (int, string, error) {
	if sc.token != "" {
		req.Header.Set("Authorization", "Bearer "+sc.token)
	}
	resp, err := sc.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(body), nil
}

func pass(name, detail string) { fmt.Printf("[PASS] %-12s %s\n", name, detail) }
func warn(name, detail string) { fmt.Printf("[WARN] %-12s %s\n", name, detail) }
func fail(name, detail string) { fmt.Printf("[FAIL] %-12s %s\n", name, detail) }

func init() {
	smokeCmd.Flags().StringVar(&smokeBaseURL, "base-url", "http://localhost:8080", "base URL of the server to check")
	smokeCmd.Flags().StringVar(&smokeUser, "user", "student", "account name for the login check")
	smokeCmd.Flags().StringVar(&smokePassword, "password", "student1234", "password for the login check")
	RootCmd.AddCommand(smokeCmd)
}
