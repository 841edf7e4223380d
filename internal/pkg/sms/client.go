package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// ErrNotConfigured is returned when no gateway credentials are set.
var ErrNotConfigured = errors.New("sms: gateway not configured")

const requestTimeout = 10 * time.Second

// Client posts text messages to an HTTP SMS gateway using basic auth.
type Client struct {
	apiURL   string
	username string
	password string
	sender   string
	http     *http.Client
}

func NewClient(apiURL, username, password, sender string) *Client {
	return &Client{
		apiURL:   apiURL,
		username: username,
		password: password,
		sender:   sender,
		http:     &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiURL != "" && c.username != "" && c.password != ""
}

type sendRequest struct {
	Receptor string `json:"receptor"`
	Message  string `json:"message"`
	Sender   string `json:"sender"`
}

type sendResponse struct {
	Return struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"return"`
}

// Send delivers text to phone. The gateway must answer HTTP 200 and report
// status 200 in its body for the message to count as sent.
func (c *Client) Send(phone, text string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if !ValidPhoneNumber(phone) {
		return fmt.Errorf("sms: invalid phone number %q", phone)
	}

	payload, err := json.Marshal(sendRequest{
		Receptor: NormalizePhoneNumber(phone),
		Message:  text,
		Sender:   c.sender,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sms: gateway responded with HTTP %d", resp.StatusCode)
	}

	var body sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("sms: invalid gateway response: %w", err)
	}
	if body.Return.Status != http.StatusOK {
		return fmt.Errorf("sms: gateway rejected message: %d %s", body.Return.Status, body.Return.Message)
	}

	log.Debugf("[SMS] Message sent to %s", NormalizePhoneNumber(phone))
	return nil
}
