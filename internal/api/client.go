package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	opListAccounts = "list accounts"
	opListMessages = "list messages"
	opSendMessage  = "send message"

	DefaultTimeout = 30 * time.Second
)

// Client talks to the Instagram DM backend. The zero HTTP client is replaced by
// one with DefaultTimeout on first use.
type Client struct {
	BaseURL string
	UserID  int64
	HTTP    *http.Client
	Logger  *slog.Logger
}

func (c Client) baseEndpointFor(path string, query url.Values) (string, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return "", fmt.Errorf("missing api base url")
	}
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"))
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	p := strings.TrimPrefix(strings.TrimSpace(path), "/")
	u.Path = strings.TrimRight(u.Path, "/") + "/" + p
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (c Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ListAccounts returns the accounts connected for the configured user.
func (c Client) ListAccounts(ctx context.Context) ([]Account, error) {
	q := url.Values{"userId": []string{strconv.FormatInt(c.UserID, 10)}}
	body, status, err := c.do(ctx, opListAccounts, http.MethodGet, "/instagram/accounts", q, nil, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, applicationFault(opListAccounts, status, body)
	}
	var env accountsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ProtocolFault{Op: opListAccounts, Status: status, Err: err}
	}
	if env.Accounts == nil {
		return nil, &ProtocolFault{Op: opListAccounts, Status: status, Err: errors.New("missing accounts")}
	}
	return *env.Accounts, nil
}

// ListMessages returns the received messages for an account. An account that
// no longer exists on the backend yields an empty list.
func (c Client) ListMessages(ctx context.Context, accountID int64) ([]Message, error) {
	q := url.Values{"accountId": []string{strconv.FormatInt(accountID, 10)}}
	body, status, err := c.do(ctx, opListMessages, http.MethodGet, "/instagram/messages", q, nil, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		c.logger().Info("account has no messages endpoint; treating as empty", "account_id", accountID)
		return []Message{}, nil
	}
	if status < 200 || status > 299 {
		return nil, applicationFault(opListMessages, status, body)
	}
	var env messagesEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ProtocolFault{Op: opListMessages, Status: status, Err: err}
	}
	if env.Messages == nil {
		var probe map[string]json.RawMessage
		_ = json.Unmarshal(body, &probe)
		if _, ok := probe["messages"]; ok {
			// Explicit null: the account exists but has nothing yet.
			return []Message{}, nil
		}
		return nil, &ProtocolFault{Op: opListMessages, Status: status, Err: errors.New("missing messages")}
	}
	return *env.Messages, nil
}

// SendMessage posts a reply. Only a 2xx answer counts as success; the body of
// a successful answer is ignored.
func (c Client) SendMessage(ctx context.Context, in SendMessageInput) error {
	headers := map[string]string{"Idempotency-Key": "igdm:send:" + uuid.NewString()}
	body, status, err := c.do(ctx, opSendMessage, http.MethodPost, "/instagram/send-message", nil, in, headers)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return applicationFault(opSendMessage, status, body)
	}
	return nil
}

// ConnectURL is the provider's OAuth entry point for the configured user. It
// is meant for a full browser navigation, never fetched by this process.
func (c Client) ConnectURL() (string, error) {
	q := url.Values{"userId": []string{strconv.FormatInt(c.UserID, 10)}}
	return c.baseEndpointFor("/instagram/login", q)
}

func (c Client) do(ctx context.Context, op, method, path string, query url.Values, payload any, headers map[string]string) ([]byte, int, error) {
	endpoint, err := c.baseEndpointFor(path, query)
	if err != nil {
		return nil, 0, err
	}
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: DefaultTimeout}
	}

	var r io.Reader
	if payload != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return nil, 0, err
		}
		r = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, r)
	if err != nil {
		return nil, 0, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	log := c.logger().With("op", op, "request_id", requestID)
	started := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Warn("request failed", "url", endpoint, "error", err)
		return nil, 0, &NetworkFault{Op: op, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("reading response failed", "status", resp.StatusCode, "error", err)
		return nil, resp.StatusCode, &NetworkFault{Op: op, Err: err}
	}
	log.Debug("request done", "method", method, "url", endpoint, "status", resp.StatusCode, "elapsed", time.Since(started))
	return b, resp.StatusCode, nil
}

func applicationFault(op string, status int, body []byte) *ApplicationFault {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &ApplicationFault{Op: op, Status: status}
	}
	msg := strings.TrimSpace(env.Error)
	if msg == "" {
		msg = strings.TrimSpace(env.Message)
	}
	return &ApplicationFault{Op: op, Status: status, Message: msg}
}
