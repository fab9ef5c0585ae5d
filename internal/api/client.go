package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/state"
	"github.com/Innopolis-UAV-Team/grabcad-interface/internal/workbench"
)

// DefaultBaseURL is the production Workbench server.
const DefaultBaseURL = "https://workbench.grabcad.com"

const xsrfCookie = "XSRF-TOKEN"

// AuthError indicates a rejected login.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed with status %d", e.Status)
}

// Client is a logged-in Workbench session. All methods require Login to have
// succeeded first. A Client may carry a default project and organisation
// loaded from the repo state.
type Client struct {
	http *http.Client
	base *url.URL

	project *workbench.Project
	org     *workbench.Organisation
}

// New creates a client for the given Workbench server URL.
func New(baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing server url %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Client{
		http: &http.Client{Jar: jar},
		base: base,
	}, nil
}

// Login performs the Workbench session handshake: it scrapes the CSRF token
// from the login page, then posts the member login form. Credentials are
// forwarded exactly as given.
func (c *Client) Login(ctx context.Context, email, password string) error {
	page, err := c.get(ctx, "/login", nil)
	if err != nil {
		return fmt.Errorf("fetching login page: %w", err)
	}
	csrf, err := csrfToken(bytes.NewReader(page))
	if err != nil {
		return fmt.Errorf("login page: %w", err)
	}

	body := map[string]any{
		"format": "json",
		"member": map[string]string{
			"email":              email,
			"password":           password,
			"authenticity_token": csrf,
		},
	}
	resp, err := c.send(ctx, http.MethodPost, "/community/login", nil, body)
	if err != nil {
		return fmt.Errorf("posting login: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return &AuthError{Status: resp.StatusCode}
	}
	return nil
}

// UseState loads the default project and organisation from repo state.
func (c *Client) UseState(st *state.State) error {
	if !st.Initialized() {
		return state.ErrNotInitialized
	}
	c.project = st.Project
	c.org = st.Organisation
	return nil
}

// Project returns the default project.
func (c *Client) Project() *workbench.Project { return c.project }

// activeProject returns the explicit project if given, the default otherwise.
func (c *Client) activeProject(p *workbench.Project) (*workbench.Project, error) {
	if p != nil {
		return p, nil
	}
	if c.project != nil {
		return c.project, nil
	}
	return nil, fmt.Errorf("no project set: initialize the repository or pass a project explicitly")
}

func (c *Client) activeOrganisation(o *workbench.Organisation) (*workbench.Organisation, error) {
	if o != nil {
		return o, nil
	}
	if c.org != nil {
		return c.org, nil
	}
	return nil, fmt.Errorf("no organisation set: initialize the repository or pass an organisation explicitly")
}

// Ping checks that the server is reachable by fetching the login page.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/login", nil)
	return err
}

// csrfToken extracts the content of <meta name="csrf-token"> from an HTML page.
func csrfToken(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	var token string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, content string
			for _, a := range n.Attr {
				switch a.Key {
				case "name":
					name = a.Val
				case "content":
					content = a.Val
				}
			}
			if name == "csrf-token" {
				token = content
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if token != "" {
				return
			}
			walk(child)
		}
	}
	walk(doc)
	if token == "" {
		return "", fmt.Errorf("csrf-token meta tag not found")
	}
	return token, nil
}

// xsrfToken returns the decoded XSRF-TOKEN cookie value for the session, or
// empty string before login.
func (c *Client) xsrfToken() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == xsrfCookie {
			if v, err := url.QueryUnescape(ck.Value); err == nil {
				return v
			}
			return ck.Value
		}
	}
	return ""
}

// get issues a GET and returns the response body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// getJSON issues a GET and decodes the JSON response into v.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	data, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("GET %s: decoding response: %w", path, err)
	}
	return nil
}

// postJSON issues a POST with a JSON body and the session XSRF header, and
// decodes the JSON response into v (v may be nil).
func (c *Client) postJSON(ctx context.Context, path string, params url.Values, body, v any) error {
	resp, err := c.send(ctx, http.MethodPost, path, params, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: unexpected status %d", path, resp.StatusCode)
	}
	if v == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("POST %s: reading response: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("POST %s: decoding response: %w", path, err)
	}
	return nil
}

// send builds and issues a request against the configured server.
func (c *Client) send(ctx context.Context, method, path string, params url.Values, body any) (*http.Response, error) {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encoding body: %w", method, path, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		if token := c.xsrfToken(); token != "" {
			req.Header.Set("X-XSRF-TOKEN", token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
