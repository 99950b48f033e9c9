package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"ChatRelay/tools/errs"
)

// AccountTypeBot marks automation accounts; bots bypass the room
// membership check on send-message.
const AccountTypeBot = 2

// Identity is the resolved authentication of one connection.
type Identity struct {
	User  string   `json:"user"`
	Name  string   `json:"name"`
	Type  int      `json:"type"`
	Roles []string `json:"roles"`
}

func (id *Identity) IsBot() bool { return id.Type == AccountTypeBot }

// Authenticator validates a raw bearer token and enforces required roles.
// The connection gate runs this to completion before a connection touches
// the session store.
type Authenticator interface {
	Authenticate(ctx context.Context, token string, roles []string) (*Identity, error)
}

// OracleClient asks the external account service to validate a token.
type OracleClient struct {
	server string
	client *http.Client
}

func NewOracleClient(server string, timeout time.Duration) *OracleClient {
	return &OracleClient{
		server: server,
		client: &http.Client{Timeout: timeout},
	}
}

type oracleResponse struct {
	Identity
	Error int `json:"error"`
}

func (o *OracleClient) Authenticate(ctx context.Context, token string, roles []string) (*Identity, error) {
	if o.server == "" {
		return nil, errs.ErrAuthServer
	}
	if token == "" {
		return nil, errs.ErrToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.server+"/v1/accounts/validate", nil)
	if err != nil {
		return nil, errs.ErrAuthUnreachable.WithDetail(err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, errs.ErrAuthUnreachable.WithDetail(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errs.ErrAuthUnreachable.WithDetail(err.Error())
	}

	var out oracleResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errs.ErrAuthUnreachable.WithDetail("bad oracle response")
	}
	if out.Error != 0 || resp.StatusCode != http.StatusOK {
		// upstream rejection maps onto the 401/403 class split
		if resp.StatusCode == http.StatusForbidden {
			return nil, errs.ErrRole
		}
		return nil, errs.ErrToken
	}
	if out.User == "" || out.Type == 0 {
		return nil, errs.ErrToken.WithDetail("incomplete oracle identity")
	}

	if err := CheckRoles(&out.Identity, roles); err != nil {
		return nil, err
	}
	return &out.Identity, nil
}

// CheckRoles requires the identity to hold every role in roles, not just
// one of them.
func CheckRoles(id *Identity, roles []string) error {
	for _, want := range roles {
		found := false
		for _, have := range id.Roles {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return errs.ErrRole.WithDetail("missing role " + want)
		}
	}
	return nil
}
