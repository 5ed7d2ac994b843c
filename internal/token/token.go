// Package token decodes the payload of compact JWTs without verifying
// them. The result is only used to route requests, never to authorize.
package token

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/johanforsgren/threadline/internal/domain"
)

// Payload is the routing-relevant subset of a token's claims.
type Payload struct {
	Issuer   string
	Subject  string
	IssuedAt time.Time
	Claims   jwt.MapClaims
}

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

func Decode(tok string) (*Payload, error) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: expected at least 2 segments, got %d", domain.ErrDecode, len(parts))
	}

	raw, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload encoding: %v", domain.ErrDecode, err)
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload is not JSON: %v", domain.ErrDecode, err)
	}

	iss, err := claims.GetIssuer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	payload := &Payload{
		Issuer:  iss,
		Subject: subject(claims["sub"]),
		Claims:  claims,
	}

	iat, err := claims.GetIssuedAt()
	if err == nil && iat != nil {
		payload.IssuedAt = iat.Time
	}

	return payload, nil
}

// subject accepts both string and numeric "sub" claims; federated
// instances issue the person id as a number.
func subject(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatInt(int64(s), 10)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}
